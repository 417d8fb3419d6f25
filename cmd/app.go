package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/teemow/inboxreply/internal/api"
	"github.com/teemow/inboxreply/internal/cache"
	"github.com/teemow/inboxreply/internal/config"
	"github.com/teemow/inboxreply/internal/credential"
	"github.com/teemow/inboxreply/internal/draft"
	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/google"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/jobs"
	"github.com/teemow/inboxreply/internal/persist"
	"github.com/teemow/inboxreply/internal/server"
	"github.com/teemow/inboxreply/internal/store/postgres"
)

// app holds every wired component. Optional backends are nil when their
// configuration is absent.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	db    *postgres.DB
	redis *redis.Client

	tokens   *postgres.TokenStore
	messages *postgres.MessageStore
	resolver *credential.Resolver
	flow     *google.Flow
	orch     *jobs.Orchestrator
	health   *server.HealthChecker
}

// newApp connects the configured backends and builds the orchestrator.
// A configured but unreachable database is fatal. An unreachable Redis is
// fatal only when it holds the job store; otherwise the thread cache and
// job KV are skipped.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics, health: server.NewHealthChecker()}

	if cfg.DB.URL != "" {
		db, err := postgres.Connect(ctx, cfg.DB.URL, cfg.DB.Schema)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := db.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
		a.tokens = postgres.NewTokenStore(db)
		a.messages = postgres.NewMessageStore(db)
		a.health.AddCheck("postgres", true, db.Ping)
	} else {
		logger.Warn("DATABASE_URL not set, credentials and replies are not persisted")
	}

	if cfg.Redis.URL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.URL)
		switch {
		case err == nil:
			a.redis = rdb
			a.health.AddCheck("redis", cfg.JobStore == config.JobStoreRedis, func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			})
		case cfg.JobStore == config.JobStoreRedis:
			a.close()
			return nil, fmt.Errorf("job store unavailable: %w", err)
		default:
			logger.Warn("redis unavailable, running without thread cache", "error", err)
		}
	}

	if cfg.Google.Configured() {
		flow, err := google.NewFlow(cfg.Google)
		if err != nil {
			a.close()
			return nil, err
		}
		a.flow = flow
	}

	var credStore credential.Store
	if a.tokens != nil {
		credStore = a.tokens
	}
	a.resolver = credential.NewResolver(credStore,
		credential.WithLogger(logger),
		credential.WithMetrics(metrics))

	mailbox := gmail.NewService(
		gmail.NewDialer(cfg.UpstreamTimeout, metrics),
		gmail.WithLogger(logger),
		gmail.WithTimeout(cfg.UpstreamTimeout))

	var gen draft.Generator
	if g, err := draft.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model); err == nil {
		gen = g
	} else if errors.Is(err, draft.ErrBackendUnavailable) {
		logger.Warn("OPENAI_API_KEY not set, replies use the template")
	}
	engine := draft.NewEngine(gen, draft.NewTrimmer(cfg.OpenAI.MaxThreadTokens, logger), cfg.UpstreamTimeout, logger, metrics)

	deps := jobs.Deps{
		Resolver: a.resolver,
		Mailbox:  mailbox,
		Drafter:  engine,
		Label:    cfg.PrimaryLabel(),
		Logger:   logger,
		Metrics:  metrics,
	}

	var kv jobs.Store
	if a.redis != nil {
		deps.Cache = cache.NewThreadCache(cache.NewRedisBackend(a.redis), cfg.Redis.Prefix, logger, metrics)
		redisJobs := jobs.NewRedisStore(a.redis, cfg.Redis.Prefix)
		if cfg.JobStore == config.JobStoreRedis {
			deps.Store = redisJobs
		} else {
			kv = redisJobs
		}
	}

	var (
		messageWriter persist.MessageWriter
		indexWriter   persist.ThreadIndexWriter
	)
	if a.db != nil {
		messageWriter = a.messages
		indexWriter = postgres.NewThreadIndexStore(a.db)
	}
	deps.Sink = persist.New(messageWriter, indexWriter, kv)

	a.orch = jobs.New(deps)
	return a, nil
}

// apiDeps maps the wired components onto the HTTP surface. Absent
// backends stay nil interfaces so the routes degrade instead of panicking.
func (a *app) apiDeps() api.Deps {
	d := api.Deps{
		Jobs:           a.orch,
		Credentials:    a.resolver,
		Health:         a.health,
		WebAppURL:      a.cfg.Server.WebAppURL,
		AllowedOrigins: a.cfg.CORSOrigins(),
		Logger:         a.logger,
		Metrics:        a.metrics,
	}
	if a.messages != nil {
		d.Messages = a.messages
	}
	if a.tokens != nil {
		d.Tokens = a.tokens
	}
	if a.flow != nil {
		d.OAuth = a.flow
	}
	return d
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
