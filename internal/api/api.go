// Package api is the HTTP surface of the service, built on fiber.
//
// Routes:
//
//	GET  /jobs/health                   liveness for the job API
//	POST /agent/run                     run a reply job, returns {"jobId"}
//	GET  /jobs/:id                      poll a job
//	GET  /threads                       list recent threads
//	GET  /messages                      list generated replies
//	POST /messages/send                 send a reply into a thread
//	GET  /auth/google                   start the Gmail OAuth flow
//	GET  /auth/callback                 finish it and store the credential
//	GET  /auth/status                   connection state of a project
//	GET  /dashboard/stats               reply statistics
//	GET  /dashboard/recent-drafts       latest replies
//	GET  /healthz, /readyz, /healthz/detailed
//	ANY  /mcp                           MCP streamable HTTP
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/oauth2"

	"github.com/teemow/inboxreply/internal/credential"
	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/jobs"
	"github.com/teemow/inboxreply/internal/server"
	"github.com/teemow/inboxreply/internal/store/postgres"
)

// Jobs runs and looks up reply jobs and proxies mailbox operations.
type Jobs interface {
	Run(ctx context.Context, req jobs.RunRequest) (string, error)
	Get(ctx context.Context, id string) (*jobs.Job, error)
	ListThreads(ctx context.Context, projectID string, maxResults int) []gmail.ThreadSummary
	SendReply(ctx context.Context, projectID, threadID, text string) (gmail.SentMessage, error)
}

// Messages reads durable reply records.
type Messages interface {
	ListMessages(ctx context.Context, projectID string, limit int) ([]postgres.MessageRecord, error)
	Stats(ctx context.Context, projectID string) (postgres.Stats, error)
	RecentDrafts(ctx context.Context, projectID string, limit int) ([]postgres.RecentDraft, error)
}

// OAuthFlow is the Google authorization code flow.
type OAuthFlow interface {
	AuthURL(projectID, redirectTo string) (url, state string)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// CredentialStatus reports a project's connection state.
type CredentialStatus interface {
	Status(ctx context.Context, projectID string) (credential.Status, error)
}

// Deps are the collaborators of the HTTP surface. Only Jobs is required;
// missing optional parts make their routes degrade as documented per route.
type Deps struct {
	Jobs        Jobs
	Messages    Messages
	OAuth       OAuthFlow
	Credentials CredentialStatus
	Tokens      credential.Writer
	Health      *server.HealthChecker
	MCP         http.Handler

	// WebAppURL is where the OAuth callback lands when no redirect was requested.
	WebAppURL      string
	AllowedOrigins []string

	Logger    *slog.Logger
	Metrics   *instrumentation.Metrics
	AccessLog io.Writer
}

type handler struct {
	jobs        Jobs
	messages    Messages
	oauth       OAuthFlow
	credentials CredentialStatus
	tokens      credential.Writer
	webAppURL   string
	origins     []string
	logger      *slog.Logger
}

// New builds the fiber application.
func New(d Deps) *fiber.App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.AccessLog == nil {
		d.AccessLog = os.Stderr
	}

	h := &handler{
		jobs:        d.Jobs,
		messages:    d.Messages,
		oauth:       d.OAuth,
		credentials: d.Credentials,
		tokens:      d.Tokens,
		webAppURL:   strings.TrimRight(d.WebAppURL, "/"),
		origins:     d.AllowedOrigins,
		logger:      d.Logger.With("component", "api"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "inboxreply",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		// Runs block on upstream calls for up to a few timeouts.
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Output: d.AccessLog,
	}))
	if len(d.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(d.AllowedOrigins, ","),
			AllowMethods:     "GET,POST,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
			AllowCredentials: true,
		}))
	}
	app.Use(httpMetrics(d.Metrics))

	app.Get("/jobs/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/agent/run", h.run)
	app.Get("/jobs/:id", h.getJob)
	app.Get("/threads", h.listThreads)
	app.Get("/messages", h.listMessages)
	app.Post("/messages/send", h.sendMessage)

	auth := app.Group("/auth")
	auth.Get("/google", h.authStart)
	auth.Get("/callback", h.authCallback)
	auth.Get("/status", h.authStatus)

	dashboard := app.Group("/dashboard")
	dashboard.Get("/stats", h.dashboardStats)
	dashboard.Get("/recent-drafts", h.recentDrafts)

	if d.Health != nil {
		app.Get("/healthz", adaptor.HTTPHandler(d.Health.LivenessHandler()))
		app.Get("/readyz", adaptor.HTTPHandler(d.Health.ReadinessHandler()))
		app.Get("/healthz/detailed", adaptor.HTTPHandler(d.Health.DetailedHealthHandler()))
	}
	if d.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(d.MCP))
	}

	return app
}

// projectID reads the project from either query spelling, defaulting it.
func projectID(c *fiber.Ctx) string {
	p := strings.TrimSpace(c.Query("projectId", c.Query("project_id")))
	if p == "" {
		return jobs.DefaultProjectID
	}
	return p
}

// httpMetrics records request count and latency per matched route.
func httpMetrics(m *instrumentation.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		m.RecordHTTPRequest(c.UserContext(), c.Method(), instrumentation.RouteLabel(c.Route().Path), status, time.Since(start))
		return err
	}
}
