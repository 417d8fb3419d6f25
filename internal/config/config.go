// Package config loads service configuration from the environment, an optional
// .env file and an optional config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Job store backends.
const (
	JobStoreMemory = "memory"
	JobStoreRedis  = "redis"
)

// Config is the fully resolved service configuration.
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	DB      DBConfig
	OpenAI  OpenAIConfig
	Google  GoogleConfig
	Gmail   GmailConfig
	Log     LogConfig
	Metrics MetricsConfig

	// JobStore selects where job records live: "memory" or "redis".
	JobStore string

	// UpstreamTimeout bounds every external call made while running a job.
	UpstreamTimeout time.Duration
}

type ServerConfig struct {
	Port           string
	WebAppURL      string
	PublicDomain   string
	AllowedOrigins []string
}

type RedisConfig struct {
	URL    string
	Prefix string
}

type DBConfig struct {
	URL    string
	Schema string
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxThreadTokens int
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Configured reports whether every OAuth client field is present.
func (g GoogleConfig) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURI != ""
}

type GmailConfig struct {
	LabelWhitelist []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// readSecret resolves KEY from the file named by KEY_FILE when KEY itself is unset.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	_ = os.Setenv(envKey, strings.TrimSpace(string(data)))
}

// New returns a viper instance with every key bound to its environment
// variables and defaults applied. Callers may bind command-line flags on
// top of it before calling FromViper.
func New() *viper.Viper {
	// .env is optional and never overrides the real environment
	_ = godotenv.Load()

	for _, key := range []string{"OPENAI_API_KEY", "GOOGLE_CLIENT_SECRET", "DATABASE_URL", "REDIS_URL"} {
		readSecret(key)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("server.web_app_url", "WEB_APP_URL", "WEB_RAILWAY_URL", "NEXT_PUBLIC_APP_URL")
	_ = v.BindEnv("server.public_domain", "RAILWAY_PUBLIC_DOMAIN")
	_ = v.BindEnv("server.allowed_origins", "ALLOWED_ORIGINS")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("redis.prefix", "REDIS_PREFIX")
	_ = v.BindEnv("db.url", "DATABASE_URL")
	_ = v.BindEnv("db.schema", "DB_SCHEMA", "SUPABASE_SCHEMA")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.model", "OPENAI_MODEL")
	_ = v.BindEnv("openai.max_thread_tokens", "DRAFT_MAX_THREAD_TOKENS")
	_ = v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	_ = v.BindEnv("google.redirect_uri", "GOOGLE_OAUTH_REDIRECT_URI")
	_ = v.BindEnv("gmail.label_whitelist", "GMAIL_LABEL_WHITELIST")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")
	_ = v.BindEnv("metrics.enabled", "METRICS_ENABLED")
	_ = v.BindEnv("metrics.addr", "METRICS_ADDR")
	_ = v.BindEnv("job_store", "JOB_STORE")
	_ = v.BindEnv("upstream_timeout", "UPSTREAM_TIMEOUT")

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.web_app_url", "http://localhost:3000")
	v.SetDefault("redis.prefix", "emailreply")
	v.SetDefault("db.schema", "emailreply")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_thread_tokens", 6000)
	v.SetDefault("gmail.label_whitelist", "INBOX")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("job_store", JobStoreMemory)
	v.SetDefault("upstream_timeout", 8*time.Second)

	_ = v.ReadInConfig()

	return v
}

// Load builds the configuration from the environment and validates it.
func Load() (*Config, error) {
	return FromViper(New())
}

// FromViper materializes a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("server.port"),
			WebAppURL:      withScheme(v.GetString("server.web_app_url")),
			PublicDomain:   v.GetString("server.public_domain"),
			AllowedOrigins: SplitList(v.GetString("server.allowed_origins")),
		},
		Redis: RedisConfig{
			URL:    v.GetString("redis.url"),
			Prefix: v.GetString("redis.prefix"),
		},
		DB: DBConfig{
			URL:    v.GetString("db.url"),
			Schema: v.GetString("db.schema"),
		},
		OpenAI: OpenAIConfig{
			APIKey:          v.GetString("openai.api_key"),
			BaseURL:         v.GetString("openai.base_url"),
			Model:           v.GetString("openai.model"),
			MaxThreadTokens: v.GetInt("openai.max_thread_tokens"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			RedirectURI:  v.GetString("google.redirect_uri"),
		},
		Gmail: GmailConfig{
			LabelWhitelist: SplitList(v.GetString("gmail.label_whitelist")),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Addr:    v.GetString("metrics.addr"),
		},
		JobStore:        strings.ToLower(v.GetString("job_store")),
		UpstreamTimeout: v.GetDuration("upstream_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.JobStore {
	case JobStoreMemory:
	case JobStoreRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("job store \"redis\" requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid job store %q, must be one of: memory, redis", c.JobStore))
	}

	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout))
	}
	if c.OpenAI.MaxThreadTokens <= 0 {
		errs = append(errs, fmt.Errorf("draft thread token budget must be positive, got %d", c.OpenAI.MaxThreadTokens))
	}

	g := c.Google
	if (g.ClientID != "" || g.ClientSecret != "" || g.RedirectURI != "") && !g.Configured() {
		errs = append(errs, errors.New("google oauth requires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_OAUTH_REDIRECT_URI together"))
	}

	return errors.Join(errs...)
}

// PrimaryLabel is the first whitelisted Gmail label, INBOX when none is set.
func (c *Config) PrimaryLabel() string {
	if len(c.Gmail.LabelWhitelist) == 0 {
		return "INBOX"
	}
	return c.Gmail.LabelWhitelist[0]
}

// CORSOrigins lists the browser origins allowed to call the API.
func (c *Config) CORSOrigins() []string {
	origins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	if c.Server.PublicDomain != "" {
		origins = append(origins, "https://"+c.Server.PublicDomain)
	}
	candidates := append([]string{c.Server.WebAppURL}, c.Server.AllowedOrigins...)
	for _, origin := range candidates {
		origin = withScheme(origin)
		if origin == "" || contains(origins, origin) {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

// SplitList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func withScheme(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" || strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		return origin
	}
	return "https://" + origin
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
