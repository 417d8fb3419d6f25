package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "emailreply", cfg.Redis.Prefix)
	assert.Equal(t, "emailreply", cfg.DB.Schema)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 6000, cfg.OpenAI.MaxThreadTokens)
	assert.Equal(t, JobStoreMemory, cfg.JobStore)
	assert.Equal(t, 8*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "INBOX", cfg.PrimaryLabel())
	assert.False(t, cfg.Google.Configured())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("REDIS_PREFIX", "staging")
	t.Setenv("GMAIL_LABEL_WHITELIST", " IMPORTANT , INBOX")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("JOB_STORE", "REDIS")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("WEB_RAILWAY_URL", "web.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, "staging", cfg.Redis.Prefix)
	assert.Equal(t, "IMPORTANT", cfg.PrimaryLabel())
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, JobStoreRedis, cfg.JobStore)
	assert.Equal(t, "https://web.example.com", cfg.Server.WebAppURL)
}

func TestLoad_SecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openai")
	require.NoError(t, os.WriteFile(path, []byte("sk-from-file\n"), 0o600))

	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.OpenAI.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JobStore:        JobStoreMemory,
			UpstreamTimeout: time.Second,
			OpenAI:          OpenAIConfig{MaxThreadTokens: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown job store", func(c *Config) { c.JobStore = "etcd" }, "invalid job store"},
		{"redis store without url", func(c *Config) { c.JobStore = JobStoreRedis }, "requires REDIS_URL"},
		{"redis store with url", func(c *Config) {
			c.JobStore = JobStoreRedis
			c.Redis.URL = "redis://localhost:6379"
		}, ""},
		{"zero timeout", func(c *Config) { c.UpstreamTimeout = 0 }, "upstream timeout"},
		{"zero token budget", func(c *Config) { c.OpenAI.MaxThreadTokens = 0 }, "token budget"},
		{"partial google oauth", func(c *Config) { c.Google.ClientID = "id" }, "google oauth"},
		{"complete google oauth", func(c *Config) {
			c.Google = GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCORSOrigins(t *testing.T) {
	cfg := &Config{Server: ServerConfig{
		WebAppURL:      "https://app.example.com",
		PublicDomain:   "api.up.railway.app",
		AllowedOrigins: []string{"preview.vercel.app", "https://app.example.com"},
	}}

	assert.Equal(t, []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
		"https://api.up.railway.app",
		"https://app.example.com",
		"https://preview.vercel.app",
	}, cfg.CORSOrigins())
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single value", "INBOX", []string{"INBOX"}},
		{"multiple values", "INBOX,IMPORTANT", []string{"INBOX", "IMPORTANT"}},
		{"values with spaces around comma", "INBOX, IMPORTANT", []string{"INBOX", "IMPORTANT"}},
		{"trailing comma", "INBOX,IMPORTANT,", []string{"INBOX", "IMPORTANT"}},
		{"leading comma", ",INBOX", []string{"INBOX"}},
		{"multiple consecutive commas", "INBOX,,IMPORTANT", []string{"INBOX", "IMPORTANT"}},
		{"only commas", ",,,", nil},
		{"only whitespace", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SplitList(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("SplitList(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
