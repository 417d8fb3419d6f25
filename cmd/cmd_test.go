package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the configuration reads. Viper treats
// empty variables as unset, so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "REDIS_URL", "REDIS_PREFIX", "DATABASE_URL", "DB_SCHEMA", "SUPABASE_SCHEMA",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "DRAFT_MAX_THREAD_TOKENS",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_OAUTH_REDIRECT_URI",
		"GMAIL_LABEL_WHITELIST", "WEB_APP_URL", "WEB_RAILWAY_URL", "NEXT_PUBLIC_APP_URL",
		"RAILWAY_PUBLIC_DOMAIN", "ALLOWED_ORIGINS", "JOB_STORE", "LOG_LEVEL", "LOG_FORMAT",
		"METRICS_ADDR", "METRICS_ENABLED", "UPSTREAM_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("METRICS_ADDR", ":9200")
	t.Setenv("PORT", "8100")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("metrics-addr", ":9300"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, ":9300", cfg.Metrics.Addr)
	// Unset flags leave the environment in charge.
	assert.Equal(t, "8100", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.JobStore)
}

func TestLoadConfig_InvalidJobStore(t *testing.T) {
	tests := []struct {
		name     string
		jobStore string
		wantErr  string
	}{
		{name: "redis without url", jobStore: "redis", wantErr: "requires REDIS_URL"},
		{name: "unknown store", jobStore: "etcd", wantErr: "invalid job store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cmd := newServeCmd()
			require.NoError(t, cmd.Flags().Set("job-store", tt.jobStore))

			_, err := loadConfig(cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAppAPIDeps_WithoutBackends(t *testing.T) {
	clearEnv(t)
	cmd := newThreadsCmd()
	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	a := &app{cfg: cfg, logger: newLogger(cfg)}
	d := a.apiDeps()

	// Absent backends must stay nil interfaces.
	assert.Nil(t, d.Messages)
	assert.Nil(t, d.Tokens)
	assert.Nil(t, d.OAuth)
	assert.Contains(t, d.AllowedOrigins, "http://localhost:3000")
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Equal(t, "inboxreply version 1.2.3\n", out.String())
}

func TestRootCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "draft", "threads", "version"} {
		assert.True(t, names[want], want)
	}
}
