package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxreply/internal/config"
	"github.com/teemow/inboxreply/internal/logging"
)

// flagKeys maps command-line flags onto configuration keys. Flags only
// override the environment when explicitly set.
var flagKeys = map[string]string{
	"port":         "server.port",
	"metrics-addr": "metrics.addr",
	"job-store":    "job_store",
	"log-level":    "log.level",
}

// loadConfig reads the environment, .env and config.yaml, then applies the
// flags of cmd that have a configuration key.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes to stderr so stdout stays free for command output and
// the MCP stdio transport.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.WithService(logging.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format), "inboxreply")
}
