// Package logging provides structured logging utilities for the inboxreply service.
//
// All packages log through log/slog. This package keeps attribute names consistent
// (project, thread, job, operation) and makes sure credentials and mail addresses
// never reach the log output in clear text.
//
// # Usage Patterns
//
// Build the process logger once at startup:
//
//	logger := logging.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
//	slog.SetDefault(logger)
//
// Scope a logger to a job run:
//
//	log := logging.WithJob(logger, jobID, projectID)
//	log.Info("draft ready", logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	log.Debug("credential resolved", "token", logging.SanitizeToken(tok))
package logging
