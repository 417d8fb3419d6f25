// Package postgres is the durable store: OAuth credentials, generated
// replies, and the Gmail thread index, all inside one configurable schema.
package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the schema used when none is configured.
const DefaultSchema = "emailreply"

var schemaName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// DB holds the connection pool and the schema every table lives in.
type DB struct {
	Pool   *pgxpool.Pool
	schema string
}

// ValidateSchema rejects schema names that are not plain lowercase identifiers.
func ValidateSchema(schema string) error {
	if !schemaName.MatchString(schema) {
		return fmt.Errorf("invalid schema name %q", schema)
	}
	return nil
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url, schema string) (*DB, error) {
	if schema == "" {
		schema = DefaultSchema
	}
	if err := ValidateSchema(schema); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{Pool: pool, schema: schema}, nil
}

// Close closes the pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping checks connectivity, for readiness probes.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// table returns the sanitized, schema-qualified name of a table.
func (db *DB) table(name string) string {
	return pgx.Identifier{db.schema, name}.Sanitize()
}

// Migrate creates the schema and tables when they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{db.schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			project_id    TEXT        NOT NULL,
			provider      TEXT        NOT NULL,
			access_token  TEXT        NOT NULL,
			refresh_token TEXT,
			expires_at    TIMESTAMPTZ,
			scopes        TEXT[]      NOT NULL DEFAULT '{}',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (project_id, provider)
		)`, db.table("oauth_tokens")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY,
			project_id  TEXT        NOT NULL,
			thread_id   TEXT        NOT NULL,
			tone        TEXT        NOT NULL,
			subject     TEXT,
			text        TEXT        NOT NULL,
			input       TEXT        NOT NULL DEFAULT '',
			source      TEXT        NOT NULL,
			token_usage JSONB,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, db.table("messages")),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS messages_project_created_idx ON %s (project_id, created_at DESC)`,
			db.table("messages")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			project_id   TEXT        NOT NULL,
			thread_id    TEXT        NOT NULL,
			subject      TEXT,
			participants TEXT[]      NOT NULL DEFAULT '{}',
			snippet      TEXT        NOT NULL DEFAULT '',
			updated_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (project_id, thread_id)
		)`, db.table("gmail_threads")),
	}

	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
