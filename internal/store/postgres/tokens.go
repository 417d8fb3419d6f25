package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teemow/inboxreply/internal/credential"
)

// TokenStore reads and writes OAuth credentials in oauth_tokens.
type TokenStore struct {
	db *DB
}

// NewTokenStore creates a TokenStore.
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db}
}

// Lookup returns the project's record for provider, or nil when none exists.
func (s *TokenStore) Lookup(ctx context.Context, projectID, provider string) (*credential.Record, error) {
	query := fmt.Sprintf(`
		SELECT project_id, provider, access_token, COALESCE(refresh_token, ''), expires_at, scopes
		FROM %s
		WHERE project_id = $1 AND provider = $2`, s.db.table("oauth_tokens"))

	var (
		rec       credential.Record
		expiresAt *time.Time
	)
	err := s.db.Pool.QueryRow(ctx, query, projectID, provider).Scan(
		&rec.ProjectID,
		&rec.Provider,
		&rec.AccessToken,
		&rec.RefreshToken,
		&expiresAt,
		&rec.Scopes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	if expiresAt != nil {
		utc := credential.NormalizeUTC(*expiresAt)
		rec.ExpiresAt = &utc
	}
	return &rec, nil
}

// Upsert inserts or replaces the record for (project, provider). An empty
// refresh token keeps the stored one.
func (s *TokenStore) Upsert(ctx context.Context, rec credential.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s AS t (project_id, provider, access_token, refresh_token, expires_at, scopes, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, now())
		ON CONFLICT (project_id, provider) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, t.refresh_token),
			expires_at    = EXCLUDED.expires_at,
			scopes        = EXCLUDED.scopes,
			updated_at    = now()`, s.db.table("oauth_tokens"))

	var expiresAt *time.Time
	if rec.ExpiresAt != nil {
		utc := credential.NormalizeUTC(*rec.ExpiresAt)
		expiresAt = &utc
	}
	scopes := rec.Scopes
	if scopes == nil {
		scopes = []string{}
	}
	provider := rec.Provider
	if provider == "" {
		provider = credential.ProviderGoogle
	}

	if _, err := s.db.Pool.Exec(ctx, query,
		rec.ProjectID, provider, rec.AccessToken, rec.RefreshToken, expiresAt, scopes,
	); err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}
	return nil
}
