package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/inboxreply/internal/gmail"
)

// ThreadIndexStore maintains the gmail_threads index.
type ThreadIndexStore struct {
	db *DB
}

// NewThreadIndexStore creates a ThreadIndexStore.
func NewThreadIndexStore(db *DB) *ThreadIndexStore {
	return &ThreadIndexStore{db: db}
}

// UpsertThread records a thread's subject, participants and snippet.
func (s *ThreadIndexStore) UpsertThread(ctx context.Context, projectID string, t *gmail.NormalizedThread) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, thread_id, subject, participants, snippet, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id, thread_id) DO UPDATE SET
			subject      = EXCLUDED.subject,
			participants = EXCLUDED.participants,
			snippet      = EXCLUDED.snippet,
			updated_at   = EXCLUDED.updated_at`, s.db.table("gmail_threads"))

	participants := t.Participants
	if participants == nil {
		participants = []string{}
	}
	if _, err := s.db.Pool.Exec(ctx, query,
		projectID, t.ID, t.Subject, participants, t.Snippet, time.Unix(t.UpdatedAt, 0).UTC(),
	); err != nil {
		return fmt.Errorf("failed to upsert thread index %s: %w", t.ID, err)
	}
	return nil
}
