package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/teemow/inboxreply/internal/draft"
)

// MinutesSavedPerReply is the time a generated reply is assumed to save.
const MinutesSavedPerReply = 3

// MessageRecord is one generated reply, keyed by job id.
type MessageRecord struct {
	ID         string            `json:"id"`
	ProjectID  string            `json:"projectId"`
	ThreadID   string            `json:"threadId"`
	Tone       string            `json:"tone"`
	Subject    *string           `json:"subject"`
	Text       string            `json:"text"`
	Input      string            `json:"input"`
	Source     string            `json:"source"`
	TokenUsage *draft.TokenUsage `json:"token_usage"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Stats summarizes generated replies.
type Stats struct {
	RepliesGenerated int     `json:"repliesGenerated"`
	SuccessRate      float64 `json:"successRate"`
	AvgDraftLength   int     `json:"avgDraftLength"`
	TimeSavedMinutes int     `json:"timeSavedMinutes"`
	ActiveProjects   int     `json:"activeProjects"`
}

// RecentDraft is a compact view of a reply for dashboards.
type RecentDraft struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Snippet   string    `json:"snippet"`
	ThreadID  string    `json:"threadId"`
	Tone      string    `json:"tone"`
	CreatedAt time.Time `json:"createdAt"`
}

// ComputeStats derives dashboard figures from raw counts. successRate is the
// share of replies drafted by the model, in percent with one decimal.
func ComputeStats(total, modelDrafts int, avgWords float64, activeProjects int) Stats {
	s := Stats{
		RepliesGenerated: total,
		AvgDraftLength:   int(avgWords + 0.5),
		TimeSavedMinutes: total * MinutesSavedPerReply,
		ActiveProjects:   activeProjects,
	}
	if total > 0 {
		rate := float64(modelDrafts) / float64(total) * 100
		s.SuccessRate = float64(int(rate*10+0.5)) / 10
	}
	return s
}

// MessageStore reads and writes generated replies.
type MessageStore struct {
	db *DB
}

// NewMessageStore creates a MessageStore.
func NewMessageStore(db *DB) *MessageStore {
	return &MessageStore{db: db}
}

// UpsertMessage writes a reply; writing the same id twice keeps one row.
func (s *MessageStore) UpsertMessage(ctx context.Context, m MessageRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, thread_id, tone, subject, text, input, source, token_usage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			text        = EXCLUDED.text,
			subject     = EXCLUDED.subject,
			source      = EXCLUDED.source,
			token_usage = EXCLUDED.token_usage`, s.db.table("messages"))

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if _, err := s.db.Pool.Exec(ctx, query,
		m.ID, m.ProjectID, m.ThreadID, m.Tone, m.Subject, m.Text, m.Input, m.Source, m.TokenUsage, createdAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to upsert message %s: %w", m.ID, err)
	}
	return nil
}

// ListMessages returns a project's replies, newest first.
func (s *MessageStore) ListMessages(ctx context.Context, projectID string, limit int) ([]MessageRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, thread_id, tone, subject, text, input, source, token_usage, created_at
		FROM %s
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, s.db.table("messages"))

	rows, err := s.db.Pool.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (MessageRecord, error) {
		var m MessageRecord
		err := row.Scan(&m.ID, &m.ProjectID, &m.ThreadID, &m.Tone, &m.Subject, &m.Text, &m.Input, &m.Source, &m.TokenUsage, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	return items, nil
}

// Stats computes dashboard figures. An empty projectID covers all projects.
func (s *MessageStore) Stats(ctx context.Context, projectID string) (Stats, error) {
	query := fmt.Sprintf(`
		SELECT
			count(*),
			count(*) FILTER (WHERE source = 'model'),
			COALESCE(avg(cardinality(regexp_split_to_array(btrim(text), '\s+'))), 0),
			count(DISTINCT project_id)
		FROM %s
		WHERE $1 = '' OR project_id = $1`, s.db.table("messages"))

	var (
		total, model, projects int
		avgWords               float64
	)
	if err := s.db.Pool.QueryRow(ctx, query, projectID).Scan(&total, &model, &avgWords, &projects); err != nil {
		return Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return ComputeStats(total, model, avgWords, projects), nil
}

// RecentDrafts returns compact views of the latest replies.
func (s *MessageStore) RecentDrafts(ctx context.Context, projectID string, limit int) ([]RecentDraft, error) {
	query := fmt.Sprintf(`
		SELECT id, COALESCE(subject, ''), text, thread_id, tone, created_at
		FROM %s
		WHERE $1 = '' OR project_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, s.db.table("messages"))

	rows, err := s.db.Pool.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent drafts: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecentDraft, error) {
		var (
			d    RecentDraft
			text string
		)
		err := row.Scan(&d.ID, &d.Subject, &text, &d.ThreadID, &d.Tone, &d.CreatedAt)
		d.Snippet = DraftSnippet(text)
		if d.Subject == "" {
			d.Subject = "No Subject"
		}
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent drafts: %w", err)
	}
	return items, nil
}

// DraftSnippet shortens reply text to one line of at most 120 runes.
func DraftSnippet(text string) string {
	runes := []rune(collapseWhitespace(text))
	if len(runes) <= 120 {
		return string(runes)
	}
	return string(runes[:117]) + "..."
}

func collapseWhitespace(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			if !space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		space = false
		out = append(out, r)
	}
	if n := len(out); n > 0 && out[n-1] == ' ' {
		out = out[:n-1]
	}
	return string(out)
}
