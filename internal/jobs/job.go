package jobs

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/inboxreply/internal/draft"
)

// Status is a job's lifecycle state. Transitions are monotonic:
// queued moves to done or failed and never back.
type Status string

const (
	StatusQueued Status = "queued"
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// ResultMeta is the metadata envelope of a finished job.
type ResultMeta struct {
	ThreadID     string            `json:"threadId"`
	Tone         string            `json:"tone"`
	Subject      *string           `json:"subject"`
	Participants []string          `json:"participants"`
	TokenUsage   *draft.TokenUsage `json:"token_usage"`
}

// ResultPayload is what a client receives for a finished job.
type ResultPayload struct {
	Text      string     `json:"text"`
	Meta      ResultMeta `json:"meta"`
	ProjectID string     `json:"projectId"`
	Input     string     `json:"input"`

	// Source is kept for durable records and not sent to clients.
	Source draft.Source `json:"-"`
}

// Job is one execution of the run pipeline. Result is set iff Status is done.
type Job struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	Result    *ResultPayload `json:"result"`
	StartedAt time.Time      `json:"started_at"`
}

// NewID returns a random 128-bit (UUIDv4) job identifier.
func NewID() string {
	return uuid.New().String()
}

// clone returns a deep copy of j so stored jobs share no memory with callers.
func (j *Job) clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.Result != nil {
		r := *j.Result
		r.Meta.Participants = slices.Clone(j.Result.Meta.Participants)
		if j.Result.Meta.Subject != nil {
			subject := *j.Result.Meta.Subject
			r.Meta.Subject = &subject
		}
		if j.Result.Meta.TokenUsage != nil {
			usage := *j.Result.Meta.TokenUsage
			r.Meta.TokenUsage = &usage
		}
		out.Result = &r
	}
	return &out
}
