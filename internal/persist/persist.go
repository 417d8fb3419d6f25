// Package persist writes finished jobs through to the durable store and the
// job KV, and maintains the thread index. Every write is best effort: failures
// come back as a joined error of jobs.SinkError values for the orchestrator
// to log and drop.
package persist

import (
	"context"
	"errors"
	"time"

	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/jobs"
	"github.com/teemow/inboxreply/internal/store/postgres"
)

// MessageWriter upserts durable reply records.
type MessageWriter interface {
	UpsertMessage(ctx context.Context, m postgres.MessageRecord) error
}

// ThreadIndexWriter upserts thread index rows.
type ThreadIndexWriter interface {
	UpsertThread(ctx context.Context, projectID string, t *gmail.NormalizedThread) error
}

// Persister implements jobs.ResultSink. Any of its writers may be nil.
type Persister struct {
	messages MessageWriter
	index    ThreadIndexWriter
	kv       jobs.Store
	now      func() time.Time
}

// New creates a Persister. Pass a nil kv when the orchestrator's own job
// store already is the shared KV.
func New(messages MessageWriter, index ThreadIndexWriter, kv jobs.Store) *Persister {
	return &Persister{messages: messages, index: index, kv: kv, now: time.Now}
}

// PersistResult writes the finished job to the durable store and the job KV.
// Both writes are attempted even when the first fails.
func (p *Persister) PersistResult(ctx context.Context, job *jobs.Job) error {
	if job == nil || job.Result == nil {
		return nil
	}

	ctx, span := instrumentation.StartSpan(ctx, "persist.result", instrumentation.JobAttr(job.ID))
	defer span.End()

	var errs []error
	if p.messages != nil {
		if err := p.messages.UpsertMessage(ctx, Record(job, p.now())); err != nil {
			errs = append(errs, &jobs.SinkError{Sink: instrumentation.SinkDurable, Err: err})
		}
	}
	if p.kv != nil {
		if err := p.kv.Put(ctx, job); err != nil {
			errs = append(errs, &jobs.SinkError{Sink: instrumentation.SinkKV, Err: err})
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	return err
}

// IndexThread upserts the thread's index row.
func (p *Persister) IndexThread(ctx context.Context, projectID string, thread *gmail.NormalizedThread) error {
	if p.index == nil || thread == nil {
		return nil
	}
	if err := p.index.UpsertThread(ctx, projectID, thread); err != nil {
		return &jobs.SinkError{Sink: instrumentation.SinkIndex, Err: err}
	}
	return nil
}

// Record maps a finished job onto its durable row. The job's start time is
// used as created_at so rewrites of the same job keep their position.
func Record(job *jobs.Job, now time.Time) postgres.MessageRecord {
	created := job.StartedAt
	if created.IsZero() {
		created = now
	}
	r := job.Result
	return postgres.MessageRecord{
		ID:         job.ID,
		ProjectID:  r.ProjectID,
		ThreadID:   r.Meta.ThreadID,
		Tone:       r.Meta.Tone,
		Subject:    r.Meta.Subject,
		Text:       r.Text,
		Input:      r.Input,
		Source:     string(r.Source),
		TokenUsage: r.Meta.TokenUsage,
		CreatedAt:  created.UTC(),
	}
}
