package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teemow/inboxreply/internal/credential"
	"github.com/teemow/inboxreply/internal/draft"
	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/logging"
)

// CredentialResolver resolves a project's credential.
type CredentialResolver interface {
	Resolve(ctx context.Context, projectID string) credential.Resolution
}

// Mailbox reads and writes Gmail threads with a resolved credential.
type Mailbox interface {
	FetchAndNormalize(ctx context.Context, threadID string, cred *credential.Credential) *gmail.NormalizedThread
	ListThreads(ctx context.Context, cred *credential.Credential, label string, maxResults int) []gmail.ThreadSummary
	SendReply(ctx context.Context, cred *credential.Credential, threadID, text string) (gmail.SentMessage, error)
}

// ThreadCache fronts the mailbox for thread fetches.
type ThreadCache interface {
	GetOrFetch(ctx context.Context, threadID string, fetch func(ctx context.Context) *gmail.NormalizedThread) *gmail.NormalizedThread
}

// Drafter produces a model draft or an error.
type Drafter interface {
	TryGenerate(ctx context.Context, req draft.Request) (draft.Result, error)
}

// ResultSink receives best-effort writes. Returned errors are logged and
// dropped by the orchestrator.
type ResultSink interface {
	PersistResult(ctx context.Context, job *Job) error
	IndexThread(ctx context.Context, projectID string, thread *gmail.NormalizedThread) error
}

// Deps are the collaborators of an Orchestrator. Cache, Drafter and Sink
// are optional.
type Deps struct {
	Store    Store
	Resolver CredentialResolver
	Mailbox  Mailbox
	Cache    ThreadCache
	Drafter  Drafter
	Sink     ResultSink
	Label    string
	Logger   *slog.Logger
	Metrics  *instrumentation.Metrics
	Now      func() time.Time
	NewID    func() string
}

// Orchestrator runs the reply pipeline: resolve credential, fetch thread
// through the cache, draft, persist, and record the job.
type Orchestrator struct {
	store    Store
	resolver CredentialResolver
	mailbox  Mailbox
	cache    ThreadCache
	drafter  Drafter
	sink     ResultSink
	label    string
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	now      func() time.Time
	newID    func() string
}

// New creates an Orchestrator.
func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		store:    d.Store,
		resolver: d.Resolver,
		mailbox:  d.Mailbox,
		cache:    d.Cache,
		drafter:  d.Drafter,
		sink:     d.Sink,
		label:    d.Label,
		logger:   d.Logger,
		metrics:  d.Metrics,
		now:      d.Now,
		newID:    d.NewID,
	}
	if o.store == nil {
		o.store = NewMemoryStore()
	}
	if o.label == "" {
		o.label = "INBOX"
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = NewID
	}
	return o
}

// Run validates req, executes the pipeline synchronously and returns the id
// of the finished job. Only invalid requests and job store failures are
// returned as errors; every downstream failure degrades the draft instead.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (string, error) {
	start := o.now()

	req, err := req.normalize()
	if err != nil {
		o.metrics.RecordJob(ctx, instrumentation.JobStatusRejected, req.ProjectID, 0)
		return "", err
	}

	jobID := o.newID()
	ctx, span := instrumentation.StartSpan(ctx, "jobs.run",
		instrumentation.JobAttr(jobID),
		instrumentation.ProjectAttr(req.ProjectID),
		instrumentation.ThreadAttr(req.Meta.ThreadID))
	defer span.End()

	log := logging.WithJob(o.logger, jobID, req.ProjectID).With(logging.Thread(req.Meta.ThreadID))

	job := &Job{ID: jobID, Status: StatusQueued, StartedAt: start.UTC()}
	if err := o.store.Put(ctx, job); err != nil {
		instrumentation.SetSpanError(span, err)
		return "", err
	}

	controls := req.Controls()
	res := o.resolve(ctx, req.ProjectID)
	thread := o.fetch(ctx, log, req.ProjectID, req.Meta.ThreadID, res.Credential)
	result := o.draft(ctx, log, draft.Request{
		ThreadText:   thread.Text(),
		Subject:      thread.Subject,
		Participants: thread.Participants,
		Input:        req.Input,
		Controls:     controls,
	})

	job.Status = StatusDone
	job.Result = &ResultPayload{
		Text: result.Text,
		Meta: ResultMeta{
			ThreadID:     req.Meta.ThreadID,
			Tone:         string(controls.Tone),
			Subject:      result.Meta.Subject,
			Participants: result.Meta.Participants,
			TokenUsage:   result.Meta.TokenUsage,
		},
		ProjectID: req.ProjectID,
		Input:     req.Input,
		Source:    result.Source,
	}

	if o.sink != nil {
		o.discard(ctx, log, "persist.result", o.sink.PersistResult(ctx, job))
	}

	if err := o.store.Put(ctx, job); err != nil {
		instrumentation.SetSpanError(span, err)
		o.markFailed(ctx, log, job, start)
		return "", err
	}

	elapsed := o.now().Sub(start)
	o.metrics.RecordJob(ctx, instrumentation.JobStatusDone, req.ProjectID, elapsed)
	instrumentation.SetSpanSuccess(span)
	log.Info("job finished",
		logging.Status(string(StatusDone)),
		"draft_source", string(result.Source),
		"credential", string(res.Reason),
		logging.KeyDuration, elapsed)

	return jobID, nil
}

// markFailed records a terminal failed state for a job whose result could not
// be stored, so the queued record does not linger. Failures here are logged.
func (o *Orchestrator) markFailed(ctx context.Context, log *slog.Logger, job *Job, start time.Time) {
	failed := &Job{ID: job.ID, Status: StatusFailed, StartedAt: job.StartedAt}
	if err := o.store.Put(ctx, failed); err != nil {
		log.Warn("failed to record failed job", logging.Err(err))
	}
	o.metrics.RecordJob(ctx, instrumentation.JobStatusFailed, job.Result.ProjectID, o.now().Sub(start))
	log.Error("job result could not be stored", logging.Status(string(StatusFailed)))
}

// Get returns the job or ErrNotFound.
func (o *Orchestrator) Get(ctx context.Context, id string) (*Job, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	return o.store.Get(ctx, id)
}

// ListThreads lists the project's recent threads in the configured label.
// It returns an empty list when the project has no usable credential.
func (o *Orchestrator) ListThreads(ctx context.Context, projectID string, maxResults int) []gmail.ThreadSummary {
	if projectID == "" {
		projectID = DefaultProjectID
	}
	res := o.resolve(ctx, projectID)
	return o.mailbox.ListThreads(ctx, res.Credential, o.label, maxResults)
}

// SendReply sends text as a reply in the project's thread.
func (o *Orchestrator) SendReply(ctx context.Context, projectID, threadID, text string) (gmail.SentMessage, error) {
	if projectID == "" {
		projectID = DefaultProjectID
	}
	if threadID == "" {
		return gmail.SentMessage{}, &RequestError{Detail: "threadId is required"}
	}
	if text == "" {
		return gmail.SentMessage{}, &RequestError{Detail: "text is required"}
	}

	res := o.resolve(ctx, projectID)
	if res.Absent() {
		return gmail.SentMessage{}, ErrUnauthenticated
	}
	return o.mailbox.SendReply(ctx, res.Credential, threadID, text)
}

func (o *Orchestrator) resolve(ctx context.Context, projectID string) credential.Resolution {
	if o.resolver == nil {
		return credential.Resolution{Reason: credential.ReasonNotConnected}
	}
	return o.resolver.Resolve(ctx, projectID)
}

// fetch loads the thread through the cache. The thread index is written on
// upstream fetches only.
func (o *Orchestrator) fetch(ctx context.Context, log *slog.Logger, projectID, threadID string, cred *credential.Credential) *gmail.NormalizedThread {
	fetch := func(ctx context.Context) *gmail.NormalizedThread {
		thread := o.mailbox.FetchAndNormalize(ctx, threadID, cred)
		if o.sink != nil && cred != nil {
			o.discard(ctx, log, "persist.thread_index", o.sink.IndexThread(ctx, projectID, thread))
		}
		return thread
	}

	var thread *gmail.NormalizedThread
	if o.cache != nil {
		thread = o.cache.GetOrFetch(ctx, threadID, fetch)
	} else {
		thread = fetch(ctx)
	}
	if thread == nil {
		thread = gmail.Placeholder(threadID, gmail.NoReadableContent, o.now())
	}
	return thread
}

// draft picks the model draft when available, otherwise the template.
func (o *Orchestrator) draft(ctx context.Context, log *slog.Logger, req draft.Request) draft.Result {
	if o.drafter != nil {
		result, err := o.drafter.TryGenerate(ctx, req)
		if err == nil {
			o.metrics.RecordDraft(ctx, instrumentation.DraftSourceModel)
			return result
		}
		if errors.Is(err, draft.ErrBackendUnavailable) {
			log.Debug("no generative backend configured, using template")
		} else {
			log.Warn("model draft failed, using template", logging.Err(err))
		}
	}
	o.metrics.RecordDraft(ctx, instrumentation.DraftSourceTemplate)
	return draft.TemplateFallback(req)
}

// discard is the single place where best-effort write failures are dropped.
func (o *Orchestrator) discard(ctx context.Context, log *slog.Logger, op string, err error) {
	for _, se := range sinkErrors(err, op) {
		o.metrics.RecordPersistenceFailure(ctx, se.Sink)
		log.Warn("best-effort write failed",
			logging.Operation(op),
			"sink", se.Sink,
			logging.Err(se.Err))
	}
}
