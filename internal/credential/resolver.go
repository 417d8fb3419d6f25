package credential

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/logging"
)

// Reason explains a resolution outcome.
type Reason string

const (
	ReasonValid        Reason = "valid"
	ReasonNotConnected Reason = "absent"
	ReasonExpired      Reason = "expired"
	ReasonUnavailable  Reason = "error"
)

// Resolution is the outcome of Resolve. Credential is nil when absent;
// Reason tells callers why, so expired and never-connected projects can be
// told apart without changing the pipeline's behavior.
type Resolution struct {
	Credential *Credential
	Reason     Reason
}

// Absent reports whether no usable credential was found.
func (r Resolution) Absent() bool {
	return r.Credential == nil
}

// Err maps an absent resolution to its sentinel error, nil when usable.
func (r Resolution) Err() error {
	switch r.Reason {
	case ReasonValid:
		return nil
	case ReasonExpired:
		return ErrExpired
	case ReasonUnavailable:
		return ErrUnavailable
	default:
		return ErrNotConnected
	}
}

// Status describes a project's connection state.
type Status struct {
	Connected bool
	Expired   bool
	Scopes    []string
	ExpiresAt *time.Time
}

// Resolver resolves project credentials from a Store. It never writes.
type Resolver struct {
	store   Store
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver. A nil store resolves every project as absent.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the project's usable credential or an absent resolution.
// Storage failures are logged and reported as absent.
func (r *Resolver) Resolve(ctx context.Context, projectID string) Resolution {
	ctx, span := instrumentation.StartSpan(ctx, "credential.resolve", instrumentation.ProjectAttr(projectID))
	defer span.End()

	res := r.resolve(ctx, projectID)
	r.metrics.RecordCredentialResolution(ctx, string(res.Reason))
	if res.Reason == ReasonUnavailable {
		instrumentation.SetSpanError(span, res.Err())
	}
	return res
}

func (r *Resolver) resolve(ctx context.Context, projectID string) Resolution {
	log := logging.WithOperation(r.logger, "credential.resolve").With(logging.Project(projectID))

	if r.store == nil {
		return Resolution{Reason: ReasonNotConnected}
	}

	rec, err := r.store.Lookup(ctx, projectID, ProviderGoogle)
	if err != nil {
		log.Warn("credential lookup failed, continuing without credential", logging.Err(err))
		return Resolution{Reason: ReasonUnavailable}
	}
	if rec == nil || rec.AccessToken == "" {
		log.Debug("no credential stored")
		return Resolution{Reason: ReasonNotConnected}
	}

	now := r.now()
	if !rec.Usable(now) {
		log.Info("stored credential expired",
			"expires_at", NormalizeUTC(*rec.ExpiresAt).Format(time.RFC3339),
			"now", NormalizeUTC(now).Format(time.RFC3339))
		return Resolution{Reason: ReasonExpired}
	}

	var expiresAt *time.Time
	if rec.ExpiresAt != nil {
		utc := NormalizeUTC(*rec.ExpiresAt)
		expiresAt = &utc
	}
	log.Debug("credential resolved", "token", logging.SanitizeToken(rec.AccessToken))
	return Resolution{
		Credential: &Credential{AccessToken: rec.AccessToken, ExpiresAt: expiresAt},
		Reason:     ReasonValid,
	}
}

// Status reports whether the project has connected the provider and whether
// the stored credential has expired.
func (r *Resolver) Status(ctx context.Context, projectID string) (Status, error) {
	if r.store == nil {
		return Status{}, nil
	}

	rec, err := r.store.Lookup(ctx, projectID, ProviderGoogle)
	if err != nil {
		return Status{}, err
	}
	if rec == nil || rec.AccessToken == "" {
		return Status{}, nil
	}

	st := Status{Connected: true, Scopes: rec.Scopes}
	if rec.ExpiresAt != nil {
		utc := NormalizeUTC(*rec.ExpiresAt)
		st.ExpiresAt = &utc
	}
	if !rec.Usable(r.now()) {
		st.Connected = false
		st.Expired = true
	}
	return st, nil
}
