package gmail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/inboxreply/internal/credential"
	"github.com/teemow/inboxreply/internal/logging"
)

const (
	// DefaultMaxResults is the listing size when the caller passes zero.
	DefaultMaxResults = 20

	// MaxMaxResults is the largest listing size accepted.
	MaxMaxResults = 100
)

var (
	// ErrNoCredential is returned by operations that cannot degrade without a credential.
	ErrNoCredential = errors.New("no usable Gmail credential")

	// ErrEmptyThread is returned when replying to a thread without messages.
	ErrEmptyThread = errors.New("thread has no messages")
)

// ThreadSummary is one row of a thread listing.
type ThreadSummary struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// SentMessage identifies a sent message.
type SentMessage struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
}

// Service fetches, lists and replies to Gmail threads on behalf of a
// resolved credential. Read paths never return errors; they degrade to
// placeholder content or empty listings.
type Service struct {
	dial    Dialer
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithTimeout bounds every upstream call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the time source used for normalization timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service that dials Gmail with dial.
func NewService(dial Dialer, opts ...ServiceOption) *Service {
	s := &Service{
		dial:    dial,
		logger:  slog.Default(),
		timeout: 8 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithService(s.logger, "gmail")
	return s
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// FetchAndNormalize fetches a thread and reduces it to plain text. A nil
// credential or any upstream failure yields a placeholder thread.
func (s *Service) FetchAndNormalize(ctx context.Context, threadID string, cred *credential.Credential) *NormalizedThread {
	log := s.logger.With(logging.Thread(threadID), logging.Operation("gmail.fetch"))

	if cred == nil || cred.AccessToken == "" {
		log.Info("no credential, returning placeholder thread")
		return Placeholder(threadID, noCredentialText(threadID), s.now())
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	client, err := s.dial(ctx, cred.AccessToken)
	if err != nil {
		log.Warn("failed to create Gmail client", logging.Err(err))
		return Placeholder(threadID, fetchErrorText(threadID, err), s.now())
	}

	thread, err := client.GetThread(ctx, threadID)
	if err != nil {
		log.Warn("failed to fetch thread", logging.Err(err))
		return Placeholder(threadID, fetchErrorText(threadID, err), s.now())
	}

	nt := Normalize(threadID, thread, s.now())
	log.Debug("thread normalized", "messages", len(nt.Messages))
	return nt
}

// ClampMaxResults applies the listing default and bounds.
func ClampMaxResults(n int) int {
	switch {
	case n == 0:
		return DefaultMaxResults
	case n < 1:
		return 1
	case n > MaxMaxResults:
		return MaxMaxResults
	default:
		return n
	}
}

// ListThreads returns summaries of the most recent threads carrying label.
// Without a credential, or on any upstream failure, it returns an empty list.
func (s *Service) ListThreads(ctx context.Context, cred *credential.Credential, label string, maxResults int) []ThreadSummary {
	log := s.logger.With(logging.Operation("gmail.list"), "label", label)
	summaries := []ThreadSummary{}

	if cred == nil || cred.AccessToken == "" {
		log.Info("no credential, returning empty listing")
		return summaries
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	client, err := s.dial(ctx, cred.AccessToken)
	if err != nil {
		log.Warn("failed to create Gmail client", logging.Err(err))
		return summaries
	}

	threads, err := client.ListThreads(ctx, label, int64(ClampMaxResults(maxResults)))
	if err != nil {
		log.Warn("failed to list threads", logging.Err(err))
		return summaries
	}

	for _, t := range threads {
		full, err := client.GetThreadHeaders(ctx, t.Id, metadataHeaders...)
		if err != nil {
			log.Warn("failed to fetch thread metadata", logging.Thread(t.Id), logging.Err(err))
			return []ThreadSummary{}
		}
		if len(full.Messages) == 0 {
			continue
		}
		first := full.Messages[0]
		summaries = append(summaries, ThreadSummary{
			ID:      t.Id,
			Subject: headerOr(first, "Subject", "No Subject"),
			From:    headerOr(first, "From", "Unknown"),
			Date:    HeaderValue(first, "Date"),
			Snippet: SummarySnippet(full.Snippet),
		})
	}

	log.Debug("threads listed", "count", len(summaries))
	return summaries
}

// SendReply sends text as a reply in threadID, addressed to the sender of the
// thread's last message and threaded with In-Reply-To and References.
func (s *Service) SendReply(ctx context.Context, cred *credential.Credential, threadID, text string) (SentMessage, error) {
	if cred == nil || cred.AccessToken == "" {
		return SentMessage{}, ErrNoCredential
	}
	if strings.TrimSpace(text) == "" {
		return SentMessage{}, fmt.Errorf("reply text is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	client, err := s.dial(ctx, cred.AccessToken)
	if err != nil {
		return SentMessage{}, err
	}

	thread, err := client.GetThreadHeaders(ctx, threadID, replyHeaders...)
	if err != nil {
		return SentMessage{}, err
	}
	if len(thread.Messages) == 0 {
		return SentMessage{}, ErrEmptyThread
	}

	last := thread.Messages[len(thread.Messages)-1]
	raw, err := buildReply(last, text)
	if err != nil {
		return SentMessage{}, err
	}

	sent, err := client.Send(ctx, raw, threadID)
	if err != nil {
		return SentMessage{}, err
	}

	s.logger.Info("reply sent",
		logging.Thread(threadID),
		logging.Operation("gmail.send"),
		logging.UserHash(HeaderValue(last, "From")))
	out := SentMessage{MessageID: sent.Id, ThreadID: sent.ThreadId}
	if out.ThreadID == "" {
		out.ThreadID = threadID
	}
	return out, nil
}
