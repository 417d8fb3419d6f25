package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxreply/internal/google"
	"github.com/teemow/inboxreply/internal/instrumentation"
)

const userID = "me"

// metadataHeaders are the headers requested for thread listings.
var metadataHeaders = []string{"Subject", "From", "Date"}

// replyHeaders are the headers needed to thread a reply.
var replyHeaders = []string{"Subject", "From", "Reply-To", "Message-ID", "References"}

// Client wraps the Gmail Users service for a single access token.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
}

// Dialer builds a Client for an access token.
type Dialer func(ctx context.Context, accessToken string) (*Client, error)

// NewDialer returns a Dialer that authenticates every request with the given
// bearer token over an HTTP/1.1 client bounded by timeout. Extra options are
// appended after the HTTP client, so tests can redirect the endpoint.
func NewDialer(timeout time.Duration, metrics *instrumentation.Metrics, extra ...option.ClientOption) Dialer {
	return func(ctx context.Context, accessToken string) (*Client, error) {
		httpClient := google.HTTPClient(ctx, accessToken, timeout)
		opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, extra...)
		return NewClient(ctx, metrics, opts...)
	}
}

// NewClient creates a Gmail client from raw API options.
func NewClient(ctx context.Context, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, metrics: metrics}, nil
}

// observe records a Google API call on the client's metrics and span.
func (c *Client) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
	return err
}

// GetThread retrieves a full Gmail thread with all its messages.
func (c *Client) GetThread(ctx context.Context, threadID string) (*gmail.Thread, error) {
	var thread *gmail.Thread
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		thread, err = c.svc.Threads.Get(userID, threadID).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}
	return thread, nil
}

// GetThreadHeaders retrieves a thread with only the named headers populated.
func (c *Client) GetThreadHeaders(ctx context.Context, threadID string, headers ...string) (*gmail.Thread, error) {
	var thread *gmail.Thread
	err := c.observe(ctx, instrumentation.OperationGet, func(ctx context.Context) error {
		var err error
		thread, err = c.svc.Threads.Get(userID, threadID).
			Format("metadata").
			MetadataHeaders(headers...).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}
	return thread, nil
}

// ListThreads lists up to maxResults threads carrying label. Gmail caps a
// page at 100 threads, which is also the largest value callers may request.
func (c *Client) ListThreads(ctx context.Context, label string, maxResults int64) ([]*gmail.Thread, error) {
	var threads []*gmail.Thread
	err := c.observe(ctx, instrumentation.OperationList, func(ctx context.Context) error {
		res, err := c.svc.Threads.List(userID).
			LabelIds(label).
			MaxResults(maxResults).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		threads = res.Threads
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads with label %s: %w", label, err)
	}
	if int64(len(threads)) > maxResults {
		threads = threads[:maxResults]
	}
	return threads, nil
}

// Send sends a raw RFC 2822 message, optionally inside an existing thread.
func (c *Client) Send(ctx context.Context, raw []byte, threadID string) (*gmail.Message, error) {
	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString(raw),
		ThreadId: threadID,
	}

	var sent *gmail.Message
	err := c.observe(ctx, instrumentation.OperationSend, func(ctx context.Context) error {
		var err error
		sent, err = c.svc.Messages.Send(userID, msg).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return sent, nil
}

// HeaderValue returns the first header of a message matching name,
// compared case-insensitively.
func HeaderValue(m *gmail.Message, name string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// headerOr returns the header value or def when it is missing.
func headerOr(m *gmail.Message, name, def string) string {
	if v := HeaderValue(m, name); v != "" {
		return v
	}
	return def
}

// encodeRFC2047 encodes a header value when it contains non-ASCII characters.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
