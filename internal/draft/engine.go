// Package draft turns normalized thread text and style controls into a reply
// draft.
//
// Drafting has two explicit paths. TryGenerate asks the generative backend
// and reports an error when it cannot produce text; TemplateFallback builds a
// canned draft from the controls alone. The caller picks between them.
package draft

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/logging"
)

// ErrEmptyCompletion means the backend answered with no text.
var ErrEmptyCompletion = errors.New("backend returned an empty draft")

// Engine drafts replies with a Generator.
type Engine struct {
	gen     Generator
	trimmer *Trimmer
	timeout time.Duration
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewEngine creates an Engine. A nil generator makes every TryGenerate call
// return ErrBackendUnavailable.
func NewEngine(gen Generator, trimmer *Trimmer, timeout time.Duration, logger *slog.Logger, metrics *instrumentation.Metrics) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gen:     gen,
		trimmer: trimmer,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Configured reports whether a backend is available.
func (e *Engine) Configured() bool {
	return e != nil && e.gen != nil
}

// TryGenerate asks the backend for a draft. Any failure, including an empty
// answer, is returned as an error and no draft.
func (e *Engine) TryGenerate(ctx context.Context, req Request) (Result, error) {
	if !e.Configured() {
		return Result{}, ErrBackendUnavailable
	}

	ctx, span := instrumentation.StartSpan(ctx, "draft.generate")
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req.Controls = req.Controls.Normalize()
	start := time.Now()
	completion, err := e.gen.Complete(ctx, SystemPrompt, UserPrompt(req, e.trimmer))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return Result{}, err
	}

	text := strings.TrimSpace(completion.Text)
	if text == "" {
		instrumentation.SetSpanError(span, ErrEmptyCompletion)
		return Result{}, ErrEmptyCompletion
	}

	usage := completion.Usage
	e.metrics.RecordTokenUsage(ctx, usage.Prompt, usage.Completion)
	instrumentation.SetSpanSuccess(span)
	e.logger.Debug("draft generated",
		logging.Operation("draft.generate"),
		"total_tokens", usage.Total,
		logging.KeyDuration, time.Since(start))

	return Result{
		Text: text,
		Meta: Meta{
			Subject:      req.Subject,
			Participants: req.Participants,
			TokenUsage:   &usage,
		},
		Source: SourceModel,
	}, nil
}
