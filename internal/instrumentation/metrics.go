package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrSource    = "source"
	attrKind      = "kind"
	attrSink      = "sink"
	attrTool      = "tool"
	attrProject   = "project"
)

// Metrics records the service's observability metrics. The zero value and a
// nil *Metrics are both valid no-op recorders.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	jobsTotal   metric.Int64Counter
	jobDuration metric.Float64Histogram

	credentialResolutions metric.Int64Counter
	cacheLookups          metric.Int64Counter

	draftGenerations metric.Int64Counter
	llmTokens        metric.Int64Counter

	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	persistenceFailures metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels adds the project id to job metrics
	detailedLabels bool
}

// NewMetrics creates every instrument on the given meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}"},
		{&m.jobsTotal, "reply_jobs_total", "Total number of reply jobs by terminal status", "{job}"},
		{&m.credentialResolutions, "credential_resolutions_total", "Credential lookups by outcome", "{lookup}"},
		{&m.cacheLookups, "thread_cache_lookups_total", "Thread cache lookups by result", "{lookup}"},
		{&m.draftGenerations, "draft_generations_total", "Drafts produced by source", "{draft}"},
		{&m.llmTokens, "llm_tokens_total", "Tokens consumed by the generative backend", "{token}"},
		{&m.googleAPIOperationsTotal, "google_api_operations_total", "Total number of Google API operations", "{operation}"},
		{&m.persistenceFailures, "persistence_failures_total", "Best-effort writes that failed, by sink", "{write}"},
		{&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.dst = counter
	}

	histograms := []struct {
		dst     *metric.Float64Histogram
		name    string
		desc    string
		buckets []float64
	}{
		{&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds",
			[]float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}},
		{&m.jobDuration, "reply_job_duration_seconds", "End-to-end reply job duration in seconds",
			[]float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}},
		{&m.googleAPIOperationDuration, "google_api_operation_duration_seconds", "Google API operation duration in seconds",
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}},
		{&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds",
			[]float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}},
	}
	for _, h := range histograms {
		histogram, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
		*h.dst = histogram
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route, status code, and duration.
// path should be the route pattern, not the raw URL, to keep cardinality bounded.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordJob records a finished (or rejected) reply job.
func (m *Metrics) RecordJob(ctx context.Context, status, projectID string, duration time.Duration) {
	if m == nil || m.jobsTotal == nil {
		return
	}

	kv := []attribute.KeyValue{attribute.String(attrStatus, status)}
	if m.detailedLabels && projectID != "" {
		kv = append(kv, attribute.String(attrProject, projectID))
	}
	attrs := metric.WithAttributes(kv...)
	m.jobsTotal.Add(ctx, 1, attrs)
	m.jobDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCredentialResolution records a credential lookup outcome
// ("valid", "expired", "absent" or "error").
func (m *Metrics) RecordCredentialResolution(ctx context.Context, result string) {
	if m == nil || m.credentialResolutions == nil {
		return
	}
	m.credentialResolutions.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordCacheLookup records a thread cache lookup (CacheHit, CacheMiss or CacheError).
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordDraft records which path produced a draft (DraftSourceModel or DraftSourceTemplate).
func (m *Metrics) RecordDraft(ctx context.Context, source string) {
	if m == nil || m.draftGenerations == nil {
		return
	}
	m.draftGenerations.Add(ctx, 1, metric.WithAttributes(attribute.String(attrSource, source)))
}

// RecordTokenUsage records prompt and completion tokens reported by the backend.
func (m *Metrics) RecordTokenUsage(ctx context.Context, prompt, completion int64) {
	if m == nil || m.llmTokens == nil {
		return
	}
	if prompt > 0 {
		m.llmTokens.Add(ctx, prompt, metric.WithAttributes(attribute.String(attrKind, "prompt")))
	}
	if completion > 0 {
		m.llmTokens.Add(ctx, completion, metric.WithAttributes(attribute.String(attrKind, "completion")))
	}
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (gmail, oauth)
//   - operation: Operation type (list, get, send, exchange)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordPersistenceFailure records a swallowed write failure for a sink.
func (m *Metrics) RecordPersistenceFailure(ctx context.Context, sink string) {
	if m == nil || m.persistenceFailures == nil {
		return
	}
	m.persistenceFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(attrSink, sink)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
