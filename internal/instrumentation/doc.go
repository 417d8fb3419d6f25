// Package instrumentation provides OpenTelemetry metrics and tracing for the
// inboxreply service.
//
// # Metrics
//
//   - reply_jobs_total / reply_job_duration_seconds: finished jobs by status
//   - credential_resolutions_total: credential lookups by outcome (valid, expired, absent, error)
//   - thread_cache_lookups_total: thread cache hit, miss and backend error counts
//   - draft_generations_total: drafts by source (model, template)
//   - llm_tokens_total: prompt and completion tokens reported by the backend
//   - google_api_operations_total / google_api_operation_duration_seconds
//   - persistence_failures_total: swallowed best-effort writes by sink
//   - http_requests_total / http_request_duration_seconds
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for each job run (jobs.run), credential resolution,
// Gmail API calls (google.gmail.<operation>), draft generation, result
// persistence and MCP tool invocations (tool.<name>).
//
// # Configuration
//
// DefaultConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER
// (prometheus, otlp, stdout), TRACING_EXPORTER (otlp, stdout, none),
// OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_METRIC_EXPORT_INTERVAL (milliseconds),
// OTEL_TRACES_SAMPLER_ARG and OTEL_SERVICE_NAME.
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordJob(ctx, instrumentation.JobStatusDone, projectID, time.Since(start))
package instrumentation
