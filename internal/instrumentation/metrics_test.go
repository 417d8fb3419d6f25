package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	for _, m := range []*Metrics{nil, {}} {
		m.RecordHTTPRequest(ctx, "GET", "/jobs/:id", 200, time.Millisecond)
		m.RecordJob(ctx, JobStatusDone, "p1", time.Second)
		m.RecordCredentialResolution(ctx, "absent")
		m.RecordCacheLookup(ctx, CacheHit)
		m.RecordDraft(ctx, DraftSourceTemplate)
		m.RecordTokenUsage(ctx, 10, 20)
		m.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationGet, StatusSuccess, time.Millisecond)
		m.RecordPersistenceFailure(ctx, SinkKV)
		m.RecordToolInvocation(ctx, "reply_run_job", StatusSuccess, time.Millisecond)
	}
}

func TestMetrics_Recorders(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t, false)

	m.RecordHTTPRequest(ctx, "POST", "/agent/run", 200, 10*time.Millisecond)
	m.RecordJob(ctx, JobStatusDone, "p1", 200*time.Millisecond)
	m.RecordJob(ctx, JobStatusDone, "p2", 300*time.Millisecond)
	m.RecordCredentialResolution(ctx, "expired")
	m.RecordCacheLookup(ctx, CacheMiss)
	m.RecordCacheLookup(ctx, CacheHit)
	m.RecordDraft(ctx, DraftSourceModel)
	m.RecordTokenUsage(ctx, 100, 40)
	m.RecordTokenUsage(ctx, 0, 0)
	m.RecordGoogleAPIOperation(ctx, ServiceGmail, OperationList, StatusError, time.Second)
	m.RecordPersistenceFailure(ctx, SinkDurable)
	m.RecordToolInvocation(ctx, "reply_get_job", StatusSuccess, time.Millisecond)

	got := collect(t, reader)

	assert.Equal(t, int64(1), counterTotal(t, got["http_requests_total"]))
	assert.Equal(t, int64(2), counterTotal(t, got["reply_jobs_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["credential_resolutions_total"]))
	assert.Equal(t, int64(2), counterTotal(t, got["thread_cache_lookups_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["draft_generations_total"]))
	assert.Equal(t, int64(140), counterTotal(t, got["llm_tokens_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["google_api_operations_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["persistence_failures_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["mcp_tool_invocations_total"]))

	hist, ok := got["reply_job_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestMetrics_DetailedLabels(t *testing.T) {
	ctx := context.Background()

	for _, detailed := range []bool{false, true} {
		m, reader := newTestMetrics(t, detailed)
		m.RecordJob(ctx, JobStatusDone, "p1", time.Millisecond)
		m.RecordJob(ctx, JobStatusDone, "p2", time.Millisecond)

		sum := collect(t, reader)["reply_jobs_total"].Data.(metricdata.Sum[int64])
		want := 1
		if detailed {
			want = 2
		}
		assert.Len(t, sum.DataPoints, want, "detailed=%v", detailed)
	}
}
