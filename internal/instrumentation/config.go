package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Config selects exporters and resource attributes for the telemetry
// pipeline. DefaultConfig reads it from the environment.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID falls back to the hostname when empty.
	ServiceInstanceID string

	// Pod placement, attached as k8s.* resource attributes when set.
	K8sNamespace string
	K8sPodName   string

	// Enabled=false turns every recorder into a no-op.
	Enabled bool

	MetricsExporter string // prometheus | otlp | stdout
	TracingExporter string // otlp | stdout | none

	// OTLPEndpoint is host:port without a scheme. OTLPInsecure switches the
	// exporters to plain HTTP; span attributes carry thread subjects, so keep
	// it off outside local setups.
	OTLPEndpoint string
	OTLPInsecure bool

	// ExportInterval is the push period of the otlp and stdout metric readers.
	ExportInterval time.Duration

	TraceSamplingRate float64

	// DetailedLabels adds the project id to job metrics. Project counts are
	// unbounded, so this stays off in shared deployments.
	DetailedLabels bool
}

// DefaultConfig builds a Config from INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER and the standard OTEL_* variables.
func DefaultConfig() Config {
	return Config{
		ServiceName:       envString("OTEL_SERVICE_NAME", "inboxreply"),
		ServiceVersion:    "unknown",
		ServiceInstanceID: envString("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:      envString("K8S_NAMESPACE", envString("POD_NAMESPACE", "")),
		K8sPodName:        envString("K8S_POD_NAME", envString("HOSTNAME", "")),
		Enabled:           envParse("INSTRUMENTATION_ENABLED", true, strconv.ParseBool),
		MetricsExporter:   envString("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   envString("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      envParse("OTEL_EXPORTER_OTLP_INSECURE", false, strconv.ParseBool),
		ExportInterval:    envParse("OTEL_METRIC_EXPORT_INTERVAL", DefaultMetricInterval, parseMillis),
		TraceSamplingRate: envParse("OTEL_TRACES_SAMPLER_ARG", 0.1, parseFloat),
		DetailedLabels:    envParse("METRICS_DETAILED_LABELS", false, strconv.ParseBool),
	}
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Validate rejects unknown exporters, a sampling rate outside [0, 1] and
// otlp exporters without an endpoint. Empty exporter names are allowed.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" {
		for signal, exporter := range map[string]string{"tracing": c.TracingExporter, "metrics": c.MetricsExporter} {
			if exporter == ExporterOTLP {
				return fmt.Errorf("OTLP endpoint is required when using OTLP %s exporter", signal)
			}
		}
	}
	return nil
}

func (c *Config) exportInterval() time.Duration {
	if c.ExportInterval <= 0 {
		return DefaultMetricInterval
	}
	return c.ExportInterval
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envParse parses key with parse; unset or unparsable values yield def.
func envParse[T any](key string, def T, parse func(string) (T, error)) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := parse(v)
	if err != nil {
		return def
	}
	return parsed
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// parseMillis reads the OTEL_METRIC_EXPORT_INTERVAL convention of whole milliseconds.
func parseMillis(s string) (time.Duration, error) {
	ms, err := strconv.Atoi(s)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid interval %q", s)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	JobStatusDone     = "done"
	JobStatusFailed   = "failed"
	JobStatusRejected = "rejected"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	DraftSourceModel    = "model"
	DraftSourceTemplate = "template"

	SinkDurable = "durable"
	SinkKV      = "kv"
	SinkIndex   = "thread_index"

	ServiceGmail = "gmail"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultMetricInterval is the push period when ExportInterval is unset.
const DefaultMetricInterval = 10 * time.Second
