package instrumentation

// Operation types for Google API metrics and spans.
// Status, cache, draft and sink label values are defined in config.go.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationSend     = "send"
	OperationExchange = "exchange"
)

// maxRouteLabelLength bounds the path label recorded on HTTP metrics.
const maxRouteLabelLength = 64

// RouteLabel returns a bounded-cardinality path label. Callers pass the
// matched route pattern; unmatched requests collapse into "unmatched".
func RouteLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	if len(route) > maxRouteLabelLength {
		return route[:maxRouteLabelLength]
	}
	return route
}
