package jobs

import (
	"errors"
)

var (
	// ErrInvalidRequest marks a run request rejected before a job exists.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")

	// ErrUnauthenticated is returned when an operation needs a credential
	// and the project has none.
	ErrUnauthenticated = errors.New("project has no usable credential")
)

// RequestError is a client-facing validation failure.
type RequestError struct {
	Detail string
}

func (e *RequestError) Error() string { return e.Detail }

// Unwrap makes errors.Is(err, ErrInvalidRequest) hold.
func (e *RequestError) Unwrap() error { return ErrInvalidRequest }

// SinkError attributes a best-effort write failure to its sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string { return e.Sink + ": " + e.Err.Error() }

func (e *SinkError) Unwrap() error { return e.Err }

// sinkErrors flattens a possibly joined error into its SinkErrors. Errors
// without a sink are attributed to fallback.
func sinkErrors(err error, fallback string) []*SinkError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*SinkError
		for _, e := range joined.Unwrap() {
			out = append(out, sinkErrors(e, fallback)...)
		}
		return out
	}
	var se *SinkError
	if errors.As(err, &se) {
		return []*SinkError{se}
	}
	return []*SinkError{{Sink: fallback, Err: err}}
}
