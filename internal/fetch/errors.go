package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for fetch failures. Use errors.Is to classify.
var (
	// ErrFetchTransport is returned when the document could not be retrieved.
	ErrFetchTransport = errors.New("fetch transport error")

	// ErrFetchUpstream is returned when the source answered with a non-200 status.
	ErrFetchUpstream = errors.New("fetch upstream error")
)

// TransportError wraps a network level failure.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFetchTransport.Error(), e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrFetchTransport).
func (e *TransportError) Is(target error) bool {
	return target == ErrFetchTransport
}

// UpstreamStatusError reports an unexpected HTTP status from the source.
type UpstreamStatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrFetchUpstream.Error(), e.URL, e.StatusCode)
}

// Is allows errors.Is(err, ErrFetchUpstream).
func (e *UpstreamStatusError) Is(target error) bool {
	return target == ErrFetchUpstream
}
