package http

import (
	"errors"
	"fmt"
)

// ErrClientClosed is returned by every Execute variant once the client has been closed.
var ErrClientClosed = &UseAfterDisposeError{}

// ConfigurationError reports invalid or missing request configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid request configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid request configuration: %s: %s", e.Field, e.Reason)
}

// TransportError wraps a network-level failure (DNS, refused connection, timeout).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError is returned by ExecuteExpecting when the status differs
// from the caller's expectation.
type UnexpectedStatusError struct {
	Expected int
	Actual   int
	Body     string
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status: expected %d, got %d", e.Expected, e.Actual)
}

// DeserializationError reports a body that could not be decoded into the requested type.
type DeserializationError struct {
	Target string
	Err    error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("cannot decode response body into %s: %v", e.Target, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

// UseAfterDisposeError signals a call on a client whose transport was already released.
type UseAfterDisposeError struct{}

func (e *UseAfterDisposeError) Error() string {
	return "http client used after Close"
}

// Is lets errors.Is match any UseAfterDisposeError against ErrClientClosed.
func (e *UseAfterDisposeError) Is(target error) bool {
	var t *UseAfterDisposeError
	return errors.As(target, &t)
}
