package api

import (
	"errors"
	"fmt"
)

// ErrMissingBaseURL indicates that the client was configured without a server address.
var ErrMissingBaseURL = errors.New("api: base url is required")

// TransportError wraps a failure to reach the story service at all: dial
// errors, timeouts, connection resets. Its message always mentions the
// network so callers surfacing it to users convey that nothing was wrong
// with the request itself.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s: network error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response from the story service, carrying whatever
// detail the server included.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: server error: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: server error: status %d", e.StatusCode)
}

// DecodeError is a 2xx response whose body could not be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("api: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
