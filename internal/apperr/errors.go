// Package apperr defines the errors shared across layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrBusy            = errors.New("another request is in flight")
	ErrInvalidArgument = errors.New("invalid argument")
)

// InputParseError reports malformed JSON input.
type InputParseError struct {
	Err error
}

func (e *InputParseError) Error() string {
	if e.Err == nil {
		return "invalid JSON input"
	}
	return fmt.Sprintf("invalid JSON input: %v", e.Err)
}

func (e *InputParseError) Unwrap() error { return e.Err }

// FetchError reports a transport failure or a non-success response.
// Status is zero when no response was received.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s failed", e.URL)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
