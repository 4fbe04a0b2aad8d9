// Package apperr carries the error taxonomy shared by the adapters and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP status mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindRateLimit
	KindTimeout
	KindUpstream
)

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	// Status overrides the kind's default status. Used for upstream passthrough.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports bad or missing input (400).
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound reports a missing upstream entity (404).
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// RateLimited reports an upstream 403/429 with no usable data (429).
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimit, Message: msg}
}

// Timeout reports an aborted fetch (408).
func Timeout(msg string) *Error {
	return &Error{Kind: KindTimeout, Message: msg}
}

// Upstream reports a non-2xx upstream response whose status is passed through.
func Upstream(status int, msg string) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Status: status}
}

// Internal wraps an unexpected failure (500).
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// Status maps an error to the HTTP status a handler should write.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message for an error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
