package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a classified provider failure. Retryable errors (transient
// network faults, rate limits, server errors) may be retried with
// backoff; fatal errors (authentication, malformed requests, quota
// exhaustion) abort the session immediately.
type Error struct {
	Op        string
	Status    int
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "transient"
	}
	if e.Status > 0 {
		return fmt.Sprintf("provider %s: %s error (status %d): %v", e.Op, kind, e.Status, e.Err)
	}
	return fmt.Sprintf("provider %s: %s error: %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether this error may be retried.
func (e *Error) IsRetryable() bool { return e.Retryable }

// Transient wraps err as a retryable provider error.
func Transient(op string, err error) *Error {
	return &Error{Op: op, Retryable: true, Err: err}
}

// Fatal wraps err as a non-retryable provider error.
func Fatal(op string, err error) *Error {
	return &Error{Op: op, Retryable: false, Err: err}
}

type retryable interface {
	IsRetryable() bool
}

// IsRetryable walks err's unwrap chain looking for a retryability
// signal. Unclassified errors are treated as fatal so malformed requests
// are never retried blindly.
func IsRetryable(err error) bool {
	for err != nil {
		if r, ok := err.(retryable); ok {
			return r.IsRetryable()
		}
		err = errors.Unwrap(err)
	}
	return false
}

// retryableStatus classifies an HTTP status code from the model API.
func retryableStatus(code int) bool {
	switch {
	case code == 408 || code == 429:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

var transientFragments = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"network is unreachable",
	"no route to host",
	"i/o timeout",
	"deadline exceeded",
	"rate limit",
	"overloaded",
	"temporarily unavailable",
	"eof",
}

// retryableMessage is the fallback classifier for errors that carry no
// HTTP status, e.g. dial failures surfaced by the transport.
func retryableMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, frag := range transientFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
