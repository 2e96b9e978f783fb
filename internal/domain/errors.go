package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrOffline indicates the catalog service is unreachable (no connectivity or timeout)
	ErrOffline = errors.New("catalog service is unreachable")

	// ErrRejected indicates the catalog service answered with a non-success status
	ErrRejected = errors.New("catalog service rejected the request")

	// ErrAuthFailed indicates the API key is missing or invalid
	ErrAuthFailed = errors.New("api key is missing or invalid")

	// ErrMalformedResponse indicates a response that does not parse into items
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrItemNotFound indicates the requested item does not exist
	ErrItemNotFound = errors.New("item not found")

	// ErrPersistence indicates a durable storage read or write failed
	ErrPersistence = errors.New("persistence failure")

	// ErrInvalidPage indicates a page query with a non-positive size or index
	ErrInvalidPage = errors.New("invalid page query")

	// ErrStoreClosed indicates use of a closed key-value store
	ErrStoreClosed = errors.New("store is closed")
)

// FailureKind classifies fetch failures
type FailureKind int

const (
	FailureTransient FailureKind = iota
	FailureRejected
	FailureUnauthorized
	FailureNotFound
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureTransient:
		return "transient"
	case FailureRejected:
		return "rejected"
	case FailureUnauthorized:
		return "unauthorized"
	case FailureNotFound:
		return "not_found"
	case FailureMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Retryable reports whether a caller retry can reasonably succeed
func (k FailureKind) Retryable() bool {
	return k == FailureTransient
}

// FetchError is the single failure type reported by catalog fetches
type FetchError struct {
	Kind   FailureKind
	Status int    // HTTP status for rejections, 0 otherwise
	Reason string // Human-readable reason tag
	Err    error
}

func (e *FetchError) Error() string {
	if e.Reason != "" {
		return "fetch failed: " + e.Reason
	}
	if e.Err != nil {
		return "fetch failed: " + e.Err.Error()
	}
	return "fetch failed: " + e.Kind.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a FetchError whose cause is the kind's sentinel
func NewFetchError(kind FailureKind, status int, reason string) *FetchError {
	return &FetchError{Kind: kind, Status: status, Reason: reason, Err: sentinelFor(kind)}
}

// WrapFetchError builds a FetchError around an underlying cause
func WrapFetchError(kind FailureKind, reason string, cause error) *FetchError {
	return &FetchError{Kind: kind, Reason: reason, Err: fmt.Errorf("%w: %w", sentinelFor(kind), cause)}
}

// AsFetchError normalizes any error into a FetchError. Errors that are not
// already typed are classified by their sentinel; anything else, including
// context cancellation and deadlines, is treated as transient.
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	switch {
	case errors.Is(err, ErrAuthFailed):
		return &FetchError{Kind: FailureUnauthorized, Reason: err.Error(), Err: err}
	case errors.Is(err, ErrItemNotFound):
		return &FetchError{Kind: FailureNotFound, Reason: err.Error(), Err: err}
	case errors.Is(err, ErrMalformedResponse):
		return &FetchError{Kind: FailureMalformed, Reason: err.Error(), Err: err}
	case errors.Is(err, ErrRejected):
		return &FetchError{Kind: FailureRejected, Reason: err.Error(), Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &FetchError{Kind: FailureTransient, Reason: "request timed out", Err: fmt.Errorf("%w: %w", ErrOffline, err)}
	case errors.Is(err, context.Canceled):
		return &FetchError{Kind: FailureTransient, Reason: "request canceled", Err: err}
	default:
		return &FetchError{Kind: FailureTransient, Reason: err.Error(), Err: err}
	}
}

func sentinelFor(kind FailureKind) error {
	switch kind {
	case FailureRejected:
		return ErrRejected
	case FailureUnauthorized:
		return ErrAuthFailed
	case FailureNotFound:
		return ErrItemNotFound
	case FailureMalformed:
		return ErrMalformedResponse
	default:
		return ErrOffline
	}
}
