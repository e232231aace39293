package domain

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies a single dispatch failure. Retryable kinds drive
// fallback to the next ranked candidate; non-retryable kinds terminate the
// call because retrying elsewhere would not help.
type FailureKind string

const (
	FailureTimeout            FailureKind = "timeout"
	FailureRateLimited        FailureKind = "rate_limited"
	FailureUnavailable        FailureKind = "unavailable"
	FailureMalformed          FailureKind = "malformed"
	FailureCapabilityMismatch FailureKind = "capability_mismatch"
	FailureCanceled           FailureKind = "canceled"
)

// Retryable reports whether a failure of this kind should advance the
// fallback chain.
func (k FailureKind) Retryable() bool {
	switch k {
	case FailureTimeout, FailureRateLimited, FailureUnavailable:
		return true
	}
	return false
}

// DispatchError is the error shape backend adapters return on failure.
type DispatchError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("dispatch failed (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("dispatch failed (%s)", e.Kind)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewDispatchError builds a classified dispatch error.
func NewDispatchError(kind FailureKind, msg string, err error) *DispatchError {
	return &DispatchError{Kind: kind, Message: msg, Err: err}
}

// ClassifyDispatch maps an adapter error to a failure kind. Adapters that
// return a *DispatchError keep their own classification; a deadline hit is a
// timeout; caller cancellation is terminal; anything else is treated as a
// transient upstream fault.
func ClassifyDispatch(err error) FailureKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureUnavailable
}
