package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asteroid-belt/gitquest/internal/github"
)

// ErrorKind classifies a failed sync cycle.
type ErrorKind string

const (
	// KindCredentialInvalid disables sync until credentials are reset.
	KindCredentialInvalid ErrorKind = "credential_invalid"
	// KindRateLimited defers sync until RetryAt.
	KindRateLimited ErrorKind = "rate_limited"
	// KindNetworkUnavailable covers timeouts and transient remote failures.
	KindNetworkUnavailable ErrorKind = "network_unavailable"
	// KindPartialData means a metric could not be read; nothing was applied.
	KindPartialData ErrorKind = "partial_data"
	// KindPersistenceFailure means the local store rejected a write.
	KindPersistenceFailure ErrorKind = "persistence_failure"
	// KindInvariant is a broken calculator or ledger invariant.
	KindInvariant ErrorKind = "invariant"
)

var (
	// ErrSyncInProgress is returned in reject mode when a sync of the same
	// subject is already running.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrSyncDisabled is wrapped by credential errors raised before any fetch.
	ErrSyncDisabled = errors.New("sync disabled until credentials are reset")

	errMissingSnapshot = errors.New("no snapshot available")
)

// SyncError is the error type of every failed Engine operation.
type SyncError struct {
	Kind    ErrorKind
	Op      string
	RetryAt time.Time // set for KindRateLimited
	Err     error
}

func (e *SyncError) Error() string {
	if e.Kind == KindRateLimited && !e.RetryAt.IsZero() {
		return fmt.Sprintf("%s: %s until %s: %v", e.Op, e.Kind, e.RetryAt.Format(time.RFC3339), e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error ends the cycle without a usable fallback.
func (e *SyncError) Fatal() bool {
	switch e.Kind {
	case KindCredentialInvalid, KindPersistenceFailure, KindInvariant:
		return true
	}
	return false
}

// KindOf returns the kind of a SyncError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func persistence(op string, err error) *SyncError {
	return &SyncError{Kind: KindPersistenceFailure, Op: op, Err: err}
}

func invariant(op string, err error) *SyncError {
	return &SyncError{Kind: KindInvariant, Op: op, Err: err}
}

// fromFetch maps a remote client error to a SyncError.
func fromFetch(err error) *SyncError {
	var fe *github.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case github.KindUnauthorized:
			return &SyncError{Kind: KindCredentialInvalid, Op: "fetch", Err: err}
		case github.KindRateLimited:
			return &SyncError{Kind: KindRateLimited, Op: "fetch", RetryAt: fe.ResetAt, Err: err}
		case github.KindPartialResponse, github.KindNotFound:
			return &SyncError{Kind: KindPartialData, Op: "fetch", Err: err}
		}
	}
	// transient, timeouts and cancellation
	return &SyncError{Kind: KindNetworkUnavailable, Op: "fetch", Err: err}
}

// retryable reports whether a fetch failure may be retried within the cycle.
func retryable(err error) bool {
	var fe *github.FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return !errors.Is(err, context.Canceled)
}

// ResultError is the caller-facing form of a SyncError: kind and message only.
type ResultError struct {
	Kind    ErrorKind  `json:"kind"`
	Message string     `json:"message"`
	RetryAt *time.Time `json:"retry_at,omitempty"`
}

func resultError(err error) *ResultError {
	if err == nil {
		return nil
	}
	re := &ResultError{Kind: KindOf(err), Message: err.Error()}
	var se *SyncError
	if errors.As(err, &se) {
		re.Message = se.Err.Error()
		if !se.RetryAt.IsZero() {
			at := se.RetryAt
			re.RetryAt = &at
		}
	}
	return re
}
