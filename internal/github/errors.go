package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v66/github"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	// KindUnauthorized means the token is missing, expired or revoked. Never retried.
	KindUnauthorized ErrorKind = "unauthorized"
	// KindRateLimited means a primary or secondary limit was hit. Retry after ResetAt.
	KindRateLimited ErrorKind = "rate_limited"
	// KindTransient covers network errors, timeouts, 5xx and an open breaker.
	KindTransient ErrorKind = "transient"
	// KindPartialResponse means one metric could not be fetched. Retried like Transient.
	KindPartialResponse ErrorKind = "partial_response"
	// KindNotFound means the user does not exist or the query was rejected
	// (404, 422). Never retried.
	KindNotFound ErrorKind = "not_found"
)

// defaultSecondaryBackoff is used when GitHub does not say how long to wait.
const defaultSecondaryBackoff = time.Minute

// FetchError is the error type returned by Client.
type FetchError struct {
	Kind    ErrorKind
	Op      string
	ResetAt time.Time // set for KindRateLimited
	Err     error
}

func (e *FetchError) Error() string {
	if e.Kind == KindRateLimited && !e.ResetAt.IsZero() {
		return fmt.Sprintf("github %s: %s until %s: %v", e.Op, e.Kind, e.ResetAt.Format(time.RFC3339), e.Err)
	}
	return fmt.Sprintf("github %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the orchestrator may retry right away.
func (e *FetchError) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindPartialResponse
}

// KindOf returns the kind of a FetchError anywhere in err's chain, or "".
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

func partial(op string, err error) *FetchError {
	return &FetchError{Kind: KindPartialResponse, Op: op, Err: err}
}

// classify maps a go-github error to a FetchError.
func classify(op string, err error, now time.Time) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return &FetchError{Kind: KindRateLimited, Op: op, ResetAt: rle.Rate.Reset.Time, Err: err}
	}

	var arle *gh.AbuseRateLimitError
	if errors.As(err, &arle) {
		wait := defaultSecondaryBackoff
		if arle.RetryAfter != nil {
			wait = *arle.RetryAfter
		}
		return &FetchError{Kind: KindRateLimited, Op: op, ResetAt: now.Add(wait), Err: err}
	}

	var tfe *gh.TwoFactorAuthError
	if errors.As(err, &tfe) {
		return &FetchError{Kind: KindUnauthorized, Op: op, Err: err}
	}

	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		switch code := er.Response.StatusCode; {
		case code == http.StatusUnauthorized:
			return &FetchError{Kind: KindUnauthorized, Op: op, Err: err}
		case code == http.StatusNotFound, code == http.StatusUnprocessableEntity:
			return &FetchError{Kind: KindNotFound, Op: op, Err: err}
		case code >= 500:
			return &FetchError{Kind: KindTransient, Op: op, Err: err}
		default:
			return partial(op, err)
		}
	}

	// open breaker, network errors, timeouts and cancellation
	return &FetchError{Kind: KindTransient, Op: op, Err: err}
}
