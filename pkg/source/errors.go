package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorKind classifies a failed fetch.
type ErrorKind int

const (
	// NotFound means the package or repository does not exist at the
	// source. It is a legitimate answer and is never retried.
	NotFound ErrorKind = iota + 1
	// Timeout means the per-call deadline expired.
	Timeout
	// RateLimited means the source asked us to back off.
	RateLimited
	// Transient covers network failures and 5xx responses.
	Transient
	// MalformedResponse means the source answered with something we could
	// not decode. It is never retried.
	MalformedResponse
)

var errorKindNames = map[ErrorKind]string{
	NotFound:          "NotFound",
	Timeout:           "Timeout",
	RateLimited:       "RateLimited",
	Transient:         "Transient",
	MalformedResponse: "MalformedResponse",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Retryable reports whether a failure of this kind may succeed if tried
// again later.
func (k ErrorKind) Retryable() bool {
	return k == Timeout || k == RateLimited || k == Transient
}

// FetchError is the only error type adapters report to the engine.
type FetchError struct {
	Kind   ErrorKind
	Source Kind
	// RetryAfter is the backoff hint of a RateLimited error; zero if the
	// source gave none.
	RetryAfter time.Duration
	// Note, when set, replaces the generic reason recorded on verdicts.
	Note string
	Err  error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s fetching %s metadata", e.Kind, e.Source)
	if e.Kind == RateLimited && e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Reason is the short text recorded on verdicts that could not be
// evaluated because of this error.
func (e *FetchError) Reason() string {
	if e.Note != "" {
		return e.Note
	}
	return fmt.Sprintf("%s fetching %s metadata", e.Kind, e.Source)
}

// NewFetchError builds a FetchError of the given kind.
func NewFetchError(kind ErrorKind, src Kind, err error) *FetchError {
	return &FetchError{Kind: kind, Source: src, Err: err}
}

// Classify converts an arbitrary error into a *FetchError for source src.
// FetchErrors pass through (gaining src if they lack one); deadline expiry
// becomes Timeout; everything else is treated as Transient.
func Classify(src Kind, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.Source == "" {
			cp := *fe
			cp.Source = src
			return &cp
		}
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchError(Timeout, src, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewFetchError(Timeout, src, err)
	}
	return NewFetchError(Transient, src, err)
}
