package unit

import (
	"fmt"
	"time"
)

// Kind identifies the category of a unit failure.
type Kind int

const (
	// KindEmptyInput means the trimmed input had zero length.
	KindEmptyInput Kind = iota
	// KindTimedOut means the logical per-call timeout expired.
	KindTimedOut
	// KindNetwork means the remote call never produced a response.
	KindNetwork
	// KindAuth means the provider rejected the credentials.
	KindAuth
	// KindProcessing means the transformation itself failed.
	KindProcessing
	// KindRateLimited means the provider asked the caller to slow down.
	KindRateLimited
	// KindContentTooLarge means the input exceeded the byte limit.
	KindContentTooLarge
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty input"
	case KindTimedOut:
		return "timed out"
	case KindNetwork:
		return "network error"
	case KindAuth:
		return "authentication error"
	case KindProcessing:
		return "processing error"
	case KindRateLimited:
		return "rate limited"
	case KindContentTooLarge:
		return "content too large"
	default:
		return "unknown"
	}
}

// Error is the unit-level failure record. Only the fields relevant to the
// kind are populated.
type Error struct {
	Kind          Kind
	Message       string
	Seconds       int
	RetryAfter    time.Duration
	HasRetryAfter bool
	ActualBytes   int
	LimitBytes    int
	Err           error
}

func (e *Error) Error() string {
	if e == nil {
		return "unit error"
	}
	switch e.Kind {
	case KindTimedOut:
		return fmt.Sprintf("timed out after %ds", e.Seconds)
	case KindContentTooLarge:
		return fmt.Sprintf("content too large: %d bytes exceeds limit of %d", e.ActualBytes, e.LimitBytes)
	case KindRateLimited:
		if e.HasRetryAfter {
			return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
		}
		return "rate limited"
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
