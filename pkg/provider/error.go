package provider

import (
	"fmt"
	"time"
)

// Kind identifies the category of a provider failure.
type Kind int

const (
	// KindNotConfigured means the provider is missing its credentials.
	KindNotConfigured Kind = iota
	// KindAuthFailed means the remote API rejected the credentials.
	KindAuthFailed
	// KindRateLimited means the remote API returned 429.
	KindRateLimited
	// KindTimedOut means the transport-level deadline expired.
	KindTimedOut
	// KindModelNotFound means the requested model does not exist.
	KindModelNotFound
	// KindNetworkFailure means the request never produced an HTTP response.
	KindNetworkFailure
	// KindServerFailure means the remote API returned a server-side error.
	KindServerFailure
	// KindInvalidResponse means the response body could not be decoded.
	KindInvalidResponse
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "not configured"
	case KindAuthFailed:
		return "authentication failed"
	case KindRateLimited:
		return "rate limited"
	case KindTimedOut:
		return "timed out"
	case KindModelNotFound:
		return "model not found"
	case KindNetworkFailure:
		return "network failure"
	case KindServerFailure:
		return "server failure"
	case KindInvalidResponse:
		return "invalid response"
	default:
		return "unknown"
	}
}

// Error wraps provider failures with status and retry metadata.
type Error struct {
	Provider      string
	Kind          Kind
	Status        int
	Message       string
	RetryAfter    time.Duration
	HasRetryAfter bool
	Err           error
}

func (e *Error) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Provider, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
