package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// defaultCallTimeout is the logical per-call timeout applied when a request
// does not carry one.
const defaultCallTimeout = 30 * time.Second

// endpoint describes a single provider API call. Each provider supplies its
// request payload, response decoding, and headers; the send/validate/decode
// scaffolding and the status-code mapping are shared.
type endpoint struct {
	provider   string
	method     string
	url        string
	headers    map[string]string
	payload    any
	decode     func(body []byte) (string, error)
	apiMessage func(body []byte) string
}

// transportDeadline widens the client-side deadline to 1.5x the logical
// per-call timeout so the adapter-layer race, not the transport, is the
// timeout callers observe.
func transportDeadline(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return timeout + timeout/2
}

// send executes an endpoint call and returns the decoded output text.
func send(ctx context.Context, client *http.Client, timeout time.Duration, ep endpoint) (string, error) {
	body, err := json.Marshal(ep.payload)
	if err != nil {
		return "", &Error{Provider: ep.provider, Kind: KindInvalidResponse, Message: fmt.Sprintf("failed to encode request: %v", err), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, transportDeadline(timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, ep.method, ep.url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Provider: ep.provider, Kind: KindNetworkFailure, Message: fmt.Sprintf("failed to build request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range ep.headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", networkError(ep.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", networkError(ep.provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(ep, resp.StatusCode, respBody, resp.Header)
	}

	output, err := ep.decode(respBody)
	if err != nil {
		return "", &Error{Provider: ep.provider, Kind: KindInvalidResponse, Message: err.Error(), Err: err}
	}
	return output, nil
}

// statusError maps a non-200 HTTP status into the provider error taxonomy.
// The table is shared by every provider implementation.
func statusError(ep endpoint, status int, body []byte, header http.Header) *Error {
	apiMsg := ""
	if ep.apiMessage != nil {
		apiMsg = ep.apiMessage(body)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Provider: ep.provider, Kind: KindAuthFailed, Status: status, Message: apiMsg}
	case status == http.StatusTooManyRequests:
		e := &Error{Provider: ep.provider, Kind: KindRateLimited, Status: status, Message: apiMsg}
		if retryAfter, ok := parseRetryAfter(header); ok {
			e.RetryAfter = retryAfter
			e.HasRetryAfter = true
		}
		return e
	case status == http.StatusNotFound:
		return &Error{Provider: ep.provider, Kind: KindModelNotFound, Status: status, Message: apiMsg}
	case status >= 500 && status <= 599:
		msg := apiMsg
		if msg == "" {
			msg = fmt.Sprintf("%s returned status %d", ep.provider, status)
		}
		return &Error{Provider: ep.provider, Kind: KindServerFailure, Status: status, Message: msg}
	default:
		msg := apiMsg
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
		}
		return &Error{Provider: ep.provider, Kind: KindServerFailure, Status: status, Message: msg}
	}
}

// parseRetryAfter reads a Retry-After header as either delta-seconds or an
// HTTP date.
func parseRetryAfter(header http.Header) (time.Duration, bool) {
	value := header.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait, true
		}
		return 0, true
	}
	return 0, false
}

// networkError categorizes a transport-level failure into a human-readable
// cause. Context cancellation passes through untouched so callers can tell
// an abort from a provider fault.
func networkError(name string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Provider: name, Kind: KindTimedOut, Message: "request timed out", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Provider: name, Kind: KindTimedOut, Message: "request timed out", Err: err}
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Provider: name, Kind: KindNetworkFailure, Message: fmt.Sprintf("DNS lookup failed for %s", dnsErr.Name), Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Provider: name, Kind: KindNetworkFailure, Message: "connection refused", Err: err}
	}
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return &Error{Provider: name, Kind: KindNetworkFailure, Message: "network unreachable", Err: err}
	}
	return &Error{Provider: name, Kind: KindNetworkFailure, Message: fmt.Sprintf("request failed: %v", err), Err: err}
}
