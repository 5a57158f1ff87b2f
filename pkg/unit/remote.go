package unit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zen-systems/clipflow/pkg/provider"
)

const (
	// DefaultTimeout is the logical per-call timeout for remote units.
	DefaultTimeout = 30 * time.Second

	// DefaultContentLimit is the input size ceiling in bytes. Clipboard
	// payloads larger than this are rejected before any network call.
	DefaultContentLimit = 200_000
)

// RemoteConfig describes how a remote unit invokes its provider.
type RemoteConfig struct {
	ID           string
	Name         string
	Model        string
	Instruction  string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	ContentLimit int
}

// RemoteUnit adapts one provider client to the Unit contract. It validates
// input before any network call, races the provider call against the
// logical timeout, and maps provider failures into unit errors.
type RemoteUnit struct {
	provider provider.Provider
	cfg      RemoteConfig
}

// NewRemoteUnit creates a remote unit, filling in timeout and content-limit
// defaults.
func NewRemoteUnit(p provider.Provider, cfg RemoteConfig) *RemoteUnit {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ContentLimit <= 0 {
		cfg.ContentLimit = DefaultContentLimit
	}
	if cfg.ID == "" {
		cfg.ID = p.Name() + "/" + cfg.Model
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	return &RemoteUnit{provider: p, cfg: cfg}
}

// ID returns the unit's stable identifier.
func (u *RemoteUnit) ID() string { return u.cfg.ID }

// Name returns the unit's display name.
func (u *RemoteUnit) Name() string { return u.cfg.Name }

// Provenance returns attribution metadata for stage results.
func (u *RemoteUnit) Provenance() Provenance {
	return Provenance{
		Provider:    u.provider.Name(),
		Model:       u.cfg.Model,
		Instruction: u.cfg.Instruction,
	}
}

// Transform validates the input, sends it to the provider under the logical
// timeout, and returns the rewritten text.
func (u *RemoteUnit) Transform(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", &Error{Kind: KindEmptyInput, Message: "input is empty"}
	}
	if len(input) > u.cfg.ContentLimit {
		return "", &Error{Kind: KindContentTooLarge, ActualBytes: len(input), LimitBytes: u.cfg.ContentLimit}
	}

	req := provider.Request{
		Provider:      u.provider.Name(),
		Model:         u.cfg.Model,
		Input:         input,
		Instruction:   u.cfg.Instruction,
		Temperature:   u.cfg.Temperature,
		MaxTokens:     u.cfg.MaxTokens,
		Timeout:       u.cfg.Timeout,
		CorrelationID: uuid.NewString(),
	}

	resp, err := u.race(ctx, req)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(resp.Output) == "" {
		return "", &Error{Kind: KindProcessing, Message: "provider returned an empty result"}
	}
	return resp.Output, nil
}

// race runs the provider call against the logical timeout. Whichever
// finishes first wins; cancelling the derived context tears down the loser
// so no in-flight call outlives the unit.
func (u *RemoteUnit) race(ctx context.Context, req provider.Request) (*provider.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	type outcome struct {
		resp *provider.Response
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		resp, err := u.provider.Transform(callCtx, req)
		done <- outcome{resp: resp, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, u.mapError(out.err)
		}
		return out.resp, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// The caller aborted; surface the cancellation rather
			// than a timeout.
			return nil, ctx.Err()
		}
		return nil, &Error{Kind: KindTimedOut, Seconds: int(u.cfg.Timeout.Seconds()), Err: callCtx.Err()}
	}
}

// mapError translates a provider failure into the unit error taxonomy.
// Every provider kind maps to exactly one unit kind.
func (u *RemoteUnit) mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimedOut, Seconds: int(u.cfg.Timeout.Seconds()), Err: err}
	}

	var provErr *provider.Error
	if !errors.As(err, &provErr) {
		return &Error{Kind: KindProcessing, Message: err.Error(), Err: err}
	}

	switch provErr.Kind {
	case provider.KindNotConfigured:
		return &Error{Kind: KindProcessing, Message: provErr.Provider + " is not configured", Err: provErr}
	case provider.KindAuthFailed:
		return &Error{Kind: KindAuth, Message: provErr.Message, Err: provErr}
	case provider.KindRateLimited:
		return &Error{
			Kind:          KindRateLimited,
			Message:       provErr.Message,
			RetryAfter:    provErr.RetryAfter,
			HasRetryAfter: provErr.HasRetryAfter,
			Err:           provErr,
		}
	case provider.KindTimedOut:
		return &Error{Kind: KindTimedOut, Seconds: int(u.cfg.Timeout.Seconds()), Err: provErr}
	case provider.KindNetworkFailure:
		return &Error{Kind: KindNetwork, Message: provErr.Message, Err: provErr}
	default:
		// Model-not-found, server failures, and undecodable responses
		// all surface as processing errors carrying the message.
		return &Error{Kind: KindProcessing, Message: provErr.Error(), Err: provErr}
	}
}
