package unit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zen-systems/clipflow/pkg/provider"
)

// stubProvider drives RemoteUnit tests with a programmable transform.
type stubProvider struct {
	name  string
	fn    func(ctx context.Context, req provider.Request) (*provider.Response, error)
	calls atomic.Int32
}

func (s *stubProvider) Name() string {
	if s.name == "" {
		return "stub"
	}
	return s.name
}

func (s *stubProvider) IsConfigured() bool { return true }

func (s *stubProvider) Transform(ctx context.Context, req provider.Request) (*provider.Response, error) {
	s.calls.Add(1)
	return s.fn(ctx, req)
}

func echoProvider() *stubProvider {
	return &stubProvider{fn: func(_ context.Context, req provider.Request) (*provider.Response, error) {
		return &provider.Response{Provider: "stub", Model: req.Model, Output: "out:" + req.Input}, nil
	}}
}

func TestRemoteUnitEmptyInputBeforeAnyCall(t *testing.T) {
	stub := echoProvider()
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m"})

	_, err := u.Transform(context.Background(), "   \n\t")

	var unitErr *Error
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, KindEmptyInput, unitErr.Kind)
	assert.Equal(t, int32(0), stub.calls.Load(), "validation must precede the network call")
}

func TestRemoteUnitContentTooLargeBeforeAnyCall(t *testing.T) {
	stub := echoProvider()
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m", ContentLimit: 10})

	_, err := u.Transform(context.Background(), "this is far too long")

	var unitErr *Error
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, KindContentTooLarge, unitErr.Kind)
	assert.Equal(t, 20, unitErr.ActualBytes)
	assert.Equal(t, 10, unitErr.LimitBytes)
	assert.Equal(t, int32(0), stub.calls.Load())
}

func TestRemoteUnitSuccess(t *testing.T) {
	var got provider.Request
	stub := &stubProvider{fn: func(_ context.Context, req provider.Request) (*provider.Response, error) {
		got = req
		return &provider.Response{Provider: "stub", Model: req.Model, Output: "rewritten"}, nil
	}}
	u := NewRemoteUnit(stub, RemoteConfig{
		ID:          "stub-fix",
		Name:        "Fix Grammar",
		Model:       "model-1",
		Instruction: "fix grammar",
		Temperature: 0.3,
		MaxTokens:   256,
		Timeout:     5 * time.Second,
	})

	output, err := u.Transform(context.Background(), "teh text")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", output)

	assert.Equal(t, "model-1", got.Model)
	assert.Equal(t, "teh text", got.Input)
	assert.Equal(t, "fix grammar", got.Instruction)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.NotEmpty(t, got.CorrelationID)
}

func TestRemoteUnitCorrelationIDFreshPerCall(t *testing.T) {
	var ids []string
	stub := &stubProvider{fn: func(_ context.Context, req provider.Request) (*provider.Response, error) {
		ids = append(ids, req.CorrelationID)
		return &provider.Response{Output: "ok"}, nil
	}}
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m"})

	for i := 0; i < 2; i++ {
		_, err := u.Transform(context.Background(), "text")
		require.NoError(t, err)
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestRemoteUnitTimeoutRace(t *testing.T) {
	released := make(chan struct{})
	stub := &stubProvider{fn: func(ctx context.Context, _ provider.Request) (*provider.Response, error) {
		defer close(released)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m", Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := u.Transform(context.Background(), "text")
	elapsed := time.Since(start)

	var unitErr *Error
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, KindTimedOut, unitErr.Kind)
	assert.Equal(t, 0, unitErr.Seconds, "50ms rounds down to 0 whole seconds")
	assert.GreaterOrEqual(t, elapsed, 45*time.Millisecond, "must not fire before the timeout")
	assert.Less(t, elapsed, 300*time.Millisecond, "must fire close to the timeout")

	// The losing branch must be cancelled, not merely ignored.
	select {
	case <-released:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("provider call was not cancelled after the timer won")
	}
}

func TestRemoteUnitCancellationPropagates(t *testing.T) {
	stub := &stubProvider{fn: func(ctx context.Context, _ provider.Request) (*provider.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m", Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := u.Transform(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteUnitWhitespaceOutputIsError(t *testing.T) {
	stub := &stubProvider{fn: func(_ context.Context, _ provider.Request) (*provider.Response, error) {
		return &provider.Response{Output: "  \n \t"}, nil
	}}
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m"})

	_, err := u.Transform(context.Background(), "text")

	var unitErr *Error
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, KindProcessing, unitErr.Kind)
	assert.Contains(t, unitErr.Message, "empty result")
}

func TestRemoteUnitErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		provErr  *provider.Error
		wantKind Kind
	}{
		{"not configured", &provider.Error{Provider: "stub", Kind: provider.KindNotConfigured}, KindProcessing},
		{"auth failed", &provider.Error{Provider: "stub", Kind: provider.KindAuthFailed}, KindAuth},
		{"rate limited", &provider.Error{Provider: "stub", Kind: provider.KindRateLimited}, KindRateLimited},
		{"timed out", &provider.Error{Provider: "stub", Kind: provider.KindTimedOut}, KindTimedOut},
		{"model not found", &provider.Error{Provider: "stub", Kind: provider.KindModelNotFound}, KindProcessing},
		{"network failure", &provider.Error{Provider: "stub", Kind: provider.KindNetworkFailure, Message: "connection refused"}, KindNetwork},
		{"server failure", &provider.Error{Provider: "stub", Kind: provider.KindServerFailure, Message: "overloaded"}, KindProcessing},
		{"invalid response", &provider.Error{Provider: "stub", Kind: provider.KindInvalidResponse, Message: "bad json"}, KindProcessing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubProvider{fn: func(_ context.Context, _ provider.Request) (*provider.Response, error) {
				return nil, tc.provErr
			}}
			u := NewRemoteUnit(stub, RemoteConfig{Model: "m"})

			_, err := u.Transform(context.Background(), "text")

			var unitErr *Error
			require.ErrorAs(t, err, &unitErr)
			assert.Equal(t, tc.wantKind, unitErr.Kind)
			// Wrapping preserves the original cause.
			var cause *provider.Error
			require.True(t, errors.As(err, &cause))
			assert.Equal(t, tc.provErr.Kind, cause.Kind)
		})
	}
}

func TestRemoteUnitRetryAfterPreserved(t *testing.T) {
	stub := &stubProvider{fn: func(_ context.Context, _ provider.Request) (*provider.Response, error) {
		return nil, &provider.Error{
			Provider:      "stub",
			Kind:          provider.KindRateLimited,
			RetryAfter:    12 * time.Second,
			HasRetryAfter: true,
		}
	}}
	u := NewRemoteUnit(stub, RemoteConfig{Model: "m"})

	_, err := u.Transform(context.Background(), "text")

	var unitErr *Error
	require.ErrorAs(t, err, &unitErr)
	assert.Equal(t, KindRateLimited, unitErr.Kind)
	assert.True(t, unitErr.HasRetryAfter)
	assert.Equal(t, 12*time.Second, unitErr.RetryAfter)
}

func TestRemoteUnitDefaultsAndProvenance(t *testing.T) {
	stub := echoProvider()
	u := NewRemoteUnit(stub, RemoteConfig{Model: "model-1", Instruction: "rewrite"})

	assert.Equal(t, "stub/model-1", u.ID())
	assert.Equal(t, "stub/model-1", u.Name())

	prov := u.Provenance()
	assert.Equal(t, "stub", prov.Provider)
	assert.Equal(t, "model-1", prov.Model)
	assert.Equal(t, "rewrite", prov.Instruction)
}
