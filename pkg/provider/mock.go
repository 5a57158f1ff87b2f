package provider

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

// MockProvider returns deterministic responses for local runs and tests.
type MockProvider struct {
	Output     string
	Err        error
	Delay      time.Duration
	Configured bool

	calls atomic.Int64
}

// NewMockProvider creates a configured mock provider that echoes its input
// uppercased when no canned output is set.
func NewMockProvider() *MockProvider {
	return &MockProvider{Configured: true}
}

// Name returns the provider identifier.
func (p *MockProvider) Name() string {
	return "mock"
}

// IsConfigured reports the configured flag.
func (p *MockProvider) IsConfigured() bool {
	return p.Configured
}

// Calls returns how many times Transform has been invoked.
func (p *MockProvider) Calls() int {
	return int(p.calls.Load())
}

// Transform returns the canned output or error, honoring the configured
// delay and context cancellation.
func (p *MockProvider) Transform(ctx context.Context, req Request) (*Response, error) {
	p.calls.Add(1)

	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.Err != nil {
		return nil, p.Err
	}

	output := p.Output
	if output == "" {
		output = strings.ToUpper(req.Input)
	}
	return &Response{
		Provider: p.Name(),
		Model:    req.Model,
		Output:   output,
		Duration: p.Delay,
	}, nil
}
