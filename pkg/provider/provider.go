package provider

import (
	"context"
	"time"
)

// Provider defines the interface for remote LLM provider clients.
// Implementations are stateless beyond held credentials and safe for
// concurrent reuse across simultaneous pipeline executions.
type Provider interface {
	// Transform sends the request to the remote model and returns the
	// rewritten text.
	Transform(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider's identifier.
	Name() string

	// IsConfigured reports whether the provider has the credentials it
	// needs to accept requests.
	IsConfigured() bool
}

// Request describes a single transformation call to a provider.
type Request struct {
	Provider      string
	Model         string
	Input         string
	Instruction   string
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration
	CorrelationID string
}

// Response is the normalized result of a provider call.
type Response struct {
	Provider string
	Model    string
	Output   string
	Duration time.Duration
}
