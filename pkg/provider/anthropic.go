package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"

	// anthropicDefaultMaxTokens is sent when the request does not cap the
	// output; the messages API requires the field.
	anthropicDefaultMaxTokens = 4096
)

// AnthropicProvider implements the Provider interface for Claude models.
type AnthropicProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// anthropicRequest represents the messages API request format. Unlike the
// chat-completions shape, the instruction travels in a top-level system
// field rather than as a message.
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
}

// anthropicMessage represents a conversation turn.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents the messages API response format.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// anthropicErrorBody represents the structured error envelope.
type anthropicErrorBody struct {
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicProvider creates a new Anthropic provider client.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:     apiKey,
		baseURL:    anthropicBaseURL,
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// IsConfigured reports whether an API key is present.
func (p *AnthropicProvider) IsConfigured() bool {
	return p.apiKey != ""
}

// Transform sends the request to Claude and returns the rewritten text.
func (p *AnthropicProvider) Transform(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, &Error{Provider: p.Name(), Kind: KindNotConfigured, Message: "Anthropic API key is not set"}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	start := time.Now()
	output, err := send(ctx, p.httpClient, req.Timeout, endpoint{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      p.baseURL + "/messages",
		headers: map[string]string{
			"x-api-key":         p.apiKey,
			"anthropic-version": anthropicAPIVersion,
		},
		payload: anthropicRequest{
			Model:     req.Model,
			MaxTokens: maxTokens,
			System:    req.Instruction,
			Messages: []anthropicMessage{
				{Role: "user", Content: req.Input},
			},
			Temperature: req.Temperature,
		},
		decode:     decodeAnthropicResponse,
		apiMessage: anthropicAPIMessage,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Provider: p.Name(),
		Model:    req.Model,
		Output:   output,
		Duration: time.Since(start),
	}, nil
}

func decodeAnthropicResponse(body []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("response contained no content blocks")
	}
	var output string
	for _, block := range resp.Content {
		if block.Type == "text" {
			output += block.Text
		}
	}
	return output, nil
}

func anthropicAPIMessage(body []byte) string {
	var envelope anthropicErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return ""
	}
	return envelope.Error.Message
}
