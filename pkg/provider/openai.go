package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const openaiBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements the Provider interface for OpenAI chat models.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// openaiRequest represents the chat completions request format. The
// instruction travels as a dedicated system-role message ahead of the user
// message.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

// openaiMessage represents a chat message.
type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openaiResponse represents the chat completions response format.
type openaiResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// openaiErrorBody represents the structured error envelope.
type openaiErrorBody struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIProvider creates a new OpenAI provider client.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:     apiKey,
		baseURL:    openaiBaseURL,
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsConfigured reports whether an API key is present.
func (p *OpenAIProvider) IsConfigured() bool {
	return p.apiKey != ""
}

// Transform sends the request to OpenAI and returns the rewritten text.
func (p *OpenAIProvider) Transform(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, &Error{Provider: p.Name(), Kind: KindNotConfigured, Message: "OpenAI API key is not set"}
	}

	start := time.Now()
	output, err := send(ctx, p.httpClient, req.Timeout, endpoint{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      p.baseURL + "/chat/completions",
		headers: map[string]string{
			"Authorization": "Bearer " + p.apiKey,
		},
		payload: openaiRequest{
			Model: req.Model,
			Messages: []openaiMessage{
				{Role: "system", Content: req.Instruction},
				{Role: "user", Content: req.Input},
			},
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		},
		decode:     decodeOpenAIResponse,
		apiMessage: openaiAPIMessage,
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

func decodeOpenAIResponse(body []byte) (string, error) {
	var resp openaiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func openaiAPIMessage(body []byte) string {
	var envelope openaiErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return ""
	}
	return envelope.Error.Message
}
