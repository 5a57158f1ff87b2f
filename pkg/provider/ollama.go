package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultOllamaEndpoint is the standard local Ollama address.
const DefaultOllamaEndpoint = "http://localhost:11434"

// OllamaProvider implements the Provider interface for a local Ollama
// service. There are no credentials; the provider is always configured.
type OllamaProvider struct {
	endpoint   string
	httpClient *http.Client
}

// ollamaRequest represents the generate API request format. Instruction and
// input travel as one combined prompt.
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

// ollamaOptions carries sampling parameters.
type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaResponse represents the generate API response format.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// ollamaErrorBody represents the error envelope.
type ollamaErrorBody struct {
	Error string `json:"error,omitempty"`
}

// NewOllamaProvider creates a new Ollama provider client. An empty endpoint
// falls back to the standard local address.
func NewOllamaProvider(endpoint string) *OllamaProvider {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	return &OllamaProvider{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsConfigured always reports true; the local service needs no credentials.
func (p *OllamaProvider) IsConfigured() bool {
	return true
}

// Transform sends the request to the local Ollama service and returns the
// rewritten text.
func (p *OllamaProvider) Transform(ctx context.Context, req Request) (*Response, error) {
	prompt := req.Input
	if req.Instruction != "" {
		prompt = req.Instruction + "\n\n" + req.Input
	}

	start := time.Now()
	output, err := send(ctx, p.httpClient, req.Timeout, endpoint{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      p.endpoint + "/api/generate",
		payload: ollamaRequest{
			Model:  req.Model,
			Prompt: prompt,
			Stream: false,
			Options: ollamaOptions{
				Temperature: req.Temperature,
				NumPredict:  req.MaxTokens,
			},
		},
		decode:     decodeOllamaResponse,
		apiMessage: ollamaAPIMessage,
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

func decodeOllamaResponse(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.Response, nil
}

func ollamaAPIMessage(body []byte) string {
	var envelope ollamaErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Error
}
