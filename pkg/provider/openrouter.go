package provider

import (
	"context"
	"net/http"
	"time"
)

const (
	openrouterBaseURL = "https://openrouter.ai/api/v1"

	// OpenRouter asks callers to identify themselves with a referrer URL
	// and a display title; these defaults apply when the configuration
	// does not override them.
	defaultOpenRouterReferrer = "https://github.com/zen-systems/clipflow"
	defaultOpenRouterTitle    = "clipflow"
)

// OpenRouterProvider implements the Provider interface for OpenRouter.
// OpenRouter uses an OpenAI-compatible request format plus two custom
// attribution headers.
type OpenRouterProvider struct {
	apiKey     string
	referrer   string
	title      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenRouterProvider creates a new OpenRouter provider client. Empty
// referrer or title fall back to the package defaults.
func NewOpenRouterProvider(apiKey, referrer, title string) *OpenRouterProvider {
	if referrer == "" {
		referrer = defaultOpenRouterReferrer
	}
	if title == "" {
		title = defaultOpenRouterTitle
	}
	return &OpenRouterProvider{
		apiKey:     apiKey,
		referrer:   referrer,
		title:      title,
		baseURL:    openrouterBaseURL,
		httpClient: &http.Client{},
	}
}

// Name returns the provider identifier.
func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

// IsConfigured reports whether an API key is present.
func (p *OpenRouterProvider) IsConfigured() bool {
	return p.apiKey != ""
}

// Transform sends the request to OpenRouter and returns the rewritten text.
func (p *OpenRouterProvider) Transform(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, &Error{Provider: p.Name(), Kind: KindNotConfigured, Message: "OpenRouter API key is not set"}
	}

	start := time.Now()
	output, err := send(ctx, p.httpClient, req.Timeout, endpoint{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      p.baseURL + "/chat/completions",
		headers: map[string]string{
			"Authorization": "Bearer " + p.apiKey,
			"HTTP-Referer":  p.referrer,
			"X-Title":       p.title,
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
