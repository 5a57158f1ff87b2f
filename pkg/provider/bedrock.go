package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBedrockRegion = "us-east-1"

// BedrockProvider implements the Provider interface for Amazon Bedrock's
// converse API. Two mutually exclusive authentication schemes exist: a
// bearer token, supported end to end, and access-key/secret request signing
// (SigV4), which is not implemented. Selecting the key/secret scheme fails
// deterministically with an authentication error rather than sending an
// unsigned request.
type BedrockProvider struct {
	bearerToken     string
	accessKeyID     string
	secretAccessKey string
	region          string
	baseURL         string
	httpClient      *http.Client
}

// bedrockRequest represents the converse API request format.
type bedrockRequest struct {
	Messages        []bedrockMessage       `json:"messages"`
	System          []bedrockContentBlock  `json:"system,omitempty"`
	InferenceConfig bedrockInferenceConfig `json:"inferenceConfig"`
}

// bedrockMessage represents a conversation turn.
type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

// bedrockContentBlock carries one text segment.
type bedrockContentBlock struct {
	Text string `json:"text"`
}

// bedrockInferenceConfig carries sampling parameters.
type bedrockInferenceConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}

// bedrockResponse represents the converse API response format.
type bedrockResponse struct {
	Output struct {
		Message struct {
			Content []bedrockContentBlock `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

// bedrockErrorBody represents the error envelope.
type bedrockErrorBody struct {
	Message string `json:"message,omitempty"`
}

// NewBedrockProvider creates a new Bedrock provider client. A non-empty
// bearer token selects bearer authentication; otherwise the key/secret pair
// selects the unsupported signing scheme.
func NewBedrockProvider(bearerToken, accessKeyID, secretAccessKey, region string) *BedrockProvider {
	if region == "" {
		region = defaultBedrockRegion
	}
	return &BedrockProvider{
		bearerToken:     bearerToken,
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
		region:          region,
		baseURL:         fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region),
		httpClient:      &http.Client{},
	}
}

// Name returns the provider identifier.
func (p *BedrockProvider) Name() string {
	return "bedrock"
}

// IsConfigured reports whether either authentication scheme has values.
func (p *BedrockProvider) IsConfigured() bool {
	return p.bearerToken != "" || (p.accessKeyID != "" && p.secretAccessKey != "")
}

// Transform sends the request to Bedrock and returns the rewritten text.
func (p *BedrockProvider) Transform(ctx context.Context, req Request) (*Response, error) {
	if !p.IsConfigured() {
		return nil, &Error{Provider: p.Name(), Kind: KindNotConfigured, Message: "Bedrock credentials are not set"}
	}
	if p.bearerToken == "" {
		// SigV4 signing is not implemented; fail rather than send an
		// unsigned request the service would reject opaquely.
		return nil, &Error{
			Provider: p.Name(),
			Kind:     KindAuthFailed,
			Message:  "access-key/secret request signing is not supported; configure a bearer token",
		}
	}

	start := time.Now()
	output, err := send(ctx, p.httpClient, req.Timeout, endpoint{
		provider: p.Name(),
		method:   http.MethodPost,
		url:      fmt.Sprintf("%s/model/%s/converse", p.baseURL, url.PathEscape(req.Model)),
		headers: map[string]string{
			"Authorization": "Bearer " + p.bearerToken,
		},
		payload: bedrockRequest{
			Messages: []bedrockMessage{
				{Role: "user", Content: []bedrockContentBlock{{Text: req.Input}}},
			},
			System: systemBlocks(req.Instruction),
			InferenceConfig: bedrockInferenceConfig{
				Temperature: req.Temperature,
				MaxTokens:   req.MaxTokens,
			},
		},
		decode:     decodeBedrockResponse,
		apiMessage: bedrockAPIMessage,
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

func systemBlocks(instruction string) []bedrockContentBlock {
	if instruction == "" {
		return nil
	}
	return []bedrockContentBlock{{Text: instruction}}
}

func decodeBedrockResponse(body []byte) (string, error) {
	var resp bedrockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Output.Message.Content) == 0 {
		return "", fmt.Errorf("response contained no content blocks")
	}
	var output string
	for _, block := range resp.Output.Message.Content {
		output += block.Text
	}
	return output, nil
}

func bedrockAPIMessage(body []byte) string {
	var envelope bedrockErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Message
}
