package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestBedrockIsConfigured(t *testing.T) {
	cases := []struct {
		name                        string
		bearer, access, secret      string
		want                        bool
	}{
		{"nothing", "", "", "", false},
		{"bearer only", "token", "", "", true},
		{"key pair", "", "AKIA", "secret", true},
		{"access key without secret", "", "AKIA", "", false},
	}

	for _, tc := range cases {
		p := NewBedrockProvider(tc.bearer, tc.access, tc.secret, "us-east-1")
		if p.IsConfigured() != tc.want {
			t.Errorf("%s: IsConfigured() = %t, want %t", tc.name, p.IsConfigured(), tc.want)
		}
	}
}

func TestBedrockSigningSchemeUnsupported(t *testing.T) {
	// Key/secret selects SigV4 signing, which is not implemented; the
	// call must fail deterministically without touching the network.
	p := NewBedrockProvider("", "AKIA", "secret", "us-east-1")

	_, err := p.Transform(context.Background(), Request{Model: "anthropic.claude-3", Input: "hi"})
	var provErr *Error
	if !errors.As(err, &provErr) || provErr.Kind != KindAuthFailed {
		t.Fatalf("expected authentication-failed error, got %v", err)
	}
	if !strings.Contains(provErr.Message, "not supported") {
		t.Errorf("message = %q, want a documented limitation", provErr.Message)
	}
}

func TestBedrockBearerTransform(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/model/anthropic.claude-3/converse" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		var req bedrockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if len(req.System) != 1 || req.System[0].Text != "fix grammar" {
			t.Errorf("system = %+v", req.System)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{
				"message": map[string]any{
					"content": []map[string]string{{"text": "the text"}},
				},
			},
		})
	}))
	defer server.Close()

	p := NewBedrockProvider("token", "", "", "us-east-1")
	p.baseURL = server.URL
	p.httpClient = server.Client()

	resp, err := p.Transform(context.Background(), Request{
		Model:       "anthropic.claude-3",
		Input:       "teh text",
		Instruction: "fix grammar",
		Timeout:     time.Second,
	})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if resp.Output != "the text" {
		t.Errorf("output = %q", resp.Output)
	}
}

func TestBedrockNotConfigured(t *testing.T) {
	p := NewBedrockProvider("", "", "", "")
	_, err := p.Transform(context.Background(), Request{Model: "m", Input: "hi"})
	var provErr *Error
	if !errors.As(err, &provErr) || provErr.Kind != KindNotConfigured {
		t.Errorf("expected not-configured error, got %v", err)
	}
}
