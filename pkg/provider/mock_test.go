package provider

import (
	"context"
	"testing"
	"time"
)

func TestMockProviderDefaults(t *testing.T) {
	p := NewMockProvider()
	if !p.IsConfigured() {
		t.Error("mock should be configured by default")
	}

	resp, err := p.Transform(context.Background(), Request{Model: "mock-1", Input: "ab"})
	if err != nil {
		t.Fatalf("Transform() error: %v", err)
	}
	if resp.Output != "AB" {
		t.Errorf("output = %q, want uppercased echo", resp.Output)
	}
	if p.Calls() != 1 {
		t.Errorf("Calls() = %d", p.Calls())
	}
}

func TestMockProviderDelayHonorsCancellation(t *testing.T) {
	p := NewMockProvider()
	p.Delay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := p.Transform(ctx, Request{Model: "mock-1", Input: "hi"})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancellation did not interrupt the delay")
	}
}
