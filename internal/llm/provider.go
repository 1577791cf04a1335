// Package llm abstracts "given a text prompt, return a text completion"
// over interchangeable backends: an OpenAI-compatible HTTP endpoint, AWS
// Bedrock, or a deterministic stub for offline use.
package llm

import (
	"context"
	"fmt"
)

// Provider is the completion contract consumed by the simulation engine.
type Provider interface {
	// Complete returns the model's raw text completion for prompt. Errors
	// wrap ErrProvider; retry exhaustion on timeouts wraps ErrTimeout.
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Provider.
func (f ProviderFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// CompleteOrFallback is the never-failing entry point. On any provider
// error it returns fallback, or a generic structured fallback when fallback
// is empty.
func CompleteOrFallback(ctx context.Context, p Provider, prompt, fallback string) string {
	out, err := p.Complete(ctx, prompt)
	if err == nil {
		return out
	}
	if fallback != "" {
		return fallback
	}
	return `{"action": "ignored", "reason": "Unable to generate response", "error": true}`
}

// Kind selects a provider implementation at construction time.
type Kind string

const (
	KindOpenAI  Kind = "openai"
	KindBedrock Kind = "bedrock"
	KindStub    Kind = "stub"
)

// Options carries the construction parameters shared by all provider kinds.
type Options struct {
	Kind        Kind
	BaseURL     string // OpenAI-compatible endpoint base, e.g. http://127.0.0.1:1234/v1
	APIKey      string
	Model       string
	TimeoutSecs int
	MaxAttempts int
	Region      string // Bedrock only
	StubSeed    int64
}

// New constructs the provider named by opts.Kind. An empty kind defaults to
// the OpenAI-compatible client.
func New(opts Options) (Provider, error) {
	switch opts.Kind {
	case KindOpenAI, "":
		return NewClient(opts), nil
	case KindBedrock:
		return NewBedrockProvider(opts)
	case KindStub:
		return NewStub(opts.StubSeed), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider kind %q", ErrProvider, opts.Kind)
	}
}
