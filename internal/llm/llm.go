// Package llm defines the interface for text-completion backends.
//
// The intent classifier and the responder both talk to an external language
// model through this contract. Careline ships with two backends: OpenAI
// (cloud) and Local (self-hosted via Ollama or any compatible server).
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable wraps any failure of the external completion capability
// (timeout, quota, malformed response). The underlying cause is attached.
var ErrUnavailable = errors.New("completion unavailable")

// Request describes one completion call. Model selection lives in the
// backend; the recognized generation parameters are temperature and
// max_tokens.
type Request struct {
	// System is the system prompt (may be empty).
	System string

	// Prompt is the user prompt.
	Prompt string

	// Temperature controls response determinism.
	Temperature float64

	// MaxTokens bounds response length (0 = backend default).
	MaxTokens int

	// JSONOutput asks the backend for a JSON object response where the
	// provider supports it.
	JSONOutput bool
}

// Client is the interface for completion backends.
type Client interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Complete runs one completion and returns the generated text.
	Complete(ctx context.Context, req Request) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}
