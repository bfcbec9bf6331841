// Package responder generates the natural-language reply for a classified
// request, in the caller's language.
package responder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/langdetect"
	"github.com/carelinehq/careline/internal/llm"
)

// ErrUnavailable wraps any failure of the external generation capability.
var ErrUnavailable = errors.New("response generation unavailable")

const systemPrompt = "You are a professional healthcare assistant. " +
	"Return only the response text without any prefixes or additional formatting."

// Responder generates replies through an external completion backend.
type Responder struct {
	client      llm.Client
	temperature float64
	maxTokens   int
}

// New creates a Responder.
func New(client llm.Client, temperature float64, maxTokens int) *Responder {
	return &Responder{client: client, temperature: temperature, maxTokens: maxTokens}
}

func buildPrompt(in call.Intent, language, transcript string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a professional healthcare response in %s for the following:\n\n",
		langdetect.Name(language))
	fmt.Fprintf(&sb, "Original message: %s\n", transcript)
	fmt.Fprintf(&sb, "Intent: %s\n\n", in)
	sb.WriteString("The response should be helpful, concise, and maintain patient privacy.\n")
	sb.WriteString("Return ONLY the response text without any prefixes or additional formatting.")
	return sb.String()
}

// Generate produces the reply text for a classified request. A response is
// never generated without a prior successful classification; callers pass
// the intent that classification produced.
func (r *Responder) Generate(ctx context.Context, in call.Intent, language, transcript string) (string, error) {
	out, err := r.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(in, language, transcript),
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	text := strings.TrimSpace(out)
	// Some models prefix the reply despite the instruction.
	if len(text) >= 9 && strings.EqualFold(text[:9], "response:") {
		text = strings.TrimSpace(text[9:])
	}

	slog.Debug("response generated", "intent", in, "language", language, "length", len(text))
	return text, nil
}
