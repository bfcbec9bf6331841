// Package intent classifies transcripts into the closed healthcare taxonomy.
//
// The primary classifier prompts an external language model and maps its
// output back onto the taxonomy through call.ParseIntent; anything the model
// returns that cannot be mapped falls back to general_inquiry. A secondary
// rules classifier matches bilingual keywords and needs no external calls.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/langdetect"
	"github.com/carelinehq/careline/internal/llm"
)

// ErrUnavailable wraps any failure of the external classification capability.
var ErrUnavailable = errors.New("classification unavailable")

// Classifier maps a transcript and its language to exactly one intent.
type Classifier interface {
	// Classify returns one of the five taxonomy labels with a confidence
	// score in [0,1]. It never returns a value outside the taxonomy.
	Classify(ctx context.Context, transcript, language string) (call.Intent, float64, error)
}

const systemPrompt = "You are a healthcare intent classification expert."

// LLMClassifier classifies through an external completion backend.
type LLMClassifier struct {
	client      llm.Client
	temperature float64
	maxTokens   int
}

// NewLLM creates an LLM-backed classifier.
func NewLLM(client llm.Client, temperature float64, maxTokens int) *LLMClassifier {
	return &LLMClassifier{client: client, temperature: temperature, maxTokens: maxTokens}
}

func buildPrompt(transcript, language string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following healthcare-related message and classify its intent.\n")
	sb.WriteString("Choose exactly one of: ")
	for i, in := range call.Intents {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(in))
	}
	sb.WriteString(".\n\n")
	fmt.Fprintf(&sb, "Message (%s): %s\n\n", langdetect.Name(language), transcript)
	sb.WriteString(`Return a JSON object with "intent" and "confidence" (0-1).`)
	return sb.String()
}

// Classify prompts the model and maps its output onto the closed taxonomy.
func (c *LLMClassifier) Classify(ctx context.Context, transcript, language string) (call.Intent, float64, error) {
	out, err := c.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(transcript, language),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		JSONOutput:  true,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	label, confidence := parseClassification(out)
	in, ok := call.ParseIntent(label)
	if !ok {
		// Closed taxonomy: unmapped model output is a policy-defined
		// fallback, not an error.
		slog.Warn("unmappable intent from model, falling back",
			"raw", truncate(out, 200), "fallback", call.IntentGeneralInquiry)
		return call.IntentGeneralInquiry, 0, nil
	}
	return in, confidence, nil
}

// parseClassification extracts (label, confidence) from the model output.
// It tolerates a bare label, prose around the JSON, and either "confidence"
// or "confidence_score" as the score key.
func parseClassification(out string) (string, float64) {
	payload := out
	// Models sometimes wrap the JSON in prose or code fences.
	if start := strings.IndexByte(payload, '{'); start >= 0 {
		if end := strings.LastIndexByte(payload, '}'); end > start {
			payload = payload[start : end+1]
		}
	}

	var parsed struct {
		Intent          string  `json:"intent"`
		Confidence      float64 `json:"confidence"`
		ConfidenceScore float64 `json:"confidence_score"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err == nil && parsed.Intent != "" {
		conf := parsed.Confidence
		if conf == 0 {
			conf = parsed.ConfidenceScore
		}
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		return parsed.Intent, conf
	}
	// Not JSON: treat the whole output as the label.
	return out, 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// RulesClassifier classifies offline by counting bilingual keyword hits.
// Ties and zero hits resolve to general_inquiry.
type RulesClassifier struct{}

// NewRules creates a keyword-matching classifier.
func NewRules() *RulesClassifier { return &RulesClassifier{} }

// Classify scores each intent by keyword occurrences in the transcript.
func (c *RulesClassifier) Classify(ctx context.Context, transcript, language string) (call.Intent, float64, error) {
	lower := strings.ToLower(transcript)

	best := call.IntentGeneralInquiry
	bestHits := 0
	total := 0
	for _, in := range call.Intents {
		hits := 0
		for _, kw := range call.IntentKeywords[in] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		total += hits
		if hits > bestHits {
			best, bestHits = in, hits
		}
	}

	if bestHits == 0 {
		return call.IntentGeneralInquiry, 0, nil
	}
	return best, float64(bestHits) / float64(total), nil
}
