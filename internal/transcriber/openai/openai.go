// Package openai implements the Transcriber interface using the OpenAI
// Audio Transcriptions API (Whisper / gpt-4o-transcribe).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/transcriber"
)

const transcriptionURL = "https://api.openai.com/v1/audio/transcriptions"

// Transcriber sends audio to the OpenAI Transcription API.
type Transcriber struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New creates a new OpenAI transcriber from config. The per-call timeout is
// applied on the HTTP client; callers may tighten it further via context.
func New(cfg config.OpenAISTT, timeout time.Duration) *Transcriber {
	return &Transcriber{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: transcriptionURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe uploads the audio as multipart form data and returns the text.
// The response's language field is deliberately ignored: language detection
// is a separate, transcript-only concern downstream.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, format call.AudioFormat) (string, error) {
	if err := transcriber.CheckFormat(format); err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio."+string(format))
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	_ = writer.WriteField("model", t.model)
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", transcriber.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: status %d: %s", transcriber.ErrUnavailable, resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", transcriber.ErrUnavailable, err)
	}

	slog.Debug("transcription complete", "backend", "openai", "text_length", len(result.Text))
	return result.Text, nil
}

// Close is a no-op for the OpenAI transcriber.
func (t *Transcriber) Close() error { return nil }

// WithBaseURL overrides the API endpoint. Used by tests.
func (t *Transcriber) WithBaseURL(url string) *Transcriber {
	t.baseURL = url
	return t
}
