// Package local implements the Transcriber interface against any
// OpenAI-compatible Whisper endpoint (whisper.cpp server, faster-whisper).
package local

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

// Transcriber sends audio to a self-hosted Whisper-compatible endpoint.
type Transcriber struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a new local transcriber from config.
func New(cfg config.LocalSTT, timeout time.Duration) *Transcriber {
	return &Transcriber{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe uploads the audio as multipart form data and returns the text.
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
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

	slog.Debug("transcription complete", "backend", "local", "text_length", len(result.Text))
	return result.Text, nil
}

// Close is a no-op for the local transcriber.
func (t *Transcriber) Close() error { return nil }
