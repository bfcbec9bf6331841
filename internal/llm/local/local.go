// Package local implements the completion Client against a self-hosted
// Ollama-compatible generate endpoint.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/llm"
)

// Client talks to an Ollama /api/generate endpoint.
type Client struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a new local completion client from config.
func New(cfg config.LocalLLM, timeout time.Duration) *Client {
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &Client{
		endpoint: cfg.Endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "local" }

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete sends the prompt to the generate endpoint and returns the text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}

	body := generateRequest{
		Model:   c.model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  false,
		Options: opts,
	}
	if req.JSONOutput {
		body.Format = "json"
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshalling generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("%w: status %d: %s", llm.ErrUnavailable, resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", llm.ErrUnavailable, err)
	}

	content := strings.TrimSpace(genResp.Response)
	slog.Debug("completion complete", "backend", "local", "length", len(content))
	return content, nil
}

// Close is a no-op for the local client.
func (c *Client) Close() error { return nil }
