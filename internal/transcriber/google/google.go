// Package google implements the Transcriber interface using Google Cloud
// Speech-to-Text batch recognition.
//
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set. This backend handles
// WAV (LINEAR16) only; MP3 uploads must use one of the Whisper backends.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/transcriber"
)

// Transcriber sends audio to Google Cloud Speech-to-Text.
type Transcriber struct {
	client       *speech.Client
	languageCode string
	sampleRateHz int
}

// New creates a new Google transcriber.
func New(ctx context.Context, cfg config.GoogleSTT) (*Transcriber, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}
	return &Transcriber{
		client:       c,
		languageCode: cfg.LanguageCode,
		sampleRateHz: cfg.SampleRateHz,
	}, nil
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "google" }

// Transcribe runs a synchronous Recognize call and joins the alternatives.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, format call.AudioFormat) (string, error) {
	if err := transcriber.CheckFormat(format); err != nil {
		return "", err
	}
	// The v1 API has no MP3 encoding; reject it here rather than let the
	// service return an opaque error.
	if format != call.FormatWAV {
		return "", fmt.Errorf("%w: %q (google backend accepts wav only)", transcriber.ErrUnsupportedFormat, format)
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(t.sampleRateHz),
			LanguageCode:    t.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", transcriber.ErrUnavailable, err)
	}

	var sb strings.Builder
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(r.Alternatives[0].Transcript)
	}

	text := sb.String()
	slog.Debug("transcription complete", "backend", "google", "text_length", len(text))
	return text, nil
}

// Close releases the underlying gRPC client.
func (t *Transcriber) Close() error {
	return t.client.Close()
}
