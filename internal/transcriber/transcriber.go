// Package transcriber defines the interface for speech-to-text backends.
//
// A transcriber converts raw audio bytes into text. Careline ships with
// three backends: OpenAI (cloud), Local (self-hosted Whisper-compatible
// endpoint), and Google (Cloud Speech-to-Text). All backends validate the
// audio format against the accepted set before making any external call.
package transcriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/carelinehq/careline/internal/call"
)

// ErrUnsupportedFormat is returned when the audio format is outside the
// accepted set. The check happens before any external capability is invoked.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ErrUnavailable wraps any failure of the external speech-to-text capability
// (timeout, quota, malformed response). The underlying cause is attached.
var ErrUnavailable = errors.New("transcription unavailable")

// Transcriber is the interface for STT backends.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "openai", "local", "google").
	Name() string

	// Transcribe converts audio bytes to text. An empty string is a valid
	// result: it means the engine heard silence, not that it failed.
	Transcribe(ctx context.Context, audio []byte, format call.AudioFormat) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}

// CheckFormat enforces the accepted-format invariant shared by all backends.
func CheckFormat(format call.AudioFormat) error {
	if !format.Valid() {
		return fmt.Errorf("%w: %q (accepted: %v)", ErrUnsupportedFormat, format, call.AcceptedFormats)
	}
	return nil
}
