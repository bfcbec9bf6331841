// Package call defines the core data types flowing through the careline pipeline.
package call

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AudioFormat identifies an accepted audio container format.
type AudioFormat string

const (
	// FormatWAV is PCM audio in a WAV container.
	FormatWAV AudioFormat = "wav"

	// FormatMP3 is MPEG layer-3 compressed audio.
	FormatMP3 AudioFormat = "mp3"
)

// AcceptedFormats lists every format the pipeline accepts, in declared order.
var AcceptedFormats = []AudioFormat{FormatWAV, FormatMP3}

// ContentType returns the MIME type for the format.
func (f AudioFormat) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "audio/wav"
	}
}

// Valid reports whether the format is in the accepted set.
func (f AudioFormat) Valid() bool {
	for _, a := range AcceptedFormats {
		if f == a {
			return true
		}
	}
	return false
}

// ParseFormat maps a MIME type, file extension, or bare format name to an
// AudioFormat. It returns false for anything outside the accepted set.
func ParseFormat(s string) (AudioFormat, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	// Strip MIME parameters such as "; codecs=...".
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	switch s {
	case "wav", ".wav", "audio/wav", "audio/x-wav", "audio/wave":
		return FormatWAV, true
	case "mp3", ".mp3", "audio/mpeg", "audio/mp3":
		return FormatMP3, true
	}
	return "", false
}

// Request represents one incoming audio request.
type Request struct {
	// ID is a unique identifier for this request (UUID).
	ID string `json:"id"`

	// Source identifies the caller endpoint (e.g., "web-upload", "ivr-line-2").
	Source string `json:"source,omitempty"`

	// Audio is the raw audio payload.
	Audio []byte `json:"audio,omitempty"`

	// Format is the declared container format of Audio.
	Format AudioFormat `json:"format"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`
}

// NewRequest builds a Request with a fresh UUID and the current time.
func NewRequest(source string, audio []byte, format AudioFormat) *Request {
	return &Request{
		ID:        uuid.NewString(),
		Source:    source,
		Audio:     audio,
		Format:    format,
		Timestamp: time.Now().UTC(),
	}
}

// Validate checks the request invariants before any external capability is
// invoked.
func (r *Request) Validate() error {
	if !r.Format.Valid() {
		return fmt.Errorf("unsupported audio format %q (accepted: %v)", r.Format, AcceptedFormats)
	}
	if len(r.Audio) == 0 {
		return fmt.Errorf("empty audio payload")
	}
	return nil
}
