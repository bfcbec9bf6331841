// Package tts defines the interface for text-to-speech synthesis.
//
// Careline uses TTS only for the synthetic evaluation corpus: the dataset
// generator renders each scenario phrase to audio in the scenario's
// language.
package tts

import (
	"context"
	"errors"
)

// ErrSynthesis wraps any failure of the external speech-synthesis
// capability. The dataset generator records it per sample and keeps going.
var ErrSynthesis = errors.New("speech synthesis failed")

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code (e.g., "en", "es") to select the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Result holds the output of TTS synthesis.
type Result struct {
	// Audio is the synthesized audio as a WAV file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav").
	ContentType string

	// SampleRate is the audio sample rate in Hz (e.g., 22050).
	SampleRate int

	// Channels is the number of audio channels (typically 1).
	Channels int
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize generates WAV audio from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*Result, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}
