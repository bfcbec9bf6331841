// Package piper implements the TTS Synthesizer using a Piper Wyoming
// protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200. Each event is a
// JSON header line (type, optional data_length and payload_length) followed
// by the data JSON and the raw payload bytes. Synthesis produces a stream of
// audio-chunk events carrying raw PCM, which this client assembles into a
// WAV container.
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/tts"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names
// for the languages careline supports.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"es": "es_ES-mls_10246-low",
	"ca": "ca_ES-upc_ona-medium",
	"fr": "fr_FR-siwis-medium",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
}

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string            // default host:port of the Piper Wyoming server
	endpoints map[string]string // language -> host:port for per-language instances
	voices    map[string]string // language -> voice name overrides
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	// Merge user-configured voices with defaults.
	voices := make(map[string]string, len(defaultVoices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[k] = v
	}

	cleanEndpoint := func(ep string) string {
		ep = strings.TrimPrefix(ep, "tcp://")
		ep = strings.TrimPrefix(ep, "http://")
		return ep
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[lang] = cleanEndpoint(ep)
	}

	return &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
	}
}

// wyomingEvent is the JSON header line of one Wyoming protocol event.
type wyomingEvent struct {
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	DataLength    int             `json:"data_length,omitempty"`
	PayloadLength int             `json:"payload_length,omitempty"`
}

type audioStartData struct {
	Rate     int `json:"rate"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

// Synthesize sends text to the Piper server and returns synthesized audio as WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.Result, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	// Select voice based on language or explicit override.
	voice := opts.Voice
	if voice == "" {
		voice = s.voices[opts.Language]
	}
	if voice == "" {
		voice = s.voices["en"] // fallback to English
	}

	// Select endpoint: per-language endpoint if available, else fallback.
	endpoint := s.endpoints[opts.Language]
	if endpoint == "" {
		endpoint = s.endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%w: no piper endpoint configured for language %q", tts.ErrSynthesis, opts.Language)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "language", opts.Language, "endpoint", endpoint)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to piper: %v", tts.ErrSynthesis, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// Send the synthesize event.
	synthData, _ := json.Marshal(map[string]any{
		"text":  text,
		"voice": map[string]string{"name": voice},
	})
	header, _ := json.Marshal(wyomingEvent{Type: "synthesize", DataLength: len(synthData)})
	if _, err := conn.Write(append(append(header, '\n'), synthData...)); err != nil {
		return nil, fmt.Errorf("%w: sending synthesize: %v", tts.ErrSynthesis, err)
	}

	// Read audio events until audio-stop.
	reader := bufio.NewReader(conn)
	var pcm bytes.Buffer
	rate, width, channels := 22050, 2, 1

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: reading event header: %v", tts.ErrSynthesis, err)
		}

		var ev wyomingEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("%w: parsing event header: %v", tts.ErrSynthesis, err)
		}

		data := ev.Data
		if ev.DataLength > 0 {
			buf := make([]byte, ev.DataLength)
			if _, err := io.ReadFull(reader, buf); err != nil {
				return nil, fmt.Errorf("%w: reading event data: %v", tts.ErrSynthesis, err)
			}
			data = buf
		}

		var payload []byte
		if ev.PayloadLength > 0 {
			payload = make([]byte, ev.PayloadLength)
			if _, err := io.ReadFull(reader, payload); err != nil {
				return nil, fmt.Errorf("%w: reading event payload: %v", tts.ErrSynthesis, err)
			}
		}

		switch ev.Type {
		case "audio-start":
			var start audioStartData
			if err := json.Unmarshal(data, &start); err == nil && start.Rate > 0 {
				rate, width, channels = start.Rate, start.Width, start.Channels
			}
		case "audio-chunk":
			pcm.Write(payload)
		case "audio-stop":
			wav := wrapWAV(pcm.Bytes(), rate, width, channels)
			return &tts.Result{
				Audio:       wav,
				ContentType: "audio/wav",
				SampleRate:  rate,
				Channels:    channels,
			}, nil
		case "error":
			return nil, fmt.Errorf("%w: piper error: %s", tts.ErrSynthesis, data)
		}
	}
}

// Close is a no-op; connections are per-synthesis.
func (s *Synthesizer) Close() error { return nil }

// wrapWAV wraps raw PCM samples in a RIFF/WAVE container.
func wrapWAV(pcm []byte, rate, width, channels int) []byte {
	if width <= 0 {
		width = 2
	}
	if channels <= 0 {
		channels = 1
	}

	var buf bytes.Buffer
	dataLen := uint32(len(pcm))

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*channels*width))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*width))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(width*8))

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)

	return buf.Bytes()
}
