package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/tts"
)

// fakeWyomingServer accepts one connection, records the synthesize event and
// replies with the given event script.
func fakeWyomingServer(t *testing.T, respond func(w io.Writer, synthData []byte)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		var ev wyomingEvent
		if json.Unmarshal(line, &ev) != nil {
			return
		}
		data := make([]byte, ev.DataLength)
		if _, err := io.ReadFull(reader, data); err != nil {
			return
		}
		respond(conn, data)
	}()

	return ln.Addr().String()
}

func writeEvent(w io.Writer, ev wyomingEvent, data, payload []byte) {
	ev.DataLength = len(data)
	ev.PayloadLength = len(payload)
	header, _ := json.Marshal(ev)
	w.Write(append(header, '\n'))
	w.Write(data)
	w.Write(payload)
}

func TestSynthesize(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	var gotSynth map[string]any

	addr := fakeWyomingServer(t, func(w io.Writer, synthData []byte) {
		json.Unmarshal(synthData, &gotSynth)
		writeEvent(w, wyomingEvent{Type: "audio-start"},
			[]byte(`{"rate": 22050, "width": 2, "channels": 1}`), nil)
		writeEvent(w, wyomingEvent{Type: "audio-chunk"}, []byte(`{}`), pcm[:4])
		writeEvent(w, wyomingEvent{Type: "audio-chunk"}, []byte(`{}`), pcm[4:])
		writeEvent(w, wyomingEvent{Type: "audio-stop"}, []byte(`{}`), nil)
	})

	s := New(config.PiperConfig{Endpoint: addr})
	res, err := s.Synthesize(context.Background(), "I need to refill my prescription",
		tts.SynthesizeOpts{Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, "audio/wav", res.ContentType)
	assert.Equal(t, 22050, res.SampleRate)
	assert.Equal(t, 1, res.Channels)

	// PCM chunks land back-to-back behind the 44-byte WAV header.
	require.Len(t, res.Audio, 44+len(pcm))
	assert.Equal(t, "RIFF", string(res.Audio[:4]))
	assert.Equal(t, "WAVE", string(res.Audio[8:12]))
	assert.Equal(t, pcm, res.Audio[44:])

	assert.Equal(t, "I need to refill my prescription", gotSynth["text"])
	voice := gotSynth["voice"].(map[string]any)
	assert.Equal(t, "en_US-lessac-medium", voice["name"])
}

func TestSynthesizeVoiceSelection(t *testing.T) {
	tests := []struct {
		name string
		opts tts.SynthesizeOpts
		cfg  config.PiperConfig
		want string
	}{
		{"language default", tts.SynthesizeOpts{Language: "es"}, config.PiperConfig{}, "es_ES-mls_10246-low"},
		{"explicit override", tts.SynthesizeOpts{Language: "es", Voice: "es_MX-custom"}, config.PiperConfig{}, "es_MX-custom"},
		{"config override", tts.SynthesizeOpts{Language: "en"},
			config.PiperConfig{Voices: map[string]string{"en": "en_GB-alba-medium"}}, "en_GB-alba-medium"},
		{"unknown language falls back to english", tts.SynthesizeOpts{Language: "zz"}, config.PiperConfig{}, "en_US-lessac-medium"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSynth struct {
				Voice struct {
					Name string `json:"name"`
				} `json:"voice"`
			}
			addr := fakeWyomingServer(t, func(w io.Writer, synthData []byte) {
				json.Unmarshal(synthData, &gotSynth)
				writeEvent(w, wyomingEvent{Type: "audio-stop"}, []byte(`{}`), nil)
			})
			tt.cfg.Endpoint = addr

			_, err := New(tt.cfg).Synthesize(context.Background(), "hola", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gotSynth.Voice.Name)
		})
	}
}

func TestSynthesizePiperError(t *testing.T) {
	addr := fakeWyomingServer(t, func(w io.Writer, synthData []byte) {
		writeEvent(w, wyomingEvent{Type: "error"}, []byte(`{"text": "no such voice"}`), nil)
	})

	_, err := New(config.PiperConfig{Endpoint: addr}).
		Synthesize(context.Background(), "text", tts.SynthesizeOpts{Language: "en"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tts.ErrSynthesis)
}

func TestSynthesizeEmptyText(t *testing.T) {
	s := New(config.PiperConfig{Endpoint: "localhost:10200"})
	_, err := s.Synthesize(context.Background(), "", tts.SynthesizeOpts{Language: "en"})
	assert.Error(t, err)
}

func TestSynthesizeNoEndpoint(t *testing.T) {
	s := New(config.PiperConfig{})
	_, err := s.Synthesize(context.Background(), "text", tts.SynthesizeOpts{Language: "en"})
	assert.ErrorIs(t, err, tts.ErrSynthesis)
}

func TestPerLanguageEndpoints(t *testing.T) {
	addr := fakeWyomingServer(t, func(w io.Writer, synthData []byte) {
		writeEvent(w, wyomingEvent{Type: "audio-stop"}, []byte(`{}`), nil)
	})

	// Only the Spanish instance exists; English routes nowhere.
	s := New(config.PiperConfig{Endpoints: map[string]string{"es": fmt.Sprintf("tcp://%s", addr)}})

	_, err := s.Synthesize(context.Background(), "Necesito una cita", tts.SynthesizeOpts{Language: "es"})
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), "text", tts.SynthesizeOpts{Language: "en"})
	assert.ErrorIs(t, err, tts.ErrSynthesis)
}

func TestWrapWAVHeader(t *testing.T) {
	pcm := bytes.Repeat([]byte{0xAB}, 10)
	wav := wrapWAV(pcm, 16000, 2, 1)

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))  // PCM
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))  // channels
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32])) // byte rate
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))   // bits per sample
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}
