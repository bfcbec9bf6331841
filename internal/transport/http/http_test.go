package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelinehq/careline/internal/call"
)

// echoHandler records the request and returns a fixed successful result.
func echoHandler(captured **call.Request) func(context.Context, *call.Request) *call.Result {
	return func(ctx context.Context, req *call.Request) *call.Result {
		*captured = req
		return &call.Result{
			RequestID:  req.ID,
			Transcript: "I need to refill my prescription",
			Language:   "en",
			Intent:     call.IntentPrescriptionRefill,
			Confidence: 0.9,
			Response:   "I can help with that.",
			Stage:      call.StageComplete,
		}
	}
}

func TestProcessAudioRawBody(t *testing.T) {
	var captured *call.Request
	tr := New(0)

	req := httptest.NewRequest(http.MethodPost, "/process-audio", bytes.NewReader([]byte("pcm-bytes")))
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("X-Careline-Source", "ivr-7")
	w := httptest.NewRecorder()

	tr.handleProcessAudio(w, req, echoHandler(&captured))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, call.FormatWAV, captured.Format)
	assert.Equal(t, []byte("pcm-bytes"), captured.Audio)
	assert.Equal(t, "ivr-7", captured.Source)

	var result call.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, captured.ID, result.RequestID)
	assert.Equal(t, call.IntentPrescriptionRefill, result.Intent)
}

func TestProcessAudioMultipart(t *testing.T) {
	var captured *call.Request
	tr := New(0)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("audio_file", "request.mp3")
	require.NoError(t, err)
	part.Write([]byte("mp3-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-audio", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	tr.handleProcessAudio(w, req, echoHandler(&captured))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, call.FormatMP3, captured.Format)
	assert.Equal(t, []byte("mp3-bytes"), captured.Audio)
}

func TestProcessAudioUnsupportedContentType(t *testing.T) {
	tr := New(0)

	req := httptest.NewRequest(http.MethodPost, "/process-audio", bytes.NewReader([]byte("ogg-bytes")))
	req.Header.Set("Content-Type", "audio/ogg")
	w := httptest.NewRecorder()

	called := false
	tr.handleProcessAudio(w, req, func(ctx context.Context, r *call.Request) *call.Result {
		called = true
		return &call.Result{}
	})

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.False(t, called)
}

func TestProcessAudioUnsupportedExtension(t *testing.T) {
	tr := New(0)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("audio_file", "request.flac")
	require.NoError(t, err)
	part.Write([]byte("flac-bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-audio", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	tr.handleProcessAudio(w, req, func(ctx context.Context, r *call.Request) *call.Result {
		t.Fatal("handler must not run for an unsupported format")
		return nil
	})

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestProcessAudioMissingFormField(t *testing.T) {
	tr := New(0)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-audio", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()

	tr.handleProcessAudio(w, req, func(ctx context.Context, r *call.Request) *call.Result {
		t.Fatal("handler must not run without an upload")
		return nil
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// Stage failures are transport-level successes: the partial result comes
// back with 200 and the failing stage tagged.
func TestProcessAudioPartialResult(t *testing.T) {
	tr := New(0)

	req := httptest.NewRequest(http.MethodPost, "/process-audio", bytes.NewReader([]byte("pcm")))
	req.Header.Set("Content-Type", "audio/wav")
	w := httptest.NewRecorder()

	tr.handleProcessAudio(w, req, func(ctx context.Context, r *call.Request) *call.Result {
		return &call.Result{
			RequestID:   r.ID,
			Transcript:  "I need to refill my prescription",
			Language:    "en",
			Stage:       call.StageClassifying,
			FailedStage: call.StageClassifying,
			Error:       "model offline",
		}
	})

	require.Equal(t, http.StatusOK, w.Code)
	var result call.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, call.StageClassifying, result.FailedStage)
	assert.Equal(t, "I need to refill my prescription", result.Transcript)
	assert.Empty(t, result.Response)
}
