// Package http implements the HTTP request surface for careline.
//
// It exposes a REST endpoint for audio upload and processing, best suited
// for web clients and IVR bridges that prefer HTTP-based communication.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/transport"

	_ "github.com/carelinehq/careline/docs"
)

// maxUploadBytes bounds one audio upload (25 MB).
const maxUploadBytes = 25 << 20

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port   int
	server *http.Server
}

// New creates a new HTTP transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	mux := http.NewServeMux()

	// POST /process-audio — accepts an audio upload, returns the result.
	mux.HandleFunc("POST /process-audio", func(w http.ResponseWriter, r *http.Request) {
		t.handleProcessAudio(w, r, handler)
	})

	// GET /ws — WebSocket endpoint for streaming audio (future).
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		// TODO: Implement WebSocket upgrade and streaming audio handling.
		http.Error(w, "websocket not yet implemented", http.StatusNotImplemented)
	})

	// Swagger UI — serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleProcessAudio processes a POST /process-audio request.
//
// @Summary     Process a spoken healthcare request
// @Description Accepts an audio recording (multipart form field "audio_file", or the raw bytes with an audio Content-Type)
// @Description and runs it through the pipeline: transcription, language detection, intent classification and response
// @Description generation. Stage failures still return 200 with the partial result and the failing stage.
// @Tags        pipeline
// @Accept      mpfd
// @Accept      audio/wav
// @Accept      audio/mpeg
// @Produce     json
// @Param       audio_file  formData  file    false  "Audio recording (.wav or .mp3)"
// @Param       X-Careline-Source  header  string  false  "Caller endpoint identifier"
// @Success     200  {object}  call.Result  "Pipeline result (partial on stage failure)"
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     415  {string}  string  "Audio format outside the accepted set"
// @Router      /process-audio [post]
func (t *Transport) handleProcessAudio(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	audio, format, err := readAudio(r)
	if err != nil {
		if format == "" {
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	req := call.NewRequest(r.Header.Get("X-Careline-Source"), audio, format)
	result := handler(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// readAudio extracts the audio payload and its format from either a
// multipart form ("audio_file" field, format from the filename extension)
// or a raw body (format from Content-Type).
func readAudio(r *http.Request) ([]byte, call.AudioFormat, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, call.FormatWAV, fmt.Errorf("parsing multipart form: %w", err)
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			return nil, call.FormatWAV, fmt.Errorf("missing audio_file field: %w", err)
		}
		defer file.Close()

		format, ok := call.ParseFormat(filepath.Ext(header.Filename))
		if !ok {
			return nil, "", fmt.Errorf("unsupported audio format %q (accepted: %v)",
				filepath.Ext(header.Filename), call.AcceptedFormats)
		}
		audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return nil, call.FormatWAV, fmt.Errorf("reading audio_file: %w", err)
		}
		return audio, format, nil
	}

	// Raw audio body.
	format, ok := call.ParseFormat(mediaType)
	if !ok {
		return nil, "", fmt.Errorf("unsupported Content-Type %q (accepted: audio/wav, audio/mpeg)", contentType)
	}
	audio, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, call.FormatWAV, fmt.Errorf("reading audio body: %w", err)
	}
	return audio, format, nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
