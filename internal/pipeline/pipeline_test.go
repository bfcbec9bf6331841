package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/langdetect"
	"github.com/carelinehq/careline/internal/llm"
	"github.com/carelinehq/careline/internal/responder"
	"github.com/carelinehq/careline/internal/transcriber"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Name() string { return "stub" }

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte, format call.AudioFormat) (string, error) {
	if err := transcriber.CheckFormat(format); err != nil {
		return "", err
	}
	return s.text, s.err
}

func (s *stubTranscriber) Close() error { return nil }

type stubClassifier struct {
	intent     call.Intent
	confidence float64
	err        error
}

func (s *stubClassifier) Classify(ctx context.Context, transcript, language string) (call.Intent, float64, error) {
	return s.intent, s.confidence, s.err
}

type stubCompletion struct {
	out string
	err error
}

func (s *stubCompletion) Name() string { return "stub" }

func (s *stubCompletion) Complete(ctx context.Context, req llm.Request) (string, error) {
	return s.out, s.err
}

func (s *stubCompletion) Close() error { return nil }

type capturePublisher struct {
	results []*call.Result
}

func (c *capturePublisher) Publish(ctx context.Context, result *call.Result) error {
	c.results = append(c.results, result)
	return nil
}

func newTestDetector() *langdetect.Detector {
	return langdetect.New(config.LanguageConfig{
		Fallback:      "en",
		Supported:     []string{"en", "es"},
		MinChars:      12,
		MinConfidence: 0.60,
	})
}

func newPipeline(t transcriber.Transcriber, c *stubClassifier, r *responder.Responder, pub Publisher) *Pipeline {
	return New(t, newTestDetector(), c, r, pub, nil)
}

func TestProcessEnglishHappyPath(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: "I need to refill my blood pressure prescription"},
		&stubClassifier{intent: call.IntentPrescriptionRefill, confidence: 0.9},
		responder.New(&stubCompletion{out: "I can help with that refill."}, 0.7, 0),
		nil,
	)

	req := call.NewRequest("test", []byte("pcm"), call.FormatWAV)
	result := p.Process(context.Background(), req)

	require.True(t, result.OK(), "error: %s", result.Error)
	assert.Equal(t, req.ID, result.RequestID)
	assert.Equal(t, call.StageComplete, result.Stage)
	assert.Equal(t, "I need to refill my blood pressure prescription", result.Transcript)
	assert.Equal(t, "en", result.Language)
	assert.Equal(t, call.IntentPrescriptionRefill, result.Intent)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, "I can help with that refill.", result.Response)
	assert.Empty(t, result.FailedStage)
}

func TestProcessSpanishHappyPath(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: "¿Mi seguro cubre implantes dentales?"},
		&stubClassifier{intent: call.IntentInsuranceCoverageInquiry, confidence: 0.85},
		responder.New(&stubCompletion{out: "Con gusto verifico su cobertura."}, 0.7, 0),
		nil,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatMP3))

	require.True(t, result.OK())
	assert.Equal(t, "es", result.Language)
	assert.Equal(t, call.IntentInsuranceCoverageInquiry, result.Intent)
	assert.Equal(t, "Con gusto verifico su cobertura.", result.Response)
}

func TestProcessTranscriptionFailure(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{err: errors.New("upstream 503")},
		&stubClassifier{},
		responder.New(&stubCompletion{}, 0.7, 0),
		nil,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	assert.False(t, result.OK())
	assert.Equal(t, call.StageTranscribing, result.FailedStage)
	assert.Contains(t, result.Error, "upstream 503")
	// Nothing downstream ran.
	assert.Empty(t, result.Transcript)
	assert.Empty(t, result.Language)
	assert.Empty(t, result.Intent)
	assert.Empty(t, result.Response)
}

func TestProcessClassificationFailureKeepsTranscript(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: "I need to refill my prescription"},
		&stubClassifier{err: errors.New("model offline")},
		responder.New(&stubCompletion{}, 0.7, 0),
		nil,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	assert.False(t, result.OK())
	assert.Equal(t, call.StageClassifying, result.FailedStage)
	assert.Equal(t, "I need to refill my prescription", result.Transcript)
	assert.Equal(t, "en", result.Language)
	assert.Empty(t, result.Intent)
	assert.Empty(t, result.Response)
}

func TestProcessGenerationFailureKeepsIntent(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: "I need to refill my prescription"},
		&stubClassifier{intent: call.IntentPrescriptionRefill, confidence: 0.9},
		responder.New(&stubCompletion{err: errors.New("model offline")}, 0.7, 0),
		nil,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	assert.False(t, result.OK())
	assert.Equal(t, call.StageGenerating, result.FailedStage)
	assert.Equal(t, "I need to refill my prescription", result.Transcript)
	assert.Equal(t, call.IntentPrescriptionRefill, result.Intent)
	assert.Empty(t, result.Response)
}

func TestProcessUnsupportedFormat(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: "ignored"},
		&stubClassifier{},
		responder.New(&stubCompletion{}, 0.7, 0),
		nil,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.AudioFormat("ogg")))

	assert.False(t, result.OK())
	assert.Equal(t, call.StageTranscribing, result.FailedStage)
}

func TestProcessEmptyTranscriptCompletes(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: ""},
		&stubClassifier{err: errors.New("must not be called")},
		responder.New(&stubCompletion{err: errors.New("must not be called")}, 0.7, 0),
		nil,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	// Silent audio is a valid terminal state, not an error.
	require.True(t, result.OK(), "error: %s", result.Error)
	assert.Equal(t, call.StageComplete, result.Stage)
	assert.Empty(t, result.Transcript)
	assert.Equal(t, "en", result.Language)
	assert.Empty(t, result.Intent)
	assert.Empty(t, result.Response)
}

func TestProcessCancelledContext(t *testing.T) {
	p := newPipeline(
		&stubTranscriber{text: "ignored"},
		&stubClassifier{},
		responder.New(&stubCompletion{}, 0.7, 0),
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := p.Process(ctx, call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	assert.False(t, result.OK())
	assert.Equal(t, call.StageCancelled, result.FailedStage)
}

func TestProcessPublishesTerminalResult(t *testing.T) {
	pub := &capturePublisher{}
	p := newPipeline(
		&stubTranscriber{text: "I need to refill my prescription"},
		&stubClassifier{intent: call.IntentPrescriptionRefill, confidence: 0.9},
		responder.New(&stubCompletion{out: "Done."}, 0.7, 0),
		pub,
	)

	result := p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	require.Len(t, pub.results, 1)
	assert.Same(t, result, pub.results[0])
}

func TestProcessPublishesFailuresToo(t *testing.T) {
	pub := &capturePublisher{}
	p := newPipeline(
		&stubTranscriber{err: errors.New("upstream 503")},
		&stubClassifier{},
		responder.New(&stubCompletion{}, 0.7, 0),
		pub,
	)

	p.Process(context.Background(), call.NewRequest("test", []byte("pcm"), call.FormatWAV))

	require.Len(t, pub.results, 1)
	assert.Equal(t, call.StageTranscribing, pub.results[0].FailedStage)
}
