// Package pipeline implements the request-processing orchestrator.
//
// The pipeline is a strict linear state machine: received → transcribing →
// detecting_language → classifying → generating → complete. Each stage runs
// only if the previous stage succeeded; on failure the pipeline stops at
// that stage and returns whatever was computed so far, tagged with the
// failing stage and cause. No stage is retried here — retry/backoff is a
// deployment concern layered around the orchestrator.
//
// The orchestrator and all adapters are stateless per call, so concurrent
// requests need no coordination.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/intent"
	"github.com/carelinehq/careline/internal/langdetect"
	"github.com/carelinehq/careline/internal/observability/metrics"
	"github.com/carelinehq/careline/internal/responder"
	"github.com/carelinehq/careline/internal/transcriber"
)

// Publisher receives completed (or failed) results for asynchronous egress.
// Publishing failures never fail the request.
type Publisher interface {
	Publish(ctx context.Context, result *call.Result) error
}

// Pipeline sequences the transcriber, language detector, intent classifier
// and responder for one request at a time.
type Pipeline struct {
	transcriber transcriber.Transcriber
	detector    *langdetect.Detector
	classifier  intent.Classifier
	responder   *responder.Responder
	publisher   Publisher        // nil when events are disabled
	metrics     *metrics.Metrics // nil disables instrumentation
}

// New creates a Pipeline. publisher and m may be nil.
func New(
	t transcriber.Transcriber,
	d *langdetect.Detector,
	c intent.Classifier,
	r *responder.Responder,
	publisher Publisher,
	m *metrics.Metrics,
) *Pipeline {
	return &Pipeline{
		transcriber: t,
		detector:    d,
		classifier:  c,
		responder:   r,
		publisher:   publisher,
		metrics:     m,
	}
}

// Process runs one request through the full pipeline and returns the
// assembled result. The result always reflects how far the pipeline got:
// on a stage failure it carries every upstream artifact plus the failing
// stage and cause, never a silently-wrong full result.
func (p *Pipeline) Process(ctx context.Context, req *call.Request) *call.Result {
	start := time.Now()
	logger := slog.With("request_id", req.ID, "source", req.Source)

	result := &call.Result{
		RequestID: req.ID,
		Stage:     call.StageReceived,
	}
	if p.metrics != nil {
		p.metrics.RequestsTotal.Inc()
	}
	defer p.publish(ctx, result)

	// Stage 1: transcription.
	if !p.enter(ctx, result, call.StageTranscribing) {
		return result
	}
	transcript, err := p.timed(call.StageTranscribing, func() (string, error) {
		return p.transcriber.Transcribe(ctx, req.Audio, req.Format)
	})
	if err != nil {
		p.fail(result, call.StageTranscribing, err, logger)
		return result
	}
	result.Transcript = transcript
	logger.Info("transcription complete", "text_length", len(transcript))

	// Stage 2: language detection (pure, never fails; empty or short text
	// yields the fallback code).
	if !p.enter(ctx, result, call.StageDetectingLanguage) {
		return result
	}
	result.Language = p.detector.Detect(transcript)
	logger.Info("language detected", "language", result.Language)

	// Silence is a valid terminal state: nothing to classify or answer.
	if transcript == "" {
		result.Stage = call.StageComplete
		logger.Info("empty transcript, completing without classification")
		return result
	}

	// Stage 3: intent classification.
	if !p.enter(ctx, result, call.StageClassifying) {
		return result
	}
	stageStart := time.Now()
	in, confidence, err := p.classifier.Classify(ctx, transcript, result.Language)
	p.observe(call.StageClassifying, stageStart)
	if err != nil {
		p.fail(result, call.StageClassifying, err, logger)
		return result
	}
	result.Intent = in
	result.Confidence = confidence
	logger.Info("intent classified", "intent", in, "confidence", confidence)

	// Stage 4: response generation.
	if !p.enter(ctx, result, call.StageGenerating) {
		return result
	}
	response, err := p.timed(call.StageGenerating, func() (string, error) {
		return p.responder.Generate(ctx, in, result.Language, transcript)
	})
	if err != nil {
		// Transcript and intent stay populated; only the reply is missing.
		p.fail(result, call.StageGenerating, err, logger)
		return result
	}
	result.Response = response

	result.Stage = call.StageComplete
	logger.Info("pipeline complete", "duration", time.Since(start), "intent", in, "language", result.Language)
	return result
}

// enter advances the state machine to the next stage, honoring cancellation
// between stages (never mid-external-call). Returns false when the request
// was cancelled.
func (p *Pipeline) enter(ctx context.Context, result *call.Result, stage call.Stage) bool {
	if err := ctx.Err(); err != nil {
		result.FailedStage = call.StageCancelled
		result.Error = err.Error()
		if p.metrics != nil {
			p.metrics.RecordFailure(string(call.StageCancelled))
		}
		return false
	}
	result.Stage = stage
	return true
}

func (p *Pipeline) fail(result *call.Result, stage call.Stage, err error, logger *slog.Logger) {
	result.FailedStage = stage
	result.Error = err.Error()
	if p.metrics != nil {
		p.metrics.RecordFailure(string(stage))
	}
	logger.Error("pipeline stage failed", "stage", stage, "error", err)
}

func (p *Pipeline) timed(stage call.Stage, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := fn()
	p.observe(stage, start)
	return out, err
}

func (p *Pipeline) observe(stage call.Stage, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveStage(string(stage), time.Since(start).Seconds())
	}
}

func (p *Pipeline) publish(ctx context.Context, result *call.Result) {
	if p.publisher == nil {
		return
	}
	// Detach from the request context so a cancelled request still gets its
	// terminal event published.
	if err := p.publisher.Publish(context.WithoutCancel(ctx), result); err != nil {
		slog.Warn("failed to publish result event", "request_id", result.RequestID, "error", err)
	}
}
