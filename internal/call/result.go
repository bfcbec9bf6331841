package call

// Stage identifies a step of the processing pipeline. Stages always advance
// in declared order; a request never revisits a stage.
type Stage string

const (
	StageReceived          Stage = "received"
	StageTranscribing      Stage = "transcribing"
	StageDetectingLanguage Stage = "detecting_language"
	StageClassifying       Stage = "classifying"
	StageGenerating        Stage = "generating"
	StageComplete          Stage = "complete"

	// StageCancelled marks a request whose context was cancelled between
	// stages. It only ever appears as a FailedStage value.
	StageCancelled Stage = "cancelled"
)

// Result is the outcome of processing one request through the pipeline.
// It is assembled once by the orchestrator and immutable afterwards. On a
// stage failure it carries everything computed up to that stage, never a
// silently-wrong full result.
type Result struct {
	// RequestID is the originating request's ID.
	RequestID string `json:"request_id"`

	// Transcript is the speech-to-text output. May legitimately be empty
	// when the recording contains silence.
	Transcript string `json:"transcript,omitempty"`

	// Language is the ISO-639-1 code detected from the transcript text.
	Language string `json:"language,omitempty"`

	// Intent is the classified healthcare intent.
	Intent Intent `json:"intent,omitempty"`

	// Confidence is the classifier's self-reported confidence (0.0-1.0).
	Confidence float64 `json:"confidence,omitempty"`

	// Response is the generated reply, in the caller's language.
	Response string `json:"response,omitempty"`

	// Stage is the last stage the pipeline reached ("complete" on success).
	Stage Stage `json:"stage"`

	// FailedStage names the stage that failed, empty on success.
	FailedStage Stage `json:"failed_stage,omitempty"`

	// Error describes why FailedStage failed.
	Error string `json:"error,omitempty"`
}

// OK reports whether the pipeline ran to completion.
func (r *Result) OK() bool {
	return r.Stage == StageComplete && r.FailedStage == ""
}
