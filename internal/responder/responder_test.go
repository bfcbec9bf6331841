package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/llm"
)

type stubClient struct {
	out     string
	err     error
	lastReq llm.Request
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.lastReq = req
	return s.out, s.err
}

func (s *stubClient) Close() error { return nil }

func TestGenerate(t *testing.T) {
	stub := &stubClient{out: "I can help you refill that prescription. Please confirm your date of birth."}
	r := New(stub, 0.7, 0)

	out, err := r.Generate(context.Background(), call.IntentPrescriptionRefill, "en",
		"I need to refill my blood pressure medication")
	require.NoError(t, err)
	assert.Equal(t, stub.out, out)
	assert.InDelta(t, 0.7, stub.lastReq.Temperature, 1e-9)
	assert.False(t, stub.lastReq.JSONOutput)
	assert.Contains(t, stub.lastReq.Prompt, "English")
	assert.Contains(t, stub.lastReq.Prompt, "prescription_refill")
}

func TestGenerateStripsResponsePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Response: Your appointment is confirmed.", "Your appointment is confirmed."},
		{"response:  Your appointment is confirmed.", "Your appointment is confirmed."},
		{"RESPONSE: Su cita está confirmada.", "Su cita está confirmada."},
		{"Your appointment is confirmed.", "Your appointment is confirmed."},
		// Only a leading prefix is removed.
		{"The word Response: appears mid-text", "The word Response: appears mid-text"},
	}
	for _, tt := range tests {
		r := New(&stubClient{out: tt.in}, 0.7, 0)
		out, err := r.Generate(context.Background(), call.IntentAppointmentScheduling, "en", "text")
		require.NoError(t, err)
		assert.Equal(t, tt.want, out, "input %q", tt.in)
	}
}

func TestGeneratePromptUsesCallerLanguage(t *testing.T) {
	stub := &stubClient{out: "Su receta será renovada."}
	r := New(stub, 0.7, 0)

	_, err := r.Generate(context.Background(), call.IntentPrescriptionRefill, "es",
		"Necesito renovar mi receta")
	require.NoError(t, err)
	assert.Contains(t, stub.lastReq.Prompt, "Spanish")
}

func TestGenerateBackendFailure(t *testing.T) {
	r := New(&stubClient{err: errors.New("connection refused")}, 0.7, 0)

	_, err := r.Generate(context.Background(), call.IntentGeneralInquiry, "en", "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}
