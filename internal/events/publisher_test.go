package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/config"
)

func TestDisabledPublisherIsLogOnly(t *testing.T) {
	p := New(config.EventsConfig{Enabled: false, Topic: "careline.results"}, nil)

	err := p.Publish(context.Background(), &call.Result{
		RequestID: "req-1",
		Stage:     call.StageComplete,
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestEnabledWithoutBrokersIsLogOnly(t *testing.T) {
	// Misconfiguration must not take the daemon down; it degrades to log-only.
	p := New(config.EventsConfig{Enabled: true, Topic: "careline.results"}, nil)

	err := p.Publish(context.Background(), &call.Result{RequestID: "req-2"})
	require.NoError(t, err)
	assert.Nil(t, p.writer)
}

func TestLogOnlyPublishesFailedResults(t *testing.T) {
	p := New(config.EventsConfig{}, nil)

	err := p.Publish(context.Background(), &call.Result{
		RequestID:   "req-3",
		Stage:       call.StageTranscribing,
		FailedStage: call.StageTranscribing,
		Error:       "upstream 503",
	})
	require.NoError(t, err)
}
