// Package events publishes pipeline results to Kafka for downstream
// consumers (analytics, evaluation, audit). Publishing is optional: when
// disabled the publisher degrades to log-only mode, and a publish failure
// never fails the originating request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/carelinehq/careline/internal/call"
	"github.com/carelinehq/careline/internal/config"
	"github.com/carelinehq/careline/internal/observability/metrics"
)

const eventType = "careline.result"

// Publisher writes result events to a Kafka topic, keyed by request ID.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics // nil disables instrumentation
}

// New creates a Publisher. With events disabled or no brokers configured it
// returns a log-only publisher.
func New(cfg config.EventsConfig, m *metrics.Metrics) *Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		slog.Info("kafka events disabled, using log-only mode")
		return &Publisher{topic: cfg.Topic, enabled: false, metrics: m}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	slog.Info("kafka publisher initialized", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &Publisher{writer: writer, topic: cfg.Topic, enabled: true, metrics: m}
}

// Publish sends one result event. In log-only mode it records the event at
// debug level and succeeds.
func (p *Publisher) Publish(ctx context.Context, result *call.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		p.record("error")
		return fmt.Errorf("marshalling result event: %w", err)
	}

	slog.Debug("publishing result event",
		"request_id", result.RequestID, "stage", result.Stage, "topic", p.topic)

	if !p.enabled || p.writer == nil {
		p.record("skipped")
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(result.RequestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.record("error")
		return fmt.Errorf("writing to kafka: %w", err)
	}

	p.record("ok")
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func (p *Publisher) record(status string) {
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(status).Inc()
	}
}
