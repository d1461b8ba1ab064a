package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventPublisher wraps a kafka-go writer for publishing pipeline events
// (session completed, prediction created, bet settled). If disabled or no
// brokers are configured, every publish is a no-op; the pipeline never
// depends on the broker being up.
type EventPublisher struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewEventPublisher creates a pipeline event publisher.
func NewEventPublisher(brokers string, enabled bool, logger *slog.Logger) *EventPublisher {
	if !enabled || brokers == "" {
		logger.Info("event publisher disabled")
		return &EventPublisher{enabled: false, logger: logger}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("event publisher initialized", "brokers", brokers)
	return &EventPublisher{writer: w, logger: logger, enabled: true}
}

// Publish JSON-encodes the payload and sends it to the topic. Failures are
// logged, not returned; event delivery is best-effort.
func (p *EventPublisher) Publish(ctx context.Context, topic, key string, payload any) {
	if !p.enabled {
		return
	}

	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("event encode failed", "topic", topic, "error", err)
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("event publish failed", "topic", topic, "error", err)
	}
}

// Close shuts down the Kafka writer.
func (p *EventPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
