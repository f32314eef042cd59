package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/shoresquad/internal/analytics"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes analytics events to a Kafka topic.
// It implements analytics.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the analytics topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one event, keyed by event name so events of a kind stay ordered.
func (w *Writer) Publish(ctx context.Context, event analytics.Event) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish analytics event: %w", err)
	}
	w.logger.Debug("analytics event published", "event", event.Name, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an analytics event into a Kafka message.
func serializeToMessage(event analytics.Event) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analytics event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Name),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(event.Name)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
