package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces stored traffic records to a Kafka topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Name identifies the publisher in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Publish writes rec keyed by pizzeria, so one pizzeria's observations stay
// ordered within a partition.
func (p *Publisher) Publish(ctx context.Context, rec domain.Record) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize traffic record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Pizzeria),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "pizzeria", Value: []byte(rec.Pizzeria)},
			{Key: "captured_at", Value: []byte(rec.Timestamp)},
		},
	}, nil
}
