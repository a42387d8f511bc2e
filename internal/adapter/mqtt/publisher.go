package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qosAtLeastOnce    = 1
	disconnectQuiesce = 250 // ms
)

// Publisher sends stored traffic records to an MQTT broker.
// It implements pipeline.Publisher.
type Publisher struct {
	client pahomqtt.Client
	topic  string
	logger *slog.Logger
}

// NewPublisher connects to the broker at url, e.g. tcp://localhost:1883.
func NewPublisher(ctx context.Context, url, topic string, logger *slog.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(url)
	opts.SetClientID("pizzeria-traffic-" + time.Now().Format("20060102150405"))
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	}

	client := pahomqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", url, err)
	}
	logger.Info("mqtt publisher connected", "broker", url, "topic", topic)
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Name identifies the publisher in logs and metrics.
func (p *Publisher) Name() string { return "mqtt" }

// Publish sends rec as JSON with QoS 1.
func (p *Publisher) Publish(ctx context.Context, rec domain.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize traffic record: %w", err)
	}
	if err := waitToken(ctx, p.client.Publish(p.topic, qosAtLeastOnce, false, payload)); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)
	return nil
}

// waitToken blocks until token completes or ctx is done.
func waitToken(ctx context.Context, token pahomqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
