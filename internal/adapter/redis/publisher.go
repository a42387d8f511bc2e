package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// Publisher broadcasts stored traffic records on a Redis pub/sub channel for
// live dashboards. It implements pipeline.Publisher.
type Publisher struct {
	client  *goredis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher connects to the Redis server at url and verifies it with a PING.
func NewPublisher(ctx context.Context, url, channel string, logger *slog.Logger) (*Publisher, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid REDIS_URL: %w", domain.ErrConfig, err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("redis publisher connected", "addr", opts.Addr, "channel", channel)
	return &Publisher{client: client, channel: channel, logger: logger}, nil
}

// Name identifies the publisher in logs and metrics.
func (p *Publisher) Name() string { return "redis" }

// Publish sends rec as JSON to the channel.
func (p *Publisher) Publish(ctx context.Context, rec domain.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("serialize traffic record: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	p.logger.Debug("redis record published", "pizzeria", rec.Pizzeria, "receivers", receivers)
	return nil
}

// Close closes the connection pool.
func (p *Publisher) Close() error {
	return p.client.Close()
}
