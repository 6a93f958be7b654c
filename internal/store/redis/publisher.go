// Package redis caches the latest signal per target and republishes signal
// envelopes on a pub/sub channel for out-of-process consumers. Entirely
// optional: the monitor runs without it.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string        // pub/sub channel for signal envelopes
	TTL      time.Duration // expiry for latest-signal keys
}

// Publisher mirrors emitted signals into Redis.
type Publisher struct {
	cli     *redis.Client
	channel string
	ttl     time.Duration
}

// New connects and pings the server once so a dead Redis fails at startup,
// not on the first signal.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	log.Printf("[redis] connected to %s (channel=%s)", cfg.Addr, cfg.Channel)
	return &Publisher{cli: cli, channel: cfg.Channel, ttl: cfg.TTL}, nil
}

func latestKey(targetKey string) string {
	return "signal:latest:" + targetKey
}

// PublishSignal stores the envelope as the target's latest signal and pushes
// it to the pub/sub channel.
func (p *Publisher) PublishSignal(ctx context.Context, targetKey string, envelope []byte) error {
	if err := p.cli.Set(ctx, latestKey(targetKey), envelope, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis set latest %s: %w", targetKey, err)
	}
	if err := p.cli.Publish(ctx, p.channel, envelope).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Latest returns the cached envelope for a target, or nil when absent or
// expired.
func (p *Publisher) Latest(ctx context.Context, targetKey string) ([]byte, error) {
	val, err := p.cli.Get(ctx, latestKey(targetKey)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get latest %s: %w", targetKey, err)
	}
	return val, nil
}

// Client exposes the underlying client for the health checker.
func (p *Publisher) Client() *redis.Client { return p.cli }

// Ping is used by the health endpoint.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.cli.Ping(ctx).Err()
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.cli.Close()
}
