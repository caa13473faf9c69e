package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/applyflow/internal/domain/model"
)

// ErrMarshal wraps event encoding failures.
var ErrMarshal = errors.New("marshal event")

// redisPubSub is the subset of the redis client used for publishing.
type redisPubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes events as JSON on a Redis channel.
type RedisPublisher struct {
	client  redisPubSub
	channel string
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// NewRedisPublisher publishes on channel, or DefaultChannel when empty.
// The publisher owns client and closes it on Close.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return newRedisPublisher(client, channel)
}

func newRedisPublisher(client redisPubSub, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Channel returns the channel events go to.
func (p *RedisPublisher) Channel() string { return p.channel }

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: mirrors the worker signature
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrMarshal, e.ID, err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// Close implements Publisher.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
