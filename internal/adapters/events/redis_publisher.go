package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

const DefaultChannel = "featurepoll:poll_events"

var _ ports.EventPublisher = (*RedisPublisher)(nil)

// RedisPublisher broadcasts poll events as JSON on a Redis pub/sub channel so the
// chat front end can refresh the poll message. It is safe for concurrent use.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(opts *redis.Options, channel string) (*RedisPublisher, error) {
	if opts == nil || opts.Addr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{
		rdb:     redis.NewClient(opts),
		channel: channel,
	}, nil
}

func (p *RedisPublisher) Channel() string {
	return p.channel
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.PollEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal poll event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish poll event: %w", err)
	}
	return nil
}
