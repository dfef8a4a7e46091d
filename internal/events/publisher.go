package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher delivers serialized envelopes to an integration channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes to Redis pub/sub channels, one channel per
// integration target ("integration:email", "integration:stripe", ...).
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// ChannelForTarget names the Redis channel an integration consumer
// subscribes to.
func ChannelForTarget(target string) string {
	return fmt.Sprintf("integration:%s", target)
}
