package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// redisEnvelope is what travels on a room channel between instances.
type redisEnvelope struct {
	Origin     string          `json:"origin"`
	DeliveryID string          `json:"deliveryId"`
	Frame      json.RawMessage `json:"frame"`
}

// RedisBackend fans frames out across instances with Redis pub/sub. Every
// instance publishes to <prefix><deliveryId> and pattern-subscribes to
// <prefix>*, delivering what it receives to its own room members.
type RedisBackend struct {
	client *redis.Client
	prefix string
	logger types.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend creates a backend over an existing client. The backend
// owns the client and closes it on Close.
func NewRedisBackend(client *redis.Client, prefix string, logger types.Logger) *RedisBackend {
	return &RedisBackend{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Name returns the backend name.
func (b *RedisBackend) Name() string { return "redis" }

// Channel returns the pub/sub channel of a delivery room.
func (b *RedisBackend) Channel(deliveryID string) string {
	return b.prefix + deliveryID
}

// Start verifies connectivity, subscribes to all room channels and begins
// delivering received frames.
func (b *RedisBackend) Start(ctx context.Context, deliver DeliverFunc) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ps := b.client.PSubscribe(ctx, b.prefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe to %s*: %w", b.prefix, err)
	}

	b.mu.Lock()
	b.pubsub = ps
	b.mu.Unlock()

	ch := ps.Channel()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range ch {
			var env redisEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("Discarding malformed fan-out message", "channel", msg.Channel, "error", err.Error())
				continue
			}
			if env.DeliveryID == "" {
				env.DeliveryID = strings.TrimPrefix(msg.Channel, b.prefix)
			}
			deliver(env.DeliveryID, env.Origin, env.Frame)
		}
	}()

	b.logger.Info("Redis fan-out subscribed", "pattern", b.prefix+"*")
	return nil
}

// Publish sends the frame to every subscribed instance, this one included.
func (b *RedisBackend) Publish(ctx context.Context, deliveryID, origin string, frame []byte) error {
	data, err := json.Marshal(redisEnvelope{
		Origin:     origin,
		DeliveryID: deliveryID,
		Frame:      frame,
	})
	if err != nil {
		return fmt.Errorf("encode fan-out message: %w", err)
	}
	if err := b.client.Publish(ctx, b.Channel(deliveryID), data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Close unsubscribes, waits for the receive loop and closes the client.
func (b *RedisBackend) Close() error {
	b.mu.Lock()
	ps := b.pubsub
	b.pubsub = nil
	b.mu.Unlock()

	if ps != nil {
		if err := ps.Close(); err != nil {
			b.logger.Warn("Error closing Redis subscription", "error", err.Error())
		}
		b.wg.Wait()
	}
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	return nil
}
