package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ Dispatcher = (*RedisDispatcher)(nil)

// RedisDispatcher fans events out over Redis pub/sub so every process
// sharing the store sees every change.
type RedisDispatcher struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisDispatcher creates a dispatcher publishing to prefix+topic channels.
func NewRedisDispatcher(client *redis.Client, prefix string, logger *zap.Logger) *RedisDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDispatcher{client: client, prefix: prefix, logger: logger}
}

func (d *RedisDispatcher) channel(topic string) string {
	return d.prefix + topic
}

// Publish encodes the event and publishes it on the topic channel.
func (d *RedisDispatcher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return d.client.Publish(ctx, d.channel(event.Topic), payload).Err()
}

// Subscribe returns once Redis has confirmed the subscription, so no event
// published afterwards is missed.
func (d *RedisDispatcher) Subscribe(ctx context.Context, topic string, handler EventHandler) (func(), error) {
	ps := d.client.Subscribe(ctx, d.channel(topic))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	ch := ps.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ch {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				d.logger.Warn("dropping undecodable event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			if err := handler(context.Background(), event); err != nil {
				d.logger.Warn("event handler failed", zap.String("topic", topic), zap.Error(err))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = ps.Close()
			<-done
		})
	}, nil
}
