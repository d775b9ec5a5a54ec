package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "opinwork:events"

// RedisBus fans events out through a Redis pub/sub channel so every app
// instance invalidates its caches. Local subscribers are fed from the
// channel, including events this instance published.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *LocalBus
	log     *zap.Logger
}

func NewRedisBus(client *redis.Client, channel string, log *zap.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{
		client:  client,
		channel: channel,
		local:   NewLocalBus(),
		log:     log,
	}
}

// Publish sends e to the channel. If Redis is unreachable the event is
// delivered to local subscribers only and the failure is logged.
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.log.Warn("event publish failed; delivering locally",
			zap.String("kind", string(e.Kind)),
			zap.Error(err))
		return b.local.Publish(ctx, e)
	}
	return nil
}

// Subscribe registers a local handler.
func (b *RedisBus) Subscribe(h Handler) func() {
	return b.local.Subscribe(h)
}

// Start subscribes to the channel and, once Redis confirms the
// subscription, dispatches incoming events until ctx is done.
func (b *RedisBus) Start(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					b.log.Warn("dropping malformed event", zap.Error(err))
					continue
				}
				_ = b.local.Publish(ctx, e)
			}
		}
	}()
	return nil
}
