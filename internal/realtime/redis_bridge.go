package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBridge shares events between instances over a Redis pub/sub channel.
type RedisBridge struct {
	client  *redis.Client
	channel string
	log     logrus.FieldLogger

	reconnectDelay time.Duration
}

func NewRedisBridge(client *redis.Client, channel string, log logrus.FieldLogger) *RedisBridge {
	return &RedisBridge{
		client:         client,
		channel:        channel,
		log:            log,
		reconnectDelay: time.Second,
	}
}

func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run subscribes to the channel and passes every event to deliver until ctx
// is done, resubscribing when the subscription drops.
func (b *RedisBridge) Run(ctx context.Context, deliver func(Event)) {
	for {
		sub := b.client.Subscribe(ctx, b.channel)
		b.consume(ctx, sub.Channel(), deliver)
		sub.Close()

		if ctx.Err() != nil {
			return
		}
		b.log.WithField("channel", b.channel).Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.reconnectDelay):
		}
	}
}

func (b *RedisBridge) consume(ctx context.Context, ch <-chan *redis.Message, deliver func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.WithError(err).Error("unable to parse realtime event")
				continue
			}
			deliver(ev)
		}
	}
}
