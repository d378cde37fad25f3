package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBus publishes messages with Redis PUBLISH so every process (and any
// external consumer) subscribed to the channel receives them.
type RedisBus struct {
	rdb    *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisBus returns a bus publishing on prefix+channel.
func NewRedisBus(rdb *redis.Client, prefix string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{rdb: rdb, prefix: prefix, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, m Message) error {
	if b.rdb == nil {
		return errors.New("events: redis client is nil")
	}
	env, err := Encode(m)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.prefix+env.Channel, []byte(env.Data)).Err()
}

// Relay subscribes to every prefixed channel and hands each message to the
// hub, until ctx is done.
func (b *RedisBus) Relay(ctx context.Context, hub *Hub) error {
	if b.rdb == nil {
		return errors.New("events: redis client is nil")
	}
	ps := b.rdb.PSubscribe(ctx, b.prefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !json.Valid([]byte(msg.Payload)) {
				b.logger.Warn("dropping non-json bus message", "channel", msg.Channel)
				continue
			}
			hub.Deliver(Envelope{
				Channel: strings.TrimPrefix(msg.Channel, b.prefix),
				Data:    json.RawMessage(msg.Payload),
			})
		}
	}
}
