package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// RedisBroker publishes on Redis channels named after the topic and
// pattern-subscribes on every gateway instance.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.client.Publish(ctx, env.Topic, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, handler Handler, patterns ...string) error {
	ps := b.client.PSubscribe(ctx, patterns...)
	defer ps.Close()

	// Wait for the subscription confirmation so publishes issued after
	// Subscribe starts are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("psubscribe %v: %w", patterns, err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub: redis subscription closed")
			}
			env, err := Decode([]byte(msg.Payload))
			if err != nil {
				log.Printf("pubsub: undecodable message on %s: %v", msg.Channel, err)
				continue
			}
			if env.Topic == "" {
				env.Topic = msg.Channel
			}
			handler(ctx, env)
		}
	}
}

// Close is a no-op; the client is owned by the caller.
func (b *RedisBroker) Close() error {
	return nil
}
