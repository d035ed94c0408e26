package pubsub

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/CUknot/chat_backend/metrics"
)

const localBuffer = 1024

var ErrClosed = errors.New("pubsub: broker closed")

// LocalBroker fans out within one process. It is the single-node default
// and the broker used by tests.
type LocalBroker struct {
	mu     sync.RWMutex
	subs   map[*localSub]struct{}
	closed bool
}

type localSub struct {
	patterns []string
	ch       chan Envelope
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[*localSub]struct{})}
}

func (b *LocalBroker) Publish(_ context.Context, env Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for sub := range b.subs {
		if !Matches(env.Topic, sub.patterns) {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			metrics.FramesDropped.Inc()
			log.Printf("pubsub: local subscriber full, dropped %s on %s", env.Type, env.Topic)
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, handler Handler, patterns ...string) error {
	sub := &localSub{patterns: patterns, ch: make(chan Envelope, localBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-sub.ch:
			if !ok {
				return ErrClosed
			}
			handler(ctx, env)
		}
	}
}

func (b *LocalBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
		delete(b.subs, sub)
	}
	return nil
}
