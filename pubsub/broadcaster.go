package pubsub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/CUknot/chat_backend/metrics"
)

const (
	publishTimeout = 2 * time.Second
	queueSize      = 1024
)

// Broadcaster publishes events without ever failing or blocking the caller.
// Envelopes go through a bounded queue drained by one worker, so order is
// kept and a slow or partitioned broker drops events instead of stalling
// sends. Clients catch up through history.
type Broadcaster struct {
	broker Broker
	origin string
	now    func() time.Time

	queue   chan Envelope
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewBroadcaster(broker Broker, origin string) *Broadcaster {
	b := &Broadcaster{
		broker:  broker,
		origin:  origin,
		now:     time.Now,
		queue:   make(chan Envelope, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.run()
	return b
}

// Publish serializes payload as JSON and queues it for the broker.
func (b *Broadcaster) Publish(_ context.Context, topic, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("pubsub: marshal %s for %s: %v", eventType, topic, err)
		return
	}
	env := Envelope{Topic: topic, Type: eventType, Origin: b.origin, Payload: body, SentAt: b.now().UTC()}

	select {
	case <-b.done:
		b.dropped(env, "broadcaster closed")
		return
	default:
	}
	select {
	case b.queue <- env:
	default:
		b.dropped(env, "queue full")
	}
}

// Close publishes what is already queued and stops the worker.
func (b *Broadcaster) Close() {
	b.once.Do(func() { close(b.done) })
	<-b.stopped
}

func (b *Broadcaster) run() {
	defer close(b.stopped)
	for {
		select {
		case env := <-b.queue:
			b.send(env)
		case <-b.done:
			for {
				select {
				case env := <-b.queue:
					b.send(env)
				default:
					return
				}
			}
		}
	}
}

func (b *Broadcaster) send(env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := b.broker.Publish(ctx, env); err != nil {
		metrics.PublishFailures.Inc()
		log.Printf("pubsub: publish %s to %s failed, live delivery skipped: %v", env.Type, env.Topic, err)
		return
	}
	metrics.EventsPublished.WithLabelValues(env.Type).Inc()
}

func (b *Broadcaster) dropped(env Envelope, reason string) {
	metrics.PublishFailures.Inc()
	log.Printf("pubsub: dropped %s to %s: %s", env.Type, env.Topic, reason)
}
