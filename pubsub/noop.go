package pubsub

import "context"

// NoopBroker drops everything. Subscribe blocks until ctx is done.
type NoopBroker struct{}

func (NoopBroker) Publish(context.Context, Envelope) error { return nil }

func (NoopBroker) Subscribe(ctx context.Context, _ Handler, _ ...string) error {
	<-ctx.Done()
	return nil
}

func (NoopBroker) Close() error { return nil }
