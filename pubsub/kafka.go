package pubsub

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaBroker carries every chat topic on one Kafka topic. The message key
// is the logical topic, so a room's events stay on one partition in order.
// Each gateway instance reads with its own consumer group to see every event.
type KafkaBroker struct {
	topic     string
	writer    messageWriter
	newReader func() messageReader
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

func NewKafkaBroker(brokers []string, topic, instanceID string) *KafkaBroker {
	return &KafkaBroker{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		newReader: func() messageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:        brokers,
				GroupID:        "chat-gateway-" + instanceID,
				Topic:          topic,
				StartOffset:    kafka.LastOffset,
				MinBytes:       1,
				MaxBytes:       10e6,
				CommitInterval: time.Second,
			})
		},
	}
}

func (b *KafkaBroker) Publish(ctx context.Context, env Envelope) error {
	data, err := Encode(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(env.Topic),
		Value: data,
		Time:  env.SentAt,
	})
}

func (b *KafkaBroker) Subscribe(ctx context.Context, handler Handler, patterns ...string) error {
	reader := b.newReader()
	defer reader.Close()

	log.Printf("pubsub: kafka consumer started | topic=%s", b.topic)
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("pubsub: kafka fetch error: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if !Matches(string(m.Key), patterns) {
			continue
		}
		env, err := Decode(m.Value)
		if err != nil {
			log.Printf("pubsub: undecodable kafka message key=%s: %v", m.Key, err)
			continue
		}
		handler(ctx, env)
	}
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
