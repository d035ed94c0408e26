// Package pubsub carries chat events between gateway instances. Publishing
// and delivery are decoupled: every instance subscribes to room.* and user.*
// and delivers to the connections it holds. Delivery is at-most-once.
package pubsub

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	RoomPattern = "room.*"
	UserPattern = "user.*"
)

// Envelope is the unit carried by a Broker. Payload is the JSON body that is
// forwarded to clients unchanged.
type Envelope struct {
	Topic   string    `msgpack:"topic"`
	Type    string    `msgpack:"type"`
	Origin  string    `msgpack:"origin"`
	Payload []byte    `msgpack:"payload"`
	SentAt  time.Time `msgpack:"sent_at"`
}

// Handler consumes one received envelope.
type Handler func(ctx context.Context, env Envelope)

// Broker moves envelopes between processes.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	// Subscribe blocks, invoking handler for each envelope whose topic
	// matches one of patterns, until ctx is done or the broker fails.
	Subscribe(ctx context.Context, handler Handler, patterns ...string) error
	Close() error
}

func RoomTopic(roomID uint) string { return fmt.Sprintf("room.%d", roomID) }
func UserTopic(userID uint) string { return fmt.Sprintf("user.%d", userID) }

// ParseTopic splits "room.12" into ("room", 12).
func ParseTopic(topic string) (kind string, id uint, ok bool) {
	kind, raw, found := strings.Cut(topic, ".")
	if !found {
		return "", 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return kind, uint(n), true
}

// Matches reports whether topic matches any glob pattern.
func Matches(topic string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, topic); ok {
			return true
		}
	}
	return false
}

func Encode(env Envelope) ([]byte, error) {
	return msgpack.Marshal(&env)
}

func Decode(data []byte) (Envelope, error) {
	var env Envelope
	err := msgpack.Unmarshal(data, &env)
	return env, err
}
