package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/CUknot/chat_backend/metrics"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/services"
)

const shardCount = 32

// registry maps an id to the clients interested in it, split into shards so
// connection churn on one room does not contend with delivery to another.
type registry struct {
	shards [shardCount]struct {
		mu   sync.RWMutex
		sets map[uint]map[*Client]struct{}
	}
}

func newRegistry() *registry {
	r := &registry{}
	for i := range r.shards {
		r.shards[i].sets = make(map[uint]map[*Client]struct{})
	}
	return r
}

func (r *registry) add(id uint, c *Client) {
	s := &r.shards[id%shardCount]
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[id]
	if !ok {
		set = make(map[*Client]struct{})
		s.sets[id] = set
	}
	set[c] = struct{}{}
}

func (r *registry) remove(id uint, c *Client) {
	s := &r.shards[id%shardCount]
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[id]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(s.sets, id)
		}
	}
}

// snapshot copies the clients registered under id so delivery happens
// outside the lock.
func (r *registry) snapshot(id uint) []*Client {
	s := &r.shards[id%shardCount]
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.sets[id]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Hub tracks the live connections of this instance and delivers events
// received from the broker to them.
type Hub struct {
	rooms *registry
	users *registry
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{rooms: newRegistry(), users: newRegistry()}
}

// Run subscribes to room and user topics and delivers until ctx is done.
// A failed subscription is retried with backoff.
func (h *Hub) Run(ctx context.Context, broker pubsub.Broker) {
	backoff := time.Second
	for {
		err := broker.Subscribe(ctx, h.dispatch, pubsub.RoomPattern, pubsub.UserPattern)
		if ctx.Err() != nil {
			return
		}
		log.Printf("ws: broker subscription ended: %v, retrying in %s", err, backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

func (h *Hub) register(c *Client) {
	h.users.add(c.UserID, c)
	metrics.Connections.Inc()
}

// unregister removes c from every delivery set. Membership is untouched.
func (h *Hub) unregister(c *Client) {
	for _, roomID := range c.subscriptions() {
		h.rooms.remove(roomID, c)
	}
	h.users.remove(c.UserID, c)
	metrics.Connections.Dec()
}

func (h *Hub) subscribe(c *Client, roomID uint) {
	c.track(roomID)
	h.rooms.add(roomID, c)
}

func (h *Hub) unsubscribe(c *Client, roomID uint) {
	c.untrack(roomID)
	h.rooms.remove(roomID, c)
}

func (h *Hub) dispatch(_ context.Context, env pubsub.Envelope) {
	kind, id, ok := pubsub.ParseTopic(env.Topic)
	if !ok {
		log.Printf("ws: ignoring envelope on malformed topic %q", env.Topic)
		return
	}
	frame, err := json.Marshal(Frame{Type: env.Type, Payload: json.RawMessage(env.Payload)})
	if err != nil {
		log.Printf("ws: encode %s frame: %v", env.Type, err)
		return
	}

	var targets []*Client
	switch kind {
	case "room":
		if env.Type == services.EventMemberLeft {
			h.evict(id, env.Payload)
		}
		targets = h.rooms.snapshot(id)
	case "user":
		targets = h.users.snapshot(id)
	default:
		return
	}
	for _, c := range targets {
		if c.Send(frame) {
			metrics.FramesDelivered.WithLabelValues(env.Type).Inc()
		}
	}
}

// evict unsubscribes every connection of a member who left roomID.
func (h *Hub) evict(roomID uint, payload []byte) {
	var left services.MemberLeft
	if err := json.Unmarshal(payload, &left); err != nil {
		log.Printf("ws: undecodable %s for room %d: %v", services.EventMemberLeft, roomID, err)
		return
	}
	for _, c := range h.users.snapshot(left.UserID) {
		h.unsubscribe(c, roomID)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	for i := range h.users.shards {
		s := &h.users.shards[i]
		s.mu.RLock()
		var clients []*Client
		for _, set := range s.sets {
			for c := range set {
				clients = append(clients, c)
			}
		}
		s.mu.RUnlock()
		for _, c := range clients {
			c.Close()
		}
	}
}
