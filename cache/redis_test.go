package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestPresence(t *testing.T) (*RedisPresence, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPresence(client, 24*time.Hour, 24*time.Hour), mr
}

func TestPresenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestPresence(t)

	if _, ok, err := p.PresentRoom(ctx, 7); err != nil || ok {
		t.Fatalf("PresentRoom before set = %v, %v", ok, err)
	}
	if err := p.SetPresence(ctx, 7, 3); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	if got, _ := mr.Get("presence:7"); got != "3" {
		t.Fatalf("stored value = %q, want 3", got)
	}
	if ttl := mr.TTL("presence:7"); ttl != 24*time.Hour {
		t.Fatalf("ttl = %v, want 24h", ttl)
	}
	room, ok, err := p.PresentRoom(ctx, 7)
	if err != nil || !ok || room != 3 {
		t.Fatalf("PresentRoom = %d, %v, %v", room, ok, err)
	}

	mr.FastForward(25 * time.Hour)
	if _, ok, _ := p.PresentRoom(ctx, 7); ok {
		t.Fatalf("presence survived its ttl")
	}
}

func TestClearPresenceIf(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestPresence(t)

	if err := p.SetPresence(ctx, 1, 10); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	if err := p.ClearPresenceIf(ctx, 1, 11); err != nil {
		t.Fatalf("ClearPresenceIf other room: %v", err)
	}
	if _, ok, _ := p.PresentRoom(ctx, 1); !ok {
		t.Fatalf("presence cleared for a different room")
	}
	if err := p.ClearPresenceIf(ctx, 1, 10); err != nil {
		t.Fatalf("ClearPresenceIf: %v", err)
	}
	if _, ok, _ := p.PresentRoom(ctx, 1); ok {
		t.Fatalf("presence not cleared")
	}
}

func TestUnreadCounter(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestPresence(t)

	if n, err := p.IncrUnread(ctx, 5, 2); err != nil || n != 0 {
		t.Fatalf("IncrUnread on a missing counter = %d, %v; want 0", n, err)
	}
	if mr.Exists("unread:5:2") {
		t.Fatalf("IncrUnread created a counter")
	}

	if err := p.SetUnread(ctx, 5, 2, 0); err != nil {
		t.Fatalf("SetUnread: %v", err)
	}
	for i := 1; i <= 3; i++ {
		n, err := p.IncrUnread(ctx, 5, 2)
		if err != nil {
			t.Fatalf("IncrUnread: %v", err)
		}
		if n != int64(i) {
			t.Fatalf("IncrUnread = %d, want %d", n, i)
		}
	}
	if ttl := mr.TTL("unread:5:2"); ttl != 24*time.Hour {
		t.Fatalf("unread ttl = %v", ttl)
	}

	if err := p.SetUnread(ctx, 5, 2, 0); err != nil {
		t.Fatalf("SetUnread: %v", err)
	}
	n, ok, err := p.Unread(ctx, 5, 2)
	if err != nil || !ok || n != 0 {
		t.Fatalf("Unread = %d, %v, %v; want 0, true", n, ok, err)
	}
	if _, ok, _ := p.Unread(ctx, 5, 3); ok {
		t.Fatalf("unknown counter reported as cached")
	}
}

func TestExpiredUnreadCounterIsNotRecreated(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestPresence(t)

	if err := p.SetUnread(ctx, 7, 1, 2); err != nil {
		t.Fatalf("SetUnread: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	if _, err := p.IncrUnread(ctx, 7, 1); err != nil {
		t.Fatalf("IncrUnread: %v", err)
	}
	if _, ok, _ := p.Unread(ctx, 7, 1); ok {
		t.Fatalf("expired counter came back from an increment")
	}
}

func TestRedisErrorsSurface(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestPresence(t)
	mr.Close()

	if _, err := p.IncrUnread(ctx, 1, 1); err == nil {
		t.Fatalf("expected error from closed server")
	}
}
