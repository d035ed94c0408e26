package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestUnreadScenarioEnterRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, redisPresence(t))
	p := f.privateRoom(t, f.alice, f.bob)

	hi := f.send(t, p.ID, f.alice, "hi")
	if hi.ID != 1 {
		t.Fatalf("first message id = %d, want 1", hi.ID)
	}
	if n, err := f.read.Unread(ctx, f.bob.ID, p.ID); err != nil || n != 1 {
		t.Fatalf("unread(P, bob) = %d, %v; want 1", n, err)
	}

	receipt, err := f.read.EnterRoom(ctx, f.bob.ID, p.ID)
	if err != nil {
		t.Fatalf("EnterRoom: %v", err)
	}
	if receipt.UnreadCount != 0 || receipt.LastReadMessageID != 1 {
		t.Fatalf("receipt = %+v", receipt)
	}
	if n, err := f.read.Unread(ctx, f.bob.ID, p.ID); err != nil || n != 0 {
		t.Fatalf("unread after enter = %d, %v; want 0", n, err)
	}
	if got := f.member(t, p.ID, f.bob).LastRead(); got != 1 {
		t.Fatalf("bob last read = %d, want 1", got)
	}
	if n := len(f.events.find(pubsub.RoomTopic(p.ID), services.EventReadReceipt)); n != 1 {
		t.Fatalf("read receipts = %d, want 1", n)
	}
}

func TestPresentMemberReadsOnArrival(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, redisPresence(t))
	p := f.privateRoom(t, f.alice, f.bob)

	if _, err := f.read.EnterRoom(ctx, f.bob.ID, p.ID); err != nil {
		t.Fatalf("EnterRoom: %v", err)
	}
	msg := f.send(t, p.ID, f.alice, "you there?")
	if got := f.member(t, p.ID, f.bob).LastRead(); got != msg.ID {
		t.Fatalf("present member last read = %d, want %d", got, msg.ID)
	}

	f.read.LeavePresence(ctx, f.bob.ID)
	f.send(t, p.ID, f.alice, "gone?")
	if n, _ := f.read.Unread(ctx, f.bob.ID, p.ID); n != 1 {
		t.Fatalf("unread after leaving presence = %d, want 1", n)
	}
}

func TestClearPresenceIfKeepsNewerRoom(t *testing.T) {
	ctx := context.Background()
	presence := redisPresence(t)
	f := newFixture(t, presence)
	withBob := f.privateRoom(t, f.alice, f.bob)
	withCarol := f.privateRoom(t, f.alice, f.carol)

	if _, err := f.read.EnterRoom(ctx, f.alice.ID, withBob.ID); err != nil {
		t.Fatalf("EnterRoom: %v", err)
	}
	if _, err := f.read.EnterRoom(ctx, f.alice.ID, withCarol.ID); err != nil {
		t.Fatalf("EnterRoom: %v", err)
	}
	f.read.ClearPresenceIf(ctx, f.alice.ID, withBob.ID)
	if room, ok, _ := presence.PresentRoom(ctx, f.alice.ID); !ok || room != withCarol.ID {
		t.Fatalf("presence = %d, %v; want %d", room, ok, withCarol.ID)
	}
	f.read.ClearPresenceIf(ctx, f.alice.ID, withCarol.ID)
	if _, ok, _ := presence.PresentRoom(ctx, f.alice.ID); ok {
		t.Fatalf("presence survived matching clear")
	}
}

func TestMarkReadIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, redisPresence(t))
	p := f.privateRoom(t, f.alice, f.bob)

	m1 := f.send(t, p.ID, f.alice, "1")
	f.send(t, p.ID, f.alice, "2")
	m3 := f.send(t, p.ID, f.alice, "3")

	receipt, err := f.read.MarkRead(ctx, f.bob.ID, p.ID, m3.ID)
	if err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if receipt.LastReadMessageID != m3.ID || receipt.UnreadCount != 0 {
		t.Fatalf("receipt = %+v", receipt)
	}

	_, err = f.read.MarkRead(ctx, f.bob.ID, p.ID, m1.ID)
	assertCode(t, err, services.ErrReadRegression)
	if got := f.member(t, p.ID, f.bob).LastRead(); got != m3.ID {
		t.Fatalf("stored position regressed to %d", got)
	}

	if _, err := f.read.MarkRead(ctx, f.bob.ID, p.ID, m3.ID); err != nil {
		t.Fatalf("repeat MarkRead: %v", err)
	}
}

func TestMarkReadRejectsForeignMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, cache.Noop{})
	withBob := f.privateRoom(t, f.alice, f.bob)
	withCarol := f.privateRoom(t, f.alice, f.carol)

	other := f.send(t, withCarol.ID, f.carol, "elsewhere")
	_, err := f.read.MarkRead(ctx, f.bob.ID, withBob.ID, other.ID)
	assertCode(t, err, services.ErrMessageNotFound)

	_, err = f.read.MarkRead(ctx, f.carol.ID, withBob.ID, other.ID)
	assertCode(t, err, services.ErrNotMember)
}

func TestUnreadMatchesDurableCount(t *testing.T) {
	for name, presence := range map[string]func(*testing.T) cache.Presence{
		"redis": redisPresence,
		"noop":  func(*testing.T) cache.Presence { return cache.Noop{} },
		"down":  func(*testing.T) cache.Presence { return brokenCache{} },
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, presence(t))
			p := f.privateRoom(t, f.alice, f.bob)
			check := func() { t.Helper(); f.assertUnreadConsistent(t, p.ID, f.alice, f.bob) }

			f.send(t, p.ID, f.alice, "a")
			f.send(t, p.ID, f.alice, "b")
			f.send(t, p.ID, f.alice, "c")
			check()

			if _, err := f.read.EnterRoom(ctx, f.bob.ID, p.ID); err != nil {
				t.Fatalf("EnterRoom: %v", err)
			}
			check()

			f.send(t, p.ID, f.alice, "d")
			check()

			f.read.LeavePresence(ctx, f.bob.ID)
			f.send(t, p.ID, f.alice, "e")
			f.send(t, p.ID, f.bob, "f")
			g := f.send(t, p.ID, f.alice, "g")
			f.send(t, p.ID, f.alice, "h")
			check()

			if _, err := f.read.MarkRead(ctx, f.bob.ID, p.ID, g.ID); err != nil {
				t.Fatalf("MarkRead: %v", err)
			}
			check()
		})
	}
}

func TestUnreadReconcilesDriftedCache(t *testing.T) {
	ctx := context.Background()
	presence := redisPresence(t)
	f := newFixture(t, presence)
	p := f.privateRoom(t, f.alice, f.bob)

	f.send(t, p.ID, f.alice, "a")
	for _, drifted := range []int64{40, 2, 0} {
		if err := presence.SetUnread(ctx, p.ID, f.bob.ID, drifted); err != nil {
			t.Fatalf("SetUnread: %v", err)
		}
		if n, _ := f.read.Unread(ctx, f.bob.ID, p.ID); n != 1 {
			t.Fatalf("cached %d: unread = %d, want durable 1", drifted, n)
		}
		if n, ok, _ := presence.Unread(ctx, p.ID, f.bob.ID); !ok || n != 1 {
			t.Fatalf("cached %d: cache not reseeded: %d, %v", drifted, n, ok)
		}
	}
}

func TestUnreadSurvivesCounterExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := newFixture(t, cache.NewRedisPresence(client, 24*time.Hour, 24*time.Hour))
	p := f.privateRoom(t, f.alice, f.bob)

	f.send(t, p.ID, f.alice, "a")
	f.send(t, p.ID, f.alice, "b")
	if n, _ := f.read.Unread(ctx, f.bob.ID, p.ID); n != 2 {
		t.Fatalf("unread = %d, want 2", n)
	}

	mr.FastForward(25 * time.Hour)
	f.send(t, p.ID, f.alice, "c")

	if n, _ := f.read.Unread(ctx, f.bob.ID, p.ID); n != 3 {
		t.Fatalf("unread after counter expiry = %d, want 3", n)
	}
	f.assertUnreadConsistent(t, p.ID, f.alice, f.bob)
}
