// Package cache tracks ephemeral presence and unread counters. It is a
// best-effort layer: callers treat every error as "unknown" and fall back to
// the durable store.
package cache

import (
	"context"
	"fmt"
)

// Presence records which room a user is viewing and per-member unread
// counters.
type Presence interface {
	SetPresence(ctx context.Context, userID, roomID uint) error
	// PresentRoom returns the room the user is viewing; ok is false when
	// the user is not viewing any room.
	PresentRoom(ctx context.Context, userID uint) (roomID uint, ok bool, err error)
	ClearPresence(ctx context.Context, userID uint) error
	// ClearPresenceIf deletes the presence entry only while it still points
	// at roomID.
	ClearPresenceIf(ctx context.Context, userID, roomID uint) error

	SetUnread(ctx context.Context, roomID, userID uint, n int64) error
	IncrUnread(ctx context.Context, roomID, userID uint) (int64, error)
	Unread(ctx context.Context, roomID, userID uint) (n int64, ok bool, err error)

	Ping(ctx context.Context) error
	Close() error
}

func presenceKey(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

func unreadKey(roomID, userID uint) string {
	return fmt.Sprintf("unread:%d:%d", roomID, userID)
}
