package services

import (
	"context"
	"fmt"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/repository"
)

// unreadCounter answers unread counts. The durable count(id > lastRead) is
// authoritative; a cached counter that is missing, failing, or different is
// reseeded from it.
type unreadCounter struct {
	store    repository.Store
	presence cache.Presence
}

func (c unreadCounter) count(ctx context.Context, member *models.RoomMember) (int64, error) {
	durable, err := c.store.Messages().CountAfter(ctx, member.RoomID, member.LastRead())
	if err != nil {
		return 0, Internal(fmt.Errorf("count unread: %w", err))
	}

	cached, ok, err := c.presence.Unread(ctx, member.RoomID, member.UserID)
	if err != nil {
		cacheFailed("unread read", err)
		return durable, nil
	}
	if ok && cached == durable {
		return durable, nil
	}
	if err := c.presence.SetUnread(ctx, member.RoomID, member.UserID, durable); err != nil {
		cacheFailed("unread reseed", err)
	}
	return durable, nil
}

// requireMember loads the room and the caller's membership, failing unless
// the caller is an ACTIVE member.
func requireMember(ctx context.Context, store repository.Store, roomID, userID uint) (*models.Room, *models.RoomMember, error) {
	room, err := store.Rooms().FindByID(ctx, roomID)
	if err != nil {
		return nil, nil, lookup(err, ErrRoomNotFound, "find room")
	}
	member, err := store.Members().Find(ctx, roomID, userID)
	if err != nil {
		return nil, nil, lookup(err, ErrNotMember, "find member")
	}
	if !member.IsActive() {
		return nil, nil, ErrNotMember
	}
	return room, member, nil
}
