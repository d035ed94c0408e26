package services

import (
	"context"
	"fmt"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/repository"
)

// ReadService tracks which room a user is viewing and how far they have
// read.
type ReadService struct {
	store     repository.Store
	presence  cache.Presence
	publisher Publisher
	unread    unreadCounter
}

func NewReadService(d Deps) *ReadService {
	d = d.withDefaults()
	return &ReadService{
		store:     d.Store,
		presence:  d.Presence,
		publisher: d.Publisher,
		unread:    unreadCounter{store: d.Store, presence: d.Presence},
	}
}

// EnterRoom marks the user as viewing roomID and reads everything in it.
func (s *ReadService) EnterRoom(ctx context.Context, userID, roomID uint) (*ReadReceipt, error) {
	if _, _, err := requireMember(ctx, s.store, roomID, userID); err != nil {
		return nil, err
	}

	// Presence goes first so messages sent from here on are read on arrival.
	if err := s.presence.SetPresence(ctx, userID, roomID); err != nil {
		cacheFailed("presence set", err)
	}
	latest, err := s.store.Messages().LatestID(ctx, roomID)
	if err != nil {
		return nil, Internal(fmt.Errorf("latest message: %w", err))
	}
	if latest > 0 {
		if _, err := s.store.Members().AdvanceLastRead(ctx, roomID, userID, latest); err != nil {
			return nil, Internal(fmt.Errorf("advance read position: %w", err))
		}
	}
	return s.receipt(ctx, roomID, userID)
}

// LeavePresence forgets which room the user is viewing. Unread state is
// untouched.
func (s *ReadService) LeavePresence(ctx context.Context, userID uint) {
	if err := s.presence.ClearPresence(ctx, userID); err != nil {
		cacheFailed("presence clear", err)
	}
}

// ClearPresenceIf forgets the user's presence only while it still points
// at roomID. Disconnects use it so a newer connection's presence survives.
func (s *ReadService) ClearPresenceIf(ctx context.Context, userID, roomID uint) {
	if err := s.presence.ClearPresenceIf(ctx, userID, roomID); err != nil {
		cacheFailed("presence clear", err)
	}
}

// MarkRead moves the read position forward to messageID. Moving it back is
// rejected; repeating the current position is accepted.
func (s *ReadService) MarkRead(ctx context.Context, userID, roomID, messageID uint) (*ReadReceipt, error) {
	_, member, err := requireMember(ctx, s.store, roomID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Messages().FindInRoom(ctx, roomID, messageID); err != nil {
		return nil, lookup(err, ErrMessageNotFound, "find message")
	}
	if messageID < member.LastRead() {
		return nil, ErrReadRegression
	}
	if _, err := s.store.Members().AdvanceLastRead(ctx, roomID, userID, messageID); err != nil {
		return nil, Internal(fmt.Errorf("advance read position: %w", err))
	}
	return s.receipt(ctx, roomID, userID)
}

// Unread returns the caller's unread count in roomID.
func (s *ReadService) Unread(ctx context.Context, userID, roomID uint) (int64, error) {
	_, member, err := requireMember(ctx, s.store, roomID, userID)
	if err != nil {
		return 0, err
	}
	return s.unread.count(ctx, member)
}

// receipt reseeds the cached counter from the durable position and
// publishes a read-receipt to the room.
func (s *ReadService) receipt(ctx context.Context, roomID, userID uint) (*ReadReceipt, error) {
	member, err := s.store.Members().Find(ctx, roomID, userID)
	if err != nil {
		return nil, lookup(err, ErrNotMember, "reload member")
	}
	unread, err := s.store.Messages().CountAfter(ctx, roomID, member.LastRead())
	if err != nil {
		return nil, Internal(fmt.Errorf("count unread: %w", err))
	}
	if err := s.presence.SetUnread(ctx, roomID, userID, unread); err != nil {
		cacheFailed("unread reseed", err)
	}

	receipt := &ReadReceipt{
		RoomID:            roomID,
		UserID:            userID,
		LastReadMessageID: member.LastRead(),
		UnreadCount:       unread,
	}
	s.publisher.Publish(ctx, pubsub.RoomTopic(roomID), EventReadReceipt, receipt)
	return receipt, nil
}
