package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/metrics"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/repository"
)

const (
	maxContentRunes = 4000
	previewRunes    = 100
	fanOutTimeout   = 2 * time.Second
)

// SendRequest describes a message to append to a room. SenderID is zero
// for SYSTEM messages.
type SendRequest struct {
	RoomID      uint               `json:"roomId"`
	SenderID    uint               `json:"-"`
	Type        models.MessageType `json:"type"`
	Content     string             `json:"content"`
	ImageURL    string             `json:"imageUrl"`
	CardPayload json.RawMessage    `json:"cardPayload"`
}

type ChatService struct {
	store     repository.Store
	presence  cache.Presence
	publisher Publisher
	unread    unreadCounter
	now       func() time.Time
}

func NewChatService(d Deps) *ChatService {
	d = d.withDefaults()
	return &ChatService{
		store:     d.Store,
		presence:  d.Presence,
		publisher: d.Publisher,
		unread:    unreadCounter{store: d.Store, presence: d.Presence},
		now:       d.Now,
	}
}

// SendUserMessage sends on behalf of a client. Clients may not issue
// SYSTEM or INVITE_CARD messages.
func (s *ChatService) SendUserMessage(ctx context.Context, req SendRequest) (*MessageView, error) {
	switch req.Type {
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeSettlementCard:
	default:
		return nil, Invalid("TYPE_NOT_ALLOWED", fmt.Sprintf("clients cannot send %q messages", req.Type))
	}
	if req.SenderID == 0 {
		return nil, ErrNotMember
	}
	return s.SendMessage(ctx, req)
}

// SendMessage persists a message, updates the room summary and the unread
// state of the other members, then publishes message-created and
// room-summary-updated. Fan-out failures never fail the send.
func (s *ChatService) SendMessage(ctx context.Context, req SendRequest) (*MessageView, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	room, err := s.store.Rooms().FindByID(ctx, req.RoomID)
	if err != nil {
		return nil, lookup(err, ErrRoomNotFound, "find room")
	}
	if !room.IsOpen() {
		return nil, ErrRoomClosed
	}

	var sender *models.User
	msg := models.Message{
		RoomID:    room.ID,
		Type:      req.Type,
		Content:   req.Content,
		CreatedAt: s.now(),
	}
	if req.Type != models.MessageTypeSystem {
		member, err := s.store.Members().Find(ctx, room.ID, req.SenderID)
		if err != nil {
			return nil, lookup(err, ErrNotMember, "find member")
		}
		if !member.IsActive() {
			return nil, ErrNotMember
		}
		if sender, err = s.store.Users().FindByID(ctx, req.SenderID); err != nil {
			return nil, lookup(err, ErrUserNotFound, "find sender")
		}
		senderID := req.SenderID
		msg.SenderID = &senderID
	}
	if req.ImageURL != "" {
		imageURL := req.ImageURL
		msg.ImageURL = &imageURL
	}
	if len(req.CardPayload) > 0 {
		payload := string(req.CardPayload)
		msg.CardPayload = &payload
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Messages().Create(ctx, &msg); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if err := tx.Rooms().ApplyMessage(ctx, &msg, preview(&msg)); err != nil {
			return fmt.Errorf("update room summary: %w", err)
		}
		if msg.SenderID != nil {
			if _, err := tx.Members().AdvanceLastRead(ctx, room.ID, *msg.SenderID, msg.ID); err != nil {
				return fmt.Errorf("advance sender read position: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, Internal(err)
	}
	metrics.MessagesSent.WithLabelValues(string(msg.Type)).Inc()

	members, err := s.store.Members().ListActive(ctx, room.ID)
	if err != nil {
		log.Printf("chat: list members of room %d after send: %v", room.ID, err)
	}
	cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fanOutTimeout)
	s.trackUnread(ctx, cacheCtx, &msg, members)
	cancel()

	view := newMessageView(msg, sender)
	s.publisher.Publish(ctx, pubsub.RoomTopic(room.ID), EventMessageCreated, view)
	s.publishSummary(ctx, room.ID, members)
	return &view, nil
}

// trackUnread advances the read position of members viewing the room and
// bumps the cached counter of everyone else. The sender has read up to
// their own message. Every cache call shares cacheCtx, so a hung cache
// costs the send one deadline in total.
func (s *ChatService) trackUnread(ctx, cacheCtx context.Context, msg *models.Message, members []models.RoomMember) {
	for _, m := range members {
		if cacheCtx.Err() != nil {
			cacheFailed("unread fan-out", cacheCtx.Err())
			return
		}
		if msg.SenderID != nil && m.UserID == *msg.SenderID {
			if err := s.presence.SetUnread(cacheCtx, msg.RoomID, m.UserID, 0); err != nil {
				cacheFailed("unread reset", err)
			}
			continue
		}
		present, ok, err := s.presence.PresentRoom(cacheCtx, m.UserID)
		if err != nil {
			cacheFailed("presence read", err)
			continue
		}
		if ok && present == msg.RoomID {
			if _, err := s.store.Members().AdvanceLastRead(ctx, msg.RoomID, m.UserID, msg.ID); err != nil {
				log.Printf("chat: advance read position of present user %d in room %d: %v", m.UserID, msg.RoomID, err)
			}
			continue
		}
		if _, err := s.presence.IncrUnread(cacheCtx, msg.RoomID, m.UserID); err != nil {
			cacheFailed("unread incr", err)
		}
	}
}

// publishSummary sends the fresh room summary to every active member's
// private topic so room lists update without a room subscription.
func (s *ChatService) publishSummary(ctx context.Context, roomID uint, members []models.RoomMember) {
	room, err := s.store.Rooms().FindByID(ctx, roomID)
	if err != nil {
		log.Printf("chat: reload room %d for summary: %v", roomID, err)
		return
	}
	summary := summaryOf(room)
	for _, m := range members {
		s.publisher.Publish(ctx, pubsub.UserTopic(m.UserID), EventRoomSummaryUpdated, summary)
	}
}

// ListMessages returns one page of the room's history, newest first.
func (s *ChatService) ListMessages(ctx context.Context, roomID, requesterID uint, page, size int) (*Page[MessageView], error) {
	_, member, err := requireMember(ctx, s.store, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	page, size = NormalizePage(page, size)
	msgs, total, err := s.store.Messages().ListRecent(ctx, roomID, page*size, size)
	if err != nil {
		return nil, Internal(fmt.Errorf("list messages: %w", err))
	}
	return s.messagePage(ctx, member, msgs, page, size, total)
}

// ListMessagesBefore pages through messages created strictly before cursor.
func (s *ChatService) ListMessagesBefore(ctx context.Context, roomID, requesterID uint, cursor time.Time, page, size int) (*Page[MessageView], error) {
	_, member, err := requireMember(ctx, s.store, roomID, requesterID)
	if err != nil {
		return nil, err
	}
	page, size = NormalizePage(page, size)
	msgs, total, err := s.store.Messages().ListBefore(ctx, roomID, cursor, page*size, size)
	if err != nil {
		return nil, Internal(fmt.Errorf("list messages before %s: %w", cursor.Format(time.RFC3339Nano), err))
	}
	return s.messagePage(ctx, member, msgs, page, size, total)
}

// ParseCursor accepts an RFC 3339 timestamp with optional fractional
// seconds.
func ParseCursor(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, Invalid("INVALID_CURSOR", "cursor is required")
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, Invalid("INVALID_CURSOR", "cursor must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}

func (s *ChatService) messagePage(ctx context.Context, member *models.RoomMember, msgs []models.Message, page, size int, total int64) (*Page[MessageView], error) {
	ids := make([]uint, 0, len(msgs))
	for _, m := range msgs {
		if m.SenderID != nil {
			ids = append(ids, *m.SenderID)
		}
	}
	users, err := s.store.Users().FindByIDs(ctx, ids)
	if err != nil {
		return nil, Internal(fmt.Errorf("load senders: %w", err))
	}

	lastRead := member.LastRead()
	items := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		var sender *models.User
		if m.SenderID != nil {
			if u, ok := users[*m.SenderID]; ok {
				sender = &u
			}
		}
		view := newMessageView(m, sender)
		read := lastRead >= m.ID
		view.ReadByRequester = &read
		items = append(items, view)
	}
	return newPage(items, page, size, total), nil
}

// GetOrCreatePrivateRoom returns the private room shared with other,
// creating one when none is usable.
func (s *ChatService) GetOrCreatePrivateRoom(ctx context.Context, requesterID, otherID uint) (*RoomView, error) {
	if requesterID == otherID {
		return nil, Invalid("SELF_CHAT", "cannot open a private chat with yourself")
	}
	requester, err := s.store.Users().FindByID(ctx, requesterID)
	if err != nil {
		return nil, lookup(err, ErrUserNotFound, "find requester")
	}
	other, err := s.store.Users().FindByID(ctx, otherID)
	if err != nil {
		return nil, lookup(err, ErrUserNotFound, "find other user")
	}

	room, err := s.store.Rooms().FindPrivateBetween(ctx, requesterID, otherID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(fmt.Errorf("find private room: %w", err))
	}
	if err == nil && room.IsOpen() {
		reused, err := s.reusePrivate(ctx, room, requesterID, otherID)
		if err != nil {
			return nil, err
		}
		if reused {
			return s.GetRoom(ctx, requesterID, room.ID)
		}
	}

	now := s.now()
	room = &models.Room{
		Name:    requester.Nickname + ", " + other.Nickname,
		Type:    models.RoomTypePrivate,
		Status:  models.RoomStatusOpen,
		OwnerID: requesterID,
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Rooms().Create(ctx, room); err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		for _, id := range []uint{requesterID, otherID} {
			member := &models.RoomMember{RoomID: room.ID, UserID: id, Status: models.MemberStatusActive, JoinedAt: now}
			if err := tx.Members().Create(ctx, member); err != nil {
				return fmt.Errorf("add member %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, Internal(err)
	}
	return s.GetRoom(ctx, requesterID, room.ID)
}

// reusePrivate rejoins the requester when the other side is still in the
// room. It reports false when the room cannot be reused.
func (s *ChatService) reusePrivate(ctx context.Context, room *models.Room, requesterID, otherID uint) (bool, error) {
	otherMember, err := s.store.Members().Find(ctx, room.ID, otherID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, Internal(fmt.Errorf("find member: %w", err))
	}
	if !otherMember.IsActive() {
		return false, nil
	}
	member, err := s.store.Members().Find(ctx, room.ID, requesterID)
	if err != nil {
		return false, lookup(err, ErrNotMember, "find member")
	}
	if !member.IsActive() {
		if err := s.store.Members().Activate(ctx, room.ID, requesterID, s.now()); err != nil {
			return false, Internal(fmt.Errorf("rejoin room: %w", err))
		}
	}
	return true, nil
}

// CreateGroupRoom opens a group room with owner as its only member.
func (s *ChatService) CreateGroupRoom(ctx context.Context, ownerID uint, name string, linkedPostID *uint) (*RoomView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("NAME_REQUIRED", "group room name is required")
	}
	if utf8.RuneCountInString(name) > 255 {
		return nil, Invalid("NAME_TOO_LONG", "group room name is limited to 255 characters")
	}
	if _, err := s.store.Users().FindByID(ctx, ownerID); err != nil {
		return nil, lookup(err, ErrUserNotFound, "find owner")
	}

	room := &models.Room{
		Name:         name,
		Type:         models.RoomTypeGroup,
		Status:       models.RoomStatusOpen,
		OwnerID:      ownerID,
		LinkedPostID: linkedPostID,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Rooms().Create(ctx, room); err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		member := &models.RoomMember{RoomID: room.ID, UserID: ownerID, Status: models.MemberStatusActive, JoinedAt: s.now()}
		if err := tx.Members().Create(ctx, member); err != nil {
			return fmt.Errorf("add owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, Internal(err)
	}
	return &RoomView{Room: *room}, nil
}

// ListRooms lists the caller's active rooms, most recently active first.
func (s *ChatService) ListRooms(ctx context.Context, userID uint, page, size int) (*Page[RoomView], error) {
	page, size = NormalizePage(page, size)
	rooms, total, err := s.store.Rooms().ListForMember(ctx, userID, page*size, size)
	if err != nil {
		return nil, Internal(fmt.Errorf("list rooms: %w", err))
	}

	ids := make([]uint, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	members, err := s.store.Members().ListForUser(ctx, userID, ids)
	if err != nil {
		return nil, Internal(fmt.Errorf("load memberships: %w", err))
	}

	items := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		member := members[r.ID]
		n, err := s.unread.count(ctx, &member)
		if err != nil {
			return nil, err
		}
		items = append(items, RoomView{Room: r, UnreadCount: n, LastReadMessageID: member.LastRead()})
	}
	return newPage(items, page, size, total), nil
}

// GetRoom returns one room summary for an active member.
func (s *ChatService) GetRoom(ctx context.Context, userID, roomID uint) (*RoomView, error) {
	room, member, err := requireMember(ctx, s.store, roomID, userID)
	if err != nil {
		return nil, err
	}
	n, err := s.unread.count(ctx, member)
	if err != nil {
		return nil, err
	}
	return &RoomView{Room: *room, UnreadCount: n, LastReadMessageID: member.LastRead()}, nil
}

// LeaveRoom marks the caller LEFT. A group room hands ownership to the
// earliest remaining member; a room nobody is left in is closed.
func (s *ChatService) LeaveRoom(ctx context.Context, userID, roomID uint) error {
	room, _, err := requireMember(ctx, s.store, roomID, userID)
	if err != nil {
		return err
	}
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return lookup(err, ErrUserNotFound, "find user")
	}

	var remaining int64
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Members().Leave(ctx, roomID, userID, s.now()); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotMember
			}
			return fmt.Errorf("leave room: %w", err)
		}
		active, err := tx.Members().ListActive(ctx, roomID)
		if err != nil {
			return fmt.Errorf("list remaining members: %w", err)
		}
		remaining = int64(len(active))
		if remaining == 0 {
			return tx.Rooms().UpdateStatus(ctx, roomID, models.RoomStatusClosed)
		}
		if room.Type == models.RoomTypeGroup && room.OwnerID == userID {
			return tx.Rooms().UpdateOwner(ctx, roomID, active[0].UserID)
		}
		return nil
	})
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		return Internal(err)
	}

	if err := s.presence.ClearPresenceIf(ctx, userID, roomID); err != nil {
		cacheFailed("presence clear", err)
	}
	s.publisher.Publish(ctx, pubsub.RoomTopic(roomID), EventMemberLeft, MemberLeft{RoomID: roomID, UserID: userID})

	if room.Type == models.RoomTypeGroup && remaining > 0 {
		_, err := s.SendMessage(ctx, SendRequest{
			RoomID:  roomID,
			Type:    models.MessageTypeSystem,
			Content: user.Nickname + " left",
		})
		if err != nil {
			log.Printf("chat: system message for user %d leaving room %d: %v", userID, roomID, err)
		}
	}
	return nil
}

func validate(req SendRequest) error {
	if !req.Type.Valid() {
		return Invalid("INVALID_MESSAGE_TYPE", fmt.Sprintf("unknown message type %q", req.Type))
	}
	switch req.Type {
	case models.MessageTypeText:
		if strings.TrimSpace(req.Content) == "" {
			return Invalid("EMPTY_CONTENT", "message content is required")
		}
		if utf8.RuneCountInString(req.Content) > maxContentRunes {
			return Invalid("CONTENT_TOO_LONG", fmt.Sprintf("message content is limited to %d characters", maxContentRunes))
		}
	case models.MessageTypeImage:
		if strings.TrimSpace(req.ImageURL) == "" {
			return Invalid("IMAGE_REQUIRED", "image messages need an imageUrl")
		}
	case models.MessageTypeInviteCard, models.MessageTypeSettlementCard:
		var obj map[string]json.RawMessage
		if len(req.CardPayload) == 0 || json.Unmarshal(req.CardPayload, &obj) != nil || obj == nil {
			return Invalid("INVALID_CARD_PAYLOAD", "card messages need a JSON object payload")
		}
	case models.MessageTypeSystem:
		if req.SenderID != 0 {
			return Invalid("SYSTEM_WITH_SENDER", "system messages have no sender")
		}
		if strings.TrimSpace(req.Content) == "" {
			return Invalid("EMPTY_CONTENT", "message content is required")
		}
	}
	return nil
}

// preview is the room-list snippet for msg.
func preview(msg *models.Message) string {
	switch msg.Type {
	case models.MessageTypeImage:
		return "[image]"
	case models.MessageTypeInviteCard:
		return "[invite]"
	case models.MessageTypeSettlementCard:
		return "[settlement]"
	case models.MessageTypeText:
		if utf8.RuneCountInString(msg.Content) > previewRunes {
			return string([]rune(msg.Content)[:previewRunes])
		}
	}
	return msg.Content
}
