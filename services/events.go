package services

import (
	"encoding/json"
	"time"

	"github.com/CUknot/chat_backend/models"
)

// Event types as they appear in the "type" field of server frames.
const (
	EventMessageCreated     = "message-created"
	EventReadReceipt        = "read-receipt"
	EventRoomSummaryUpdated = "room-summary-updated"
	EventInviteReceived     = "invite-received"
	EventMemberLeft         = "member-left"
)

// MemberLeft is published on the room topic when a member leaves. Gateways
// drop the member's connections from the room before delivering it.
type MemberLeft struct {
	RoomID uint `json:"roomId"`
	UserID uint `json:"userId"`
}

// MessageView is a message with its sender denormalized. ReadByRequester is
// only set on history reads.
type MessageView struct {
	models.Message
	CardPayload     json.RawMessage `json:"cardPayload,omitempty"`
	SenderName      string          `json:"senderName,omitempty"`
	SenderAvatar    string          `json:"senderAvatar,omitempty"`
	ReadByRequester *bool           `json:"readByRequester,omitempty"`
}

type ReadReceipt struct {
	RoomID            uint  `json:"roomId"`
	UserID            uint  `json:"userId"`
	LastReadMessageID uint  `json:"lastReadMessageId"`
	UnreadCount       int64 `json:"unreadCount"`
}

type RoomSummary struct {
	RoomID             uint       `json:"roomId"`
	LastMessageAt      *time.Time `json:"lastMessageAt"`
	LastMessagePreview string     `json:"lastMessagePreview"`
	MessageCount       int64      `json:"messageCount"`
}

// RoomView is a room as listed to one member.
type RoomView struct {
	models.Room
	UnreadCount       int64 `json:"unreadCount"`
	LastReadMessageID uint  `json:"lastReadMessageId"`
}

// InviteView is an invite with the inviter denormalized.
type InviteView struct {
	models.Invite
	InviterName   string `json:"inviterName"`
	InviterAvatar string `json:"inviterAvatar,omitempty"`
}

// InviteCard is the payload of the INVITE_CARD message posted into the
// private room.
type InviteCard struct {
	InviteID          uint      `json:"inviteId"`
	TargetGroupPostID uint      `json:"targetGroupPostId"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

func newMessageView(msg models.Message, sender *models.User) MessageView {
	view := MessageView{Message: msg}
	if msg.CardPayload != nil {
		view.CardPayload = json.RawMessage(*msg.CardPayload)
	}
	if sender != nil {
		view.SenderName = sender.Nickname
		view.SenderAvatar = sender.AvatarURL
	}
	return view
}

func summaryOf(room *models.Room) RoomSummary {
	return RoomSummary{
		RoomID:             room.ID,
		LastMessageAt:      room.LastMessageAt,
		LastMessagePreview: room.LastMessagePreview,
		MessageCount:       room.MessageCount,
	}
}
