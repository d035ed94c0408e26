package models

import (
	"time"
)

type MessageType string

const (
	MessageTypeText           MessageType = "TEXT"
	MessageTypeImage          MessageType = "IMAGE"
	MessageTypeInviteCard     MessageType = "INVITE_CARD"
	MessageTypeSettlementCard MessageType = "SETTLEMENT_CARD"
	MessageTypeSystem         MessageType = "SYSTEM"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeInviteCard, MessageTypeSettlementCard, MessageTypeSystem:
		return true
	}
	return false
}

// IsCard reports whether the type carries a structured JSON payload.
func (t MessageType) IsCard() bool {
	return t == MessageTypeInviteCard || t == MessageTypeSettlementCard
}

// Message is an immutable entry in a room's log. ID doubles as the room's
// ordering key and the read cursor.
type Message struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	RoomID      uint        `gorm:"not null;index:idx_messages_room_created,priority:1" json:"roomId"`
	SenderID    *uint       `json:"senderId,omitempty"`
	Type        MessageType `gorm:"size:32;not null" json:"type"`
	Content     string      `gorm:"type:text" json:"content"`
	ImageURL    *string     `gorm:"size:1024" json:"imageUrl,omitempty"`
	CardPayload *string     `gorm:"type:text" json:"-"`
	CreatedAt   time.Time   `gorm:"index:idx_messages_room_created,priority:2" json:"createdAt"`
}
