package models

import (
	"time"
)

type RoomType string

const (
	RoomTypePrivate RoomType = "PRIVATE"
	RoomTypeGroup   RoomType = "GROUP"
)

type RoomStatus string

const (
	RoomStatusOpen   RoomStatus = "OPEN"
	RoomStatusClosed RoomStatus = "CLOSED"
)

// Room is a chat conversation. Members are never loaded through the room;
// query RoomMember by room id instead.
type Room struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"size:255;not null" json:"name"`
	Type                RoomType   `gorm:"size:16;not null;index" json:"type"`
	Status              RoomStatus `gorm:"size:16;not null;default:'OPEN'" json:"status"`
	OwnerID             uint       `gorm:"not null;index" json:"ownerId"`
	LinkedPostID        *uint      `gorm:"index" json:"linkedPostId,omitempty"`
	LastMessageAt       *time.Time `gorm:"index" json:"lastMessageAt,omitempty"`
	LastMessagePreview  string     `gorm:"size:512" json:"lastMessagePreview"`
	LastMessageSenderID *uint      `json:"lastMessageSenderId,omitempty"`
	MessageCount        int64      `gorm:"not null;default:0" json:"messageCount"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// IsOpen reports whether the room still accepts messages.
func (r *Room) IsOpen() bool {
	return r.Status == RoomStatusOpen
}

type MemberStatus string

const (
	MemberStatusActive  MemberStatus = "ACTIVE"
	MemberStatusLeft    MemberStatus = "LEFT"
	MemberStatusInvited MemberStatus = "INVITED"
)

// RoomMember is a user's participation in a room. Leaving flips the status
// to LEFT so history keeps its sender attribution.
type RoomMember struct {
	RoomID            uint         `gorm:"primaryKey;autoIncrement:false" json:"roomId"`
	UserID            uint         `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	Status            MemberStatus `gorm:"size:16;not null;index" json:"status"`
	LastReadMessageID *uint        `json:"lastReadMessageId,omitempty"`
	JoinedAt          time.Time    `gorm:"not null" json:"joinedAt"`
	LeftAt            *time.Time   `json:"leftAt,omitempty"`
}

// IsActive reports whether the member currently participates in the room.
func (m *RoomMember) IsActive() bool {
	return m != nil && m.Status == MemberStatusActive
}

// LastRead returns the last read message id, zero when nothing was read.
func (m *RoomMember) LastRead() uint {
	if m == nil || m.LastReadMessageID == nil {
		return 0
	}
	return *m.LastReadMessageID
}
