package models

import (
	"time"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusDeclined InviteStatus = "DECLINED"
	InviteStatusExpired  InviteStatus = "EXPIRED"
)

// Invite offers the invitee of a private room a seat in a group room.
// Only one PENDING invite may exist per (room, invitee).
type Invite struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	RoomID            uint         `gorm:"not null;uniqueIndex:idx_invites_pending,where:status = 'PENDING'" json:"roomId"`
	InviterID         uint         `gorm:"not null;index" json:"inviterId"`
	InviteeID         uint         `gorm:"not null;index;uniqueIndex:idx_invites_pending,where:status = 'PENDING'" json:"inviteeId"`
	TargetGroupPostID uint         `gorm:"not null" json:"targetGroupPostId"`
	Status            InviteStatus `gorm:"size:16;not null;index" json:"status"`
	ExpiresAt         time.Time    `gorm:"not null;index" json:"expiresAt"`
	AcceptedRoomID    *uint        `gorm:"index" json:"acceptedRoomId,omitempty"`
	AcceptedAt        *time.Time   `json:"acceptedAt,omitempty"`
	RespondedAt       *time.Time   `json:"respondedAt,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// IsExpired reports whether a pending invite has outlived its deadline.
// Terminal invites are never considered expired by this check.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.Status == InviteStatusPending && now.After(i.ExpiresAt)
}

// IsTerminal reports whether the invite can no longer change state.
func (i *Invite) IsTerminal() bool {
	return i.Status != InviteStatusPending
}
