package models

import (
	"time"
)

// User is the identity record owned by the account system. The chat service
// only reads it to denormalize sender names and avatars.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"size:255;not null" json:"nickname"`
	AvatarURL string    `gorm:"size:1024" json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
