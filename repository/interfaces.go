// Package repository is the durable store for rooms, members, messages and
// invites. It is the single writer of authoritative chat state.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/CUknot/chat_backend/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Store groups the repositories and runs them inside a transaction.
type Store interface {
	Users() UserRepository
	Rooms() RoomRepository
	Members() MemberRepository
	Messages() MessageRepository
	Invites() InviteRepository

	// Transaction runs fn against a Store bound to a single database
	// transaction. Only the Store passed to fn may be used inside it.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
}

type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	// FindPrivateBetween returns the newest PRIVATE room where both users
	// hold a membership row of any status.
	FindPrivateBetween(ctx context.Context, userA, userB uint) (*models.Room, error)
	ListForMember(ctx context.Context, userID uint, offset, limit int) ([]models.Room, int64, error)
	ApplyMessage(ctx context.Context, msg *models.Message, preview string) error
	UpdateStatus(ctx context.Context, roomID uint, status models.RoomStatus) error
	UpdateOwner(ctx context.Context, roomID, ownerID uint) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.RoomMember) error
	Find(ctx context.Context, roomID, userID uint) (*models.RoomMember, error)
	ListActive(ctx context.Context, roomID uint) ([]models.RoomMember, error)
	ListForUser(ctx context.Context, userID uint, roomIDs []uint) (map[uint]models.RoomMember, error)
	CountActive(ctx context.Context, roomID uint) (int64, error)
	Activate(ctx context.Context, roomID, userID uint, at time.Time) error
	Leave(ctx context.Context, roomID, userID uint, at time.Time) error
	// AdvanceLastRead moves the read marker forward only. It reports whether
	// the stored value changed.
	AdvanceLastRead(ctx context.Context, roomID, userID, messageID uint) (bool, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindInRoom(ctx context.Context, roomID, messageID uint) (*models.Message, error)
	LatestID(ctx context.Context, roomID uint) (uint, error)
	CountAfter(ctx context.Context, roomID, afterID uint) (int64, error)
	ListRecent(ctx context.Context, roomID uint, offset, limit int) ([]models.Message, int64, error)
	ListBefore(ctx context.Context, roomID uint, before time.Time, offset, limit int) ([]models.Message, int64, error)
}

type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	FindByID(ctx context.Context, id uint) (*models.Invite, error)
	FindPending(ctx context.Context, roomID, inviteeID uint) (*models.Invite, error)
	ListPendingFor(ctx context.Context, inviteeID uint) ([]models.Invite, error)
	// Transition moves a PENDING invite to a terminal status. It reports
	// false when the invite was no longer PENDING.
	Transition(ctx context.Context, id uint, to models.InviteStatus, at time.Time) (bool, error)
	// Accept moves a PENDING invite to ACCEPTED and records the room it
	// was accepted into.
	Accept(ctx context.Context, id, roomID uint, at time.Time) (bool, error)
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}
