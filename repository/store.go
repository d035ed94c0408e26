package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore builds a Store backed by gorm.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository       { return &userRepository{db: s.db} }
func (s *gormStore) Rooms() RoomRepository       { return &roomRepository{db: s.db} }
func (s *gormStore) Members() MemberRepository   { return &memberRepository{db: s.db} }
func (s *gormStore) Messages() MessageRepository { return &messageRepository{db: s.db} }
func (s *gormStore) Invites() InviteRepository   { return &inviteRepository{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
