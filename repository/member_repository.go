package repository

import (
	"context"
	"time"

	"github.com/CUknot/chat_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type memberRepository struct {
	db *gorm.DB
}

// Create inserts a membership. A concurrent insert of the same (room, user)
// leaves one row, active with the later join time.
func (r *memberRepository) Create(ctx context.Context, member *models.RoomMember) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "joined_at", "left_at"}),
	}).Create(member).Error
}

func (r *memberRepository) Find(ctx context.Context, roomID, userID uint) (*models.RoomMember, error) {
	var member models.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&member).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

func (r *memberRepository) ListActive(ctx context.Context, roomID uint) ([]models.RoomMember, error) {
	var members []models.RoomMember
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND status = ?", roomID, models.MemberStatusActive).
		Order("joined_at ASC").Order("user_id ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepository) ListForUser(ctx context.Context, userID uint, roomIDs []uint) (map[uint]models.RoomMember, error) {
	out := make(map[uint]models.RoomMember, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	var members []models.RoomMember
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND room_id IN ?", userID, roomIDs).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.RoomID] = m
	}
	return out, nil
}

func (r *memberRepository) CountActive(ctx context.Context, roomID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND status = ?", roomID, models.MemberStatusActive).
		Count(&n).Error
	return n, err
}

func (r *memberRepository) Activate(ctx context.Context, roomID, userID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]any{
			"status":    models.MemberStatusActive,
			"joined_at": at,
			"left_at":   nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *memberRepository) Leave(ctx context.Context, roomID, userID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ? AND status = ?", roomID, userID, models.MemberStatusActive).
		Updates(map[string]any{
			"status":  models.MemberStatusLeft,
			"left_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *memberRepository) AdvanceLastRead(ctx context.Context, roomID, userID, messageID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Where("(last_read_message_id IS NULL OR last_read_message_id < ?)", messageID).
		Update("last_read_message_id", messageID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
