package repository

import (
	"context"

	"github.com/CUknot/chat_backend/models"
	"gorm.io/gorm"
)

type roomRepository struct {
	db *gorm.DB
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (r *roomRepository) FindPrivateBetween(ctx context.Context, userA, userB uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where("type = ?", models.RoomTypePrivate).
		Where("id IN (?)", r.db.Model(&models.RoomMember{}).Select("room_id").Where("user_id = ?", userA)).
		Where("id IN (?)", r.db.Model(&models.RoomMember{}).Select("room_id").Where("user_id = ?", userB)).
		Order("id DESC").
		First(&room).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

func (r *roomRepository) ListForMember(ctx context.Context, userID uint, offset, limit int) ([]models.Room, int64, error) {
	scope := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Room{}).
			Joins("JOIN room_members ON room_members.room_id = rooms.id").
			Where("room_members.user_id = ? AND room_members.status = ?", userID, models.MemberStatusActive)
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rooms []models.Room
	err := scope().Select("rooms.*").
		Order("rooms.last_message_at IS NULL").
		Order("rooms.last_message_at DESC").
		Order("rooms.id DESC").
		Offset(offset).Limit(limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

func (r *roomRepository) ApplyMessage(ctx context.Context, msg *models.Message, preview string) error {
	res := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", msg.RoomID).
		Updates(map[string]any{
			"last_message_at":        msg.CreatedAt,
			"last_message_preview":   preview,
			"last_message_sender_id": msg.SenderID,
			"message_count":          gorm.Expr("message_count + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomRepository) UpdateStatus(ctx context.Context, roomID uint, status models.RoomStatus) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("status", status).Error
}

func (r *roomRepository) UpdateOwner(ctx context.Context, roomID, ownerID uint) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("owner_id", ownerID).Error
}
