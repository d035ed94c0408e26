package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/CUknot/chat_backend/models"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindInRoom(ctx context.Context, roomID, messageID uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND id = ?", roomID, messageID).
		First(&msg).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

func (r *messageRepository) LatestID(ctx context.Context, roomID uint) (uint, error) {
	var latest sql.NullInt64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ?", roomID).
		Select("MAX(id)").
		Row().Scan(&latest)
	if err != nil || !latest.Valid {
		return 0, err
	}
	return uint(latest.Int64), nil
}

func (r *messageRepository) CountAfter(ctx context.Context, roomID, afterID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ? AND id > ?", roomID, afterID).
		Count(&n).Error
	return n, err
}

func (r *messageRepository) ListRecent(ctx context.Context, roomID uint, offset, limit int) ([]models.Message, int64, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("room_id = ?", roomID)
	}, "id DESC", offset, limit)
}

func (r *messageRepository) ListBefore(ctx context.Context, roomID uint, before time.Time, offset, limit int) ([]models.Message, int64, error) {
	return r.page(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("room_id = ? AND created_at < ?", roomID, before)
	}, "created_at DESC, id DESC", offset, limit)
}

// page returns one most-recent-first page plus the total size of the filter.
func (r *messageRepository) page(ctx context.Context, filter func(*gorm.DB) *gorm.DB, order string, offset, limit int) ([]models.Message, int64, error) {
	var total int64
	if err := filter(r.db.WithContext(ctx).Model(&models.Message{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var msgs []models.Message
	err := filter(r.db.WithContext(ctx)).
		Order(order).
		Offset(offset).Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}
