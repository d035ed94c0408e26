package repository

import (
	"context"
	"time"

	"github.com/CUknot/chat_backend/models"
	"gorm.io/gorm"
)

type inviteRepository struct {
	db *gorm.DB
}

func (r *inviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *inviteRepository) FindByID(ctx context.Context, id uint) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.WithContext(ctx).First(&invite, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &invite, nil
}

func (r *inviteRepository) FindPending(ctx context.Context, roomID, inviteeID uint) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND invitee_id = ? AND status = ?", roomID, inviteeID, models.InviteStatusPending).
		First(&invite).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &invite, nil
}

func (r *inviteRepository) ListPendingFor(ctx context.Context, inviteeID uint) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", inviteeID, models.InviteStatusPending).
		Order("created_at DESC").Order("id DESC").
		Find(&invites).Error
	return invites, err
}

func (r *inviteRepository) Transition(ctx context.Context, id uint, to models.InviteStatus, at time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	switch to {
	case models.InviteStatusAccepted:
		updates["accepted_at"] = at
		updates["responded_at"] = at
	case models.InviteStatusDeclined:
		updates["responded_at"] = at
	}
	res := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *inviteRepository) Accept(ctx context.Context, id, roomID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND status = ?", id, models.InviteStatusPending).
		Updates(map[string]any{
			"status":           models.InviteStatusAccepted,
			"accepted_room_id": roomID,
			"accepted_at":      at,
			"responded_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *inviteRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Invite{}).
		Where("status = ? AND expires_at < ?", models.InviteStatusPending, now).
		Update("status", models.InviteStatusExpired)
	return res.RowsAffected, res.Error
}
