package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var ErrCampaignNotFound = errors.New("campaign not found")

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, tx *gorm.DB, campaign *model.Campaign) error {
	return session(ctx, r.db, tx).Create(campaign).Error
}

func (r *CampaignRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Campaign, error) {
	var campaign model.Campaign
	if err := first(session(ctx, r.db, tx).Where("id = ?", id), &campaign, ErrCampaignNotFound); err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *CampaignRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Campaign, error) {
	var campaigns []*model.Campaign
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&campaigns).Error
	return campaigns, err
}

// ListAll returns every campaign, optionally narrowed to one status.
func (r *CampaignRepository) ListAll(ctx context.Context, status string) ([]*model.Campaign, error) {
	var campaigns []*model.Campaign
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Campaign{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}

// Transition moves a campaign from one status to another with no wallet effect.
func (r *CampaignRepository) Transition(ctx context.Context, tx *gorm.DB, id int64, from, to, note string) error {
	if !model.CanTransition(model.CampaignTransitions, from, to) {
		return ErrStatusConflict
	}
	updates := map[string]interface{}{"status": to}
	if note != "" {
		updates["admin_note"] = note
	}
	return conditionalUpdate(ctx, session(ctx, r.db, tx), &model.Campaign{}, id, []string{from}, false, updates)
}

// Decline moves a pending campaign to declined and claims its refund. Only
// one caller can ever succeed.
func (r *CampaignRepository) Decline(ctx context.Context, tx *gorm.DB, id int64, note string) error {
	updates := map[string]interface{}{
		"status":        model.CampaignStatusDeclined,
		"refund_issued": true,
	}
	if note != "" {
		updates["admin_note"] = note
	}
	return conditionalUpdate(ctx, session(ctx, r.db, tx), &model.Campaign{}, id,
		[]string{model.CampaignStatusPending}, true, updates)
}

func (r *CampaignRepository) CountByStatus(ctx context.Context, userID int64) (map[string]int64, error) {
	var rows []StatusCount
	query := r.db.WithContext(ctx).Model(&model.Campaign{}).Select("status, count(*) as count")
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}
