package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var ErrBoostNotFound = errors.New("boost not found")

// refundableBoostStatuses are the states from which an admin may still
// reject a boost and return its amount.
var refundableBoostStatuses = []string{
	model.BoostStatusPending,
	model.BoostStatusProcessing,
	model.BoostStatusFailed,
}

type BoostRepository struct {
	db *gorm.DB
}

func NewBoostRepository(db *gorm.DB) *BoostRepository {
	return &BoostRepository{db: db}
}

func (r *BoostRepository) Create(ctx context.Context, tx *gorm.DB, boost *model.Boost) error {
	return session(ctx, r.db, tx).Create(boost).Error
}

func (r *BoostRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Boost, error) {
	var boost model.Boost
	if err := first(session(ctx, r.db, tx).Where("id = ?", id), &boost, ErrBoostNotFound); err != nil {
		return nil, err
	}
	return &boost, nil
}

func (r *BoostRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Boost, error) {
	var boosts []*model.Boost
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&boosts).Error
	return boosts, err
}

func (r *BoostRepository) ListAll(ctx context.Context, status string) ([]*model.Boost, error) {
	var boosts []*model.Boost
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&boosts).Error
	return boosts, err
}

func (r *BoostRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Boost{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBoostNotFound
	}
	return nil
}

func (r *BoostRepository) Transition(ctx context.Context, tx *gorm.DB, id int64, from, to string) error {
	if !model.CanTransition(model.BoostTransitions, from, to) {
		return ErrStatusConflict
	}
	return conditionalUpdate(ctx, session(ctx, r.db, tx), &model.Boost{}, id,
		[]string{from}, false, map[string]interface{}{"status": to})
}

// Reject marks a boost failed and claims its refund; it also accepts boosts
// whose automatic dispatch already failed but were never refunded.
func (r *BoostRepository) Reject(ctx context.Context, tx *gorm.DB, id int64) error {
	return conditionalUpdate(ctx, session(ctx, r.db, tx), &model.Boost{}, id, refundableBoostStatuses, true,
		map[string]interface{}{
			"status":        model.BoostStatusFailed,
			"refund_issued": true,
		})
}

// RecordDispatch stores the provider order id on a boost still processing.
func (r *BoostRepository) RecordDispatch(ctx context.Context, id int64, apiOrderID string) error {
	return conditionalUpdate(ctx, r.db, &model.Boost{}, id,
		[]string{model.BoostStatusProcessing}, false, map[string]interface{}{"api_order_id": apiOrderID})
}

// MarkDispatchFailed leaves the debit in place; the refund is an admin decision.
func (r *BoostRepository) MarkDispatchFailed(ctx context.Context, id int64) error {
	return conditionalUpdate(ctx, r.db, &model.Boost{}, id,
		[]string{model.BoostStatusProcessing}, false, map[string]interface{}{"status": model.BoostStatusFailed})
}

// ListDispatched returns processing boosts that have a provider order to poll.
func (r *BoostRepository) ListDispatched(ctx context.Context, limit int) ([]*model.Boost, error) {
	var boosts []*model.Boost
	err := r.db.WithContext(ctx).
		Where("status = ? AND api_order_id <> ''", model.BoostStatusProcessing).
		Order("updated_at ASC").
		Limit(limit).
		Find(&boosts).Error
	return boosts, err
}

func (r *BoostRepository) CountByStatus(ctx context.Context, userID int64) (map[string]int64, error) {
	var rows []StatusCount
	query := r.db.WithContext(ctx).Model(&model.Boost{}).Select("status, count(*) as count")
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}
