package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var ErrServiceNotFound = errors.New("service not found")

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, tx *gorm.DB, svc *model.Service) error {
	return session(ctx, r.db, tx).Create(svc).Error
}

func (r *ServiceRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Service, error) {
	var svc model.Service
	if err := first(session(ctx, r.db, tx).Where("id = ?", id), &svc, ErrServiceNotFound); err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *ServiceRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Service, error) {
	var services []*model.Service
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&services).Error
	return services, err
}

func (r *ServiceRepository) ListAll(ctx context.Context, status string) ([]*model.Service, error) {
	var services []*model.Service
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&services).Error
	return services, err
}

func (r *ServiceRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Service{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *ServiceRepository) Transition(ctx context.Context, tx *gorm.DB, id int64, from, to, note string) error {
	if to == model.ServiceStatusRejected || !model.CanTransition(model.ServiceTransitions, from, to) {
		return ErrStatusConflict
	}
	updates := map[string]interface{}{"status": to}
	if note != "" {
		updates["admin_note"] = note
	}
	return conditionalUpdate(ctx, session(ctx, r.db, tx), &model.Service{}, id, []string{from}, false, updates)
}

// Reject claims the refund of a pending or approved service.
func (r *ServiceRepository) Reject(ctx context.Context, tx *gorm.DB, id int64, note string) error {
	updates := map[string]interface{}{
		"status":        model.ServiceStatusRejected,
		"refund_issued": true,
	}
	if note != "" {
		updates["admin_note"] = note
	}
	return conditionalUpdate(ctx, session(ctx, r.db, tx), &model.Service{}, id,
		[]string{model.ServiceStatusPending, model.ServiceStatusApproved}, true, updates)
}
