package repository

import (
	"context"
	"errors"
	"time"

	"linkmart/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDepositNotFound = errors.New("deposit not found")

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, tx *gorm.DB, deposit *model.Deposit) error {
	return session(ctx, r.db, tx).Create(deposit).Error
}

// GetOrCreate inserts deposit unless its reference already exists and
// returns the stored row either way.
func (r *DepositRepository) GetOrCreate(ctx context.Context, tx *gorm.DB, deposit *model.Deposit) (*model.Deposit, error) {
	db := session(ctx, r.db, tx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "reference"}},
		DoNothing: true,
	}).Create(deposit).Error
	if err != nil {
		return nil, err
	}
	return r.GetByReference(ctx, db, deposit.Reference)
}

func (r *DepositRepository) GetByReference(ctx context.Context, tx *gorm.DB, reference string) (*model.Deposit, error) {
	var deposit model.Deposit
	if err := first(session(ctx, r.db, tx).Where("reference = ?", reference), &deposit, ErrDepositNotFound); err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *DepositRepository) GetByID(ctx context.Context, id int64) (*model.Deposit, error) {
	var deposit model.Deposit
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &deposit, ErrDepositNotFound); err != nil {
		return nil, err
	}
	return &deposit, nil
}

// AttachUser sets the owner of a deposit that arrived without one.
func (r *DepositRepository) AttachUser(ctx context.Context, tx *gorm.DB, reference string, userID int64) error {
	return session(ctx, r.db, tx).
		Model(&model.Deposit{}).
		Where("reference = ? AND user_id IS NULL", reference).
		Update("user_id", userID).Error
}

// RecordGatewayStatus notes what the gateway reported on a deposit that is
// still pending, without settling it.
func (r *DepositRepository) RecordGatewayStatus(ctx context.Context, tx *gorm.DB, reference, gatewayStatus string) error {
	return session(ctx, r.db, tx).
		Model(&model.Deposit{}).
		Where("reference = ? AND status = ?", reference, model.DepositStatusPending).
		Update("gateway_status", gatewayStatus).Error
}

// MarkSuccessful is the single gate in front of the wallet credit: it
// returns ErrStatusConflict when the deposit is already successful.
func (r *DepositRepository) MarkSuccessful(ctx context.Context, tx *gorm.DB, reference, gatewayStatus string) error {
	now := time.Now()
	result := session(ctx, r.db, tx).
		Model(&model.Deposit{}).
		Where("reference = ? AND status <> ?", reference, model.DepositStatusSuccessful).
		Updates(map[string]interface{}{
			"status":         model.DepositStatusSuccessful,
			"gateway_status": gatewayStatus,
			"credited_at":    &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *DepositRepository) MarkFailed(ctx context.Context, tx *gorm.DB, reference, gatewayStatus string) error {
	result := session(ctx, r.db, tx).
		Model(&model.Deposit{}).
		Where("reference = ? AND status = ?", reference, model.DepositStatusPending).
		Updates(map[string]interface{}{
			"status":         model.DepositStatusFailed,
			"gateway_status": gatewayStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ListStalePending returns pending deposits created before cutoff.
func (r *DepositRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*model.Deposit, error) {
	var deposits []*model.Deposit
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.DepositStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&deposits).Error
	return deposits, err
}

func (r *DepositRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.Deposit, int64, error) {
	var deposits []*model.Deposit
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Deposit{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&deposits).Error
	return deposits, total, err
}

func (r *DepositRepository) ListAll(ctx context.Context, status string, page, pageSize int) ([]*model.Deposit, int64, error) {
	var deposits []*model.Deposit
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Deposit{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&deposits).Error
	return deposits, total, err
}

func (r *DepositRepository) SumSuccessful(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Deposit{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", model.DepositStatusSuccessful).
		Scan(&total).Error
	return total, err
}
