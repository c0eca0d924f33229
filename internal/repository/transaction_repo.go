package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	return session(ctx, r.db, tx).Create(trans).Error
}

func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*model.Transaction, error) {
	var trans model.Transaction
	if err := first(r.db.WithContext(ctx).Where("reference = ?", reference), &trans, ErrTransactionNotFound); err != nil {
		return nil, err
	}
	return &trans, nil
}

// GetForEntity finds the ledger row of the given type written for an entity,
// for example the debit paired with a campaign.
func (r *TransactionRepository) GetForEntity(ctx context.Context, tx *gorm.DB, entityType string, entityID int64, txType string) (*model.Transaction, error) {
	var trans model.Transaction
	q := session(ctx, r.db, tx).
		Where("entity_type = ? AND entity_id = ? AND type = ?", entityType, entityID, txType).
		Order("id ASC")
	if err := first(q, &trans, ErrTransactionNotFound); err != nil {
		return nil, err
	}
	return &trans, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, from, to string) error {
	result := session(ctx, r.db, tx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC, id DESC").
		Scopes(paginate(page, pageSize)).
		Find(&transactions).Error
	return transactions, total, err
}

func (r *TransactionRepository) Recent(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

// CountForEntity counts ledger rows of txType written for an entity.
func (r *TransactionRepository) CountForEntity(ctx context.Context, entityType string, entityID int64, txType string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("entity_type = ? AND entity_id = ? AND type = ?", entityType, entityID, txType).
		Count(&total).Error
	return total, err
}

// WalletSum is the net movement on one wallet.
type WalletSum struct {
	Wallet model.WalletKind
	Total  int64
}

// SpendByWallet sums the debits (negative amounts) of a user per wallet,
// returned as positive numbers.
func (r *TransactionRepository) SpendByWallet(ctx context.Context, userID int64) (map[model.WalletKind]int64, error) {
	var rows []WalletSum
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("wallet, COALESCE(SUM(amount), 0) as total").
		Where("user_id = ? AND amount < 0", userID).
		Group("wallet").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.WalletKind]int64, len(rows))
	for _, row := range rows {
		out[row.Wallet] = -row.Total
	}
	return out, nil
}
