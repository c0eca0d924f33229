package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrBalanceNotEnough = errors.New("insufficient balance")
	ErrEmailTaken       = errors.New("email already registered")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, tx *gorm.DB, user *model.User) error {
	err := session(ctx, r.db, tx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.User, error) {
	var user model.User
	if err := first(session(ctx, r.db, tx).Where("id = ?", id), &user, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*model.User, error) {
	var user model.User
	if err := first(session(ctx, r.db, tx).Where("email = ?", email), &user, ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// Debit subtracts amount from the chosen wallet only if the wallet covers it
// and returns the balance after the change.
func (r *UserRepository) Debit(ctx context.Context, tx *gorm.DB, userID int64, wallet model.WalletKind, amount int64) (int64, error) {
	col := wallet.Column()
	db := session(ctx, r.db, tx)
	result := db.Model(&model.User{}).
		Where("id = ? AND "+col+" >= ?", userID, amount).
		Updates(map[string]interface{}{
			col:       gorm.Expr(col+" - ?", amount),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	user, err := r.GetByID(ctx, db, userID)
	if err != nil {
		return 0, err
	}
	if result.RowsAffected == 0 {
		return 0, ErrBalanceNotEnough
	}
	return user.BalanceOf(wallet), nil
}

func (r *UserRepository) Credit(ctx context.Context, tx *gorm.DB, userID int64, wallet model.WalletKind, amount int64) (int64, error) {
	col := wallet.Column()
	db := session(ctx, r.db, tx)
	result := db.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			col:       gorm.Expr(col+" + ?", amount),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}

	user, err := r.GetByID(ctx, db, userID)
	if err != nil {
		return 0, err
	}
	return user.BalanceOf(wallet), nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]*model.User, int64, error) {
	var users []*model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error
	return total, err
}
