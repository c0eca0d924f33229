package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *ProductRepository) UpdateStatus(ctx context.Context, id int64, status string) (*model.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProductNotFound
	}

	var product model.Product
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &product, ErrProductNotFound); err != nil {
		return nil, err
	}
	return &product, nil
}
