package repository

import (
	"context"
	"errors"

	"linkmart/internal/model"

	"gorm.io/gorm"
)

var ErrListingNotFound = errors.New("listing not found")

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var listing model.Listing
	if err := first(r.db.WithContext(ctx).Where("id = ?", id), &listing, ErrListingNotFound); err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListApproved is the public catalogue.
func (r *ListingRepository) ListApproved(ctx context.Context, category string, page, pageSize int) ([]*model.Listing, int64, error) {
	var listings []*model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{}).Where("status = ?", model.ListingStatusApproved)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&listings).Error
	return listings, total, err
}

func (r *ListingRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Listing, error) {
	var listings []*model.Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

func (r *ListingRepository) ListAll(ctx context.Context, status string) ([]*model.Listing, error) {
	var listings []*model.Listing
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&listings).Error
	return listings, err
}

// Update writes the editable fields of listing. Status is never touched here.
func (r *ListingRepository) Update(ctx context.Context, listing *model.Listing) error {
	return r.db.WithContext(ctx).
		Model(listing).
		Select("title", "description", "category", "price", "media_urls", "whats_app_link",
			"business_profile_link", "platform_targets").
		Updates(listing).Error
}

func (r *ListingRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Listing{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Transition(ctx context.Context, id int64, from, to string) error {
	if !model.CanTransition(model.ListingTransitions, from, to) {
		return ErrStatusConflict
	}
	return conditionalUpdate(ctx, r.db, &model.Listing{}, id, []string{from}, false,
		map[string]interface{}{"status": to})
}

func (r *ListingRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Listing{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}

// Engagement sums clicks and reach across a user's listings.
func (r *ListingRepository) Engagement(ctx context.Context, userID int64) (clicks, reach int64, err error) {
	var row struct {
		Clicks int64
		Reach  int64
	}
	err = r.db.WithContext(ctx).
		Model(&model.Listing{}).
		Select("COALESCE(SUM(clicks), 0) as clicks, COALESCE(SUM(reach), 0) as reach").
		Where("user_id = ?", userID).
		Scan(&row).Error
	return row.Clicks, row.Reach, err
}
