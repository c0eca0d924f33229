package service

import (
	"context"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"

	"gorm.io/gorm"
)

// ListingService moderates listings. Listings never touch a wallet.
type ListingService struct {
	listingRepo *repository.ListingRepository
	authz       auth.Authorizer
}

func NewListingService(db *gorm.DB) *ListingService {
	return &ListingService{listingRepo: repository.NewListingRepository(db)}
}

type ListingRequest struct {
	Title               string   `json:"title" binding:"required"`
	Description         string   `json:"description"`
	Category            string   `json:"category" binding:"required"`
	Price               int64    `json:"price" binding:"gte=0"`
	MediaURLs           []string `json:"media_urls"`
	WhatsAppLink        string   `json:"whatsapp_link"`
	BusinessProfileLink string   `json:"business_profile_link"`
	PlatformTargets     []string `json:"platform_targets"`
}

func (r *ListingRequest) validate() error {
	if r.Title == "" {
		return apperr.Validation("title is required")
	}
	r.Category = normalize(r.Category)
	if !oneOf(r.Category, model.ListingCategories) {
		return apperr.Validation("unsupported category")
	}
	if r.Price < 0 {
		return apperr.Validation("price cannot be negative")
	}
	return nil
}

func (s *ListingService) ListPublic(ctx context.Context, category string, page, pageSize int) ([]*model.Listing, int64, error) {
	listings, total, err := s.listingRepo.ListApproved(ctx, normalize(category), page, pageSize)
	return listings, total, translate(err, "")
}

func (s *ListingService) Create(ctx context.Context, p auth.Principal, req *ListingRequest) (*model.Listing, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	listing := &model.Listing{
		UserID:              p.UserID,
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		Price:               req.Price,
		MediaURLs:           req.MediaURLs,
		WhatsAppLink:        req.WhatsAppLink,
		BusinessProfileLink: req.BusinessProfileLink,
		PlatformTargets:     req.PlatformTargets,
		Status:              model.ListingStatusPending,
		ListingType:         "manual",
	}
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, translate(err, "")
	}
	return listing, nil
}

func (s *ListingService) ListMine(ctx context.Context, p auth.Principal) ([]*model.Listing, error) {
	listings, err := s.listingRepo.ListByUser(ctx, p.UserID)
	return listings, translate(err, "")
}

func (s *ListingService) ListAll(ctx context.Context, status string) ([]*model.Listing, error) {
	listings, err := s.listingRepo.ListAll(ctx, status)
	return listings, translate(err, "")
}

// Update edits content only; moderation status goes through Approve/Reject.
func (s *ListingService) Update(ctx context.Context, p auth.Principal, id int64, req *ListingRequest) (*model.Listing, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "listing not found")
	}
	if err := s.authz.CanMutate(p, listing.UserID); err != nil {
		return nil, err
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Category = req.Category
	listing.Price = req.Price
	listing.MediaURLs = req.MediaURLs
	listing.WhatsAppLink = req.WhatsAppLink
	listing.BusinessProfileLink = req.BusinessProfileLink
	listing.PlatformTargets = req.PlatformTargets
	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, translate(err, "listing not found")
	}
	return listing, nil
}

func (s *ListingService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return translate(err, "listing not found")
	}
	if err := s.authz.CanMutate(p, listing.UserID); err != nil {
		return err
	}
	return translate(s.listingRepo.Delete(ctx, id), "listing not found")
}

func (s *ListingService) Approve(ctx context.Context, id int64) (*model.Listing, error) {
	return s.review(ctx, id, model.ListingStatusApproved)
}

func (s *ListingService) Reject(ctx context.Context, id int64) (*model.Listing, error) {
	return s.review(ctx, id, model.ListingStatusRejected)
}

func (s *ListingService) review(ctx context.Context, id int64, target string) (*model.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "listing not found")
	}
	if listing.Status == target {
		return listing, nil
	}
	if err := s.listingRepo.Transition(ctx, id, listing.Status, target); err != nil {
		return nil, translate(err, "listing not found")
	}
	listing.Status = target
	return listing, nil
}
