package service

import (
	"context"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"

	"gorm.io/gorm"
)

type ProductService struct {
	productRepo *repository.ProductRepository
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{productRepo: repository.NewProductRepository(db)}
}

type CreateProductRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" binding:"required,gt=0"`
	Category    string   `json:"category"`
	WhatsApp    string   `json:"whatsapp"`
	Platforms   []string `json:"platforms"`
	Images      []string `json:"images"`
}

func (s *ProductService) Create(ctx context.Context, p auth.Principal, req *CreateProductRequest) (*model.Product, error) {
	if req.Title == "" || req.Price <= 0 {
		return nil, apperr.Validation("title and a positive price are required")
	}
	product := &model.Product{
		UserID:      p.UserID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		WhatsApp:    req.WhatsApp,
		Platforms:   req.Platforms,
		Images:      req.Images,
		Status:      "pending",
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, translate(err, "")
	}
	return product, nil
}

func (s *ProductService) ListMine(ctx context.Context, p auth.Principal) ([]*model.Product, error) {
	products, err := s.productRepo.ListByUser(ctx, p.UserID)
	return products, translate(err, "")
}

func (s *ProductService) ListAll(ctx context.Context) ([]*model.Product, error) {
	products, err := s.productRepo.ListAll(ctx)
	return products, translate(err, "")
}

func (s *ProductService) UpdateStatus(ctx context.Context, id int64, status string) (*model.Product, error) {
	status = normalize(status)
	if !oneOf(status, model.ProductStatuses) {
		return nil, apperr.Validation("invalid product status")
	}
	product, err := s.productRepo.UpdateStatus(ctx, id, status)
	return product, translate(err, "product not found")
}
