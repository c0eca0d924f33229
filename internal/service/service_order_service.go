package service

import (
	"context"
	"errors"
	"fmt"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
	"linkmart/pkg/idgen"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceOrderService handles promoted business services. The cost is
// charged per targeted platform.
type ServiceOrderService struct {
	db          *gorm.DB
	costPerUnit int64
	serviceRepo *repository.ServiceRepository
	ledger      *Ledger
	events      *events
	log         *logrus.Entry
}

func NewServiceOrderService(db *gorm.DB, cfg *config.Config) *ServiceOrderService {
	cost := cfg.Business.ServiceCostPerPlatform
	if cost <= 0 {
		cost = 10
	}
	return &ServiceOrderService{
		db:          db,
		costPerUnit: cost,
		serviceRepo: repository.NewServiceRepository(db),
		ledger:      NewLedger(db),
		events:      newEvents(db, cfg),
		log:         logrus.WithField("component", "ServiceOrderService"),
	}
}

type CreateServiceRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	PriceRange  string   `json:"price_range"`
	Category    string   `json:"category"`
	WhatsApp    string   `json:"whatsapp"`
	Location    string   `json:"location"`
	Link        string   `json:"link"`
	Platforms   []string `json:"platforms" binding:"required,min=1"`
}

// Cost is what a service targeting n platforms is charged.
func (s *ServiceOrderService) Cost(n int) int64 {
	return int64(n) * s.costPerUnit
}

func (s *ServiceOrderService) Create(ctx context.Context, p auth.Principal, req *CreateServiceRequest) (*model.Service, error) {
	if req.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	platforms := make([]string, 0, len(req.Platforms))
	seen := make(map[string]bool, len(req.Platforms))
	for _, pl := range req.Platforms {
		pl = normalize(pl)
		if !oneOf(pl, model.ServicePlatforms) {
			return nil, apperr.Validation("unsupported platform: " + pl)
		}
		if !seen[pl] {
			seen[pl] = true
			platforms = append(platforms, pl)
		}
	}
	if len(platforms) == 0 {
		return nil, apperr.Validation("at least one platform is required")
	}

	svc := &model.Service{
		UserID:      p.UserID,
		Title:       req.Title,
		Description: req.Description,
		PriceRange:  req.PriceRange,
		Category:    req.Category,
		WhatsApp:    req.WhatsApp,
		Location:    req.Location,
		Link:        req.Link,
		Platforms:   platforms,
		Amount:      s.Cost(len(platforms)),
		Status:      model.ServiceStatusPending,
		Reference:   idgen.NewReference(idgen.PrefixService),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.serviceRepo.Create(ctx, tx, svc); err != nil {
			return fmt.Errorf("create service: %w", err)
		}
		_, err := s.ledger.Debit(ctx, tx, Entry{
			UserID:      p.UserID,
			Wallet:      model.WalletSpending,
			Amount:      svc.Amount,
			Type:        model.TransactionTypeService,
			EntityType:  model.EntityService,
			EntityID:    svc.ID,
			Reference:   svc.Reference,
			Description: "Created service: " + svc.Title,
		})
		return err
	})
	if err != nil {
		return nil, translate(err, "service not found")
	}
	return svc, nil
}

func (s *ServiceOrderService) ListMine(ctx context.Context, p auth.Principal) ([]*model.Service, error) {
	services, err := s.serviceRepo.ListByUser(ctx, p.UserID)
	return services, translate(err, "")
}

func (s *ServiceOrderService) ListAll(ctx context.Context, status string) ([]*model.Service, error) {
	services, err := s.serviceRepo.ListAll(ctx, status)
	return services, translate(err, "")
}

func (s *ServiceOrderService) Delete(ctx context.Context, id int64) error {
	return translate(s.serviceRepo.Delete(ctx, id), "service not found")
}

func (s *ServiceOrderService) UpdateStatus(ctx context.Context, id int64, status, note string) (*model.Service, error) {
	target := normalize(status)
	switch target {
	case model.ServiceStatusApproved, model.ServiceStatusRejected, model.ServiceStatusRunning, model.ServiceStatusCompleted:
	default:
		return nil, apperr.Validation("invalid service status")
	}

	svc, err := s.serviceRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translate(err, "service not found")
	}
	if svc.Status == target {
		return svc, nil
	}

	if target == model.ServiceStatusRejected {
		err = s.reject(ctx, svc, note)
	} else {
		err = s.serviceRepo.Transition(ctx, nil, id, svc.Status, target, note)
	}
	if err != nil {
		return nil, translate(err, "service not found")
	}

	svc, err = s.serviceRepo.GetByID(ctx, nil, id)
	return svc, translate(err, "service not found")
}

func (s *ServiceOrderService) reject(ctx context.Context, svc *model.Service, note string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.serviceRepo.Reject(ctx, tx, svc.ID, note); err != nil {
			return err
		}
		if svc.Amount <= 0 {
			return nil
		}
		refund, err := s.ledger.Credit(ctx, tx, Entry{
			UserID:      svc.UserID,
			Wallet:      model.WalletSpending,
			Amount:      svc.Amount,
			Type:        model.TransactionTypeRefund,
			EntityType:  model.EntityService,
			EntityID:    svc.ID,
			Reference:   idgen.GenerateRefundNo(),
			Description: "Refund for rejected service: " + svc.Title,
		})
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.WithField("service_id", svc.ID).Warn("owner missing, service rejected without refund")
			return nil
		}
		if err != nil {
			return err
		}
		return s.events.ledger(ctx, tx, model.EventRefundIssued, refund.Reference, map[string]interface{}{
			"entity_type": model.EntityService,
			"entity_id":   svc.ID,
			"user_id":     svc.UserID,
			"amount":      svc.Amount,
			"wallet":      model.WalletSpending,
		})
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		current, getErr := s.serviceRepo.GetByID(ctx, nil, svc.ID)
		if getErr == nil && current.Status == model.ServiceStatusRejected {
			return nil
		}
	}
	return err
}
