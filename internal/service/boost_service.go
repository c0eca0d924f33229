package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/boostpanel"
	"linkmart/internal/infrastructure/lock"
	"linkmart/internal/metrics"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
	"linkmart/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type BoostService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	boostRepo   *repository.BoostRepository
	ledger      *Ledger
	events      *events
	provider    BoostProvider
	log         *logrus.Entry
}

// NewBoostService wires boost dispatch. redisClient may be nil.
func NewBoostService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, provider BoostProvider) *BoostService {
	return &BoostService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		boostRepo:   repository.NewBoostRepository(db),
		ledger:      NewLedger(db),
		events:      newEvents(db, cfg),
		provider:    provider,
		log:         logrus.WithField("component", "BoostService"),
	}
}

type CreateBoostRequest struct {
	Platform  string `json:"platform" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Link      string `json:"link" binding:"required"`
	ServiceID string `json:"service_id" binding:"required"`
}

type CreateBoostResult struct {
	Boost      *model.Boost `json:"boost"`
	NewBalance int64        `json:"new_balance"`
}

func (s *BoostService) Services(ctx context.Context) ([]boostpanel.ServiceInfo, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.BoostPanel.Timeout)
	defer cancel()
	services, err := s.provider.Services(ctx)
	if err != nil {
		return nil, apperr.Upstream("failed to fetch boost services", err)
	}
	return services, nil
}

// Create debits the spending balance and records the boost. Automatic boosts
// are then sent to the provider; a dispatch failure leaves the boost failed
// and the debit in place, and the result is returned alongside the error.
func (s *BoostService) Create(ctx context.Context, p auth.Principal, req *CreateBoostRequest) (*CreateBoostResult, error) {
	platform, boostType := normalize(req.Platform), normalize(req.Type)
	if !oneOf(platform, model.BoostPlatforms) {
		return nil, apperr.Validation("unsupported platform")
	}
	if !oneOf(boostType, model.BoostTypes) {
		return nil, apperr.Validation("unsupported boost type")
	}
	if req.Quantity <= 0 || req.Amount <= 0 || req.Link == "" || req.ServiceID == "" {
		return nil, apperr.Validation("missing required fields")
	}

	unlock, err := s.lockUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	isManual := platform != normalize(s.cfg.Business.AutomaticBoostPlatform)
	boost := &model.Boost{
		UserID:    p.UserID,
		Platform:  platform,
		Type:      boostType,
		Link:      req.Link,
		ServiceID: req.ServiceID,
		Quantity:  req.Quantity,
		Amount:    req.Amount,
		IsManual:  isManual,
		Status:    model.BoostStatusPending,
		Reference: idgen.NewReference(idgen.PrefixBoost),
	}
	if !isManual {
		boost.Status = model.BoostStatusProcessing
	}

	var newBalance int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.boostRepo.Create(ctx, tx, boost); err != nil {
			return fmt.Errorf("create boost: %w", err)
		}
		trans, err := s.ledger.Debit(ctx, tx, Entry{
			UserID:      p.UserID,
			Wallet:      model.WalletSpending,
			Amount:      boost.Amount,
			Type:        model.TransactionTypeBoost,
			EntityType:  model.EntityBoost,
			EntityID:    boost.ID,
			Reference:   boost.Reference,
			Description: fmt.Sprintf("%s %s boost x%d", platform, boostType, boost.Quantity),
		})
		if err != nil {
			return err
		}
		newBalance = trans.BalanceAfter
		return s.events.ledger(ctx, tx, model.EventBoostCreated, boost.Reference, map[string]interface{}{
			"boost_id":  boost.ID,
			"user_id":   p.UserID,
			"amount":    boost.Amount,
			"is_manual": isManual,
		})
	})
	if err != nil {
		return nil, translate(err, "boost not found")
	}

	result := &CreateBoostResult{Boost: boost, NewBalance: newBalance}
	if isManual {
		return result, nil
	}
	if err := s.dispatch(ctx, boost); err != nil {
		return result, err
	}
	return result, nil
}

func (s *BoostService) dispatch(ctx context.Context, boost *model.Boost) error {
	callCtx, cancel := withTimeout(ctx, s.cfg.BoostPanel.Timeout)
	defer cancel()

	orderID, err := s.provider.AddOrder(callCtx, boost.ServiceID, boost.Link, boost.Quantity)
	if err != nil {
		metrics.RecordDispatch("failed")
		s.log.WithError(err).WithField("boost_id", boost.ID).Error("boost dispatch failed")
		// a fresh context: the request one may be what timed out
		markCtx, markCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer markCancel()
		if markErr := s.boostRepo.MarkDispatchFailed(markCtx, boost.ID); markErr != nil {
			s.log.WithError(markErr).WithField("boost_id", boost.ID).Error("mark boost failed")
		} else {
			boost.Status = model.BoostStatusFailed
		}
		return apperr.Upstream("boost created but failed to send to provider", err)
	}

	metrics.RecordDispatch("ok")
	if err := s.boostRepo.RecordDispatch(ctx, boost.ID, orderID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"boost_id": boost.ID, "api_order_id": orderID}).
			Error("provider accepted order but boost was not updated")
		return nil
	}
	boost.APIOrderID = orderID
	s.log.WithFields(logrus.Fields{"boost_id": boost.ID, "api_order_id": orderID}).Info("boost dispatched")
	return nil
}

// lockUser serialises order placement per user when Redis is available. The
// ledger stays correct without it.
func (s *BoostService) lockUser(ctx context.Context, userID int64) (func(), error) {
	if s.redisClient == nil {
		return func() {}, nil
	}
	l := lock.NewUserLock(s.redisClient, userID, idgen.GenerateTransactionNo())
	if err := l.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		if errors.Is(err, lock.ErrLockFailed) {
			return nil, apperr.Conflict("another order is being placed, try again")
		}
		s.log.WithError(err).Warn("redis lock unavailable, continuing without it")
		return func() {}, nil
	}
	return func() {
		if err := l.Unlock(context.Background()); err != nil {
			s.log.WithError(err).Warn("release user lock")
		}
	}, nil
}

func (s *BoostService) ListMine(ctx context.Context, p auth.Principal) ([]*model.Boost, error) {
	boosts, err := s.boostRepo.ListByUser(ctx, p.UserID)
	return boosts, translate(err, "")
}

func (s *BoostService) ListAll(ctx context.Context, status string) ([]*model.Boost, error) {
	boosts, err := s.boostRepo.ListAll(ctx, status)
	return boosts, translate(err, "")
}

func (s *BoostService) Delete(ctx context.Context, id int64) error {
	return translate(s.boostRepo.Delete(ctx, id), "boost not found")
}

// UpdateStatus is the admin operation. Setting failed on a boost whose
// amount has not been returned yet is the rejection path and refunds it once.
func (s *BoostService) UpdateStatus(ctx context.Context, id int64, status string) (*model.Boost, error) {
	target := normalize(status)
	switch target {
	case model.BoostStatusPending, model.BoostStatusProcessing, model.BoostStatusCompleted, model.BoostStatusFailed:
	default:
		return nil, apperr.Validation("invalid boost status")
	}

	boost, err := s.boostRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translate(err, "boost not found")
	}

	if target == model.BoostStatusFailed {
		if boost.RefundIssued {
			return boost, nil
		}
		err = s.reject(ctx, boost)
	} else {
		if boost.Status == target {
			return boost, nil
		}
		err = s.boostRepo.Transition(ctx, nil, id, boost.Status, target)
	}
	if err != nil {
		return nil, translate(err, "boost not found")
	}

	boost, err = s.boostRepo.GetByID(ctx, nil, id)
	return boost, translate(err, "boost not found")
}

func (s *BoostService) reject(ctx context.Context, boost *model.Boost) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.boostRepo.Reject(ctx, tx, boost.ID); err != nil {
			return err
		}
		refund, err := s.ledger.Credit(ctx, tx, Entry{
			UserID:      boost.UserID,
			Wallet:      model.WalletSpending,
			Amount:      boost.Amount,
			Type:        model.TransactionTypeRefund,
			EntityType:  model.EntityBoost,
			EntityID:    boost.ID,
			Reference:   idgen.GenerateRefundNo(),
			Description: "Refund for rejected boost " + boost.Reference,
		})
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.WithField("boost_id", boost.ID).Warn("owner missing, boost rejected without refund")
			return nil
		}
		if err != nil {
			return err
		}
		return s.events.ledger(ctx, tx, model.EventRefundIssued, refund.Reference, map[string]interface{}{
			"entity_type": model.EntityBoost,
			"entity_id":   boost.ID,
			"user_id":     boost.UserID,
			"amount":      boost.Amount,
			"wallet":      model.WalletSpending,
		})
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		current, getErr := s.boostRepo.GetByID(ctx, nil, boost.ID)
		if getErr == nil && current.RefundIssued {
			return nil
		}
	}
	return err
}

// SyncDispatched polls the provider for processing boosts and records
// completion or failure. A provider-side failure does not refund; that stays
// an admin decision.
func (s *BoostService) SyncDispatched(ctx context.Context, limit int) (int, error) {
	boosts, err := s.boostRepo.ListDispatched(ctx, limit)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, boost := range boosts {
		callCtx, cancel := withTimeout(ctx, s.cfg.BoostPanel.Timeout)
		st, err := s.provider.OrderStatus(callCtx, boost.APIOrderID)
		cancel()
		if err != nil {
			s.log.WithError(err).WithField("boost_id", boost.ID).Warn("poll provider order")
			continue
		}

		switch {
		case st.Completed():
			err = s.boostRepo.Transition(ctx, nil, boost.ID, model.BoostStatusProcessing, model.BoostStatusCompleted)
		case st.Failed():
			err = s.boostRepo.MarkDispatchFailed(ctx, boost.ID)
		default:
			continue
		}
		if err != nil {
			if !errors.Is(err, repository.ErrStatusConflict) {
				s.log.WithError(err).WithField("boost_id", boost.ID).Error("update boost from provider status")
			}
			continue
		}
		updated++
		s.log.WithFields(logrus.Fields{"boost_id": boost.ID, "provider_status": st.Status}).Info("boost status synced")
	}
	return updated, nil
}
