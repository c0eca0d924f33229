package service

import (
	"context"
	"fmt"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
	"linkmart/pkg/idgen"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AdminService struct {
	db           *gorm.DB
	userRepo     *repository.UserRepository
	campaignRepo *repository.CampaignRepository
	boostRepo    *repository.BoostRepository
	depositRepo  *repository.DepositRepository
	outboxRepo   *repository.OutboxRepository
	ledger       *Ledger
	log          *logrus.Entry
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		campaignRepo: repository.NewCampaignRepository(db),
		boostRepo:    repository.NewBoostRepository(db),
		depositRepo:  repository.NewDepositRepository(db),
		outboxRepo:   repository.NewOutboxRepository(db),
		ledger:       NewLedger(db),
		log:          logrus.WithField("component", "AdminService"),
	}
}

type UserPage struct {
	Items    []*model.User `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	RunningCampaigns int64 `json:"running_campaigns"`
	PendingCampaigns int64 `json:"pending_campaigns"`
	TotalBoosts      int64 `json:"total_boosts"`
	DepositVolume    int64 `json:"deposit_volume"`
}

type AdjustRequest struct {
	Wallet model.WalletKind `json:"wallet" binding:"required"`
	// Amount is signed: positive credits, negative debits.
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	users, total, err := s.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, translate(err, "")
	}
	return &UserPage{Items: users, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *AdminService) SetUserStatus(ctx context.Context, admin auth.Principal, id int64, status string) (*model.User, error) {
	status = normalize(status)
	if status != model.UserStatusActive && status != model.UserStatusSuspended {
		return nil, apperr.Validation("status must be active or suspended")
	}
	if id == admin.UserID && status == model.UserStatusSuspended {
		return nil, apperr.Validation("admins cannot suspend themselves")
	}
	if err := s.userRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, translate(err, "user not found")
	}
	user, err := s.userRepo.GetByID(ctx, nil, id)
	return user, translate(err, "user not found")
}

// Adjust applies a manual correction to one wallet, recorded like any other
// ledger movement. A debit cannot take the wallet below zero.
func (s *AdminService) Adjust(ctx context.Context, admin auth.Principal, id int64, req *AdjustRequest) (*model.Transaction, error) {
	if !req.Wallet.Valid() {
		return nil, apperr.Validation("wallet must be balance or wallet")
	}
	if req.Amount == 0 {
		return nil, apperr.Validation("amount must not be zero")
	}
	if req.Reason == "" {
		return nil, apperr.Validation("reason is required")
	}

	entry := Entry{
		UserID:      id,
		Wallet:      req.Wallet,
		Amount:      req.Amount,
		Type:        model.TransactionTypeAdjustment,
		Reference:   idgen.NewReference(idgen.PrefixAdjustment),
		Description: fmt.Sprintf("admin %d: %s", admin.UserID, req.Reason),
	}

	var trans *model.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if req.Amount > 0 {
			trans, err = s.ledger.Credit(ctx, tx, entry)
		} else {
			entry.Amount = -req.Amount
			trans, err = s.ledger.Debit(ctx, tx, entry)
		}
		return err
	})
	if err != nil {
		return nil, translate(err, "user not found")
	}

	s.log.WithFields(logrus.Fields{"admin_id": admin.UserID, "user_id": id, "wallet": req.Wallet, "amount": req.Amount}).
		Info("wallet adjusted")
	return trans, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, translate(err, "")
	}
	campaigns, err := s.campaignRepo.CountByStatus(ctx, 0)
	if err != nil {
		return nil, translate(err, "")
	}
	boosts, err := s.boostRepo.CountByStatus(ctx, 0)
	if err != nil {
		return nil, translate(err, "")
	}
	volume, err := s.depositRepo.SumSuccessful(ctx)
	if err != nil {
		return nil, translate(err, "")
	}
	return &Stats{
		TotalUsers:       users,
		RunningCampaigns: campaigns[model.CampaignStatusRunning],
		PendingCampaigns: campaigns[model.CampaignStatusPending],
		TotalBoosts:      sum(boosts),
		DepositVolume:    volume,
	}, nil
}

// RetryOutbox puts messages that exhausted their retries back in the queue.
func (s *AdminService) RetryOutbox(ctx context.Context, limit int) (int, error) {
	failed, err := s.outboxRepo.GetFailedMessages(ctx, limit)
	if err != nil {
		return 0, translate(err, "")
	}
	ids := make([]int64, 0, len(failed))
	for _, m := range failed {
		ids = append(ids, m.ID)
	}
	if err := s.outboxRepo.Requeue(ctx, ids); err != nil {
		return 0, translate(err, "")
	}
	return len(ids), nil
}
