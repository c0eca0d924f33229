package service

import (
	"context"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/repository"

	"gorm.io/gorm"
)

// UserService serves the caller's own profile, wallet and ledger views.
type UserService struct {
	userRepo        *repository.UserRepository
	listingRepo     *repository.ListingRepository
	campaignRepo    *repository.CampaignRepository
	boostRepo       *repository.BoostRepository
	transactionRepo *repository.TransactionRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userRepo:        repository.NewUserRepository(db),
		listingRepo:     repository.NewListingRepository(db),
		campaignRepo:    repository.NewCampaignRepository(db),
		boostRepo:       repository.NewBoostRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

type Wallet struct {
	Balance       int64 `json:"balance"`
	WalletBalance int64 `json:"wallet_balance"`
}

type Dashboard struct {
	User               *model.User          `json:"user"`
	Wallet             Wallet               `json:"wallet"`
	Listings           int64                `json:"listings"`
	Campaigns          int64                `json:"campaigns"`
	RunningCampaigns   int64                `json:"running_campaigns"`
	Boosts             int64                `json:"boosts"`
	RecentTransactions []*model.Transaction `json:"recent_transactions"`
}

type TransactionPage struct {
	Items    []*model.Transaction `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

func (s *UserService) Profile(ctx context.Context, p auth.Principal) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, p.UserID)
	return user, translate(err, "user not found")
}

func (s *UserService) Wallet(ctx context.Context, p auth.Principal) (*Wallet, error) {
	user, err := s.userRepo.GetByID(ctx, nil, p.UserID)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return &Wallet{Balance: user.Balance, WalletBalance: user.WalletBalance}, nil
}

func (s *UserService) Dashboard(ctx context.Context, p auth.Principal) (*Dashboard, error) {
	user, err := s.userRepo.GetByID(ctx, nil, p.UserID)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	listings, err := s.listingRepo.CountByUser(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}
	campaigns, err := s.campaignRepo.CountByStatus(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}
	boosts, err := s.boostRepo.CountByStatus(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}
	recent, err := s.transactionRepo.Recent(ctx, p.UserID, 5)
	if err != nil {
		return nil, translate(err, "")
	}

	return &Dashboard{
		User:               user,
		Wallet:             Wallet{Balance: user.Balance, WalletBalance: user.WalletBalance},
		Listings:           listings,
		Campaigns:          sum(campaigns),
		RunningCampaigns:   campaigns[model.CampaignStatusRunning],
		Boosts:             sum(boosts),
		RecentTransactions: recent,
	}, nil
}

func (s *UserService) Transactions(ctx context.Context, p auth.Principal, page, pageSize int) (*TransactionPage, error) {
	items, total, err := s.transactionRepo.ListByUserID(ctx, p.UserID, page, pageSize)
	if err != nil {
		return nil, translate(err, "")
	}
	return &TransactionPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func sum(counts map[string]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}
