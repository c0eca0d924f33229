package service

import (
	"context"

	"linkmart/internal/auth"
	"linkmart/internal/model"
	"linkmart/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsService struct {
	campaignRepo    *repository.CampaignRepository
	boostRepo       *repository.BoostRepository
	listingRepo     *repository.ListingRepository
	transactionRepo *repository.TransactionRepository
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		campaignRepo:    repository.NewCampaignRepository(db),
		boostRepo:       repository.NewBoostRepository(db),
		listingRepo:     repository.NewListingRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

type Analytics struct {
	Campaigns      map[string]int64 `json:"campaigns"`
	Boosts         map[string]int64 `json:"boosts"`
	SpentBalance   int64            `json:"spent_balance"`
	SpentWallet    int64            `json:"spent_wallet"`
	Clicks         int64            `json:"clicks"`
	Reach          int64            `json:"reach"`
	ConversionRate float64          `json:"conversion_rate"`
}

func (s *AnalyticsService) ForUser(ctx context.Context, p auth.Principal) (*Analytics, error) {
	campaigns, err := s.campaignRepo.CountByStatus(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}
	boosts, err := s.boostRepo.CountByStatus(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}
	spend, err := s.transactionRepo.SpendByWallet(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}
	clicks, reach, err := s.listingRepo.Engagement(ctx, p.UserID)
	if err != nil {
		return nil, translate(err, "")
	}

	a := &Analytics{
		Campaigns:    campaigns,
		Boosts:       boosts,
		SpentBalance: spend[model.WalletSpending],
		SpentWallet:  spend[model.WalletCampaign],
		Clicks:       clicks,
		Reach:        reach,
	}
	if reach > 0 {
		a.ConversionRate = float64(clicks) / float64(reach) * 100
	}
	return a, nil
}
