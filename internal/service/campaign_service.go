package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/mailer"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
	"linkmart/pkg/idgen"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const notifyTimeout = 10 * time.Second

type CampaignService struct {
	db              *gorm.DB
	campaignRepo    *repository.CampaignRepository
	transactionRepo *repository.TransactionRepository
	ledger          *Ledger
	events          *events
	notifier        mailer.Notifier
	authz           auth.Authorizer
	log             *logrus.Entry
}

func NewCampaignService(db *gorm.DB, cfg *config.Config, notifier mailer.Notifier) *CampaignService {
	return &CampaignService{
		db:              db,
		campaignRepo:    repository.NewCampaignRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		ledger:          NewLedger(db),
		events:          newEvents(db, cfg),
		notifier:        notifier,
		log:             logrus.WithField("component", "CampaignService"),
	}
}

type CreateCampaignRequest struct {
	Platform       string `json:"platform" binding:"required"`
	Goal           string `json:"goal" binding:"required"`
	BudgetUSD      int64  `json:"budget_usd" binding:"required,gt=0"`
	MediaURL       string `json:"media_url"`
	Caption        string `json:"caption"`
	Audience       string `json:"audience"`
	PostURL        string `json:"post_url"`
	DestinationURL string `json:"destination_url"`
	ContactURL     string `json:"contact_url"`
	ProductURL     string `json:"product_url"`
	AppURL         string `json:"app_url"`
}

// Create funds a new campaign from the owner's wallet balance. The campaign,
// the debit, its pending ledger row and the admin event commit together.
func (s *CampaignService) Create(ctx context.Context, p auth.Principal, req *CreateCampaignRequest) (*model.Campaign, error) {
	platform, goal := normalize(req.Platform), normalize(req.Goal)
	if !oneOf(platform, model.CampaignPlatforms) {
		return nil, apperr.Validation("unsupported platform")
	}
	if !oneOf(goal, model.CampaignGoals) {
		return nil, apperr.Validation("unsupported campaign goal")
	}
	if req.BudgetUSD <= 0 {
		return nil, apperr.Validation("budget must be greater than 0")
	}

	campaign := &model.Campaign{
		UserID:         p.UserID,
		Platform:       platform,
		Goal:           goal,
		MediaURL:       req.MediaURL,
		Caption:        req.Caption,
		Audience:       req.Audience,
		PostURL:        req.PostURL,
		DestinationURL: req.DestinationURL,
		ContactURL:     req.ContactURL,
		ProductURL:     req.ProductURL,
		AppURL:         req.AppURL,
		BudgetUSD:      req.BudgetUSD,
		Status:         model.CampaignStatusPending,
		Reference:      idgen.NewReference(idgen.PrefixCampaign),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.campaignRepo.Create(ctx, tx, campaign); err != nil {
			return fmt.Errorf("create campaign: %w", err)
		}
		if _, err := s.ledger.Debit(ctx, tx, Entry{
			UserID:      p.UserID,
			Wallet:      model.WalletCampaign,
			Amount:      campaign.BudgetUSD,
			Type:        model.TransactionTypeCampaign,
			Status:      model.TransactionStatusPending,
			EntityType:  model.EntityCampaign,
			EntityID:    campaign.ID,
			Reference:   campaign.Reference,
			Description: "Campaign created - pending admin approval",
		}); err != nil {
			return err
		}
		return s.events.admin(ctx, tx, model.EventCampaignSubmitted, campaign.Reference, map[string]interface{}{
			"campaign_id": campaign.ID,
			"user_id":     p.UserID,
			"platform":    campaign.Platform,
			"budget_usd":  campaign.BudgetUSD,
		})
	})
	if err != nil {
		return nil, translate(err, "campaign not found")
	}

	s.log.WithFields(logrus.Fields{"campaign_id": campaign.ID, "user_id": p.UserID, "budget": campaign.BudgetUSD}).
		Info("campaign submitted")
	s.notifyAdmin(campaign)
	return campaign, nil
}

// notifyAdmin runs detached from the request; a mail failure is only logged.
func (s *CampaignService) notifyAdmin(campaign *model.Campaign) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		subject := fmt.Sprintf("New %s campaign pending review", campaign.Platform)
		body := fmt.Sprintf("Campaign %s (user %d, budget %d) is waiting for review.",
			campaign.Reference, campaign.UserID, campaign.BudgetUSD)
		if err := s.notifier.NotifyAdmin(ctx, subject, body); err != nil {
			s.log.WithError(err).WithField("campaign_id", campaign.ID).Warn("admin notification failed")
		}
	}()
}

func (s *CampaignService) ListMine(ctx context.Context, p auth.Principal) ([]*model.Campaign, error) {
	campaigns, err := s.campaignRepo.ListByUser(ctx, p.UserID)
	return campaigns, translate(err, "")
}

func (s *CampaignService) ListAll(ctx context.Context, status string) ([]*model.Campaign, error) {
	campaigns, err := s.campaignRepo.ListAll(ctx, status)
	return campaigns, translate(err, "")
}

// Delete removes a campaign without touching the wallet; a deletion is not a rejection.
func (s *CampaignService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	campaign, err := s.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return translate(err, "campaign not found")
	}
	if err := s.authz.CanMutate(p, campaign.UserID); err != nil {
		return err
	}
	return translate(s.campaignRepo.Delete(ctx, id), "campaign not found")
}

// campaignTarget maps the status vocabulary admins use onto stored statuses.
func campaignTarget(status string) (string, bool) {
	switch normalize(status) {
	case "approved", model.CampaignStatusRunning:
		return model.CampaignStatusRunning, true
	case "rejected", model.CampaignStatusDeclined:
		return model.CampaignStatusDeclined, true
	case model.CampaignStatusCompleted:
		return model.CampaignStatusCompleted, true
	}
	return "", false
}

// UpdateStatus is the admin review operation. Repeating a transition that
// already happened is a no-op.
func (s *CampaignService) UpdateStatus(ctx context.Context, id int64, status, note string) (*model.Campaign, error) {
	target, ok := campaignTarget(status)
	if !ok {
		return nil, apperr.Validation("invalid campaign status")
	}
	campaign, err := s.campaignRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translate(err, "campaign not found")
	}
	if campaign.Status == target {
		return campaign, nil
	}

	switch target {
	case model.CampaignStatusDeclined:
		err = s.decline(ctx, campaign, note)
	case model.CampaignStatusRunning:
		err = s.approve(ctx, campaign, note)
	default:
		err = s.campaignRepo.Transition(ctx, nil, id, campaign.Status, target, note)
	}
	if err != nil {
		return nil, translate(err, "campaign not found")
	}
	return s.reload(ctx, id)
}

func (s *CampaignService) approve(ctx context.Context, campaign *model.Campaign, note string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.campaignRepo.Transition(ctx, tx, campaign.ID, campaign.Status, model.CampaignStatusRunning, note); err != nil {
			return err
		}
		s.settlePaired(ctx, tx, campaign, model.TransactionStatusCompleted)
		return s.events.ledger(ctx, tx, model.EventCampaignReviewed, campaign.Reference, map[string]interface{}{
			"campaign_id": campaign.ID,
			"user_id":     campaign.UserID,
			"status":      model.CampaignStatusRunning,
		})
	})
}

func (s *CampaignService) decline(ctx context.Context, campaign *model.Campaign, note string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.campaignRepo.Decline(ctx, tx, campaign.ID, note); err != nil {
			return err
		}
		refund, err := s.ledger.Credit(ctx, tx, Entry{
			UserID:      campaign.UserID,
			Wallet:      model.WalletCampaign,
			Amount:      campaign.BudgetUSD,
			Type:        model.TransactionTypeRefund,
			EntityType:  model.EntityCampaign,
			EntityID:    campaign.ID,
			Reference:   idgen.GenerateRefundNo(),
			Description: "Refund for declined campaign " + campaign.Reference,
		})
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.WithField("campaign_id", campaign.ID).Warn("owner missing, campaign declined without refund")
			return nil
		}
		if err != nil {
			return err
		}
		s.settlePaired(ctx, tx, campaign, model.TransactionStatusFailed)
		return s.events.ledger(ctx, tx, model.EventRefundIssued, refund.Reference, map[string]interface{}{
			"entity_type": model.EntityCampaign,
			"entity_id":   campaign.ID,
			"user_id":     campaign.UserID,
			"amount":      campaign.BudgetUSD,
			"wallet":      model.WalletCampaign,
		})
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		// lost a race against another reviewer; fine if the other one declined
		current, getErr := s.campaignRepo.GetByID(ctx, nil, campaign.ID)
		if getErr == nil && current.Status == model.CampaignStatusDeclined {
			return nil
		}
	}
	return err
}

// settlePaired moves the pending debit row written at creation. A missing
// row is logged and skipped.
func (s *CampaignService) settlePaired(ctx context.Context, tx *gorm.DB, campaign *model.Campaign, to string) {
	trans, err := s.transactionRepo.GetForEntity(ctx, tx, model.EntityCampaign, campaign.ID, model.TransactionTypeCampaign)
	if err != nil {
		s.log.WithError(err).WithField("campaign_id", campaign.ID).Warn("paired transaction not found")
		return
	}
	if err := s.transactionRepo.UpdateStatus(ctx, tx, trans.ID, model.TransactionStatusPending, to); err != nil {
		s.log.WithError(err).WithField("transaction", trans.Reference).Warn("paired transaction not pending")
	}
}

func (s *CampaignService) reload(ctx context.Context, id int64) (*model.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, nil, id)
	return campaign, translate(err, "campaign not found")
}
