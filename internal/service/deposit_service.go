package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/lock"
	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/metrics"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
	"linkmart/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Confirmation sources, used in logs and metrics.
const (
	SourceRedirect   = "verify"
	SourceWebhook    = "webhook"
	SourceReconciler = "reconciler"
	SourceAdmin      = "admin"
)

// DepositService reconciles Paystack charges with the ledger. Whatever the
// entry point, a successful charge credits its wallet at most once: the
// credit shares a database transaction with the conditional update that
// moves the deposit to successful.
type DepositService struct {
	db          *gorm.DB
	redisClient *redis.Client
	cfg         *config.Config
	depositRepo *repository.DepositRepository
	userRepo    *repository.UserRepository
	ledger      *Ledger
	events      *events
	gateway     PaymentGateway
	authz       auth.Authorizer
	log         *logrus.Entry
}

// NewDepositService wires reconciliation. redisClient may be nil.
func NewDepositService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, gateway PaymentGateway) *DepositService {
	return &DepositService{
		db:          db,
		redisClient: redisClient,
		cfg:         cfg,
		depositRepo: repository.NewDepositRepository(db),
		userRepo:    repository.NewUserRepository(db),
		ledger:      NewLedger(db),
		events:      newEvents(db, cfg),
		gateway:     gateway,
		log:         logrus.WithField("component", "DepositService"),
	}
}

type InitiateDepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type InitiateDepositResult struct {
	Link      string         `json:"link"`
	Reference string         `json:"reference"`
	Deposit   *model.Deposit `json:"deposit"`
}

// Initiate records a pending deposit into wallet and asks the gateway for a
// hosted payment page.
func (s *DepositService) Initiate(ctx context.Context, p auth.Principal, amount int64, wallet model.WalletKind) (*InitiateDepositResult, error) {
	if amount <= 0 {
		return nil, apperr.Validation("invalid amount")
	}
	if !wallet.Valid() {
		return nil, apperr.Validation("unknown wallet")
	}
	user, err := s.userRepo.GetByID(ctx, nil, p.UserID)
	if err != nil {
		return nil, translate(err, "user not found")
	}

	userID := user.ID
	deposit := &model.Deposit{
		UserID:    &userID,
		Amount:    amount,
		Currency:  s.cfg.Business.DepositCurrency,
		Reference: idgen.GenerateDepositReference(),
		Wallet:    wallet,
		Status:    model.DepositStatusPending,
		Gateway:   model.GatewayPaystack,
	}
	if err := s.depositRepo.Create(ctx, nil, deposit); err != nil {
		return nil, translate(err, "")
	}

	callCtx, cancel := withTimeout(ctx, s.cfg.Paystack.Timeout)
	defer cancel()
	res, err := s.gateway.Initialize(callCtx, paystack.InitializeRequest{
		Email:       user.Email,
		AmountMinor: amount * 100,
		Reference:   deposit.Reference,
		Currency:    deposit.Currency,
	})
	if err != nil {
		s.log.WithError(err).WithField("reference", deposit.Reference).Error("initialize paystack charge")
		// no payment page was handed out; a late webhook can still succeed it
		if markErr := s.depositRepo.MarkFailed(context.Background(), nil, deposit.Reference, "initialize_failed"); markErr != nil {
			s.log.WithError(markErr).WithField("reference", deposit.Reference).Warn("mark deposit failed")
		}
		return nil, apperr.Upstream("unable to initialize deposit", err)
	}

	s.log.WithFields(logrus.Fields{"reference": deposit.Reference, "user_id": userID, "amount": amount, "wallet": wallet}).
		Info("deposit initialized")
	return &InitiateDepositResult{Link: res.AuthorizationURL, Reference: deposit.Reference, Deposit: deposit}, nil
}

// Verify is the redirect path: it asks the gateway for the final state of
// reference and applies it. caller, when known, owns a deposit that has no
// local record yet.
func (s *DepositService) Verify(ctx context.Context, reference string, caller *auth.Principal) (*model.Deposit, error) {
	return s.verify(ctx, reference, caller, SourceRedirect)
}

func (s *DepositService) verify(ctx context.Context, reference string, caller *auth.Principal, source string) (*model.Deposit, error) {
	if reference == "" {
		return nil, apperr.Validation("reference is required")
	}

	existing, err := s.depositRepo.GetByReference(ctx, nil, reference)
	if err != nil && !errors.Is(err, repository.ErrDepositNotFound) {
		return nil, translate(err, "")
	}
	if existing != nil && existing.Status == model.DepositStatusSuccessful {
		metrics.RecordDeposit(source, "duplicate")
		return existing, nil
	}

	unlock := s.lockReference(ctx, reference)
	defer unlock()

	callCtx, cancel := withTimeout(ctx, s.cfg.Paystack.Timeout)
	defer cancel()
	v, err := s.gateway.Verify(callCtx, reference)
	if err != nil {
		metrics.RecordDeposit(source, "pending")
		s.log.WithError(err).WithField("reference", reference).Warn("verify with paystack failed, deposit left pending")
		return nil, apperr.Upstream("unable to verify deposit", err)
	}

	var ownerID *int64
	if caller != nil {
		id := caller.UserID
		ownerID = &id
	}
	return s.apply(ctx, v, ownerID, source)
}

// HandleWebhook authenticates a Paystack delivery and applies it. It
// returns "ok" or "ignored" for deliveries that need no action.
func (s *DepositService) HandleWebhook(ctx context.Context, body []byte, signature string) (string, error) {
	if !s.gateway.VerifySignature(body, signature) {
		metrics.RecordWebhook("invalid_signature")
		s.log.Warn("paystack webhook signature mismatch")
		return "", apperr.Unauthorized("invalid signature")
	}

	ev, err := paystack.ParseWebhook(body)
	if err != nil {
		metrics.RecordWebhook("malformed")
		return "", apperr.Validation("malformed webhook payload")
	}
	if !ev.IsSuccessEvent() || ev.Data.Reference == "" {
		metrics.RecordWebhook("ignored")
		return "ignored", nil
	}

	var ownerID *int64
	if ev.Data.CustomerEmail != "" {
		if user, err := s.userRepo.GetByEmail(ctx, nil, ev.Data.CustomerEmail); err == nil {
			ownerID = &user.ID
		}
	}

	unlock := s.lockReference(ctx, ev.Data.Reference)
	defer unlock()

	if _, err := s.apply(ctx, &ev.Data, ownerID, SourceWebhook); err != nil {
		metrics.RecordWebhook("error")
		return "", err
	}
	metrics.RecordWebhook("ok")
	return "ok", nil
}

// ============================================================================
// Reconciliation
// ============================================================================
//
// Redirect verify, webhook, the stale-deposit job and the admin override all
// end up in apply. Inside one transaction it:
//
//  1. loads the deposit by reference, creating it if the gateway knows a
//     charge we never initiated;
//  2. attaches an owner if one is known now and none was before;
//  3. on success with an owner, flips status to successful with a
//     conditional update and credits the target wallet. The loser of a race
//     sees ErrStatusConflict and reports "duplicate";
//  4. on success without an owner, records the gateway status and leaves
//     the deposit pending;
//  5. on failed/reversed, moves pending to failed.
//
// Gateway errors never reach apply; the deposit stays as it was.

// apply records the gateway's view of one charge.
func (s *DepositService) apply(ctx context.Context, v *paystack.Verification, ownerID *int64, source string) (*model.Deposit, error) {
	outcome := "pending"
	logger := s.log.WithFields(logrus.Fields{"reference": v.Reference, "source": source})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		deposit, err := s.depositRepo.GetByReference(ctx, tx, v.Reference)
		if errors.Is(err, repository.ErrDepositNotFound) {
			deposit, err = s.depositRepo.GetOrCreate(ctx, tx, s.depositFromGateway(v, ownerID))
		}
		if err != nil {
			return err
		}

		if deposit.UserID == nil && ownerID != nil {
			if err := s.depositRepo.AttachUser(ctx, tx, deposit.Reference, *ownerID); err != nil {
				return err
			}
			deposit.UserID = ownerID
		}

		switch {
		case v.Succeeded():
			outcome, err = s.credit(ctx, tx, deposit, v)
			return err
		case v.Status == "failed" || v.Status == "reversed":
			outcome = "failed"
			if err := s.depositRepo.MarkFailed(ctx, tx, deposit.Reference, v.Status); err != nil &&
				!errors.Is(err, repository.ErrStatusConflict) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordDeposit(source, "error")
		logger.WithError(err).Error("apply deposit confirmation")
		return nil, translate(err, "deposit not found")
	}

	metrics.RecordDeposit(source, outcome)
	logger.WithField("outcome", outcome).Info("deposit confirmation applied")

	deposit, err := s.depositRepo.GetByReference(ctx, nil, v.Reference)
	return deposit, translate(err, "deposit not found")
}

// credit settles a gateway success. A deposit nobody owns yet stays pending
// with the gateway status recorded, so the owner's own verify can still
// attach it and take the credit.
func (s *DepositService) credit(ctx context.Context, tx *gorm.DB, deposit *model.Deposit, v *paystack.Verification) (string, error) {
	if deposit.Status == model.DepositStatusSuccessful {
		return "duplicate", nil
	}
	if deposit.UserID == nil {
		if err := s.depositRepo.RecordGatewayStatus(ctx, tx, deposit.Reference, v.Status); err != nil {
			return "", err
		}
		s.log.WithField("reference", deposit.Reference).Warn("paid deposit has no owner yet, left pending until attributed")
		return "unattributed", nil
	}
	if err := s.depositRepo.MarkSuccessful(ctx, tx, deposit.Reference, v.Status); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return "duplicate", nil
		}
		return "", err
	}

	amount := deposit.Amount
	if confirmed := v.AmountMinor / 100; confirmed > 0 && confirmed != amount {
		s.log.WithFields(logrus.Fields{"reference": deposit.Reference, "recorded": amount, "confirmed": confirmed}).
			Warn("gateway amount differs from recorded amount, crediting confirmed amount")
		amount = confirmed
	}

	if _, err := s.ledger.Credit(ctx, tx, Entry{
		UserID:      *deposit.UserID,
		Wallet:      deposit.Wallet,
		Amount:      amount,
		Type:        model.TransactionTypeDeposit,
		EntityType:  model.EntityDeposit,
		EntityID:    deposit.ID,
		Reference:   deposit.Reference,
		Description: "Paystack deposit " + deposit.Reference,
	}); err != nil {
		return "", err
	}
	return "credited", s.events.ledger(ctx, tx, model.EventDepositCredited, deposit.Reference, map[string]interface{}{
		"deposit_id": deposit.ID,
		"user_id":    *deposit.UserID,
		"amount":     amount,
		"wallet":     deposit.Wallet,
	})
}

func (s *DepositService) depositFromGateway(v *paystack.Verification, ownerID *int64) *model.Deposit {
	currency := v.Currency
	if currency == "" {
		currency = s.cfg.Business.DepositCurrency
	}
	return &model.Deposit{
		UserID:        ownerID,
		Amount:        v.AmountMinor / 100,
		Currency:      currency,
		Reference:     v.Reference,
		Wallet:        model.WalletCampaign,
		Status:        model.DepositStatusPending,
		Gateway:       model.GatewayPaystack,
		GatewayStatus: v.Status,
	}
}

// lockReference keeps verify, webhook and the reconciler from calling the
// gateway for the same reference at once. Failure to lock is not fatal.
func (s *DepositService) lockReference(ctx context.Context, reference string) func() {
	if s.redisClient == nil {
		return func() {}
	}
	l := lock.NewReferenceLock(s.redisClient, reference, idgen.GenerateTransactionNo())
	if err := l.Lock(ctx, 100*time.Millisecond, 50); err != nil {
		s.log.WithError(err).WithField("reference", reference).Warn("reference lock not acquired, continuing")
		return func() {}
	}
	return func() {
		if err := l.Unlock(context.Background()); err != nil {
			s.log.WithError(err).WithField("reference", reference).Warn("release reference lock")
		}
	}
}

// ReconcileStale re-verifies deposits that have been pending for too long.
func (s *DepositService) ReconcileStale(ctx context.Context, limit int) (int, error) {
	minutes := s.cfg.Business.StaleDepositMinutes
	if minutes <= 0 {
		minutes = 30
	}
	cutoff := time.Now().Add(-time.Duration(minutes) * time.Minute)
	deposits, err := s.depositRepo.ListStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, d := range deposits {
		deposit, err := s.verify(ctx, d.Reference, nil, SourceReconciler)
		if err != nil {
			s.log.WithError(err).WithField("reference", d.Reference).Warn("reconcile deposit")
			continue
		}
		if deposit.Status != model.DepositStatusPending {
			settled++
		}
	}
	return settled, nil
}

func (s *DepositService) History(ctx context.Context, p auth.Principal, page, pageSize int) ([]*model.Deposit, int64, error) {
	deposits, total, err := s.depositRepo.ListByUser(ctx, p.UserID, page, pageSize)
	return deposits, total, translate(err, "")
}

func (s *DepositService) Get(ctx context.Context, p auth.Principal, id int64) (*model.Deposit, error) {
	deposit, err := s.depositRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "deposit not found")
	}
	var owner int64
	if deposit.UserID != nil {
		owner = *deposit.UserID
	}
	if err := s.authz.CanMutate(p, owner); err != nil {
		return nil, apperr.Forbidden("not allowed to view this deposit")
	}
	return deposit, nil
}

func (s *DepositService) ListAll(ctx context.Context, status string, page, pageSize int) ([]*model.Deposit, int64, error) {
	deposits, total, err := s.depositRepo.ListAll(ctx, status, page, pageSize)
	return deposits, total, translate(err, "")
}

// SetStatus is the admin override. Marking a deposit successful goes through
// the same credit-once path as a gateway confirmation.
func (s *DepositService) SetStatus(ctx context.Context, id int64, status string) (*model.Deposit, error) {
	deposit, err := s.depositRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "deposit not found")
	}

	switch normalize(status) {
	case model.DepositStatusSuccessful, "success", "completed":
		return s.apply(ctx, &paystack.Verification{
			Reference:   deposit.Reference,
			Status:      paystack.StatusSuccess,
			AmountMinor: deposit.Amount * 100,
			Currency:    deposit.Currency,
		}, nil, SourceAdmin)
	case model.DepositStatusFailed:
		if err := s.depositRepo.MarkFailed(ctx, nil, deposit.Reference, "admin"); err != nil {
			return nil, translate(err, "deposit not found")
		}
		deposit, err = s.depositRepo.GetByID(ctx, id)
		return deposit, translate(err, "deposit not found")
	default:
		return nil, apperr.Validation(fmt.Sprintf("invalid deposit status %q", status))
	}
}
