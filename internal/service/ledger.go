package service

import (
	"context"
	"errors"
	"fmt"

	"linkmart/internal/metrics"
	"linkmart/internal/model"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
	"linkmart/pkg/idgen"

	"gorm.io/gorm"
)

// ============================================================================
// Ledger
// ============================================================================
//
// A user holds two balances: balance (boosts and services) and
// wallet_balance (campaigns). Ledger is the only code that moves either.
//
// Debit:  UPDATE user SET col = col - ? WHERE id = ? AND col >= ?
//         RowsAffected=0 with the user present means insufficient funds,
//         so a balance never goes negative.
// Credit: UPDATE user SET col = col + ? WHERE id = ?
//
// Each movement writes one Transaction row with the signed amount and the
// balance before and after, inside the caller's transaction. The row's
// reference is unique; a second credit for the same deposit reference fails
// on the index and rolls the whole transaction back.

// Ledger mutates wallet balances. Every call must run inside the caller's
// database transaction and writes exactly one Transaction row alongside the
// balance change.
type Ledger struct {
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// Entry describes one business movement. Amount is always positive; the
// direction comes from the Ledger method used.
type Entry struct {
	UserID      int64
	Wallet      model.WalletKind
	Amount      int64
	Type        string
	Status      string
	EntityType  string
	EntityID    int64
	Reference   string
	Description string
}

func (l *Ledger) Debit(ctx context.Context, tx *gorm.DB, e Entry) (*model.Transaction, error) {
	if err := e.validate(tx); err != nil {
		return nil, err
	}
	after, err := l.userRepo.Debit(ctx, tx, e.UserID, e.Wallet, e.Amount)
	metrics.RecordLedger("debit", string(e.Wallet), err)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return l.record(ctx, tx, e, -e.Amount, after+e.Amount, after)
}

func (l *Ledger) Credit(ctx context.Context, tx *gorm.DB, e Entry) (*model.Transaction, error) {
	if err := e.validate(tx); err != nil {
		return nil, err
	}
	after, err := l.userRepo.Credit(ctx, tx, e.UserID, e.Wallet, e.Amount)
	metrics.RecordLedger("credit", string(e.Wallet), err)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return l.record(ctx, tx, e, e.Amount, after-e.Amount, after)
}

func (l *Ledger) record(ctx context.Context, tx *gorm.DB, e Entry, signed, before, after int64) (*model.Transaction, error) {
	if e.Reference == "" {
		e.Reference = idgen.GenerateTransactionNo()
	}
	if e.Status == "" {
		e.Status = model.TransactionStatusCompleted
	}
	trans := &model.Transaction{
		Reference:     e.Reference,
		UserID:        e.UserID,
		Wallet:        e.Wallet,
		Type:          e.Type,
		Amount:        signed,
		Status:        e.Status,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   e.Description,
	}
	if err := l.transactionRepo.Create(ctx, tx, trans); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("ledger entry already recorded")
		}
		return nil, fmt.Errorf("record ledger entry: %w", err)
	}
	return trans, nil
}

func (e Entry) validate(tx *gorm.DB) error {
	if tx == nil {
		return errors.New("ledger: mutation outside a database transaction")
	}
	if e.Amount <= 0 {
		return apperr.Validation("amount must be greater than 0")
	}
	if !e.Wallet.Valid() {
		return apperr.Validation("unknown wallet")
	}
	return nil
}
