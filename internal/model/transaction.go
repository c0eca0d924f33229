package model

import (
	"time"
)

// ============================================================================
// Ledger entry types
// ============================================================================

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeCampaign   = "campaign"
	TransactionTypeBoost      = "boost"
	TransactionTypeService    = "service"
	TransactionTypeRefund     = "refund"
	TransactionTypeAdjustment = "adjustment"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

const (
	EntityCampaign = "campaign"
	EntityBoost    = "boost"
	EntityService  = "service"
	EntityDeposit  = "deposit"
)

// Transaction is one wallet movement. Amount is signed (credit positive,
// debit negative) and every balance mutation writes exactly one row in the
// same database transaction, so balance_before/after always reconcile.
type Transaction struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	UserID        int64      `gorm:"index;not null" json:"user_id"`
	Wallet        WalletKind `gorm:"type:varchar(16);not null" json:"wallet"`
	Type          string     `gorm:"type:varchar(20);not null" json:"type"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Status        string     `gorm:"type:varchar(20);index;not null" json:"status"`
	EntityType    string     `gorm:"type:varchar(20);index:idx_tx_entity" json:"entity_type,omitempty"`
	EntityID      int64      `gorm:"index:idx_tx_entity" json:"entity_id,omitempty"`
	BalanceBefore int64      `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64      `gorm:"not null" json:"balance_after"`
	Description   string     `gorm:"type:varchar(256)" json:"description"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string {
	return "wallet_transaction"
}
