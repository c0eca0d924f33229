package model

import (
	"time"
)

const (
	DepositStatusPending    = "pending"
	DepositStatusSuccessful = "successful"
	DepositStatusFailed     = "failed"
)

const GatewayPaystack = "paystack"

// Deposit tracks one payment-gateway charge. Reference is the gateway
// correlation key; a deposit credits its wallet at most once, on the single
// conditional transition into DepositStatusSuccessful.
type Deposit struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        *int64     `gorm:"index" json:"user_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(8);not null" json:"currency"`
	Reference     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`
	Wallet        WalletKind `gorm:"type:varchar(16);not null" json:"wallet"`
	Status        string     `gorm:"type:varchar(20);index;not null" json:"status"`
	Gateway       string     `gorm:"type:varchar(20);not null" json:"gateway"`
	GatewayStatus string     `gorm:"type:varchar(32)" json:"gateway_status,omitempty"`
	CreditedAt    *time.Time `json:"credited_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Deposit) TableName() string {
	return "deposit"
}
