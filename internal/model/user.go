package model

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// WalletKind selects one of the two independently tracked balances of a user.
type WalletKind string

const (
	// WalletSpending funds boosts and services.
	WalletSpending WalletKind = "balance"
	// WalletCampaign funds campaigns and receives gateway deposits.
	WalletCampaign WalletKind = "wallet"
)

func (w WalletKind) Valid() bool {
	return w == WalletSpending || w == WalletCampaign
}

// Column is the users table column holding this wallet.
func (w WalletKind) Column() string {
	if w == WalletCampaign {
		return "wallet_balance"
	}
	return "balance"
}

// User is an account holder. Balance and WalletBalance are never negative; every change goes
// through a guarded UPDATE in UserRepository.
type User struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string    `gorm:"type:varchar(128);not null" json:"name"`
	Email         string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role          Role      `gorm:"type:varchar(16);not null;default:user" json:"role"`
	Balance       int64     `gorm:"not null;default:0" json:"balance"`
	WalletBalance int64     `gorm:"not null;default:0" json:"wallet_balance"`
	Status        string    `gorm:"type:varchar(16);not null;default:active" json:"status"`
	Version       int       `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "app_user"
}

func (u *User) BalanceOf(kind WalletKind) int64 {
	if kind == WalletCampaign {
		return u.WalletBalance
	}
	return u.Balance
}
