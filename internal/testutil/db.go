// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linkmart/internal/infrastructure/database"
	"linkmart/internal/model"
)

var dbSeq int64

// NewDB returns a migrated in-memory SQLite database private to t. It holds
// a single connection, so code under test must use the tx it was handed
// inside a transaction.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:linkmart_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedUser inserts an active user with the given balances.
func SeedUser(t *testing.T, db *gorm.DB, role model.Role, balance, wallet int64) *model.User {
	t.Helper()
	seq := atomic.AddInt64(&dbSeq, 1)
	user := &model.User{
		Name:          fmt.Sprintf("user-%d", seq),
		Email:         fmt.Sprintf("user-%d@example.com", seq),
		PasswordHash:  "x",
		Role:          role,
		Balance:       balance,
		WalletBalance: wallet,
		Status:        model.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

// Balances reloads a user's two balances.
func Balances(t *testing.T, db *gorm.DB, userID int64) (balance, wallet int64) {
	t.Helper()
	var u model.User
	if err := db.First(&u, userID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return u.Balance, u.WalletBalance
}
