package gormstore

import (
	"testing"
	"time"

	"nftloan-backend/internal/domain/order"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with every service table.
// One connection only: each sqlite :memory: connection is its own database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeOrder(borrower, asset string) *order.Order {
	return &order.Order{
		Borrower:        borrower,
		CollateralAsset: asset,
		RequestedAmount: decimal.NewFromInt(100),
		InterestAmount:  decimal.NewFromInt(5),
		MaturitySeconds: int64((7 * 24 * time.Hour).Seconds()),
		OrderStatus:     true,
		CreatedAt:       time.Now().Unix(),
		Version:         1,
	}
}
