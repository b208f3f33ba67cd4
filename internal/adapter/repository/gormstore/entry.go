package gormstore

import (
	"context"

	"nftloan-backend/internal/domain/ledger"

	"gorm.io/gorm"
)

type EntryRepository struct{ db *gorm.DB }

func NewEntryRepository(db *gorm.DB) *EntryRepository { return &EntryRepository{db: db} }

func (r *EntryRepository) Append(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *EntryRepository) ListByOrder(ctx context.Context, orderID uint64) ([]ledger.Entry, error) {
	var out []ledger.Entry
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("version ASC, created_at ASC, entry_id ASC").
		Find(&out).Error
	return out, err
}
