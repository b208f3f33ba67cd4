package gormstore

import (
	"context"

	"nftloan-backend/internal/domain/event"

	"gorm.io/gorm"
)

type OutboxRepository struct{ db *gorm.DB }

func NewOutboxRepository(db *gorm.DB) *OutboxRepository { return &OutboxRepository{db: db} }

func (r *OutboxRepository) Append(ctx context.Context, rec *event.OutboxRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]event.OutboxRecord, error) {
	var out []event.OutboxRecord
	q := r.db.WithContext(ctx).Where("delivered_at = 0").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *OutboxRepository) MarkDelivered(ctx context.Context, ids []uint64, at int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&event.OutboxRecord{}).
		Where("id IN ? AND delivered_at = 0", ids).
		Update("delivered_at", at).Error
}
