package gormstore

import (
	"context"
	"errors"

	"nftloan-backend/internal/domain/ledger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssetRepository struct{ db *gorm.DB }

func NewAssetRepository(db *gorm.DB) *AssetRepository { return &AssetRepository{db: db} }

func (r *AssetRepository) Register(ctx context.Context, a *ledger.Asset) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ledger.Asset{}).Where("asset_id = ?", a.AssetID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ledger.ErrAssetExists
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AssetRepository) Get(ctx context.Context, assetID string) (*ledger.Asset, error) {
	return r.get(r.db.WithContext(ctx), assetID)
}

// GetForUpdate is a no-op lock on sqlite, where writers are already serialised.
func (r *AssetRepository) GetForUpdate(ctx context.Context, assetID string) (*ledger.Asset, error) {
	return r.get(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), assetID)
}

func (r *AssetRepository) get(db *gorm.DB, assetID string) (*ledger.Asset, error) {
	var out ledger.Asset
	err := db.Where("asset_id = ?", assetID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *AssetRepository) Move(ctx context.Context, assetID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&ledger.Asset{}).
		Where("asset_id = ? AND holder = ?", assetID, from).
		Update("holder", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
