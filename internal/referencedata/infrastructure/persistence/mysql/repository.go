package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// assetRepository 资产仓储实现
type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository 创建资产仓储
func NewAssetRepository(db *gorm.DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Save(ctx context.Context, asset *domain.Asset) error {
	return r.getDB(ctx).WithContext(ctx).Save(asset).Error
}

func (r *assetRepository) GetByCode(ctx context.Context, code string) (*domain.Asset, error) {
	var asset domain.Asset
	if err := r.getDB(ctx).WithContext(ctx).
		Where("code = ? AND is_active = ?", code, true).
		First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context) ([]*domain.Asset, error) {
	var assets []*domain.Asset
	if err := r.getDB(ctx).WithContext(ctx).Order("code").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *assetRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// marketRepository 市场仓储实现
type marketRepository struct {
	db *gorm.DB
}

// NewMarketRepository 创建市场仓储
func NewMarketRepository(db *gorm.DB) domain.MarketRepository {
	return &marketRepository{db: db}
}

func (r *marketRepository) Save(ctx context.Context, market *domain.Market) error {
	return r.getDB(ctx).WithContext(ctx).Save(market).Error
}

func (r *marketRepository) Get(ctx context.Context, marketID string) (*domain.Market, error) {
	var market domain.Market
	if err := r.getDB(ctx).WithContext(ctx).
		Where("market_id = ?", marketID).
		First(&market).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, err
	}
	return &market, nil
}

func (r *marketRepository) GetActive(ctx context.Context, marketID string) (*domain.Market, error) {
	var market domain.Market
	if err := r.getDB(ctx).WithContext(ctx).
		Where("market_id = ? AND is_active = ?", marketID, true).
		First(&market).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMarketNotFound
		}
		return nil, err
	}
	return &market, nil
}

func (r *marketRepository) List(ctx context.Context) ([]*domain.Market, error) {
	var markets []*domain.Market
	if err := r.getDB(ctx).WithContext(ctx).Order("market_id").Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

func (r *marketRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
