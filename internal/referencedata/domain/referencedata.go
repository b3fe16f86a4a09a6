// Package domain 参考数据领域模型
// 资产与市场由运营侧维护，引擎只消费，不创建也不校验其内容
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// AssetType 资产类型
type AssetType string

const (
	AssetTypeFiat   AssetType = "FIAT"
	AssetTypeCrypto AssetType = "CRYPTO"
)

var (
	// ErrAssetNotFound 资产不存在或未启用
	ErrAssetNotFound = errors.New("asset not found")
	// ErrMarketNotFound 市场不存在或未启用
	ErrMarketNotFound = errors.New("market not found")
)

// Asset 资产
type Asset struct {
	gorm.Model
	// 资产代码，全局唯一
	Code string `gorm:"column:code;type:varchar(16);uniqueIndex;not null" json:"code"`
	// 类型（FIAT | CRYPTO）
	Type AssetType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	// 精度（小数位数）
	Precision int `gorm:"column:precision;default:8;not null" json:"precision"`
	// 是否启用
	IsActive bool `gorm:"column:is_active;default:true;not null" json:"is_active"`
}

// TableName 表名
func (Asset) TableName() string {
	return "assets"
}

// Market 市场（交易对）
type Market struct {
	gorm.Model
	// 市场 ID (业务主键)
	MarketID string `gorm:"column:market_id;type:varchar(32);uniqueIndex;not null" json:"market_id"`
	// 基础资产代码
	BaseAssetCode string `gorm:"column:base_asset_code;type:varchar(16);uniqueIndex:idx_markets_pair;not null" json:"base_asset_code"`
	// 计价资产代码
	QuoteAssetCode string `gorm:"column:quote_asset_code;type:varchar(16);uniqueIndex:idx_markets_pair;not null" json:"quote_asset_code"`
	// 是否启用
	IsActive bool `gorm:"column:is_active;default:true;not null" json:"is_active"`
}

// TableName 表名
func (Market) TableName() string {
	return "markets"
}

// AssetRepository 资产仓储接口
type AssetRepository interface {
	Save(ctx context.Context, asset *Asset) error
	// GetByCode 按资产代码获取启用资产，不存在返回 ErrAssetNotFound
	GetByCode(ctx context.Context, code string) (*Asset, error)
	List(ctx context.Context) ([]*Asset, error)
}

// MarketRepository 市场仓储接口
type MarketRepository interface {
	Save(ctx context.Context, market *Market) error
	// Get 按市场 ID 获取市场（含停用），不存在返回 ErrMarketNotFound
	Get(ctx context.Context, marketID string) (*Market, error)
	// GetActive 按市场 ID 获取启用市场，不存在或停用返回 ErrMarketNotFound
	GetActive(ctx context.Context, marketID string) (*Market, error)
	List(ctx context.Context) ([]*Market, error)
}

// MarketReadRepository 市场读模型仓储接口（缓存）
type MarketReadRepository interface {
	Save(ctx context.Context, market *Market) error
	Get(ctx context.Context, marketID string) (*Market, error)
}
