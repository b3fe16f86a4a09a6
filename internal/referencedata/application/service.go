// Package application 参考数据应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/pkg/idgen"
)

// ReferenceDataService 参考数据应用服务
// 读多写少，市场查询走缓存，未命中时回源数据库并回填
type ReferenceDataService struct {
	assets   domain.AssetRepository
	markets  domain.MarketRepository
	readRepo domain.MarketReadRepository
}

// NewReferenceDataService 创建参考数据应用服务
func NewReferenceDataService(assets domain.AssetRepository, markets domain.MarketRepository, readRepo domain.MarketReadRepository) *ReferenceDataService {
	return &ReferenceDataService{assets: assets, markets: markets, readRepo: readRepo}
}

// GetAsset 按代码获取启用资产
func (s *ReferenceDataService) GetAsset(ctx context.Context, code string) (*domain.Asset, error) {
	return s.assets.GetByCode(ctx, code)
}

// GetActiveMarket 获取启用市场，优先读缓存
func (s *ReferenceDataService) GetActiveMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	if s.readRepo != nil {
		if market, err := s.readRepo.Get(ctx, marketID); err == nil && market != nil && market.IsActive {
			return market, nil
		}
	}

	market, err := s.markets.GetActive(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if s.readRepo != nil {
		if err := s.readRepo.Save(ctx, market); err != nil {
			slog.WarnContext(ctx, "failed to cache market", "market_id", marketID, "error", err)
		}
	}
	return market, nil
}

// GetMarket 按市场 ID 获取市场（含停用），优先读缓存
// 取消等流程需要在市场停用后仍能解析交易对
func (s *ReferenceDataService) GetMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	if s.readRepo != nil {
		if market, err := s.readRepo.Get(ctx, marketID); err == nil && market != nil {
			return market, nil
		}
	}

	market, err := s.markets.Get(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if s.readRepo != nil {
		if err := s.readRepo.Save(ctx, market); err != nil {
			slog.WarnContext(ctx, "failed to cache market", "market_id", marketID, "error", err)
		}
	}
	return market, nil
}

// ListAssets 列出全部资产
func (s *ReferenceDataService) ListAssets(ctx context.Context) ([]*domain.Asset, error) {
	return s.assets.List(ctx)
}

// ListMarkets 列出全部市场
func (s *ReferenceDataService) ListMarkets(ctx context.Context) ([]*domain.Market, error) {
	return s.markets.List(ctx)
}

// EnsureDefaults 开发环境引导默认资产与市场
// 只补缺失项，已有数据不动
func (s *ReferenceDataService) EnsureDefaults(ctx context.Context) error {
	defaults := []*domain.Asset{
		{Code: "BTC", Type: domain.AssetTypeCrypto, Precision: 8, IsActive: true},
		{Code: "ETH", Type: domain.AssetTypeCrypto, Precision: 8, IsActive: true},
		{Code: "USDT", Type: domain.AssetTypeCrypto, Precision: 8, IsActive: true},
		{Code: "THB", Type: domain.AssetTypeFiat, Precision: 2, IsActive: true},
	}
	for _, asset := range defaults {
		if _, err := s.assets.GetByCode(ctx, asset.Code); err == nil {
			continue
		} else if err != domain.ErrAssetNotFound {
			return err
		}
		if err := s.assets.Save(ctx, asset); err != nil {
			return err
		}
	}

	pairs := [][2]string{{"BTC", "THB"}, {"ETH", "THB"}, {"USDT", "THB"}, {"BTC", "USDT"}}
	existing, err := s.markets.List(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.BaseAssetCode+"/"+m.QuoteAssetCode] = true
	}
	for _, pair := range pairs {
		if have[pair[0]+"/"+pair[1]] {
			continue
		}
		market := &domain.Market{
			MarketID:       fmt.Sprintf("MKT-%d", idgen.GenID()),
			BaseAssetCode:  pair[0],
			QuoteAssetCode: pair[1],
			IsActive:       true,
		}
		if err := s.markets.Save(ctx, market); err != nil {
			return err
		}
	}
	return nil
}
