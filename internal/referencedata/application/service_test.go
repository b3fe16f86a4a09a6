package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/p2pexchange/internal/referencedata/application"
	"github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/testutil"
)

func newRefService(f *testutil.Fixture) *application.ReferenceDataService {
	return application.NewReferenceDataService(f.Assets, f.Markets, f.MarketRead)
}

func TestGetActiveMarketReadThrough(t *testing.T) {
	f := testutil.NewFixture()
	svc := newRefService(f)
	ctx := context.Background()

	f.SeedMarket("MKT-BTC-THB", "BTC", "THB")

	market, err := svc.GetActiveMarket(ctx, "MKT-BTC-THB")
	require.NoError(t, err)
	require.Equal(t, "BTC", market.BaseAssetCode)

	// 首次查询回填读模型
	cached, err := f.MarketRead.Get(ctx, "MKT-BTC-THB")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, "THB", cached.QuoteAssetCode)

	// 缓存命中后不再依赖库中行
	require.NoError(t, f.Markets.Save(ctx, &domain.Market{MarketID: "MKT-BTC-THB", BaseAssetCode: "BTC", QuoteAssetCode: "THB", IsActive: false}))
	market, err = svc.GetActiveMarket(ctx, "MKT-BTC-THB")
	require.NoError(t, err)
	require.Equal(t, "MKT-BTC-THB", market.MarketID)
}

func TestGetActiveMarketSkipsInactiveCacheEntry(t *testing.T) {
	f := testutil.NewFixture()
	svc := newRefService(f)
	ctx := context.Background()

	// 读模型里是停用副本，库里已重新启用
	require.NoError(t, f.MarketRead.Save(ctx, &domain.Market{MarketID: "MKT-ETH-THB", BaseAssetCode: "ETH", QuoteAssetCode: "THB", IsActive: false}))
	f.SeedMarket("MKT-ETH-THB", "ETH", "THB")

	market, err := svc.GetActiveMarket(ctx, "MKT-ETH-THB")
	require.NoError(t, err)
	require.True(t, market.IsActive)
}

func TestGetActiveMarketMissing(t *testing.T) {
	f := testutil.NewFixture()
	svc := newRefService(f)

	_, err := svc.GetActiveMarket(context.Background(), "MKT-MISSING")
	require.ErrorIs(t, err, domain.ErrMarketNotFound)
}

func TestGetMarketIncludesInactive(t *testing.T) {
	f := testutil.NewFixture()
	svc := newRefService(f)
	ctx := context.Background()

	// 停用市场仍可解析，取消挂单要用
	require.NoError(t, f.Markets.Save(ctx, &domain.Market{MarketID: "MKT-BTC-USDT", BaseAssetCode: "BTC", QuoteAssetCode: "USDT", IsActive: false}))

	market, err := svc.GetMarket(ctx, "MKT-BTC-USDT")
	require.NoError(t, err)
	require.False(t, market.IsActive)

	cached, err := f.MarketRead.Get(ctx, "MKT-BTC-USDT")
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestEnsureDefaultsIdempotent(t *testing.T) {
	f := testutil.NewFixture()
	svc := newRefService(f)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaults(ctx))
	require.NoError(t, svc.EnsureDefaults(ctx))

	assets, err := svc.ListAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 4)

	markets, err := svc.ListMarkets(ctx)
	require.NoError(t, err)
	require.Len(t, markets, 4)
}
