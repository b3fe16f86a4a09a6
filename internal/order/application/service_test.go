package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	ledgerapp "github.com/wyfcoding/p2pexchange/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/order/application"
	"github.com/wyfcoding/p2pexchange/internal/order/domain"
	refapp "github.com/wyfcoding/p2pexchange/internal/referencedata/application"
	"github.com/wyfcoding/p2pexchange/internal/testutil"
)

func newOrderService(f *testutil.Fixture) *application.OrderService {
	ledger := ledgerapp.NewLedgerService(f.Wallets, f.Ledger, f.Txm)
	markets := refapp.NewReferenceDataService(f.Assets, f.Markets, f.MarketRead)
	return application.NewOrderService(f.Orders, f.Wallets, ledger, markets, f.Txm)
}

func seedBTCTHB(f *testutil.Fixture) {
	f.SeedCryptoAsset("BTC")
	f.SeedFiatAsset("THB")
	f.SeedMarket("MKT-BTC-THB", "BTC", "THB")
}

func TestCreateSellOrderLocksBase(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	order, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusOpen), order.Status)
	require.Equal(t, "BTC", order.BaseAsset)
	require.Equal(t, "THB", order.QuoteAsset)

	wallet := f.MustWallet("seller", "BTC")
	require.True(t, wallet.Available.Equal(decimal.NewFromInt(1)))
	require.True(t, wallet.Locked.Equal(decimal.NewFromInt(1)))

	require.Len(t, f.Ledger.Transactions, 1)
	require.Equal(t, ledgerdomain.TxTypeOrderLock, f.Ledger.Transactions[0].TxType)
	require.Equal(t, order.OrderID, f.Ledger.Transactions[0].ReferenceID)
}

func TestCreateBuyOrderLocksQuote(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("buyer", "THB", decimal.NewFromInt(200000), decimal.Zero)

	_, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "buyer",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideBuy,
		Price:    decimal.NewFromInt(100000),
		Amount:   decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)

	// 买单托管 1.5 * 100000 的计价资产
	wallet := f.MustWallet("buyer", "THB")
	require.True(t, wallet.Available.Equal(decimal.NewFromInt(50000)))
	require.True(t, wallet.Locked.Equal(decimal.NewFromInt(150000)))
}

func TestCreateOrderInsufficientBalance(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)

	f.SeedWallet("seller", "BTC", decimal.RequireFromString("0.5"), decimal.Zero)

	_, err := svc.Create(context.Background(), application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientBalance)

	// 托管失败不得留下任何资金痕迹
	wallet := f.MustWallet("seller", "BTC")
	require.True(t, wallet.Available.Equal(decimal.RequireFromString("0.5")))
	require.True(t, wallet.Locked.IsZero())
	require.Empty(t, f.Ledger.Entries)
}

func TestCreateOrderDuplicateIdempotencyKey(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(5), decimal.Zero)

	cmd := application.CreateOrderCommand{
		UserID:         "seller",
		MarketID:       "MKT-BTC-THB",
		Side:           domain.OrderSideSell,
		Price:          decimal.NewFromInt(1000000),
		Amount:         decimal.NewFromInt(1),
		IdempotencyKey: "client-key-1",
	}
	_, err := svc.Create(ctx, cmd)
	require.NoError(t, err)

	// 同一幂等键重放被拒绝，且不再次锁定
	_, err = svc.Create(ctx, cmd)
	require.ErrorIs(t, err, ledgerdomain.ErrDuplicateIdempotencyKey)

	wallet := f.MustWallet("seller", "BTC")
	require.True(t, wallet.Locked.Equal(decimal.NewFromInt(1)))
}

func TestCancelOrderRoundTrip(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	order, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, "seller", order.OrderID)
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusCancelled), cancelled.Status)

	// 锁定-解锁往返后余额零漂移
	wallet := f.MustWallet("seller", "BTC")
	require.True(t, wallet.Available.Equal(decimal.NewFromInt(2)))
	require.True(t, wallet.Locked.IsZero())

	// 一条 LOCK 一条 UNLOCK
	require.Len(t, f.Ledger.Entries, 2)
	require.Equal(t, ledgerdomain.EntryTypeLock, f.Ledger.Entries[0].EntryType)
	require.Equal(t, ledgerdomain.EntryTypeUnlock, f.Ledger.Entries[1].EntryType)
}

func TestCancelOrderForbidden(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	order, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "someone-else", order.OrderID)
	require.ErrorIs(t, err, domain.ErrNotOrderOwner)
}

func TestCancelOrderInvalidState(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	order, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	require.NoError(t, f.Orders.UpdateFill(ctx, order.OrderID, decimal.Zero, domain.OrderStatusFilled))

	_, err = svc.Cancel(ctx, "seller", order.OrderID)
	require.ErrorIs(t, err, domain.ErrOrderNotCancellable)
}

func TestCreateOrderWarmsMarketCache(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	_, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	// 市场解析经读模型回填
	cached, err := f.MarketRead.Get(ctx, "MKT-BTC-THB")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, "BTC", cached.BaseAssetCode)
}

func TestCancelAfterConcurrentFillUnlocksRemaining(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	order, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	// 取消提交前 0.6 被并发吃掉，只能解锁剩余 0.4
	f.Txm.BeforeFn = func(hookCtx context.Context) {
		require.NoError(t, f.Orders.UpdateFill(hookCtx, order.OrderID, decimal.RequireFromString("0.4"), domain.OrderStatusPartiallyFilled))
	}

	_, err = svc.Cancel(ctx, "seller", order.OrderID)
	require.NoError(t, err)

	wallet := f.MustWallet("seller", "BTC")
	require.True(t, wallet.Available.Equal(decimal.RequireFromString("1.4")))
	require.True(t, wallet.Locked.Equal(decimal.RequireFromString("0.6")))
}

func TestCancelAfterConcurrentCancelRejected(t *testing.T) {
	f := testutil.NewFixture()
	seedBTCTHB(f)
	svc := newOrderService(f)
	ctx := context.Background()

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	order, err := svc.Create(ctx, application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-BTC-THB",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	f.Txm.BeforeFn = func(hookCtx context.Context) {
		require.NoError(t, f.Orders.UpdateStatus(hookCtx, order.OrderID, domain.OrderStatusCancelled))
	}

	_, err = svc.Cancel(ctx, "seller", order.OrderID)
	require.ErrorIs(t, err, domain.ErrOrderNotCancellable)

	// 不得二次解锁
	wallet := f.MustWallet("seller", "BTC")
	require.True(t, wallet.Locked.Equal(decimal.NewFromInt(1)))
	require.Len(t, f.Ledger.Entries, 1)
}

func TestCreateOrderInactiveMarket(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("BTC")
	f.SeedFiatAsset("THB")
	svc := newOrderService(f)

	f.SeedWallet("seller", "BTC", decimal.NewFromInt(2), decimal.Zero)

	_, err := svc.Create(context.Background(), application.CreateOrderCommand{
		UserID:   "seller",
		MarketID: "MKT-MISSING",
		Side:     domain.OrderSideSell,
		Price:    decimal.NewFromInt(1000000),
		Amount:   decimal.NewFromInt(1),
	})
	require.Error(t, err)
}
