package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	ledgerapp "github.com/wyfcoding/p2pexchange/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/testutil"
	"github.com/wyfcoding/p2pexchange/internal/withdrawal/application"
	"github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"
)

func newWithdrawalService(f *testutil.Fixture) *application.WithdrawalService {
	ledger := ledgerapp.NewLedgerService(f.Wallets, f.Ledger, f.Txm)
	return application.NewWithdrawalService(f.Withdrawals, f.Wallets, ledger, f.Assets, f.Publisher, f.Txm)
}

func TestCreateWithdrawalLocksAmountPlusFee(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("BTC")
	svc := newWithdrawalService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "BTC", decimal.NewFromInt(1), decimal.Zero)

	withdrawal, err := svc.Create(ctx, application.CreateWithdrawalCommand{
		UserID:    "alice",
		AssetCode: "btc",
		Amount:    decimal.RequireFromString("0.5"),
		Fee:       decimal.RequireFromString("0.0005"),
		Network:   "bitcoin",
		Address:   "bc1qexample",
		Provider:  "fireblocks",
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.WithdrawalStatusPending), withdrawal.Status)
	require.Equal(t, "BTC", withdrawal.AssetCode)
	require.Equal(t, "0.5", withdrawal.NetAmount)

	// 冻结 金额+手续费
	wallet := f.MustWallet("alice", "BTC")
	require.True(t, wallet.Available.Equal(decimal.RequireFromString("0.4995")))
	require.True(t, wallet.Locked.Equal(decimal.RequireFromString("0.5005")))

	require.Len(t, f.Ledger.Transactions, 1)
	require.Equal(t, ledgerdomain.TxTypeWithdrawalLock, f.Ledger.Transactions[0].TxType)
	require.Len(t, f.Ledger.Entries, 1)
	require.Equal(t, ledgerdomain.EntryTypeLock, f.Ledger.Entries[0].EntryType)

	events := f.Publisher.EventsByTopic(domain.WithdrawalRequestedEventType)
	require.Len(t, events, 1)
}

func TestCreateWithdrawalFiatRejected(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedFiatAsset("THB")
	svc := newWithdrawalService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "THB", decimal.NewFromInt(1000), decimal.Zero)

	_, err := svc.Create(ctx, application.CreateWithdrawalCommand{
		UserID:    "alice",
		AssetCode: "THB",
		Amount:    decimal.NewFromInt(100),
		Network:   "promptpay",
		Address:   "0812345678",
	})
	require.ErrorIs(t, err, domain.ErrUnsupportedAsset)

	// 拒绝发生在任何资金变动之前
	wallet := f.MustWallet("alice", "THB")
	require.True(t, wallet.Available.Equal(decimal.NewFromInt(1000)))
	require.True(t, wallet.Locked.IsZero())
	require.Empty(t, f.Ledger.Transactions)
	require.Empty(t, f.Ledger.Entries)
}

func TestCreateWithdrawalInsufficientBalance(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("BTC")
	svc := newWithdrawalService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "BTC", decimal.RequireFromString("0.1"), decimal.Zero)

	_, err := svc.Create(ctx, application.CreateWithdrawalCommand{
		UserID:    "alice",
		AssetCode: "BTC",
		Amount:    decimal.RequireFromString("0.1"),
		Fee:       decimal.RequireFromString("0.0005"),
		Network:   "bitcoin",
		Address:   "bc1qexample",
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientBalance)

	wallet := f.MustWallet("alice", "BTC")
	require.True(t, wallet.Available.Equal(decimal.RequireFromString("0.1")))
	require.True(t, wallet.Locked.IsZero())
}

func TestCreateWithdrawalDuplicateIdempotencyKey(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("BTC")
	svc := newWithdrawalService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "BTC", decimal.NewFromInt(2), decimal.Zero)

	cmd := application.CreateWithdrawalCommand{
		UserID:         "alice",
		AssetCode:      "BTC",
		Amount:         decimal.NewFromInt(1),
		Network:        "bitcoin",
		Address:        "bc1qexample",
		IdempotencyKey: "withdraw-key-1",
	}
	_, err := svc.Create(ctx, cmd)
	require.NoError(t, err)

	_, err = svc.Create(ctx, cmd)
	require.ErrorIs(t, err, ledgerdomain.ErrDuplicateIdempotencyKey)

	// 重放不得二次冻结
	wallet := f.MustWallet("alice", "BTC")
	require.True(t, wallet.Locked.Equal(decimal.NewFromInt(1)))
}
