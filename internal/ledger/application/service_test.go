package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/p2pexchange/internal/ledger/application"
	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/testutil"
)

func newLedgerService(f *testutil.Fixture) *application.LedgerService {
	return application.NewLedgerService(f.Wallets, f.Ledger, f.Txm)
}

func TestCreateTransactionIdempotency(t *testing.T) {
	f := testutil.NewFixture()
	svc := newLedgerService(f)
	ctx := context.Background()

	cmd := application.CreateLedgerTxCommand{
		TxType:          domain.TxTypeOrderLock,
		ReferenceType:   "orders",
		ReferenceID:     "ORD-1",
		IdempotencyKey:  "key-1:order-lock",
		CreatedByUserID: "user-1",
	}

	first, err := svc.CreateTransaction(ctx, cmd)
	require.NoError(t, err)
	require.NotEmpty(t, first.LedgerTxID)
	require.Equal(t, "POSTED", first.Status)

	// 同一幂等键重放必须被拒绝
	_, err = svc.CreateTransaction(ctx, cmd)
	require.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)
	require.Len(t, f.Ledger.Transactions, 1)
}

func TestMoveLockBalance(t *testing.T) {
	f := testutil.NewFixture()
	svc := newLedgerService(f)
	ctx := context.Background()

	walletID := f.SeedWallet("user-1", "BTC", decimal.NewFromInt(2), decimal.Zero)
	ltx, err := svc.CreateTransaction(ctx, application.CreateLedgerTxCommand{
		TxType: domain.TxTypeOrderLock, ReferenceType: "orders", ReferenceID: "ORD-1",
		IdempotencyKey: "k1", CreatedByUserID: "user-1",
	})
	require.NoError(t, err)

	amount := decimal.RequireFromString("1.5")
	err = svc.Move(ctx, application.MoveCommand{
		WalletID:       walletID,
		LedgerTxID:     ltx.LedgerTxID,
		DeltaAvailable: amount.Neg(),
		DeltaLocked:    amount,
		EntryType:      domain.EntryTypeLock,
		Amount:         amount,
	})
	require.NoError(t, err)

	wallet := f.MustWallet("user-1", "BTC")
	require.True(t, wallet.Available.Equal(decimal.RequireFromString("0.5")))
	require.True(t, wallet.Locked.Equal(amount))
	require.EqualValues(t, 1, wallet.Version)

	// 分录带双余额快照
	require.Len(t, f.Ledger.Entries, 1)
	entry := f.Ledger.Entries[0]
	require.Equal(t, domain.EntryTypeLock, entry.EntryType)
	require.True(t, entry.AvailableBefore.Equal(decimal.NewFromInt(2)))
	require.True(t, entry.AvailableAfter.Equal(decimal.RequireFromString("0.5")))
	require.True(t, entry.LockedBefore.IsZero())
	require.True(t, entry.LockedAfter.Equal(amount))
}

func TestMoveInsufficientBalance(t *testing.T) {
	f := testutil.NewFixture()
	svc := newLedgerService(f)
	ctx := context.Background()

	walletID := f.SeedWallet("user-1", "BTC", decimal.NewFromInt(1), decimal.Zero)
	ltx, err := svc.CreateTransaction(ctx, application.CreateLedgerTxCommand{
		TxType: domain.TxTypeOrderLock, ReferenceType: "orders", ReferenceID: "ORD-1",
		IdempotencyKey: "k1", CreatedByUserID: "user-1",
	})
	require.NoError(t, err)

	amount := decimal.NewFromInt(5)
	err = svc.Move(ctx, application.MoveCommand{
		WalletID:       walletID,
		LedgerTxID:     ltx.LedgerTxID,
		DeltaAvailable: amount.Neg(),
		DeltaLocked:    amount,
		EntryType:      domain.EntryTypeLock,
		Amount:         amount,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// 钱包与分录都未被触达
	wallet := f.MustWallet("user-1", "BTC")
	require.True(t, wallet.Available.Equal(decimal.NewFromInt(1)))
	require.True(t, wallet.Locked.IsZero())
	require.EqualValues(t, 0, wallet.Version)
	require.Empty(t, f.Ledger.Entries)
}

func TestMoveRequiresLedgerTx(t *testing.T) {
	f := testutil.NewFixture()
	svc := newLedgerService(f)

	walletID := f.SeedWallet("user-1", "BTC", decimal.NewFromInt(1), decimal.Zero)
	err := svc.Move(context.Background(), application.MoveCommand{
		WalletID:       walletID,
		DeltaAvailable: decimal.NewFromInt(-1),
		DeltaLocked:    decimal.NewFromInt(1),
		EntryType:      domain.EntryTypeLock,
		Amount:         decimal.NewFromInt(1),
	})
	require.Error(t, err)
}

func TestMoveRejectsNonPositiveAmount(t *testing.T) {
	f := testutil.NewFixture()
	svc := newLedgerService(f)

	walletID := f.SeedWallet("user-1", "BTC", decimal.NewFromInt(1), decimal.Zero)
	err := svc.Move(context.Background(), application.MoveCommand{
		WalletID:   walletID,
		LedgerTxID: "LTX-1",
		EntryType:  domain.EntryTypeLock,
		Amount:     decimal.Zero,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestEnsureWallets(t *testing.T) {
	f := testutil.NewFixture()
	svc := newLedgerService(f)
	ctx := context.Background()

	wallets, err := svc.EnsureWallets(ctx, "user-1", []string{"BTC", "THB"})
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	for _, wallet := range wallets {
		require.True(t, wallet.Available.IsZero())
		require.True(t, wallet.Locked.IsZero())
	}

	// 重复补齐不重建，余额保留
	btc := f.MustWallet("user-1", "BTC")
	require.NoError(t, f.Wallets.UpdateBalances(ctx, btc, decimal.NewFromInt(3), decimal.Zero))

	again, err := svc.EnsureWallets(ctx, "user-1", []string{"BTC", "THB"})
	require.NoError(t, err)
	require.Len(t, again, 2)
	require.True(t, f.MustWallet("user-1", "BTC").Available.Equal(decimal.NewFromInt(3)))
}

func TestWalletVersionConflict(t *testing.T) {
	f := testutil.NewFixture()
	ctx := context.Background()

	walletID := f.SeedWallet("user-1", "BTC", decimal.NewFromInt(1), decimal.Zero)
	wallet, err := f.Wallets.Get(ctx, walletID)
	require.NoError(t, err)

	// 第一次写入成功并递增版本
	require.NoError(t, f.Wallets.UpdateBalances(ctx, wallet, decimal.NewFromInt(2), decimal.Zero))

	// 基于旧版本的并发写入被拒绝
	err = f.Wallets.UpdateBalances(ctx, wallet, decimal.NewFromInt(5), decimal.Zero)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}
