package application_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	ledgerapp "github.com/wyfcoding/p2pexchange/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/testutil"
	"github.com/wyfcoding/p2pexchange/internal/transfer/application"
	"github.com/wyfcoding/p2pexchange/internal/transfer/domain"
)

func newTransferService(f *testutil.Fixture) *application.TransferService {
	ledger := ledgerapp.NewLedgerService(f.Wallets, f.Ledger, f.Txm)
	return application.NewTransferService(f.Transfers, f.Wallets, ledger, f.Assets, f.Publisher, f.Txm)
}

func TestCreateTransferMovesAvailable(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("USDT")
	svc := newTransferService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "USDT", decimal.NewFromInt(100), decimal.Zero)
	f.SeedWallet("bob", "USDT", decimal.NewFromInt(5), decimal.Zero)

	transfer, err := svc.Create(ctx, application.CreateTransferCommand{
		FromUserID: "alice",
		ToUserID:   "bob",
		AssetCode:  "usdt",
		Amount:     decimal.NewFromInt(30),
		Note:       "rent",
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.TransferStatusCompleted), transfer.Status)
	require.Equal(t, "USDT", transfer.AssetCode)
	require.NotZero(t, transfer.CompletedAt)

	require.True(t, f.MustWallet("alice", "USDT").Available.Equal(decimal.NewFromInt(70)))
	require.True(t, f.MustWallet("bob", "USDT").Available.Equal(decimal.NewFromInt(35)))

	// DEBIT + CREDIT 归属同一账本事务
	require.Len(t, f.Ledger.Entries, 2)
	require.Equal(t, ledgerdomain.EntryTypeDebit, f.Ledger.Entries[0].EntryType)
	require.Equal(t, ledgerdomain.EntryTypeCredit, f.Ledger.Entries[1].EntryType)
	require.Equal(t, f.Ledger.Entries[0].LedgerTxID, f.Ledger.Entries[1].LedgerTxID)
	require.Len(t, f.Ledger.Transactions, 1)
	require.Equal(t, ledgerdomain.TxTypeInternalTransfer, f.Ledger.Transactions[0].TxType)

	// 完成事件已发布
	events := f.Publisher.EventsByTopic(domain.TransferCompletedEventType)
	require.Len(t, events, 1)
}

func TestCreateTransferToSelfRejected(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("USDT")
	svc := newTransferService(f)

	_, err := svc.Create(context.Background(), application.CreateTransferCommand{
		FromUserID: "alice",
		ToUserID:   "alice",
		AssetCode:  "USDT",
		Amount:     decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, domain.ErrSelfTransfer)

	// 拒绝发生在开账本事务之前
	require.Empty(t, f.Ledger.Transactions)
	require.Empty(t, f.Ledger.Entries)
}

func TestCreateTransferInsufficientBalance(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("USDT")
	svc := newTransferService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "USDT", decimal.NewFromInt(10), decimal.Zero)
	f.SeedWallet("bob", "USDT", decimal.Zero, decimal.Zero)

	_, err := svc.Create(ctx, application.CreateTransferCommand{
		FromUserID: "alice",
		ToUserID:   "bob",
		AssetCode:  "USDT",
		Amount:     decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientBalance)

	// 双方余额都未被触达
	require.True(t, f.MustWallet("alice", "USDT").Available.Equal(decimal.NewFromInt(10)))
	require.True(t, f.MustWallet("bob", "USDT").Available.IsZero())
	require.Empty(t, f.Ledger.Entries)
}

func TestCreateTransferUnknownAsset(t *testing.T) {
	f := testutil.NewFixture()
	svc := newTransferService(f)

	_, err := svc.Create(context.Background(), application.CreateTransferCommand{
		FromUserID: "alice",
		ToUserID:   "bob",
		AssetCode:  "DOGE",
		Amount:     decimal.NewFromInt(1),
	})
	require.Error(t, err)
}

func TestCreateTransferDuplicateIdempotencyKey(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedCryptoAsset("USDT")
	svc := newTransferService(f)
	ctx := context.Background()

	f.SeedWallet("alice", "USDT", decimal.NewFromInt(100), decimal.Zero)
	f.SeedWallet("bob", "USDT", decimal.Zero, decimal.Zero)

	cmd := application.CreateTransferCommand{
		FromUserID:     "alice",
		ToUserID:       "bob",
		AssetCode:      "USDT",
		Amount:         decimal.NewFromInt(30),
		IdempotencyKey: "transfer-key-1",
	}
	_, err := svc.Create(ctx, cmd)
	require.NoError(t, err)

	_, err = svc.Create(ctx, cmd)
	require.ErrorIs(t, err, ledgerdomain.ErrDuplicateIdempotencyKey)

	// 重放不得再次转账
	require.True(t, f.MustWallet("alice", "USDT").Available.Equal(decimal.NewFromInt(70)))
	require.True(t, f.MustWallet("bob", "USDT").Available.Equal(decimal.NewFromInt(30)))
}
