package testutil

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
)

// Fixture 打包全部内存仓储，按需取用
type Fixture struct {
	Txm         *FakeTxManager
	Wallets     *FakeWalletRepository
	Ledger      *FakeLedgerRepository
	Orders      *FakeOrderRepository
	Trades      *FakeTradeRepository
	Transfers   *FakeTransferRepository
	Withdrawals *FakeWithdrawalRepository
	Assets      *FakeAssetRepository
	Markets     *FakeMarketRepository
	MarketRead  *FakeMarketReadRepository
	Publisher   *FakePublisher
}

// NewFixture 创建一组空仓储
func NewFixture() *Fixture {
	wallets := NewFakeWalletRepository()
	return &Fixture{
		Txm:         &FakeTxManager{},
		Wallets:     wallets,
		Ledger:      NewFakeLedgerRepository(wallets),
		Orders:      NewFakeOrderRepository(),
		Trades:      NewFakeTradeRepository(),
		Transfers:   NewFakeTransferRepository(),
		Withdrawals: NewFakeWithdrawalRepository(),
		Assets:      NewFakeAssetRepository(),
		Markets:     NewFakeMarketRepository(),
		MarketRead:  NewFakeMarketReadRepository(),
		Publisher:   &FakePublisher{},
	}
}

// SeedCryptoAsset 预置一个启用的 CRYPTO 资产
func (f *Fixture) SeedCryptoAsset(code string) {
	f.Assets.Save(context.Background(), &refdomain.Asset{Code: code, Type: refdomain.AssetTypeCrypto, Precision: 8, IsActive: true})
}

// SeedFiatAsset 预置一个启用的 FIAT 资产
func (f *Fixture) SeedFiatAsset(code string) {
	f.Assets.Save(context.Background(), &refdomain.Asset{Code: code, Type: refdomain.AssetTypeFiat, Precision: 2, IsActive: true})
}

// SeedMarket 预置一个启用的市场
func (f *Fixture) SeedMarket(marketID, baseCode, quoteCode string) {
	f.Markets.Save(context.Background(), &refdomain.Market{MarketID: marketID, BaseAssetCode: baseCode, QuoteAssetCode: quoteCode, IsActive: true})
}

// SeedWallet 预置一个带余额的钱包并返回其 ID
func (f *Fixture) SeedWallet(userID, assetCode string, available, locked decimal.Decimal) string {
	walletID := fmt.Sprintf("WAL-%s-%s", userID, assetCode)
	f.Wallets.Seed(&ledgerdomain.Wallet{
		WalletID:  walletID,
		UserID:    userID,
		AssetCode: assetCode,
		Available: available,
		Locked:    locked,
	})
	return walletID
}

// MustWallet 按 (用户, 资产) 取钱包，不存在时 panic
func (f *Fixture) MustWallet(userID, assetCode string) *ledgerdomain.Wallet {
	wallet, err := f.Wallets.GetByUserAndAsset(context.Background(), userID, assetCode)
	if err != nil {
		panic(err)
	}
	return wallet
}
