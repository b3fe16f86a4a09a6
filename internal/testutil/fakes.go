// Package testutil 测试用的内存仓储实现
// 与 mysql 实现保持相同的错误语义：幂等键冲突、乐观锁冲突、未找到
package testutil

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	orderdomain "github.com/wyfcoding/p2pexchange/internal/order/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	tradedomain "github.com/wyfcoding/p2pexchange/internal/trade/domain"
	transferdomain "github.com/wyfcoding/p2pexchange/internal/transfer/domain"
	withdrawaldomain "github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"
)

// FakeTxManager 直通事务管理器
// 内存仓储没有可回滚的事务，原子性测试依赖服务层"先校验后变更"的顺序
// BeforeFn 在进入工作单元前执行一次后即清空，用于模拟并发写入
type FakeTxManager struct {
	BeforeFn func(ctx context.Context)
}

func (m *FakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.BeforeFn != nil {
		hook := m.BeforeFn
		m.BeforeFn = nil
		hook(ctx)
	}
	return fn(ctx)
}

// FakeWalletRepository 内存钱包仓储，带 CAS 版本检查
type FakeWalletRepository struct {
	mu      sync.Mutex
	wallets map[string]*ledgerdomain.Wallet
}

func NewFakeWalletRepository() *FakeWalletRepository {
	return &FakeWalletRepository{wallets: make(map[string]*ledgerdomain.Wallet)}
}

// Seed 预置钱包
func (r *FakeWalletRepository) Seed(wallet *ledgerdomain.Wallet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *wallet
	r.wallets[wallet.WalletID] = &copied
}

func (r *FakeWalletRepository) Create(ctx context.Context, wallet *ledgerdomain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *wallet
	r.wallets[wallet.WalletID] = &copied
	return nil
}

func (r *FakeWalletRepository) Get(ctx context.Context, walletID string) (*ledgerdomain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.wallets[walletID]
	if !ok {
		return nil, ledgerdomain.ErrWalletNotFound
	}
	copied := *wallet
	return &copied, nil
}

func (r *FakeWalletRepository) GetByUserAndAsset(ctx context.Context, userID, assetCode string) (*ledgerdomain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, wallet := range r.wallets {
		if wallet.UserID == userID && wallet.AssetCode == assetCode {
			copied := *wallet
			return &copied, nil
		}
	}
	return nil, ledgerdomain.ErrWalletNotFound
}

func (r *FakeWalletRepository) ListByUser(ctx context.Context, userID string) ([]*ledgerdomain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var wallets []*ledgerdomain.Wallet
	for _, wallet := range r.wallets {
		if wallet.UserID == userID {
			copied := *wallet
			wallets = append(wallets, &copied)
		}
	}
	return wallets, nil
}

func (r *FakeWalletRepository) UpdateBalances(ctx context.Context, wallet *ledgerdomain.Wallet, available, locked decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.wallets[wallet.WalletID]
	if !ok {
		return ledgerdomain.ErrWalletNotFound
	}
	if stored.Version != wallet.Version {
		return ledgerdomain.ErrVersionConflict
	}
	stored.Available = available
	stored.Locked = locked
	stored.Version++
	return nil
}

// FakeLedgerRepository 内存账本仓储
// 幂等键唯一性与 mysql 的唯一索引语义一致
type FakeLedgerRepository struct {
	mu           sync.Mutex
	Transactions []*ledgerdomain.LedgerTransaction
	Entries      []*ledgerdomain.LedgerEntry
	keys         map[string]struct{}
	wallets      *FakeWalletRepository
}

func NewFakeLedgerRepository(wallets *FakeWalletRepository) *FakeLedgerRepository {
	return &FakeLedgerRepository{
		keys:    make(map[string]struct{}),
		wallets: wallets,
	}
}

func (r *FakeLedgerRepository) CreateTransaction(ctx context.Context, tx *ledgerdomain.LedgerTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[tx.IdempotencyKey]; exists {
		return ledgerdomain.ErrDuplicateIdempotencyKey
	}
	r.keys[tx.IdempotencyKey] = struct{}{}
	r.Transactions = append(r.Transactions, tx)
	return nil
}

func (r *FakeLedgerRepository) AppendEntry(ctx context.Context, entry *ledgerdomain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, entry)
	return nil
}

func (r *FakeLedgerRepository) ListEntriesByWallet(ctx context.Context, walletID string) ([]*ledgerdomain.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []*ledgerdomain.LedgerEntry
	for _, entry := range r.Entries {
		if entry.WalletID == walletID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *FakeLedgerRepository) ListEntriesByUser(ctx context.Context, userID string, limit int) ([]*ledgerdomain.EntryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txByID := make(map[string]*ledgerdomain.LedgerTransaction, len(r.Transactions))
	for _, tx := range r.Transactions {
		txByID[tx.LedgerTxID] = tx
	}

	var records []*ledgerdomain.EntryRecord
	for i := len(r.Entries) - 1; i >= 0; i-- {
		entry := r.Entries[i]
		wallet, err := r.wallets.Get(ctx, entry.WalletID)
		if err != nil || wallet.UserID != userID {
			continue
		}
		record := &ledgerdomain.EntryRecord{
			EntryID:         entry.ID,
			CreatedAt:       entry.CreatedAt,
			EntryType:       entry.EntryType,
			Amount:          entry.Amount,
			AvailableBefore: entry.AvailableBefore,
			AvailableAfter:  entry.AvailableAfter,
			LockedBefore:    entry.LockedBefore,
			LockedAfter:     entry.LockedAfter,
			AssetCode:       wallet.AssetCode,
			WalletID:        entry.WalletID,
		}
		if tx, ok := txByID[entry.LedgerTxID]; ok {
			record.TxType = tx.TxType
			record.ReferenceType = tx.ReferenceType
			record.ReferenceID = tx.ReferenceID
		}
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// FakeOrderRepository 内存挂单仓储
type FakeOrderRepository struct {
	mu     sync.Mutex
	orders map[string]*orderdomain.Order
	keys   map[string]struct{}
}

func NewFakeOrderRepository() *FakeOrderRepository {
	return &FakeOrderRepository{
		orders: make(map[string]*orderdomain.Order),
		keys:   make(map[string]struct{}),
	}
}

func (r *FakeOrderRepository) Create(ctx context.Context, order *orderdomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[order.IdempotencyKey]; exists {
		return ledgerdomain.ErrDuplicateIdempotencyKey
	}
	r.keys[order.IdempotencyKey] = struct{}{}
	copied := *order
	r.orders[order.OrderID] = &copied
	return nil
}

func (r *FakeOrderRepository) Get(ctx context.Context, orderID string) (*orderdomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, orderdomain.ErrOrderNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *FakeOrderRepository) ListOpen(ctx context.Context, marketID string, limit int) ([]*orderdomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*orderdomain.Order
	for _, order := range r.orders {
		if order.Status != orderdomain.OrderStatusOpen && order.Status != orderdomain.OrderStatusPartiallyFilled {
			continue
		}
		if marketID != "" && order.MarketID != marketID {
			continue
		}
		copied := *order
		orders = append(orders, &copied)
	}
	return orders, nil
}

func (r *FakeOrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*orderdomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*orderdomain.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (r *FakeOrderRepository) UpdateStatus(ctx context.Context, orderID string, status orderdomain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (r *FakeOrderRepository) UpdateFill(ctx context.Context, orderID string, remaining decimal.Decimal, status orderdomain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return orderdomain.ErrOrderNotFound
	}
	order.BaseAmountRemaining = remaining
	order.Status = status
	return nil
}

// FakeTradeRepository 内存成交仓储
type FakeTradeRepository struct {
	mu     sync.Mutex
	trades map[string]*tradedomain.Trade
	keys   map[string]struct{}
}

func NewFakeTradeRepository() *FakeTradeRepository {
	return &FakeTradeRepository{
		trades: make(map[string]*tradedomain.Trade),
		keys:   make(map[string]struct{}),
	}
}

func (r *FakeTradeRepository) Create(ctx context.Context, trade *tradedomain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[trade.IdempotencyKey]; exists {
		return ledgerdomain.ErrDuplicateIdempotencyKey
	}
	r.keys[trade.IdempotencyKey] = struct{}{}
	copied := *trade
	r.trades[trade.TradeID] = &copied
	return nil
}

func (r *FakeTradeRepository) Get(ctx context.Context, tradeID string) (*tradedomain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trade, ok := r.trades[tradeID]
	if !ok {
		return nil, tradedomain.ErrTradeNotFound
	}
	copied := *trade
	return &copied, nil
}

func (r *FakeTradeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*tradedomain.Trade, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var trades []*tradedomain.Trade
	for _, trade := range r.trades {
		if trade.BuyerUserID == userID || trade.SellerUserID == userID {
			copied := *trade
			trades = append(trades, &copied)
		}
	}
	return trades, nil
}

func (r *FakeTradeRepository) Update(ctx context.Context, trade *tradedomain.Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.trades[trade.TradeID]
	if !ok {
		return tradedomain.ErrTradeNotFound
	}
	stored.Status = trade.Status
	stored.PaymentRef = trade.PaymentRef
	stored.PaidAt = trade.PaidAt
	stored.ReleasedAt = trade.ReleasedAt
	stored.CompletedAt = trade.CompletedAt
	return nil
}

// FakeTransferRepository 内存转账仓储
type FakeTransferRepository struct {
	mu        sync.Mutex
	transfers map[string]*transferdomain.InternalTransfer
	keys      map[string]struct{}
}

func NewFakeTransferRepository() *FakeTransferRepository {
	return &FakeTransferRepository{
		transfers: make(map[string]*transferdomain.InternalTransfer),
		keys:      make(map[string]struct{}),
	}
}

func (r *FakeTransferRepository) Create(ctx context.Context, transfer *transferdomain.InternalTransfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[transfer.IdempotencyKey]; exists {
		return ledgerdomain.ErrDuplicateIdempotencyKey
	}
	r.keys[transfer.IdempotencyKey] = struct{}{}
	copied := *transfer
	r.transfers[transfer.TransferID] = &copied
	return nil
}

func (r *FakeTransferRepository) Get(ctx context.Context, transferID string) (*transferdomain.InternalTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	transfer, ok := r.transfers[transferID]
	if !ok {
		return nil, transferdomain.ErrTransferNotFound
	}
	copied := *transfer
	return &copied, nil
}

func (r *FakeTransferRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*transferdomain.InternalTransfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var transfers []*transferdomain.InternalTransfer
	for _, transfer := range r.transfers {
		if transfer.FromUserID == userID || transfer.ToUserID == userID {
			copied := *transfer
			transfers = append(transfers, &copied)
		}
	}
	return transfers, nil
}

// FakeWithdrawalRepository 内存提现仓储
type FakeWithdrawalRepository struct {
	mu          sync.Mutex
	withdrawals map[string]*withdrawaldomain.ExternalWithdrawal
	keys        map[string]struct{}
}

func NewFakeWithdrawalRepository() *FakeWithdrawalRepository {
	return &FakeWithdrawalRepository{
		withdrawals: make(map[string]*withdrawaldomain.ExternalWithdrawal),
		keys:        make(map[string]struct{}),
	}
}

func (r *FakeWithdrawalRepository) Create(ctx context.Context, withdrawal *withdrawaldomain.ExternalWithdrawal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keys[withdrawal.IdempotencyKey]; exists {
		return ledgerdomain.ErrDuplicateIdempotencyKey
	}
	r.keys[withdrawal.IdempotencyKey] = struct{}{}
	copied := *withdrawal
	r.withdrawals[withdrawal.WithdrawalID] = &copied
	return nil
}

func (r *FakeWithdrawalRepository) Get(ctx context.Context, withdrawalID string) (*withdrawaldomain.ExternalWithdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	withdrawal, ok := r.withdrawals[withdrawalID]
	if !ok {
		return nil, withdrawaldomain.ErrWithdrawalNotFound
	}
	copied := *withdrawal
	return &copied, nil
}

func (r *FakeWithdrawalRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*withdrawaldomain.ExternalWithdrawal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var withdrawals []*withdrawaldomain.ExternalWithdrawal
	for _, withdrawal := range r.withdrawals {
		if withdrawal.UserID == userID {
			copied := *withdrawal
			withdrawals = append(withdrawals, &copied)
		}
	}
	return withdrawals, nil
}

// FakeAssetRepository 内存资产仓储
type FakeAssetRepository struct {
	mu     sync.Mutex
	assets map[string]*refdomain.Asset
}

func NewFakeAssetRepository() *FakeAssetRepository {
	return &FakeAssetRepository{assets: make(map[string]*refdomain.Asset)}
}

func (r *FakeAssetRepository) Save(ctx context.Context, asset *refdomain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *asset
	r.assets[asset.Code] = &copied
	return nil
}

func (r *FakeAssetRepository) GetByCode(ctx context.Context, code string) (*refdomain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[code]
	if !ok || !asset.IsActive {
		return nil, refdomain.ErrAssetNotFound
	}
	copied := *asset
	return &copied, nil
}

func (r *FakeAssetRepository) List(ctx context.Context) ([]*refdomain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var assets []*refdomain.Asset
	for _, asset := range r.assets {
		copied := *asset
		assets = append(assets, &copied)
	}
	return assets, nil
}

// FakeMarketRepository 内存市场仓储
type FakeMarketRepository struct {
	mu      sync.Mutex
	markets map[string]*refdomain.Market
}

func NewFakeMarketRepository() *FakeMarketRepository {
	return &FakeMarketRepository{markets: make(map[string]*refdomain.Market)}
}

func (r *FakeMarketRepository) Save(ctx context.Context, market *refdomain.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *market
	r.markets[market.MarketID] = &copied
	return nil
}

func (r *FakeMarketRepository) Get(ctx context.Context, marketID string) (*refdomain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	market, ok := r.markets[marketID]
	if !ok {
		return nil, refdomain.ErrMarketNotFound
	}
	copied := *market
	return &copied, nil
}

func (r *FakeMarketRepository) GetActive(ctx context.Context, marketID string) (*refdomain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	market, ok := r.markets[marketID]
	if !ok || !market.IsActive {
		return nil, refdomain.ErrMarketNotFound
	}
	copied := *market
	return &copied, nil
}

func (r *FakeMarketRepository) List(ctx context.Context) ([]*refdomain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var markets []*refdomain.Market
	for _, market := range r.markets {
		copied := *market
		markets = append(markets, &copied)
	}
	return markets, nil
}

// FakeMarketReadRepository 内存市场读模型仓储
// 未命中返回 (nil, nil)，与 redis 实现的语义一致
type FakeMarketReadRepository struct {
	mu      sync.Mutex
	markets map[string]*refdomain.Market
}

func NewFakeMarketReadRepository() *FakeMarketReadRepository {
	return &FakeMarketReadRepository{markets: make(map[string]*refdomain.Market)}
}

func (r *FakeMarketReadRepository) Save(ctx context.Context, market *refdomain.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *market
	r.markets[market.MarketID] = &copied
	return nil
}

func (r *FakeMarketReadRepository) Get(ctx context.Context, marketID string) (*refdomain.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	market, ok := r.markets[marketID]
	if !ok {
		return nil, nil
	}
	copied := *market
	return &copied, nil
}

// PublishedEvent 一次事件发布记录
type PublishedEvent struct {
	Topic string
	Key   string
	Event any
}

// FakePublisher 记录型事件发布器
// 同时满足各领域的 EventPublisher 接口与 pkg 的 messagequeue.EventPublisher
type FakePublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

func (p *FakePublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *FakePublisher) PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error {
	return p.Publish(ctx, topic, key, event)
}

// EventsByTopic 按主题过滤已发布事件
func (p *FakePublisher) EventsByTopic(topic string) []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var events []PublishedEvent
	for _, event := range p.Events {
		if event.Topic == topic {
			events = append(events, event)
		}
	}
	return events
}
