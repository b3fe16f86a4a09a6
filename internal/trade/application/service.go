// Package application 成交应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	ledgerapp "github.com/wyfcoding/p2pexchange/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	orderdomain "github.com/wyfcoding/p2pexchange/internal/order/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/trade/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
)

// MarketQueries 市场查询接口，由参考数据应用服务实现
type MarketQueries interface {
	// GetMarket 获取市场（含停用）
	GetMarket(ctx context.Context, marketID string) (*refdomain.Market, error)
}

// TradeService 成交应用服务
// 吃单锁定吃单方资金并扣减挂单剩余量；放行在同一工作单元内完成
// 四腿结算：解锁卖方基础资产、入账买方基础资产、解锁买方计价资产、入账卖方计价资产
type TradeService struct {
	trades    domain.TradeRepository
	orders    orderdomain.OrderRepository
	wallets   ledgerdomain.WalletRepository
	ledger    *ledgerapp.LedgerService
	markets   MarketQueries
	publisher domain.EventPublisher
	txm       ledgerdomain.TxManager
}

// NewTradeService 创建成交应用服务
func NewTradeService(
	trades domain.TradeRepository,
	orders orderdomain.OrderRepository,
	wallets ledgerdomain.WalletRepository,
	ledger *ledgerapp.LedgerService,
	markets MarketQueries,
	publisher domain.EventPublisher,
	txm ledgerdomain.TxManager,
) *TradeService {
	return &TradeService{
		trades:    trades,
		orders:    orders,
		wallets:   wallets,
		ledger:    ledger,
		markets:   markets,
		publisher: publisher,
		txm:       txm,
	}
}

// TakeOrderCommand 吃单命令
// Amount 为零时默认吃下挂单全部剩余量
type TakeOrderCommand struct {
	TakerUserID    string
	OrderID        string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// Take 吃单
// 创建 MATCHED 成交、锁定吃单方对应资产、扣减挂单剩余量，全部在一个工作单元内
func (s *TradeService) Take(ctx context.Context, cmd TakeOrderCommand) (*TradeDTO, error) {
	order, err := s.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !order.IsTakeable() {
		return nil, orderdomain.ErrOrderNotTakeable
	}
	if order.UserID == cmd.TakerUserID {
		return nil, domain.ErrSelfTrade
	}

	amount := cmd.Amount
	if amount.IsZero() {
		amount = order.BaseAmountRemaining
	}
	amount, err = ledgerdomain.NormalizePositive(amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	if amount.GreaterThan(order.BaseAmountRemaining) {
		return nil, orderdomain.ErrAmountExceedsRemaining
	}

	market, err := s.markets.GetMarket(ctx, order.MarketID)
	if err != nil {
		return nil, err
	}

	quoteAmount := amount.Mul(order.Price).Round(ledgerdomain.AmountPrecision)
	idempotencyKey := cmd.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	// SELL 单：吃单者为买方，锁计价资产；BUY 单：吃单者为卖方，锁基础资产
	buyerUserID, sellerUserID := cmd.TakerUserID, order.UserID
	lockAsset, lockAmount := market.QuoteAssetCode, quoteAmount
	if order.Side == orderdomain.OrderSideBuy {
		buyerUserID, sellerUserID = order.UserID, cmd.TakerUserID
		lockAsset, lockAmount = market.BaseAssetCode, amount
	}

	trade := &domain.Trade{
		TradeID:        fmt.Sprintf("TRD-%d", idgen.GenID()),
		OrderID:        order.OrderID,
		MakerUserID:    order.UserID,
		TakerUserID:    cmd.TakerUserID,
		BuyerUserID:    buyerUserID,
		SellerUserID:   sellerUserID,
		Price:          order.Price,
		BaseAmount:     amount,
		QuoteAmount:    quoteAmount,
		Status:         domain.TradeStatusMatched,
		IdempotencyKey: idempotencyKey,
	}

	err = s.txm.WithTx(ctx, func(ctx context.Context) error {
		// 工作单元内重读挂单：两个并发吃单可能都通过外层剩余量检查
		current, err := s.orders.Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if !current.IsTakeable() {
			return orderdomain.ErrOrderNotTakeable
		}
		if amount.GreaterThan(current.BaseAmountRemaining) {
			return orderdomain.ErrAmountExceedsRemaining
		}

		takerWallet, err := s.wallets.GetByUserAndAsset(ctx, cmd.TakerUserID, lockAsset)
		if err != nil {
			return err
		}
		if takerWallet.Available.LessThan(lockAmount) {
			return fmt.Errorf("take %s %s: %w", lockAmount, lockAsset, ledgerdomain.ErrInsufficientBalance)
		}

		if err := s.trades.Create(ctx, trade); err != nil {
			return err
		}

		ltx, err := s.ledger.CreateTransaction(ctx, ledgerapp.CreateLedgerTxCommand{
			TxType:          ledgerdomain.TxTypeTradeLock,
			ReferenceType:   "trades",
			ReferenceID:     trade.TradeID,
			IdempotencyKey:  idempotencyKey + ":trade-lock",
			CreatedByUserID: cmd.TakerUserID,
		})
		if err != nil {
			return err
		}

		if err := s.ledger.Move(ctx, ledgerapp.MoveCommand{
			WalletID:       takerWallet.WalletID,
			LedgerTxID:     ltx.LedgerTxID,
			DeltaAvailable: lockAmount.Neg(),
			DeltaLocked:    lockAmount,
			EntryType:      ledgerdomain.EntryTypeLock,
			Amount:         lockAmount,
		}); err != nil {
			return err
		}

		if err := current.Fill(amount); err != nil {
			return err
		}
		return s.orders.UpdateFill(ctx, current.OrderID, current.BaseAmountRemaining, current.Status)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "trade matched",
		"trade_id", trade.TradeID, "order_id", order.OrderID,
		"buyer", buyerUserID, "seller", sellerUserID,
		"base_amount", amount.String(), "quote_amount", quoteAmount.String())
	return toTradeDTO(trade, market), nil
}

// MarkPaid 买方标记已付款
// 纯状态转换，不搬运任何资金
func (s *TradeService) MarkPaid(ctx context.Context, userID, tradeID, paymentRef string) (*TradeDTO, error) {
	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if err := trade.MarkPaid(userID, paymentRef); err != nil {
		return nil, err
	}
	if err := s.trades.Update(ctx, trade); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "trade marked paid", "trade_id", trade.TradeID, "buyer", userID)
	return s.toDTO(ctx, trade)
}

// Release 卖方放行并结算
// 四腿顺序：解锁卖方基础 -> 入账买方基础 -> 解锁买方计价 -> 入账卖方计价，
// 归属同一条 TRADE_SETTLEMENT 账本事务；结算完成后经 Outbox 发出 trade.settled
func (s *TradeService) Release(ctx context.Context, userID, tradeID string) (*TradeDTO, error) {
	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.SellerUserID != userID {
		return nil, domain.ErrNotSeller
	}
	if trade.Status != domain.TradeStatusPaid {
		return nil, domain.ErrInvalidTradeState
	}

	order, err := s.orders.Get(ctx, trade.OrderID)
	if err != nil {
		return nil, err
	}
	market, err := s.markets.GetMarket(ctx, order.MarketID)
	if err != nil {
		return nil, err
	}

	settlementKey := uuid.NewString()

	err = s.txm.WithTx(ctx, func(txCtx context.Context) error {
		sellerBase, err := s.wallets.GetByUserAndAsset(txCtx, trade.SellerUserID, market.BaseAssetCode)
		if err != nil {
			return err
		}
		buyerBase, err := s.wallets.GetByUserAndAsset(txCtx, trade.BuyerUserID, market.BaseAssetCode)
		if err != nil {
			return err
		}
		buyerQuote, err := s.wallets.GetByUserAndAsset(txCtx, trade.BuyerUserID, market.QuoteAssetCode)
		if err != nil {
			return err
		}
		sellerQuote, err := s.wallets.GetByUserAndAsset(txCtx, trade.SellerUserID, market.QuoteAssetCode)
		if err != nil {
			return err
		}

		if sellerBase.Locked.LessThan(trade.BaseAmount) {
			return fmt.Errorf("seller locked base balance: %w", ledgerdomain.ErrInsufficientBalance)
		}
		if buyerQuote.Locked.LessThan(trade.QuoteAmount) {
			return fmt.Errorf("buyer locked quote balance: %w", ledgerdomain.ErrInsufficientBalance)
		}

		ltx, err := s.ledger.CreateTransaction(txCtx, ledgerapp.CreateLedgerTxCommand{
			TxType:          ledgerdomain.TxTypeTradeSettlement,
			ReferenceType:   "trades",
			ReferenceID:     trade.TradeID,
			IdempotencyKey:  settlementKey + ":trade-settlement",
			CreatedByUserID: userID,
		})
		if err != nil {
			return err
		}

		moves := []ledgerapp.MoveCommand{
			{WalletID: sellerBase.WalletID, LedgerTxID: ltx.LedgerTxID, DeltaLocked: trade.BaseAmount.Neg(), EntryType: ledgerdomain.EntryTypeUnlock, Amount: trade.BaseAmount},
			{WalletID: buyerBase.WalletID, LedgerTxID: ltx.LedgerTxID, DeltaAvailable: trade.BaseAmount, EntryType: ledgerdomain.EntryTypeCredit, Amount: trade.BaseAmount},
			{WalletID: buyerQuote.WalletID, LedgerTxID: ltx.LedgerTxID, DeltaLocked: trade.QuoteAmount.Neg(), EntryType: ledgerdomain.EntryTypeUnlock, Amount: trade.QuoteAmount},
			{WalletID: sellerQuote.WalletID, LedgerTxID: ltx.LedgerTxID, DeltaAvailable: trade.QuoteAmount, EntryType: ledgerdomain.EntryTypeCredit, Amount: trade.QuoteAmount},
		}
		for _, move := range moves {
			if err := s.ledger.Move(txCtx, move); err != nil {
				return err
			}
		}

		if err := trade.Release(userID); err != nil {
			return err
		}
		if err := s.trades.Update(txCtx, trade); err != nil {
			return err
		}

		event := domain.TradeSettledEvent{
			TradeID:      trade.TradeID,
			OrderID:      trade.OrderID,
			BuyerUserID:  trade.BuyerUserID,
			SellerUserID: trade.SellerUserID,
			BaseAmount:   trade.BaseAmount.String(),
			QuoteAmount:  trade.QuoteAmount.String(),
			WalletIDs:    []string{sellerBase.WalletID, buyerBase.WalletID, buyerQuote.WalletID, sellerQuote.WalletID},
			OccurredOn:   time.Now(),
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TradeSettledEventType, trade.TradeID, event)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "trade settled",
		"trade_id", trade.TradeID, "seller", userID,
		"base_amount", trade.BaseAmount.String(), "quote_amount", trade.QuoteAmount.String())
	return toTradeDTO(trade, market), nil
}

// Get 获取成交详情
func (s *TradeService) Get(ctx context.Context, tradeID string) (*TradeDTO, error) {
	trade, err := s.trades.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, trade)
}

// ListByUser 列出用户作为买方或卖方参与的成交
func (s *TradeService) ListByUser(ctx context.Context, userID string, limit int) ([]*TradeDTO, error) {
	trades, err := s.trades.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	markets := make(map[string]*refdomain.Market)
	dtos := make([]*TradeDTO, 0, len(trades))
	for _, trade := range trades {
		order, err := s.orders.Get(ctx, trade.OrderID)
		if err != nil {
			return nil, err
		}
		market, ok := markets[order.MarketID]
		if !ok {
			market, err = s.markets.GetMarket(ctx, order.MarketID)
			if err != nil {
				return nil, err
			}
			markets[order.MarketID] = market
		}
		dtos = append(dtos, toTradeDTO(trade, market))
	}
	return dtos, nil
}

func (s *TradeService) toDTO(ctx context.Context, trade *domain.Trade) (*TradeDTO, error) {
	order, err := s.orders.Get(ctx, trade.OrderID)
	if err != nil {
		return nil, err
	}
	market, err := s.markets.GetMarket(ctx, order.MarketID)
	if err != nil {
		return nil, err
	}
	return toTradeDTO(trade, market), nil
}
