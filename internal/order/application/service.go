// Package application 挂单应用服务
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
	"github.com/wyfcoding/p2pexchange/internal/order/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/pkg/idgen"
)

// MarketQueries 市场查询接口，由参考数据应用服务实现
// 经由它解析市场可走缓存读模型，而不是每次直查库
type MarketQueries interface {
	// GetActiveMarket 获取启用市场
	GetActiveMarket(ctx context.Context, marketID string) (*refdomain.Market, error)
	// GetMarket 获取市场（含停用）
	GetMarket(ctx context.Context, marketID string) (*refdomain.Market, error)
}

// OrderService 挂单应用服务
// 创建与取消都在单个工作单元内完成：写挂单行、开账本事务、搬运托管资金
type OrderService struct {
	orders  domain.OrderRepository
	wallets ledgerdomain.WalletRepository
	ledger  *ledgerapp.LedgerService
	markets MarketQueries
	txm     ledgerdomain.TxManager
}

// NewOrderService 创建挂单应用服务
func NewOrderService(
	orders domain.OrderRepository,
	wallets ledgerdomain.WalletRepository,
	ledger *ledgerapp.LedgerService,
	markets MarketQueries,
	txm ledgerdomain.TxManager,
) *OrderService {
	return &OrderService{
		orders:  orders,
		wallets: wallets,
		ledger:  ledger,
		markets: markets,
		txm:     txm,
	}
}

// CreateOrderCommand 创建挂单命令
type CreateOrderCommand struct {
	UserID         string
	MarketID       string
	Side           domain.OrderSide
	Price          decimal.Decimal
	Amount         decimal.Decimal
	MinQuoteAmount decimal.Decimal
	MaxQuoteAmount *decimal.Decimal
	ExpiresAt      *time.Time
	IdempotencyKey string
}

// Create 创建挂单并锁定托管资金
// SELL 锁基础资产，BUY 锁 数量*单价 的计价资产；余额不足返回 ErrInsufficientBalance
func (s *OrderService) Create(ctx context.Context, cmd CreateOrderCommand) (*OrderDTO, error) {
	if cmd.Side != domain.OrderSideBuy && cmd.Side != domain.OrderSideSell {
		return nil, domain.ErrInvalidSide
	}

	market, err := s.markets.GetActiveMarket(ctx, cmd.MarketID)
	if err != nil {
		return nil, err
	}

	baseAmount, err := ledgerdomain.NormalizePositive(cmd.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	price, err := ledgerdomain.NormalizePositive(cmd.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	minQuote, err := ledgerdomain.NormalizeNonNegative(cmd.MinQuoteAmount)
	if err != nil {
		return nil, fmt.Errorf("min_quote_amount: %w", err)
	}
	var maxQuote *decimal.Decimal
	if cmd.MaxQuoteAmount != nil {
		normalized, err := ledgerdomain.NormalizePositive(*cmd.MaxQuoteAmount)
		if err != nil {
			return nil, fmt.Errorf("max_quote_amount: %w", err)
		}
		maxQuote = &normalized
	}

	idempotencyKey := cmd.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	order := domain.NewOrder(
		fmt.Sprintf("ORD-%d", idgen.GenID()),
		cmd.UserID,
		market.MarketID,
		cmd.Side,
		price,
		baseAmount,
		minQuote,
		maxQuote,
		cmd.ExpiresAt,
		idempotencyKey,
	)

	escrowAsset := market.BaseAssetCode
	if cmd.Side == domain.OrderSideBuy {
		escrowAsset = market.QuoteAssetCode
	}
	escrowAmount := order.EscrowAmount()

	err = s.txm.WithTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		wallet, err := s.wallets.GetByUserAndAsset(ctx, cmd.UserID, escrowAsset)
		if err != nil {
			return err
		}
		if wallet.Available.LessThan(escrowAmount) {
			return fmt.Errorf("escrow %s %s: %w", escrowAmount, escrowAsset, ledgerdomain.ErrInsufficientBalance)
		}

		ltx, err := s.ledger.CreateTransaction(ctx, ledgerapp.CreateLedgerTxCommand{
			TxType:          ledgerdomain.TxTypeOrderLock,
			ReferenceType:   "orders",
			ReferenceID:     order.OrderID,
			IdempotencyKey:  idempotencyKey + ":order-lock",
			CreatedByUserID: cmd.UserID,
		})
		if err != nil {
			return err
		}

		return s.ledger.Move(ctx, ledgerapp.MoveCommand{
			WalletID:       wallet.WalletID,
			LedgerTxID:     ltx.LedgerTxID,
			DeltaAvailable: escrowAmount.Neg(),
			DeltaLocked:    escrowAmount,
			EntryType:      ledgerdomain.EntryTypeLock,
			Amount:         escrowAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.OrderID, "user_id", cmd.UserID, "side", cmd.Side,
		"market_id", market.MarketID, "escrow", escrowAmount.String())
	return toOrderDTO(order, market), nil
}

// Cancel 取消挂单并解锁剩余托管资金
// 仅所有者可取消，仅 OPEN/PARTIALLY_FILLED 可取消
func (s *OrderService) Cancel(ctx context.Context, userID, orderID string) (*OrderDTO, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrNotOrderOwner
	}
	if !order.CanBeCancelled() {
		return nil, domain.ErrOrderNotCancellable
	}

	remaining := order.BaseAmountRemaining.Round(ledgerdomain.AmountPrecision)
	if !remaining.IsPositive() {
		return nil, domain.ErrNothingToCancel
	}

	market, err := s.markets.GetMarket(ctx, order.MarketID)
	if err != nil {
		return nil, err
	}

	unlockAsset := market.BaseAssetCode
	if order.Side == domain.OrderSideBuy {
		unlockAsset = market.QuoteAssetCode
	}
	idempotencyKey := uuid.NewString()

	var unlockAmount decimal.Decimal
	err = s.txm.WithTx(ctx, func(ctx context.Context) error {
		// 工作单元内重读挂单，避免在外层读取后被并发吃单/取消改变
		current, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if !current.CanBeCancelled() {
			return domain.ErrOrderNotCancellable
		}
		if !current.BaseAmountRemaining.Round(ledgerdomain.AmountPrecision).IsPositive() {
			return domain.ErrNothingToCancel
		}
		unlockAmount = current.RemainingEscrow()

		if err := s.orders.UpdateStatus(ctx, current.OrderID, domain.OrderStatusCancelled); err != nil {
			return err
		}

		wallet, err := s.wallets.GetByUserAndAsset(ctx, userID, unlockAsset)
		if err != nil {
			return err
		}

		ltx, err := s.ledger.CreateTransaction(ctx, ledgerapp.CreateLedgerTxCommand{
			TxType:          ledgerdomain.TxTypeOrderUnlock,
			ReferenceType:   "orders",
			ReferenceID:     order.OrderID,
			IdempotencyKey:  idempotencyKey + ":order-unlock",
			CreatedByUserID: userID,
		})
		if err != nil {
			return err
		}

		return s.ledger.Move(ctx, ledgerapp.MoveCommand{
			WalletID:       wallet.WalletID,
			LedgerTxID:     ltx.LedgerTxID,
			DeltaAvailable: unlockAmount,
			DeltaLocked:    unlockAmount.Neg(),
			EntryType:      ledgerdomain.EntryTypeUnlock,
			Amount:         unlockAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	slog.InfoContext(ctx, "order cancelled",
		"order_id", order.OrderID, "user_id", userID, "unlocked", unlockAmount.String())
	return toOrderDTO(order, market), nil
}

// Get 获取挂单详情
func (s *OrderService) Get(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	market, err := s.markets.GetMarket(ctx, order.MarketID)
	if err != nil {
		return nil, err
	}
	return toOrderDTO(order, market), nil
}

// ListOpen 列出可被吃单的挂单
func (s *OrderService) ListOpen(ctx context.Context, marketID string, limit int) ([]*OrderDTO, error) {
	orders, err := s.orders.ListOpen(ctx, marketID, limit)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, orders)
}

// ListByUser 列出用户自己的挂单
func (s *OrderService) ListByUser(ctx context.Context, userID string, limit int) ([]*OrderDTO, error) {
	orders, err := s.orders.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.toDTOs(ctx, orders)
}

func (s *OrderService) toDTOs(ctx context.Context, orders []*domain.Order) ([]*OrderDTO, error) {
	markets := make(map[string]*refdomain.Market)
	dtos := make([]*OrderDTO, 0, len(orders))
	for _, order := range orders {
		market, ok := markets[order.MarketID]
		if !ok {
			var err error
			market, err = s.markets.GetMarket(ctx, order.MarketID)
			if err != nil {
				return nil, err
			}
			markets[order.MarketID] = market
		}
		dtos = append(dtos, toOrderDTO(order, market))
	}
	return dtos, nil
}
