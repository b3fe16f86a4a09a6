// Package domain 挂单领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus 挂单状态
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "OPEN"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// OrderSide 买卖方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

var (
	// ErrOrderNotFound 挂单不存在
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidSide 方向必须为 BUY 或 SELL
	ErrInvalidSide = errors.New("side must be BUY or SELL")
	// ErrNotOrderOwner 只有挂单所有者可以操作
	ErrNotOrderOwner = errors.New("not the order owner")
	// ErrOrderNotCancellable 当前状态不允许取消
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
	// ErrNothingToCancel 剩余数量为零，无可取消部分
	ErrNothingToCancel = errors.New("no remaining amount to cancel")
	// ErrAmountExceedsRemaining 成交数量超出挂单剩余
	ErrAmountExceedsRemaining = errors.New("amount exceeds remaining order amount")
	// ErrOrderNotTakeable 挂单不在可被吃单的状态
	ErrOrderNotTakeable = errors.New("order not open for taking")
)

// 金额精度，与账本保持一致
const amountPrecision = 8

// Order 挂单实体
// 一笔买入或卖出的长期报价，创建时锁定托管资金，取消时解锁剩余部分
type Order struct {
	gorm.Model
	// 挂单 ID (业务主键)
	OrderID string `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	// 所有者用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);index:idx_orders_user_status;not null" json:"user_id"`
	// 市场 ID
	MarketID string `gorm:"column:market_id;type:varchar(32);index:idx_orders_market_side_status;not null" json:"market_id"`
	// 方向
	Side OrderSide `gorm:"column:side;type:varchar(10);index:idx_orders_market_side_status;not null" json:"side"`
	// 单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null" json:"price"`
	// 基础资产总量
	BaseAmountTotal decimal.Decimal `gorm:"column:base_amount_total;type:decimal(32,18);not null" json:"base_amount_total"`
	// 基础资产剩余量，单调不增
	BaseAmountRemaining decimal.Decimal `gorm:"column:base_amount_remaining;type:decimal(32,18);not null" json:"base_amount_remaining"`
	// 单笔最小计价金额
	MinQuoteAmount decimal.Decimal `gorm:"column:min_quote_amount;type:decimal(32,18);default:0;not null" json:"min_quote_amount"`
	// 单笔最大计价金额（可为空）
	MaxQuoteAmount *decimal.Decimal `gorm:"column:max_quote_amount;type:decimal(32,18)" json:"max_quote_amount"`
	// 状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index:idx_orders_user_status;index:idx_orders_market_side_status;not null" json:"status"`
	// 过期时间（可为空，过期处理由外部协作方驱动）
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at"`
	// 幂等键，全局唯一
	IdempotencyKey string `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex;not null" json:"idempotency_key"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// NewOrder 创建挂单
func NewOrder(orderID, userID, marketID string, side OrderSide, price, baseAmount, minQuoteAmount decimal.Decimal, maxQuoteAmount *decimal.Decimal, expiresAt *time.Time, idempotencyKey string) *Order {
	return &Order{
		OrderID:             orderID,
		UserID:              userID,
		MarketID:            marketID,
		Side:                side,
		Price:               price,
		BaseAmountTotal:     baseAmount,
		BaseAmountRemaining: baseAmount,
		MinQuoteAmount:      minQuoteAmount,
		MaxQuoteAmount:      maxQuoteAmount,
		Status:              OrderStatusOpen,
		ExpiresAt:           expiresAt,
		IdempotencyKey:      idempotencyKey,
	}
}

// EscrowAmount 创建时需要托管的金额
// SELL 锁基础资产全量，BUY 锁 总量*单价 的计价资产
func (o *Order) EscrowAmount() decimal.Decimal {
	if o.Side == OrderSideSell {
		return o.BaseAmountTotal
	}
	return o.BaseAmountTotal.Mul(o.Price).Round(amountPrecision)
}

// RemainingEscrow 取消时应解锁的金额
func (o *Order) RemainingEscrow() decimal.Decimal {
	if o.Side == OrderSideSell {
		return o.BaseAmountRemaining
	}
	return o.BaseAmountRemaining.Mul(o.Price).Round(amountPrecision)
}

// CanBeCancelled 是否可以取消
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusOpen || o.Status == OrderStatusPartiallyFilled
}

// IsTakeable 是否可被吃单
func (o *Order) IsTakeable() bool {
	return o.Status == OrderStatusOpen || o.Status == OrderStatusPartiallyFilled
}

// Fill 扣减剩余数量并推导状态
// 剩余量精确归零时转为 FILLED，否则为 PARTIALLY_FILLED
func (o *Order) Fill(amount decimal.Decimal) error {
	next := o.BaseAmountRemaining.Sub(amount).Round(amountPrecision)
	if next.IsNegative() {
		return ErrAmountExceedsRemaining
	}
	o.BaseAmountRemaining = next
	if next.IsZero() {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
	return nil
}

// OrderRepository 挂单仓储接口
type OrderRepository interface {
	// Create 插入挂单，幂等键重复时返回账本域的 ErrDuplicateIdempotencyKey
	Create(ctx context.Context, order *Order) error
	// Get 按挂单 ID 获取
	Get(ctx context.Context, orderID string) (*Order, error)
	// ListOpen 列出可被吃单的挂单，marketID 为空时不过滤
	ListOpen(ctx context.Context, marketID string, limit int) ([]*Order, error)
	// ListByUser 列出用户挂单
	ListByUser(ctx context.Context, userID string, limit int) ([]*Order, error)
	// UpdateStatus 更新状态
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
	// UpdateFill 同时更新剩余量与状态
	UpdateFill(ctx context.Context, orderID string, remaining decimal.Decimal, status OrderStatus) error
}
