// Package domain 成交领域模型
// 一笔成交是吃单者与挂单者之间的双边交割：吃单时锁定吃单方资金，
// 买方标记已付款，卖方放行后四腿结算一次性完成
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TradeStatus 成交状态
type TradeStatus string

const (
	TradeStatusMatched   TradeStatus = "MATCHED"
	TradeStatusPaid      TradeStatus = "PAID"
	TradeStatusCompleted TradeStatus = "COMPLETED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
)

var (
	// ErrTradeNotFound 成交不存在
	ErrTradeNotFound = errors.New("trade not found")
	// ErrSelfTrade 不能吃自己的挂单
	ErrSelfTrade = errors.New("cannot take your own order")
	// ErrNotBuyer 只有买方可以标记已付款
	ErrNotBuyer = errors.New("only buyer can mark paid")
	// ErrNotSeller 只有卖方可以放行
	ErrNotSeller = errors.New("only seller can release trade")
	// ErrInvalidTradeState 当前状态不允许该操作
	ErrInvalidTradeState = errors.New("trade not in a valid state for this operation")
)

// Trade 成交实体
// buyer/seller 由挂单方向推导：SELL 单的吃单者是买方，BUY 单的吃单者是卖方
type Trade struct {
	gorm.Model
	// 成交 ID (业务主键)
	TradeID string `gorm:"column:trade_id;type:varchar(32);uniqueIndex;not null" json:"trade_id"`
	// 来源挂单 ID
	OrderID string `gorm:"column:order_id;type:varchar(32);index;not null" json:"order_id"`
	// 挂单方用户 ID
	MakerUserID string `gorm:"column:maker_user_id;type:varchar(32);not null" json:"maker_user_id"`
	// 吃单方用户 ID
	TakerUserID string `gorm:"column:taker_user_id;type:varchar(32);not null" json:"taker_user_id"`
	// 买方用户 ID
	BuyerUserID string `gorm:"column:buyer_user_id;type:varchar(32);index;not null" json:"buyer_user_id"`
	// 卖方用户 ID
	SellerUserID string `gorm:"column:seller_user_id;type:varchar(32);index;not null" json:"seller_user_id"`
	// 成交单价，吃单时固定为挂单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(32,18);not null" json:"price"`
	// 基础资产成交量
	BaseAmount decimal.Decimal `gorm:"column:base_amount;type:decimal(32,18);not null" json:"base_amount"`
	// 计价资产成交额
	QuoteAmount decimal.Decimal `gorm:"column:quote_amount;type:decimal(32,18);not null" json:"quote_amount"`
	// 状态
	Status TradeStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 买方付款凭证（可为空）
	PaymentRef *string `gorm:"column:payment_ref;type:varchar(255)" json:"payment_ref"`
	// 买方标记付款时间
	PaidAt *time.Time `gorm:"column:paid_at" json:"paid_at"`
	// 卖方放行时间
	ReleasedAt *time.Time `gorm:"column:released_at" json:"released_at"`
	// 结算完成时间
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
	// 取消原因（状态机尚未开放取消转换，列为扩展点）
	CancelReason *string `gorm:"column:cancel_reason;type:varchar(255)" json:"cancel_reason"`
	// 幂等键，全局唯一
	IdempotencyKey string `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex;not null" json:"idempotency_key"`
}

// TableName 表名
func (Trade) TableName() string {
	return "trades"
}

// MarkPaid 买方标记已付款，MATCHED -> PAID
func (t *Trade) MarkPaid(userID, paymentRef string) error {
	if t.BuyerUserID != userID {
		return ErrNotBuyer
	}
	if t.Status != TradeStatusMatched {
		return ErrInvalidTradeState
	}
	now := time.Now()
	t.Status = TradeStatusPaid
	if paymentRef != "" {
		t.PaymentRef = &paymentRef
	}
	t.PaidAt = &now
	return nil
}

// Release 卖方放行，PAID -> COMPLETED
// 只做状态转换，资金交割由应用层在同一工作单元内完成
func (t *Trade) Release(userID string) error {
	if t.SellerUserID != userID {
		return ErrNotSeller
	}
	if t.Status != TradeStatusPaid {
		return ErrInvalidTradeState
	}
	now := time.Now()
	t.Status = TradeStatusCompleted
	t.ReleasedAt = &now
	t.CompletedAt = &now
	return nil
}

// TradeRepository 成交仓储接口
type TradeRepository interface {
	// Create 插入成交，幂等键重复时返回账本域的 ErrDuplicateIdempotencyKey
	Create(ctx context.Context, trade *Trade) error
	// Get 按成交 ID 获取
	Get(ctx context.Context, tradeID string) (*Trade, error)
	// ListByUser 列出用户作为买方或卖方参与的成交
	ListByUser(ctx context.Context, userID string, limit int) ([]*Trade, error)
	// Update 持久化状态与时间戳变更
	Update(ctx context.Context, trade *Trade) error
}

// EventPublisher 集成事件发布接口
type EventPublisher interface {
	// Publish 发布一个普通事件（非事务内）
	Publish(ctx context.Context, topic string, key string, event any) error
	// PublishInTx 在事务中发布事件，用于 Outbox 模式
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}
