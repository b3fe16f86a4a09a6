// Package domain 链上提现领域模型
// 引擎只负责受理与锁定：行记 PENDING，资金进入冻结；
// 提现网关的后续交割（发送、确认、失败退回）经 withdrawal.requested 事件衔接
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalStatus 提现状态
type WithdrawalStatus string

const (
	WithdrawalStatusPending WithdrawalStatus = "PENDING"
)

var (
	// ErrWithdrawalNotFound 提现不存在
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	// ErrUnsupportedAsset 仅 CRYPTO 资产可链上提现
	ErrUnsupportedAsset = errors.New("only CRYPTO assets can be withdrawn externally")
)

// ExternalWithdrawal 链上提现实体
type ExternalWithdrawal struct {
	gorm.Model
	// 提现 ID (业务主键)
	WithdrawalID string `gorm:"column:withdrawal_id;type:varchar(32);uniqueIndex;not null" json:"withdrawal_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);index;not null" json:"user_id"`
	// 资产代码
	AssetCode string `gorm:"column:asset_code;type:varchar(16);not null" json:"asset_code"`
	// 提现金额（不含手续费）
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null" json:"amount"`
	// 手续费
	Fee decimal.Decimal `gorm:"column:fee;type:decimal(32,18);default:0;not null" json:"fee"`
	// 实际到账金额
	NetAmount decimal.Decimal `gorm:"column:net_amount;type:decimal(32,18);not null" json:"net_amount"`
	// 链网络
	Network string `gorm:"column:network;type:varchar(32);not null" json:"network"`
	// 提现地址
	Address string `gorm:"column:address;type:varchar(128);not null" json:"address"`
	// 提现网关（可为空）
	Provider *string `gorm:"column:provider;type:varchar(64)" json:"provider"`
	// 网关侧交易 ID（网关回执后填充）
	ProviderTxID *string `gorm:"column:provider_tx_id;type:varchar(128)" json:"provider_tx_id"`
	// 网关侧状态（网关回执后填充）
	ProviderStatus *string `gorm:"column:provider_status;type:varchar(32)" json:"provider_status"`
	// 状态
	Status WithdrawalStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 幂等键，全局唯一
	IdempotencyKey string `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex;not null" json:"idempotency_key"`
}

// TableName 表名
func (ExternalWithdrawal) TableName() string {
	return "external_withdrawals"
}

// TotalLock 受理时需要冻结的总额
func (w *ExternalWithdrawal) TotalLock() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

// WithdrawalRepository 提现仓储接口
type WithdrawalRepository interface {
	// Create 插入提现，幂等键重复时返回账本域的 ErrDuplicateIdempotencyKey
	Create(ctx context.Context, withdrawal *ExternalWithdrawal) error
	// Get 按提现 ID 获取
	Get(ctx context.Context, withdrawalID string) (*ExternalWithdrawal, error)
	// ListByUser 列出用户提现
	ListByUser(ctx context.Context, userID string, limit int) ([]*ExternalWithdrawal, error)
}
