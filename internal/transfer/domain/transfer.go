// Package domain 站内转账领域模型
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransferStatus 转账状态
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "PENDING"
	TransferStatusCompleted TransferStatus = "COMPLETED"
)

var (
	// ErrTransferNotFound 转账不存在
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrSelfTransfer 不能转账给自己
	ErrSelfTransfer = errors.New("cannot transfer to yourself")
)

// InternalTransfer 站内转账实体
// 同一资产在两个用户的可用余额之间一次性划转，单个工作单元内即完结
type InternalTransfer struct {
	gorm.Model
	// 转账 ID (业务主键)
	TransferID string `gorm:"column:transfer_id;type:varchar(32);uniqueIndex;not null" json:"transfer_id"`
	// 转出方用户 ID
	FromUserID string `gorm:"column:from_user_id;type:varchar(32);index;not null" json:"from_user_id"`
	// 转入方用户 ID
	ToUserID string `gorm:"column:to_user_id;type:varchar(32);index;not null" json:"to_user_id"`
	// 资产代码
	AssetCode string `gorm:"column:asset_code;type:varchar(16);not null" json:"asset_code"`
	// 转账金额
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null" json:"amount"`
	// 备注（可为空）
	Note *string `gorm:"column:note;type:varchar(255)" json:"note"`
	// 状态
	Status TransferStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	// 完成时间
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
	// 幂等键，全局唯一
	IdempotencyKey string `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex;not null" json:"idempotency_key"`
}

// TableName 表名
func (InternalTransfer) TableName() string {
	return "internal_transfers"
}

// TransferRepository 转账仓储接口
type TransferRepository interface {
	// Create 插入转账，幂等键重复时返回账本域的 ErrDuplicateIdempotencyKey
	Create(ctx context.Context, transfer *InternalTransfer) error
	// Get 按转账 ID 获取
	Get(ctx context.Context, transferID string) (*InternalTransfer, error)
	// ListByUser 列出用户作为转出方或转入方参与的转账
	ListByUser(ctx context.Context, userID string, limit int) ([]*InternalTransfer, error)
}
