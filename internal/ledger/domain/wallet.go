// Package domain 账本与结算引擎的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AmountPrecision 金额统一精度（小数位数）
// 所有对外金额在落库前归一化到 8 位小数
const AmountPrecision = 8

// Wallet 钱包实体
// 每个 (用户, 资产) 组合对应唯一一个钱包，余额拆分为可用与冻结两部分
type Wallet struct {
	gorm.Model
	// 钱包 ID (业务主键)，全局唯一
	WalletID string `gorm:"column:wallet_id;type:varchar(32);uniqueIndex;not null" json:"wallet_id"`
	// 用户 ID
	UserID string `gorm:"column:user_id;type:varchar(32);uniqueIndex:idx_wallets_user_asset;not null" json:"user_id"`
	// 资产代码（如 BTC, THB）
	AssetCode string `gorm:"column:asset_code;type:varchar(16);uniqueIndex:idx_wallets_user_asset;not null" json:"asset_code"`
	// 可用余额
	Available decimal.Decimal `gorm:"column:available;type:decimal(32,18);default:0;not null" json:"available"`
	// 冻结余额
	Locked decimal.Decimal `gorm:"column:locked;type:decimal(32,18);default:0;not null" json:"locked"`
	// 乐观锁版本号，每次余额变更递增并作为更新前置条件
	Version int64 `gorm:"column:version;default:0;not null" json:"version"`
}

// TableName 表名
func (Wallet) TableName() string {
	return "wallets"
}

// NewWallet 创建零余额钱包
func NewWallet(walletID, userID, assetCode string) *Wallet {
	return &Wallet{
		WalletID:  walletID,
		UserID:    userID,
		AssetCode: assetCode,
		Available: decimal.Zero,
		Locked:    decimal.Zero,
	}
}

// Total 总持仓 = 可用 + 冻结
func (w *Wallet) Total() decimal.Decimal {
	return w.Available.Add(w.Locked)
}

// Apply 计算一次余额变动后的可用/冻结余额
// 结果归一化到 8 位小数，任一结果为负时返回 ErrInsufficientBalance，钱包不变
func (w *Wallet) Apply(deltaAvailable, deltaLocked decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	nextAvailable := w.Available.Add(deltaAvailable).Round(AmountPrecision)
	nextLocked := w.Locked.Add(deltaLocked).Round(AmountPrecision)

	if nextAvailable.IsNegative() || nextLocked.IsNegative() {
		return decimal.Decimal{}, decimal.Decimal{}, ErrInsufficientBalance
	}
	return nextAvailable, nextLocked, nil
}

// WalletRepository 钱包仓储接口
type WalletRepository interface {
	// Create 创建钱包
	Create(ctx context.Context, wallet *Wallet) error
	// Get 根据钱包 ID 获取钱包
	Get(ctx context.Context, walletID string) (*Wallet, error)
	// GetByUserAndAsset 根据 (用户, 资产) 获取钱包
	GetByUserAndAsset(ctx context.Context, userID, assetCode string) (*Wallet, error)
	// ListByUser 获取用户全部钱包
	ListByUser(ctx context.Context, userID string) ([]*Wallet, error)
	// UpdateBalances 以版本号为前置条件更新余额（CAS），冲突时返回 ErrVersionConflict
	UpdateBalances(ctx context.Context, wallet *Wallet, available, locked decimal.Decimal) error
}

// WalletReadRepository 钱包读模型仓储接口（缓存投影）
type WalletReadRepository interface {
	Save(ctx context.Context, wallet *Wallet) error
	Get(ctx context.Context, walletID string) (*Wallet, error)
	Delete(ctx context.Context, walletID string) error
}

// TxManager 事务管理器
// 每个入站动作在一个原子工作单元内执行，fn 内的仓储调用共享同一底层事务
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
