package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// walletRepository 钱包仓储实现
type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建并返回一个新的 walletRepository 实例。
func NewWalletRepository(db *gorm.DB) domain.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return r.getDB(ctx).WithContext(ctx).Create(wallet).Error
}

func (r *walletRepository) Get(ctx context.Context, walletID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.getDB(ctx).WithContext(ctx).Where("wallet_id = ?", walletID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserAndAsset(ctx context.Context, userID, assetCode string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ? AND asset_code = ?", userID, assetCode).
		First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *walletRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet
	if err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset_code").
		Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// UpdateBalances 带乐观锁的余额更新
// 以读取时的版本号为前置条件，冲突说明余额已被并发事务修改
func (r *walletRepository) UpdateBalances(ctx context.Context, wallet *domain.Wallet, available, locked decimal.Decimal) error {
	currentVersion := wallet.Version
	result := r.getDB(ctx).WithContext(ctx).Model(&domain.Wallet{}).
		Where("wallet_id = ? AND version = ?", wallet.WalletID, currentVersion).
		Updates(map[string]any{
			"available": available,
			"locked":    locked,
			"version":   currentVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}

	wallet.Available = available
	wallet.Locked = locked
	wallet.Version = currentVersion + 1
	return nil
}

func (r *walletRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
