package mysql

import (
	"context"

	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// txManager 基于 gorm 事务的工作单元实现
// fn 内通过 contextx 传递事务句柄，各仓储经 getDB 加入同一事务
type txManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) domain.TxManager {
	return &txManager{db: db}
}

func (m *txManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}
