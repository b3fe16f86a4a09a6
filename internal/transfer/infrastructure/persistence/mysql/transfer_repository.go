package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/transfer/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// transferRepository 转账仓储实现
type transferRepository struct {
	db *gorm.DB
}

// NewTransferRepository 创建并返回一个新的 transferRepository 实例。
func NewTransferRepository(db *gorm.DB) domain.TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, transfer *domain.InternalTransfer) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(transfer).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("transfer %s: %w", transfer.IdempotencyKey, ledgerdomain.ErrDuplicateIdempotencyKey)
		}
		return err
	}
	return nil
}

func (r *transferRepository) Get(ctx context.Context, transferID string) (*domain.InternalTransfer, error) {
	var transfer domain.InternalTransfer
	if err := r.getDB(ctx).WithContext(ctx).Where("transfer_id = ?", transferID).First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

func (r *transferRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.InternalTransfer, error) {
	if limit <= 0 {
		limit = 100
	}
	var transfers []*domain.InternalTransfer
	if err := r.getDB(ctx).WithContext(ctx).
		Where("from_user_id = ? OR to_user_id = ?", userID, userID).
		Order("id DESC").
		Limit(limit).
		Find(&transfers).Error; err != nil {
		return nil, err
	}
	return transfers, nil
}

func (r *transferRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

// isDuplicateKey 识别唯一键冲突
// 会话未开启 gorm 的 TranslateError 时，直接匹配 MySQL 1062
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
