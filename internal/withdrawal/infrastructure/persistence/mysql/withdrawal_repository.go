package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// withdrawalRepository 提现仓储实现
type withdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建并返回一个新的 withdrawalRepository 实例。
func NewWithdrawalRepository(db *gorm.DB) domain.WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *domain.ExternalWithdrawal) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(withdrawal).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("withdrawal %s: %w", withdrawal.IdempotencyKey, ledgerdomain.ErrDuplicateIdempotencyKey)
		}
		return err
	}
	return nil
}

func (r *withdrawalRepository) Get(ctx context.Context, withdrawalID string) (*domain.ExternalWithdrawal, error) {
	var withdrawal domain.ExternalWithdrawal
	if err := r.getDB(ctx).WithContext(ctx).Where("withdrawal_id = ?", withdrawalID).First(&withdrawal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.ExternalWithdrawal, error) {
	if limit <= 0 {
		limit = 100
	}
	var withdrawals []*domain.ExternalWithdrawal
	if err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *withdrawalRepository) getDB(ctx context.Context) *gorm.DB {
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
