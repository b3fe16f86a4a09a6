package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/trade/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// tradeRepository 成交仓储实现
type tradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository 创建并返回一个新的 tradeRepository 实例。
func NewTradeRepository(db *gorm.DB) domain.TradeRepository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) Create(ctx context.Context, trade *domain.Trade) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(trade).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("trade %s: %w", trade.IdempotencyKey, ledgerdomain.ErrDuplicateIdempotencyKey)
		}
		return err
	}
	return nil
}

func (r *tradeRepository) Get(ctx context.Context, tradeID string) (*domain.Trade, error) {
	var trade domain.Trade
	if err := r.getDB(ctx).WithContext(ctx).Where("trade_id = ?", tradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTradeNotFound
		}
		return nil, err
	}
	return &trade, nil
}

func (r *tradeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	var trades []*domain.Trade
	if err := r.getDB(ctx).WithContext(ctx).
		Where("buyer_user_id = ? OR seller_user_id = ?", userID, userID).
		Order("id DESC").
		Limit(limit).
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (r *tradeRepository) Update(ctx context.Context, trade *domain.Trade) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Trade{}).
		Where("trade_id = ?", trade.TradeID).
		Updates(map[string]any{
			"status":       trade.Status,
			"payment_ref":  trade.PaymentRef,
			"paid_at":      trade.PaidAt,
			"released_at":  trade.ReleasedAt,
			"completed_at": trade.CompletedAt,
		}).Error
}

func (r *tradeRepository) getDB(ctx context.Context) *gorm.DB {
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
