package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/order/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// orderRepository 挂单仓储实现
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建并返回一个新的 orderRepository 实例。
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("order %s: %w", order.IdempotencyKey, ledgerdomain.ErrDuplicateIdempotencyKey)
		}
		return err
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := r.getDB(ctx).WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListOpen(ctx context.Context, marketID string, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.getDB(ctx).WithContext(ctx).
		Where("status IN ?", []domain.OrderStatus{domain.OrderStatusOpen, domain.OrderStatusPartiallyFilled})
	if marketID != "" {
		query = query.Where("market_id = ?", marketID)
	}
	var orders []*domain.Order
	if err := query.Order("id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []*domain.Order
	if err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}

func (r *orderRepository) UpdateFill(ctx context.Context, orderID string, remaining decimal.Decimal, status domain.OrderStatus) error {
	return r.getDB(ctx).WithContext(ctx).Model(&domain.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"base_amount_remaining": remaining,
			"status":                status,
		}).Error
}

func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
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
