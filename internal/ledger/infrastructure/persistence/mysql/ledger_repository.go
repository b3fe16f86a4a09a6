package mysql

import (
	"context"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// ledgerRepository 账本仓储实现
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建并返回一个新的 ledgerRepository 实例。
func NewLedgerRepository(db *gorm.DB) domain.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.LedgerTransaction) error {
	if err := r.getDB(ctx).WithContext(ctx).Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("ledger transaction %s: %w", tx.IdempotencyKey, domain.ErrDuplicateIdempotencyKey)
		}
		return err
	}
	return nil
}

func (r *ledgerRepository) AppendEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.getDB(ctx).WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) ListEntriesByWallet(ctx context.Context, walletID string) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	if err := r.getDB(ctx).WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("id").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) ListEntriesByUser(ctx context.Context, userID string, limit int) ([]*domain.EntryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []*domain.EntryRecord
	err := r.getDB(ctx).WithContext(ctx).
		Table("ledger_entries").
		Select(`ledger_entries.id AS entry_id,
			ledger_entries.created_at,
			ledger_transactions.tx_type,
			ledger_transactions.reference_type,
			ledger_transactions.reference_id,
			ledger_entries.entry_type,
			ledger_entries.amount,
			ledger_entries.available_before,
			ledger_entries.available_after,
			ledger_entries.locked_before,
			ledger_entries.locked_after,
			wallets.asset_code,
			wallets.wallet_id`).
		Joins("INNER JOIN ledger_transactions ON ledger_transactions.ledger_tx_id = ledger_entries.ledger_tx_id").
		Joins("INNER JOIN wallets ON wallets.wallet_id = ledger_entries.wallet_id").
		Where("wallets.user_id = ?", userID).
		Order("ledger_entries.id DESC").
		Limit(limit).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ledgerRepository) getDB(ctx context.Context) *gorm.DB {
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
