package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TxType 账本事务类型
type TxType string

const (
	TxTypeOrderLock        TxType = "ORDER_LOCK"
	TxTypeOrderUnlock      TxType = "ORDER_UNLOCK"
	TxTypeTradeLock        TxType = "TRADE_LOCK"
	TxTypeTradeSettlement  TxType = "TRADE_SETTLEMENT"
	TxTypeInternalTransfer TxType = "INTERNAL_TRANSFER"
	TxTypeWithdrawalLock   TxType = "WITHDRAWAL_LOCK"
)

// EntryType 账本分录类型
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeLock   EntryType = "LOCK"
	EntryTypeUnlock EntryType = "UNLOCK"
)

// LedgerTransaction 账本事务
// 一次业务事件下所有余额变动的原子分组，创建后不可变更，修正以新事务表达
type LedgerTransaction struct {
	gorm.Model
	// 账本事务 ID (业务主键)
	LedgerTxID string `gorm:"column:ledger_tx_id;type:varchar(32);uniqueIndex;not null" json:"ledger_tx_id"`
	// 事务类型
	TxType TxType `gorm:"column:tx_type;type:varchar(32);not null" json:"tx_type"`
	// 驱动实体类型（orders, trades, internal_transfers, external_withdrawals）
	ReferenceType string `gorm:"column:reference_type;type:varchar(32);index:idx_ledger_tx_ref;not null" json:"reference_type"`
	// 驱动实体 ID
	ReferenceID string `gorm:"column:reference_id;type:varchar(32);index:idx_ledger_tx_ref;not null" json:"reference_id"`
	// 状态
	Status string `gorm:"column:status;type:varchar(16);not null;default:POSTED" json:"status"`
	// 幂等键，全局唯一
	IdempotencyKey string `gorm:"column:idempotency_key;type:varchar(128);uniqueIndex;not null" json:"idempotency_key"`
	// 发起用户 ID（可为空）
	CreatedByUserID string `gorm:"column:created_by_user_id;type:varchar(32)" json:"created_by_user_id"`
}

// TableName 表名
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

// LedgerEntry 账本分录
// 账本事务中每个被触达钱包一行，记录变动前后的双余额快照
type LedgerEntry struct {
	gorm.Model
	// 所属账本事务 ID
	LedgerTxID string `gorm:"column:ledger_tx_id;type:varchar(32);index;not null" json:"ledger_tx_id"`
	// 钱包 ID
	WalletID string `gorm:"column:wallet_id;type:varchar(32);index:idx_ledger_entries_wallet;not null" json:"wallet_id"`
	// 分录类型
	EntryType EntryType `gorm:"column:entry_type;type:varchar(16);not null" json:"entry_type"`
	// 金额（绝对值）
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(32,18);not null" json:"amount"`
	// 可用余额快照
	AvailableBefore decimal.Decimal `gorm:"column:available_before;type:decimal(32,18);not null" json:"available_before"`
	AvailableAfter  decimal.Decimal `gorm:"column:available_after;type:decimal(32,18);not null" json:"available_after"`
	// 冻结余额快照
	LockedBefore decimal.Decimal `gorm:"column:locked_before;type:decimal(32,18);not null" json:"locked_before"`
	LockedAfter  decimal.Decimal `gorm:"column:locked_after;type:decimal(32,18);not null" json:"locked_after"`
}

// TableName 表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// EntryRecord 用户账本流水视图
// 分录关联其账本事务与钱包资产后的只读投影
type EntryRecord struct {
	EntryID         uint            `json:"entry_id"`
	CreatedAt       time.Time       `json:"created_at"`
	TxType          TxType          `json:"tx_type"`
	ReferenceType   string          `json:"reference_type"`
	ReferenceID     string          `json:"reference_id"`
	EntryType       EntryType       `json:"entry_type"`
	Amount          decimal.Decimal `json:"amount"`
	AvailableBefore decimal.Decimal `json:"available_before"`
	AvailableAfter  decimal.Decimal `json:"available_after"`
	LockedBefore    decimal.Decimal `json:"locked_before"`
	LockedAfter     decimal.Decimal `json:"locked_after"`
	AssetCode       string          `json:"asset_code"`
	WalletID        string          `json:"wallet_id"`
}

// LedgerRepository 账本仓储接口
type LedgerRepository interface {
	// CreateTransaction 插入账本事务，幂等键重复时返回 ErrDuplicateIdempotencyKey
	CreateTransaction(ctx context.Context, tx *LedgerTransaction) error
	// AppendEntry 追加一条分录
	AppendEntry(ctx context.Context, entry *LedgerEntry) error
	// ListEntriesByWallet 按创建顺序返回钱包的全部分录
	ListEntriesByWallet(ctx context.Context, walletID string) ([]*LedgerEntry, error)
	// ListEntriesByUser 返回用户全部钱包的流水（倒序，带事务与资产上下文）
	ListEntriesByUser(ctx context.Context, userID string, limit int) ([]*EntryRecord, error)
}
