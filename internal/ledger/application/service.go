// Package application 账本应用服务
// 余额搬运器 (Move) 与账本事务创建是所有资金流程的底层原语：
// 上层流程先在自己的工作单元内创建账本事务，再发起一次或多次 Move
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/pkg/idgen"
)

// LedgerService 账本应用服务
type LedgerService struct {
	wallets domain.WalletRepository
	ledger  domain.LedgerRepository
	txm     domain.TxManager
}

// NewLedgerService 创建账本应用服务
func NewLedgerService(wallets domain.WalletRepository, ledger domain.LedgerRepository, txm domain.TxManager) *LedgerService {
	return &LedgerService{wallets: wallets, ledger: ledger, txm: txm}
}

// CreateLedgerTxCommand 创建账本事务命令
type CreateLedgerTxCommand struct {
	TxType          domain.TxType
	ReferenceType   string
	ReferenceID     string
	IdempotencyKey  string
	CreatedByUserID string
}

// CreateTransaction 插入一条账本事务并返回
// 幂等键重复时返回 ErrDuplicateIdempotencyKey，调用方不得重试资金效果
func (s *LedgerService) CreateTransaction(ctx context.Context, cmd CreateLedgerTxCommand) (*domain.LedgerTransaction, error) {
	tx := &domain.LedgerTransaction{
		LedgerTxID:      fmt.Sprintf("LTX-%d", idgen.GenID()),
		TxType:          cmd.TxType,
		ReferenceType:   cmd.ReferenceType,
		ReferenceID:     cmd.ReferenceID,
		Status:          "POSTED",
		IdempotencyKey:  cmd.IdempotencyKey,
		CreatedByUserID: cmd.CreatedByUserID,
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// MoveCommand 余额搬运命令
// DeltaAvailable/DeltaLocked 为带符号增量，Amount 为分录记录的绝对金额
type MoveCommand struct {
	WalletID       string
	LedgerTxID     string
	DeltaAvailable decimal.Decimal
	DeltaLocked    decimal.Decimal
	EntryType      domain.EntryType
	Amount         decimal.Decimal
}

// Move 原子地调整单个钱包的可用/冻结余额并追加一条分录
// 必须在一个已开启的工作单元内、归属一条已创建的账本事务下调用；
// 任一结果余额为负返回 ErrInsufficientBalance，钱包不变
func (s *LedgerService) Move(ctx context.Context, cmd MoveCommand) error {
	if cmd.LedgerTxID == "" {
		return fmt.Errorf("move requires an open ledger transaction")
	}
	if !cmd.Amount.IsPositive() {
		return fmt.Errorf("move amount %s: %w", cmd.Amount, domain.ErrInvalidAmount)
	}

	wallet, err := s.wallets.Get(ctx, cmd.WalletID)
	if err != nil {
		return err
	}

	nextAvailable, nextLocked, err := wallet.Apply(cmd.DeltaAvailable, cmd.DeltaLocked)
	if err != nil {
		return fmt.Errorf("wallet %s: %w", wallet.WalletID, err)
	}

	availableBefore := wallet.Available
	lockedBefore := wallet.Locked
	if err := s.wallets.UpdateBalances(ctx, wallet, nextAvailable, nextLocked); err != nil {
		return err
	}

	entry := &domain.LedgerEntry{
		LedgerTxID:      cmd.LedgerTxID,
		WalletID:        wallet.WalletID,
		EntryType:       cmd.EntryType,
		Amount:          cmd.Amount.Round(domain.AmountPrecision),
		AvailableBefore: availableBefore,
		AvailableAfter:  nextAvailable,
		LockedBefore:    lockedBefore,
		LockedAfter:     nextLocked,
	}
	return s.ledger.AppendEntry(ctx, entry)
}

// EnsureWallets 为用户补齐缺失的零余额钱包
// 钱包只增不删，已存在的保持不变
func (s *LedgerService) EnsureWallets(ctx context.Context, userID string, assetCodes []string) ([]*domain.Wallet, error) {
	var wallets []*domain.Wallet
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		for _, code := range assetCodes {
			wallet, err := s.wallets.GetByUserAndAsset(ctx, userID, code)
			if err == nil {
				wallets = append(wallets, wallet)
				continue
			}
			if err != domain.ErrWalletNotFound {
				return err
			}
			wallet = domain.NewWallet(fmt.Sprintf("WAL-%d", idgen.GenID()), userID, code)
			if err := s.wallets.Create(ctx, wallet); err != nil {
				return err
			}
			wallets = append(wallets, wallet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

// ListWallets 获取用户全部钱包
func (s *LedgerService) ListWallets(ctx context.Context, userID string) ([]*WalletDTO, error) {
	wallets, err := s.wallets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dtos := make([]*WalletDTO, len(wallets))
	for i, w := range wallets {
		dtos[i] = toWalletDTO(w)
	}
	return dtos, nil
}

// ListEntries 获取用户账本流水
func (s *LedgerService) ListEntries(ctx context.Context, userID string, limit int) ([]*domain.EntryRecord, error) {
	return s.ledger.ListEntriesByUser(ctx, userID, limit)
}
