// Package application 链上提现应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	ledgerapp "github.com/wyfcoding/p2pexchange/internal/ledger/application"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
)

// WithdrawalService 链上提现应用服务
// 受理时冻结 金额+手续费，行记 PENDING，后续交割由提现网关经事件驱动
type WithdrawalService struct {
	withdrawals domain.WithdrawalRepository
	wallets     ledgerdomain.WalletRepository
	ledger      *ledgerapp.LedgerService
	assets      refdomain.AssetRepository
	publisher   messagequeue.EventPublisher
	txm         ledgerdomain.TxManager
}

// NewWithdrawalService 创建提现应用服务
func NewWithdrawalService(
	withdrawals domain.WithdrawalRepository,
	wallets ledgerdomain.WalletRepository,
	ledger *ledgerapp.LedgerService,
	assets refdomain.AssetRepository,
	publisher messagequeue.EventPublisher,
	txm ledgerdomain.TxManager,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		wallets:     wallets,
		ledger:      ledger,
		assets:      assets,
		publisher:   publisher,
		txm:         txm,
	}
}

// CreateWithdrawalCommand 创建提现命令
type CreateWithdrawalCommand struct {
	UserID         string
	AssetCode      string
	Amount         decimal.Decimal
	Fee            decimal.Decimal
	Network        string
	Address        string
	Provider       string
	IdempotencyKey string
}

// Create 受理一笔链上提现并冻结资金
// 仅 CRYPTO 资产可提现；冻结总额为 金额+手续费
func (s *WithdrawalService) Create(ctx context.Context, cmd CreateWithdrawalCommand) (*WithdrawalDTO, error) {
	amount, err := ledgerdomain.NormalizePositive(cmd.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	fee, err := ledgerdomain.NormalizeNonNegative(cmd.Fee)
	if err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}

	assetCode := strings.ToUpper(strings.TrimSpace(cmd.AssetCode))
	asset, err := s.assets.GetByCode(ctx, assetCode)
	if err != nil {
		return nil, err
	}
	if asset.Type != refdomain.AssetTypeCrypto {
		return nil, domain.ErrUnsupportedAsset
	}

	idempotencyKey := cmd.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	withdrawal := &domain.ExternalWithdrawal{
		WithdrawalID:   fmt.Sprintf("WDR-%d", idgen.GenID()),
		UserID:         cmd.UserID,
		AssetCode:      asset.Code,
		Amount:         amount,
		Fee:            fee,
		NetAmount:      amount,
		Network:        cmd.Network,
		Address:        cmd.Address,
		Status:         domain.WithdrawalStatusPending,
		IdempotencyKey: idempotencyKey,
	}
	if cmd.Provider != "" {
		withdrawal.Provider = &cmd.Provider
	}

	totalLock := withdrawal.TotalLock().Round(ledgerdomain.AmountPrecision)

	err = s.txm.WithTx(ctx, func(txCtx context.Context) error {
		wallet, err := s.wallets.GetByUserAndAsset(txCtx, cmd.UserID, asset.Code)
		if err != nil {
			return err
		}
		if wallet.Available.LessThan(totalLock) {
			return fmt.Errorf("withdraw %s %s: %w", totalLock, asset.Code, ledgerdomain.ErrInsufficientBalance)
		}

		if err := s.withdrawals.Create(txCtx, withdrawal); err != nil {
			return err
		}

		ltx, err := s.ledger.CreateTransaction(txCtx, ledgerapp.CreateLedgerTxCommand{
			TxType:          ledgerdomain.TxTypeWithdrawalLock,
			ReferenceType:   "external_withdrawals",
			ReferenceID:     withdrawal.WithdrawalID,
			IdempotencyKey:  idempotencyKey + ":withdrawal-lock",
			CreatedByUserID: cmd.UserID,
		})
		if err != nil {
			return err
		}

		if err := s.ledger.Move(txCtx, ledgerapp.MoveCommand{
			WalletID:       wallet.WalletID,
			LedgerTxID:     ltx.LedgerTxID,
			DeltaAvailable: totalLock.Neg(),
			DeltaLocked:    totalLock,
			EntryType:      ledgerdomain.EntryTypeLock,
			Amount:         totalLock,
		}); err != nil {
			return err
		}

		event := domain.WithdrawalRequestedEvent{
			WithdrawalID: withdrawal.WithdrawalID,
			UserID:       cmd.UserID,
			AssetCode:    asset.Code,
			Amount:       amount.String(),
			Fee:          fee.String(),
			Network:      cmd.Network,
			Address:      cmd.Address,
			WalletIDs:    []string{wallet.WalletID},
			OccurredOn:   time.Now(),
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.WithdrawalRequestedEventType, withdrawal.WithdrawalID, event)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "withdrawal requested",
		"withdrawal_id", withdrawal.WithdrawalID, "user_id", cmd.UserID,
		"asset", asset.Code, "amount", amount.String(), "fee", fee.String())
	return toWithdrawalDTO(withdrawal), nil
}

// ListByUser 列出用户提现
func (s *WithdrawalService) ListByUser(ctx context.Context, userID string, limit int) ([]*WithdrawalDTO, error) {
	withdrawals, err := s.withdrawals.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*WithdrawalDTO, len(withdrawals))
	for i, withdrawal := range withdrawals {
		dtos[i] = toWithdrawalDTO(withdrawal)
	}
	return dtos, nil
}
