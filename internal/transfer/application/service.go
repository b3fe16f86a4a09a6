// Package application 站内转账应用服务
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
	"github.com/wyfcoding/p2pexchange/internal/transfer/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
)

// TransferService 站内转账应用服务
// 扣减转出方可用、入账转入方可用，两条分录归属同一条 INTERNAL_TRANSFER 账本事务
type TransferService struct {
	transfers domain.TransferRepository
	wallets   ledgerdomain.WalletRepository
	ledger    *ledgerapp.LedgerService
	assets    refdomain.AssetRepository
	publisher messagequeue.EventPublisher
	txm       ledgerdomain.TxManager
}

// NewTransferService 创建转账应用服务
func NewTransferService(
	transfers domain.TransferRepository,
	wallets ledgerdomain.WalletRepository,
	ledger *ledgerapp.LedgerService,
	assets refdomain.AssetRepository,
	publisher messagequeue.EventPublisher,
	txm ledgerdomain.TxManager,
) *TransferService {
	return &TransferService{
		transfers: transfers,
		wallets:   wallets,
		ledger:    ledger,
		assets:    assets,
		publisher: publisher,
		txm:       txm,
	}
}

// CreateTransferCommand 创建转账命令
type CreateTransferCommand struct {
	FromUserID     string
	ToUserID       string
	AssetCode      string
	Amount         decimal.Decimal
	Note           string
	IdempotencyKey string
}

// Create 创建并完成一笔站内转账
func (s *TransferService) Create(ctx context.Context, cmd CreateTransferCommand) (*TransferDTO, error) {
	if cmd.ToUserID == cmd.FromUserID {
		return nil, domain.ErrSelfTransfer
	}

	amount, err := ledgerdomain.NormalizePositive(cmd.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}

	assetCode := strings.ToUpper(strings.TrimSpace(cmd.AssetCode))
	asset, err := s.assets.GetByCode(ctx, assetCode)
	if err != nil {
		return nil, err
	}

	idempotencyKey := cmd.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	now := time.Now()
	transfer := &domain.InternalTransfer{
		TransferID:     fmt.Sprintf("TRF-%d", idgen.GenID()),
		FromUserID:     cmd.FromUserID,
		ToUserID:       cmd.ToUserID,
		AssetCode:      asset.Code,
		Amount:         amount,
		Status:         domain.TransferStatusCompleted,
		CompletedAt:    &now,
		IdempotencyKey: idempotencyKey,
	}
	if cmd.Note != "" {
		transfer.Note = &cmd.Note
	}

	err = s.txm.WithTx(ctx, func(txCtx context.Context) error {
		fromWallet, err := s.wallets.GetByUserAndAsset(txCtx, cmd.FromUserID, asset.Code)
		if err != nil {
			return err
		}
		toWallet, err := s.wallets.GetByUserAndAsset(txCtx, cmd.ToUserID, asset.Code)
		if err != nil {
			return err
		}
		if fromWallet.Available.LessThan(amount) {
			return fmt.Errorf("transfer %s %s: %w", amount, asset.Code, ledgerdomain.ErrInsufficientBalance)
		}

		if err := s.transfers.Create(txCtx, transfer); err != nil {
			return err
		}

		ltx, err := s.ledger.CreateTransaction(txCtx, ledgerapp.CreateLedgerTxCommand{
			TxType:          ledgerdomain.TxTypeInternalTransfer,
			ReferenceType:   "internal_transfers",
			ReferenceID:     transfer.TransferID,
			IdempotencyKey:  idempotencyKey + ":internal-transfer",
			CreatedByUserID: cmd.FromUserID,
		})
		if err != nil {
			return err
		}

		if err := s.ledger.Move(txCtx, ledgerapp.MoveCommand{
			WalletID:       fromWallet.WalletID,
			LedgerTxID:     ltx.LedgerTxID,
			DeltaAvailable: amount.Neg(),
			EntryType:      ledgerdomain.EntryTypeDebit,
			Amount:         amount,
		}); err != nil {
			return err
		}
		if err := s.ledger.Move(txCtx, ledgerapp.MoveCommand{
			WalletID:       toWallet.WalletID,
			LedgerTxID:     ltx.LedgerTxID,
			DeltaAvailable: amount,
			EntryType:      ledgerdomain.EntryTypeCredit,
			Amount:         amount,
		}); err != nil {
			return err
		}

		event := domain.TransferCompletedEvent{
			TransferID: transfer.TransferID,
			FromUserID: cmd.FromUserID,
			ToUserID:   cmd.ToUserID,
			AssetCode:  asset.Code,
			Amount:     amount.String(),
			WalletIDs:  []string{fromWallet.WalletID, toWallet.WalletID},
			OccurredOn: time.Now(),
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TransferCompletedEventType, transfer.TransferID, event)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "internal transfer completed",
		"transfer_id", transfer.TransferID, "from", cmd.FromUserID, "to", cmd.ToUserID,
		"asset", asset.Code, "amount", amount.String())
	return toTransferDTO(transfer), nil
}

// ListByUser 列出用户参与的转账
func (s *TransferService) ListByUser(ctx context.Context, userID string, limit int) ([]*TransferDTO, error) {
	transfers, err := s.transfers.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*TransferDTO, len(transfers))
	for i, transfer := range transfers {
		dtos[i] = toTransferDTO(transfer)
	}
	return dtos, nil
}
