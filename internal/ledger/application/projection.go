package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
)

// WalletProjectionService 钱包读模型投影
// 消费资金事件后把受影响钱包的最新余额刷进缓存
type WalletProjectionService struct {
	wallets  domain.WalletRepository
	readRepo domain.WalletReadRepository
	logger   *slog.Logger
}

// NewWalletProjectionService 创建投影服务
func NewWalletProjectionService(wallets domain.WalletRepository, readRepo domain.WalletReadRepository, logger *slog.Logger) *WalletProjectionService {
	return &WalletProjectionService{wallets: wallets, readRepo: readRepo, logger: logger}
}

// Refresh 以数据库为准刷新单个钱包的读模型
func (s *WalletProjectionService) Refresh(ctx context.Context, walletID string) error {
	wallet, err := s.wallets.Get(ctx, walletID)
	if err != nil {
		if err == domain.ErrWalletNotFound {
			return s.readRepo.Delete(ctx, walletID)
		}
		return err
	}
	if err := s.readRepo.Save(ctx, wallet); err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh wallet read model", "wallet_id", walletID, "error", err)
		return err
	}
	return nil
}
