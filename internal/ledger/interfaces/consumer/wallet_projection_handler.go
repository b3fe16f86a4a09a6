package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/p2pexchange/internal/ledger/application"
)

// 资金事件主题
// 载荷中携带受影响的钱包 ID 列表，投影逐个刷新
const (
	TradeSettledTopic        = "trade.settled"
	TransferCompletedTopic   = "transfer.completed"
	WithdrawalRequestedTopic = "withdrawal.requested"
)

// WalletProjectionHandler 钱包读模型投影消费者
type WalletProjectionHandler struct {
	projector *application.WalletProjectionService
	logger    *slog.Logger
}

// NewWalletProjectionHandler 创建投影消费者
func NewWalletProjectionHandler(projector *application.WalletProjectionService, logger *slog.Logger) *WalletProjectionHandler {
	return &WalletProjectionHandler{projector: projector, logger: logger}
}

func (h *WalletProjectionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case TradeSettledTopic, TransferCompletedTopic, WithdrawalRequestedTopic:
		var payload struct {
			WalletIDs []string `json:"wallet_ids"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal funding event", "topic", msg.Topic, "error", err)
			return err
		}
		for _, walletID := range payload.WalletIDs {
			if walletID == "" {
				continue
			}
			if err := h.projector.Refresh(ctx, walletID); err != nil {
				return err
			}
		}
		return nil
	default:
		h.logger.WarnContext(ctx, "unknown funding event topic", "topic", msg.Topic)
		return nil
	}
}
