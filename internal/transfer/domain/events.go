package domain

import "time"

// TransferCompletedEventType 转账完成事件主题
const TransferCompletedEventType = "transfer.completed"

// TransferCompletedEvent 转账完成事件
type TransferCompletedEvent struct {
	TransferID string    `json:"transfer_id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	AssetCode  string    `json:"asset_code"`
	Amount     string    `json:"amount"`
	WalletIDs  []string  `json:"wallet_ids"`
	OccurredOn time.Time `json:"occurred_on"`
}
