package domain

import "time"

// WithdrawalRequestedEventType 提现受理事件主题，提现网关消费后发起链上交割
const WithdrawalRequestedEventType = "withdrawal.requested"

// WithdrawalRequestedEvent 提现受理事件
type WithdrawalRequestedEvent struct {
	WithdrawalID string    `json:"withdrawal_id"`
	UserID       string    `json:"user_id"`
	AssetCode    string    `json:"asset_code"`
	Amount       string    `json:"amount"`
	Fee          string    `json:"fee"`
	Network      string    `json:"network"`
	Address      string    `json:"address"`
	WalletIDs    []string  `json:"wallet_ids"`
	OccurredOn   time.Time `json:"occurred_on"`
}
