package application

import "github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"

// WithdrawalDTO 提现视图
type WithdrawalDTO struct {
	WithdrawalID string `json:"withdrawal_id"`
	UserID       string `json:"user_id"`
	AssetCode    string `json:"asset_code"`
	Amount       string `json:"amount"`
	Fee          string `json:"fee"`
	NetAmount    string `json:"net_amount"`
	Network      string `json:"network"`
	Address      string `json:"address"`
	Provider     string `json:"provider,omitempty"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
}

func toWithdrawalDTO(w *domain.ExternalWithdrawal) *WithdrawalDTO {
	dto := &WithdrawalDTO{
		WithdrawalID: w.WithdrawalID,
		UserID:       w.UserID,
		AssetCode:    w.AssetCode,
		Amount:       w.Amount.String(),
		Fee:          w.Fee.String(),
		NetAmount:    w.NetAmount.String(),
		Network:      w.Network,
		Address:      w.Address,
		Status:       string(w.Status),
		CreatedAt:    w.CreatedAt.Unix(),
	}
	if w.Provider != nil {
		dto.Provider = *w.Provider
	}
	return dto
}
