package application

import "github.com/wyfcoding/p2pexchange/internal/ledger/domain"

// WalletDTO 钱包视图
type WalletDTO struct {
	WalletID  string `json:"wallet_id"`
	UserID    string `json:"user_id"`
	AssetCode string `json:"asset_code"`
	Available string `json:"available"`
	Locked    string `json:"locked"`
	Version   int64  `json:"version"`
	UpdatedAt int64  `json:"updated_at"`
}

func toWalletDTO(w *domain.Wallet) *WalletDTO {
	return &WalletDTO{
		WalletID:  w.WalletID,
		UserID:    w.UserID,
		AssetCode: w.AssetCode,
		Available: w.Available.String(),
		Locked:    w.Locked.String(),
		Version:   w.Version,
		UpdatedAt: w.UpdatedAt.Unix(),
	}
}
