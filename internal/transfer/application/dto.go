package application

import "github.com/wyfcoding/p2pexchange/internal/transfer/domain"

// TransferDTO 转账视图
type TransferDTO struct {
	TransferID  string `json:"transfer_id"`
	FromUserID  string `json:"from_user_id"`
	ToUserID    string `json:"to_user_id"`
	AssetCode   string `json:"asset_code"`
	Amount      string `json:"amount"`
	Note        string `json:"note,omitempty"`
	Status      string `json:"status"`
	CompletedAt int64  `json:"completed_at,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func toTransferDTO(t *domain.InternalTransfer) *TransferDTO {
	dto := &TransferDTO{
		TransferID: t.TransferID,
		FromUserID: t.FromUserID,
		ToUserID:   t.ToUserID,
		AssetCode:  t.AssetCode,
		Amount:     t.Amount.String(),
		Status:     string(t.Status),
		CreatedAt:  t.CreatedAt.Unix(),
	}
	if t.Note != nil {
		dto.Note = *t.Note
	}
	if t.CompletedAt != nil {
		dto.CompletedAt = t.CompletedAt.Unix()
	}
	return dto
}
