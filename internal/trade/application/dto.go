package application

import (
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/trade/domain"
)

// TradeDTO 成交视图，附带市场投影
type TradeDTO struct {
	TradeID      string `json:"trade_id"`
	OrderID      string `json:"order_id"`
	MakerUserID  string `json:"maker_user_id"`
	TakerUserID  string `json:"taker_user_id"`
	BuyerUserID  string `json:"buyer_user_id"`
	SellerUserID string `json:"seller_user_id"`
	BaseAsset    string `json:"base_asset"`
	QuoteAsset   string `json:"quote_asset"`
	Price        string `json:"price"`
	BaseAmount   string `json:"base_amount"`
	QuoteAmount  string `json:"quote_amount"`
	Status       string `json:"status"`
	PaymentRef   string `json:"payment_ref,omitempty"`
	PaidAt       int64  `json:"paid_at,omitempty"`
	ReleasedAt   int64  `json:"released_at,omitempty"`
	CompletedAt  int64  `json:"completed_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

func toTradeDTO(t *domain.Trade, m *refdomain.Market) *TradeDTO {
	dto := &TradeDTO{
		TradeID:      t.TradeID,
		OrderID:      t.OrderID,
		MakerUserID:  t.MakerUserID,
		TakerUserID:  t.TakerUserID,
		BuyerUserID:  t.BuyerUserID,
		SellerUserID: t.SellerUserID,
		Price:        t.Price.String(),
		BaseAmount:   t.BaseAmount.String(),
		QuoteAmount:  t.QuoteAmount.String(),
		Status:       string(t.Status),
		CreatedAt:    t.CreatedAt.Unix(),
		UpdatedAt:    t.UpdatedAt.Unix(),
	}
	if m != nil {
		dto.BaseAsset = m.BaseAssetCode
		dto.QuoteAsset = m.QuoteAssetCode
	}
	if t.PaymentRef != nil {
		dto.PaymentRef = *t.PaymentRef
	}
	if t.PaidAt != nil {
		dto.PaidAt = t.PaidAt.Unix()
	}
	if t.ReleasedAt != nil {
		dto.ReleasedAt = t.ReleasedAt.Unix()
	}
	if t.CompletedAt != nil {
		dto.CompletedAt = t.CompletedAt.Unix()
	}
	return dto
}
