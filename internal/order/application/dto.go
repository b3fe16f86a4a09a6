package application

import (
	"github.com/wyfcoding/p2pexchange/internal/order/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
)

// OrderDTO 挂单视图，附带市场投影
type OrderDTO struct {
	OrderID             string `json:"order_id"`
	UserID              string `json:"user_id"`
	MarketID            string `json:"market_id"`
	BaseAsset           string `json:"base_asset"`
	QuoteAsset          string `json:"quote_asset"`
	Side                string `json:"side"`
	Price               string `json:"price"`
	BaseAmountTotal     string `json:"base_amount_total"`
	BaseAmountRemaining string `json:"base_amount_remaining"`
	MinQuoteAmount      string `json:"min_quote_amount"`
	MaxQuoteAmount      string `json:"max_quote_amount,omitempty"`
	Status              string `json:"status"`
	ExpiresAt           int64  `json:"expires_at,omitempty"`
	CreatedAt           int64  `json:"created_at"`
	UpdatedAt           int64  `json:"updated_at"`
}

func toOrderDTO(o *domain.Order, m *refdomain.Market) *OrderDTO {
	dto := &OrderDTO{
		OrderID:             o.OrderID,
		UserID:              o.UserID,
		MarketID:            o.MarketID,
		Side:                string(o.Side),
		Price:               o.Price.String(),
		BaseAmountTotal:     o.BaseAmountTotal.String(),
		BaseAmountRemaining: o.BaseAmountRemaining.String(),
		MinQuoteAmount:      o.MinQuoteAmount.String(),
		Status:              string(o.Status),
		CreatedAt:           o.CreatedAt.Unix(),
		UpdatedAt:           o.UpdatedAt.Unix(),
	}
	if m != nil {
		dto.BaseAsset = m.BaseAssetCode
		dto.QuoteAsset = m.QuoteAssetCode
	}
	if o.MaxQuoteAmount != nil {
		dto.MaxQuoteAmount = o.MaxQuoteAmount.String()
	}
	if o.ExpiresAt != nil {
		dto.ExpiresAt = o.ExpiresAt.Unix()
	}
	return dto
}
