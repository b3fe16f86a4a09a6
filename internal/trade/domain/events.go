package domain

import "time"

// TradeSettledEventType 成交结算完成事件主题
const TradeSettledEventType = "trade.settled"

// TradeSettledEvent 成交结算完成事件
// WalletIDs 为本次结算触碰到的四个钱包，下游投影按此刷新读模型
type TradeSettledEvent struct {
	TradeID      string    `json:"trade_id"`
	OrderID      string    `json:"order_id"`
	BuyerUserID  string    `json:"buyer_user_id"`
	SellerUserID string    `json:"seller_user_id"`
	BaseAmount   string    `json:"base_amount"`
	QuoteAmount  string    `json:"quote_amount"`
	WalletIDs    []string  `json:"wallet_ids"`
	OccurredOn   time.Time `json:"occurred_on"`
}
