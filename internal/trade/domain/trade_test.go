package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMatchedTrade() *Trade {
	return &Trade{
		TradeID:      "TRD-1",
		OrderID:      "ORD-1",
		MakerUserID:  "maker",
		TakerUserID:  "taker",
		BuyerUserID:  "taker",
		SellerUserID: "maker",
		Price:        decimal.NewFromInt(100),
		BaseAmount:   decimal.NewFromInt(1),
		QuoteAmount:  decimal.NewFromInt(100),
		Status:       TradeStatusMatched,
	}
}

func TestTradeMarkPaid(t *testing.T) {
	t.Run("买方标记付款", func(t *testing.T) {
		trade := newMatchedTrade()
		require.NoError(t, trade.MarkPaid("taker", "bank-ref-1"))
		require.Equal(t, TradeStatusPaid, trade.Status)
		require.NotNil(t, trade.PaidAt)
		require.Equal(t, "bank-ref-1", *trade.PaymentRef)
	})

	t.Run("非买方被拒绝", func(t *testing.T) {
		trade := newMatchedTrade()
		require.ErrorIs(t, trade.MarkPaid("maker", ""), ErrNotBuyer)
		require.Equal(t, TradeStatusMatched, trade.Status)
	})

	t.Run("重复标记被拒绝", func(t *testing.T) {
		trade := newMatchedTrade()
		require.NoError(t, trade.MarkPaid("taker", ""))
		require.ErrorIs(t, trade.MarkPaid("taker", ""), ErrInvalidTradeState)
	})

	t.Run("空凭证不落列", func(t *testing.T) {
		trade := newMatchedTrade()
		require.NoError(t, trade.MarkPaid("taker", ""))
		require.Nil(t, trade.PaymentRef)
	})
}

func TestTradeRelease(t *testing.T) {
	t.Run("卖方放行", func(t *testing.T) {
		trade := newMatchedTrade()
		require.NoError(t, trade.MarkPaid("taker", ""))
		require.NoError(t, trade.Release("maker"))
		require.Equal(t, TradeStatusCompleted, trade.Status)
		require.NotNil(t, trade.ReleasedAt)
		require.NotNil(t, trade.CompletedAt)
	})

	t.Run("非卖方被拒绝", func(t *testing.T) {
		trade := newMatchedTrade()
		require.NoError(t, trade.MarkPaid("taker", ""))
		require.ErrorIs(t, trade.Release("taker"), ErrNotSeller)
	})

	t.Run("未付款不能放行", func(t *testing.T) {
		trade := newMatchedTrade()
		require.ErrorIs(t, trade.Release("maker"), ErrInvalidTradeState)
		require.Equal(t, TradeStatusMatched, trade.Status)
	})
}
