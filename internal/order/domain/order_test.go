package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newSellOrder(amount string) *Order {
	return NewOrder("ORD-1", "maker", "MKT-1", OrderSideSell,
		decimal.RequireFromString("100"), decimal.RequireFromString(amount),
		decimal.Zero, nil, nil, "key-1")
}

func TestEscrowAmount(t *testing.T) {
	t.Run("卖单托管基础资产全量", func(t *testing.T) {
		order := newSellOrder("2")
		require.True(t, order.EscrowAmount().Equal(decimal.NewFromInt(2)))
	})

	t.Run("买单托管数量乘单价的计价资产", func(t *testing.T) {
		order := NewOrder("ORD-2", "maker", "MKT-1", OrderSideBuy,
			decimal.RequireFromString("100"), decimal.RequireFromString("1.5"),
			decimal.Zero, nil, nil, "key-2")
		require.True(t, order.EscrowAmount().Equal(decimal.NewFromInt(150)))
	})

	t.Run("买单托管金额归一化到8位小数", func(t *testing.T) {
		order := NewOrder("ORD-3", "maker", "MKT-1", OrderSideBuy,
			decimal.RequireFromString("0.333333333"), decimal.NewFromInt(1),
			decimal.Zero, nil, nil, "key-3")
		require.True(t, order.EscrowAmount().Equal(decimal.RequireFromString("0.33333333")))
	})
}

func TestOrderFill(t *testing.T) {
	t.Run("部分成交", func(t *testing.T) {
		order := newSellOrder("2")
		require.NoError(t, order.Fill(decimal.RequireFromString("0.5")))
		require.Equal(t, OrderStatusPartiallyFilled, order.Status)
		require.True(t, order.BaseAmountRemaining.Equal(decimal.RequireFromString("1.5")))
	})

	t.Run("完全成交", func(t *testing.T) {
		order := newSellOrder("2")
		require.NoError(t, order.Fill(decimal.NewFromInt(2)))
		require.Equal(t, OrderStatusFilled, order.Status)
		require.True(t, order.BaseAmountRemaining.IsZero())
	})

	t.Run("超出剩余量", func(t *testing.T) {
		order := newSellOrder("2")
		err := order.Fill(decimal.NewFromInt(3))
		require.ErrorIs(t, err, ErrAmountExceedsRemaining)
		require.True(t, order.BaseAmountRemaining.Equal(decimal.NewFromInt(2)))
	})
}

func TestOrderStateChecks(t *testing.T) {
	order := newSellOrder("2")
	require.True(t, order.CanBeCancelled())
	require.True(t, order.IsTakeable())

	order.Status = OrderStatusPartiallyFilled
	require.True(t, order.CanBeCancelled())
	require.True(t, order.IsTakeable())

	order.Status = OrderStatusFilled
	require.False(t, order.CanBeCancelled())
	require.False(t, order.IsTakeable())

	order.Status = OrderStatusCancelled
	require.False(t, order.CanBeCancelled())
	require.False(t, order.IsTakeable())
}
