package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestWalletApply(t *testing.T) {
	wallet := NewWallet("WAL-1", "user-1", "BTC")
	wallet.Available = decimal.RequireFromString("1.5")
	wallet.Locked = decimal.RequireFromString("0.5")

	t.Run("锁定资金", func(t *testing.T) {
		available, locked, err := wallet.Apply(decimal.RequireFromString("-1"), decimal.RequireFromString("1"))
		require.NoError(t, err)
		require.True(t, available.Equal(decimal.RequireFromString("0.5")))
		require.True(t, locked.Equal(decimal.RequireFromString("1.5")))
	})

	t.Run("可用余额不足", func(t *testing.T) {
		_, _, err := wallet.Apply(decimal.RequireFromString("-2"), decimal.Zero)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		// 原钱包保持不变
		require.True(t, wallet.Available.Equal(decimal.RequireFromString("1.5")))
	})

	t.Run("冻结余额不足", func(t *testing.T) {
		_, _, err := wallet.Apply(decimal.Zero, decimal.RequireFromString("-1"))
		require.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("结果归一化到8位小数", func(t *testing.T) {
		available, _, err := wallet.Apply(decimal.RequireFromString("0.000000004"), decimal.Zero)
		require.NoError(t, err)
		require.True(t, available.Equal(decimal.RequireFromString("1.5")))
	})
}

func TestWalletTotal(t *testing.T) {
	wallet := NewWallet("WAL-1", "user-1", "BTC")
	wallet.Available = decimal.RequireFromString("1.2")
	wallet.Locked = decimal.RequireFromString("0.8")
	require.True(t, wallet.Total().Equal(decimal.NewFromInt(2)))
}

func TestNormalizeAmounts(t *testing.T) {
	t.Run("正数归一化", func(t *testing.T) {
		got, err := NormalizePositive(decimal.RequireFromString("0.123456789"))
		require.NoError(t, err)
		require.True(t, got.Equal(decimal.RequireFromString("0.12345679")))
	})

	t.Run("零被拒绝", func(t *testing.T) {
		_, err := NormalizePositive(decimal.Zero)
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("归一化后为零被拒绝", func(t *testing.T) {
		_, err := NormalizePositive(decimal.RequireFromString("0.000000001"))
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("负数非负校验", func(t *testing.T) {
		_, err := NormalizeNonNegative(decimal.RequireFromString("-0.1"))
		require.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("零通过非负校验", func(t *testing.T) {
		got, err := NormalizeNonNegative(decimal.Zero)
		require.NoError(t, err)
		require.True(t, got.IsZero())
	})
}
