package domain

import "github.com/shopspring/decimal"

// NormalizePositive 校验并归一化正金额
// 非正数或归一化后为零均返回 ErrInvalidAmount
func NormalizePositive(value decimal.Decimal) (decimal.Decimal, error) {
	if !value.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	normalized := value.Round(AmountPrecision)
	if !normalized.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return normalized, nil
}

// NormalizeNonNegative 校验并归一化非负金额
func NormalizeNonNegative(value decimal.Decimal) (decimal.Decimal, error) {
	if value.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return value.Round(AmountPrecision), nil
}
