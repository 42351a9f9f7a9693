package service

import "github.com/shopspring/decimal"

// MoneyScale 金额列的小数位数，与 decimal(14,2) 一致
const MoneyScale = 2

var (
	// MinTransferAmount 最小转账金额 0.01
	MinTransferAmount = decimal.New(1, -MoneyScale)
	// 整数部分最多 12 位
	maxMoney = decimal.New(1, 14-MoneyScale)
)

// checkMoney 金额须能原样写入金额列：最多两位小数，整数部分不超过 12 位
func checkMoney(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return Invalid(field + " must have at most 2 decimal places")
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return Invalid(field + " is too large")
	}
	return nil
}
