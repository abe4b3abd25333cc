package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision 金额保留的小数位数
const Precision int32 = 4

var (
	// ErrEmptyAmount 金额为空
	ErrEmptyAmount = errors.New("amount is empty")
	// ErrNegativeAmount 金额为负
	ErrNegativeAmount = errors.New("amount is negative")
)

// ParseAmount 解析输入金额，拒绝负数，按银行家舍入保留 4 位小数
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, ErrNegativeAmount)
	}
	return Round(d), nil
}

// Round 将金额舍入到 Precision 位
func Round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Precision)
}

// FormatAmount 输出金额：最多 4 位小数，去掉尾随零，整数保留一位小数（0 -> "0.0"）
func FormatAmount(d decimal.Decimal) string {
	s := Round(d).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
