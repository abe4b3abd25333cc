package domain

import "github.com/shopspring/decimal"

// DisputeStatus 存款的争议状态
type DisputeStatus uint8

const (
	StatusRegular      DisputeStatus = iota // 正常
	StatusUnderDispute                      // 争议中
)

func (s DisputeStatus) String() string {
	if s == StatusUnderDispute {
		return "under_dispute"
	}
	return "regular"
}

// HistoryRecord 可争议存款的记录
// 状态流转：Regular -> UnderDispute -> 删除（Resolve 或 Chargeback）
type HistoryRecord struct {
	Status DisputeStatus
	Amount decimal.Decimal
}
