// Package domain 交易账本的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ClientID 客户端标识
type ClientID uint16

// TxID 交易标识，由上游生成
type TxID uint32

// Account 客户账户
// Total 始终等于 Available + Held，只在每笔交易处理后重新计算
type Account struct {
	// 客户 ID
	ClientID ClientID `json:"client"`
	// 可用余额
	Available decimal.Decimal `json:"available"`
	// 争议冻结余额
	Held decimal.Decimal `json:"held"`
	// 总余额 = 可用余额 + 冻结余额
	Total decimal.Decimal `json:"total"`
	// 发生拒付后锁定，不可解除
	Locked bool `json:"locked"`
}

// NewAccount 创建空账户
func NewAccount(clientID ClientID) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		Total:     decimal.Zero,
	}
}

// Deposit 入账
func (a *Account) Deposit(amount decimal.Decimal) {
	a.Available = Round(a.Available.Add(amount))
}

// Withdraw 出账，可用余额不足时返回 ErrInsufficientFunds
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Available = Round(a.Available.Sub(amount))
	return nil
}

// Hold 将可用资金转入冻结
func (a *Account) Hold(amount decimal.Decimal) error {
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Available = Round(a.Available.Sub(amount))
	a.Held = Round(a.Held.Add(amount))
	return nil
}

// Release 将冻结资金退回可用
func (a *Account) Release(amount decimal.Decimal) {
	a.Held = Round(a.Held.Sub(amount))
	a.Available = Round(a.Available.Add(amount))
}

// Chargeback 扣除冻结资金并锁定账户
func (a *Account) Chargeback(amount decimal.Decimal) {
	a.Held = Round(a.Held.Sub(amount))
	a.Locked = true
}

// RecomputeTotal 重新计算总余额
func (a *Account) RecomputeTotal() {
	a.Total = a.Available.Add(a.Held)
}

// SnapshotSink 账户快照输出目标
type SnapshotSink interface {
	Write(ctx context.Context, accounts []Account) error
}
