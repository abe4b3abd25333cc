package domain

import "errors"

// 交易被忽略的原因，只用于观测，不向调用方返回
var (
	ErrInsufficientFunds  = errors.New("insufficient available funds")
	ErrUnknownTransaction = errors.New("referenced transaction not found")
	ErrAlreadyDisputed    = errors.New("transaction already under dispute")
	ErrNotDisputed        = errors.New("transaction not under dispute")
	ErrUnsupportedKind    = errors.New("unsupported transaction kind")
)

// ErrMalformedTransaction 输入记录无法转换为交易，读取端可跳过后继续
var ErrMalformedTransaction = errors.New("malformed transaction record")

// Outcome 单笔交易的处理结果
type Outcome struct {
	Transaction Transaction
	// 是否改变了账户状态
	Applied bool
	// 未生效时的原因
	Reason error
}

// Observer 接收每笔交易的处理结果
type Observer interface {
	Observe(Outcome)
}

// ObserverFunc 函数适配器
type ObserverFunc func(Outcome)

func (f ObserverFunc) Observe(o Outcome) { f(o) }
