package application

import "github.com/wyfcoding/paymentsengine/internal/ledger/domain"

// TransactionRecorder 交易结果计数
type TransactionRecorder interface {
	RecordTransaction(kind string, applied bool)
}

// NewMetricsObserver 将处理结果转为指标
func NewMetricsObserver(recorder TransactionRecorder) domain.Observer {
	return domain.ObserverFunc(func(o domain.Outcome) {
		recorder.RecordTransaction(o.Transaction.Kind.String(), o.Applied)
	})
}

// Summary 账户快照概况
type Summary struct {
	Accounts int
	Locked   int
}

// Summarize 统计账户数与锁定账户数
func Summarize(accounts []domain.Account) Summary {
	s := Summary{Accounts: len(accounts)}
	for _, a := range accounts {
		if a.Locked {
			s.Locked++
		}
	}
	return s
}
