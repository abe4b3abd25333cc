// Package application 账本引擎：按到达顺序处理交易并维护账户与争议状态。
// 引擎不是并发安全的，必须由单一消费者按顺序驱动。
package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// Option 引擎选项
type Option func(*Engine)

// WithLogger 注入日志实例
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver 注册处理结果观察者
func WithObserver(observer domain.Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, observer) }
}

// Engine 账本引擎，独占账户表与存款历史表
type Engine struct {
	accounts  map[domain.ClientID]*domain.Account
	order     []domain.ClientID
	history   map[domain.TxID]*domain.HistoryRecord
	logger    *slog.Logger
	observers []domain.Observer
}

// NewEngine 创建空引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		accounts: make(map[domain.ClientID]*domain.Account),
		history:  make(map[domain.TxID]*domain.HistoryRecord),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply 处理一笔交易。不满足前置条件的交易被静默忽略，不返回错误。
func (e *Engine) Apply(tx domain.Transaction) {
	account := e.account(tx.ClientID)

	var reason error
	switch tx.Kind {
	case domain.KindDeposit:
		account.Deposit(tx.Amount)
		e.history[tx.TxID] = &domain.HistoryRecord{Status: domain.StatusRegular, Amount: tx.Amount}
	case domain.KindWithdrawal:
		reason = account.Withdraw(tx.Amount)
	case domain.KindDispute:
		reason = e.dispute(account, tx.TxID)
	case domain.KindResolve:
		var record *domain.HistoryRecord
		if record, reason = e.disputed(tx.TxID); reason == nil {
			account.Release(record.Amount)
			delete(e.history, tx.TxID)
		}
	case domain.KindChargeback:
		var record *domain.HistoryRecord
		if record, reason = e.disputed(tx.TxID); reason == nil {
			account.Chargeback(record.Amount)
			delete(e.history, tx.TxID)
		}
	default:
		reason = domain.ErrUnsupportedKind
	}

	account.RecomputeTotal()
	e.emit(tx, reason)
}

func (e *Engine) dispute(account *domain.Account, txID domain.TxID) error {
	record, ok := e.history[txID]
	if !ok {
		return domain.ErrUnknownTransaction
	}
	if record.Status != domain.StatusRegular {
		return domain.ErrAlreadyDisputed
	}
	if err := account.Hold(record.Amount); err != nil {
		return err
	}
	record.Status = domain.StatusUnderDispute
	return nil
}

func (e *Engine) disputed(txID domain.TxID) (*domain.HistoryRecord, error) {
	record, ok := e.history[txID]
	if !ok {
		return nil, domain.ErrUnknownTransaction
	}
	if record.Status != domain.StatusUnderDispute {
		return nil, domain.ErrNotDisputed
	}
	return record, nil
}

// account 取得账户，首次出现时创建并记录顺序
func (e *Engine) account(id domain.ClientID) *domain.Account {
	if a, ok := e.accounts[id]; ok {
		return a
	}
	a := domain.NewAccount(id)
	e.accounts[id] = a
	e.order = append(e.order, id)
	return a
}

func (e *Engine) emit(tx domain.Transaction, reason error) {
	outcome := domain.Outcome{Transaction: tx, Applied: reason == nil, Reason: reason}

	if e.logger.Enabled(context.Background(), slog.LevelDebug) {
		attrs := []any{
			"client", tx.ClientID,
			"tx", tx.TxID,
			"type", tx.Kind.String(),
		}
		if tx.Kind.HasAmount() {
			attrs = append(attrs, "amount", domain.FormatAmount(tx.Amount))
		}
		if reason != nil {
			e.logger.Debug("transaction ignored", append(attrs, "reason", reason.Error())...)
		} else {
			e.logger.Debug("transaction applied", attrs...)
		}
	}

	for _, o := range e.observers {
		o.Observe(outcome)
	}
}

// Accounts 导出账户快照（值拷贝），按客户首次出现顺序排列
func (e *Engine) Accounts() []domain.Account {
	out := make([]domain.Account, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, *e.accounts[id])
	}
	return out
}

// HistorySize 当前可争议存款记录数
func (e *Engine) HistorySize() int {
	return len(e.history)
}
