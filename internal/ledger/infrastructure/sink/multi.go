package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// Named 带名称的快照输出
type Named struct {
	Name string
	Sink domain.SnapshotSink
}

// Multi 按顺序写入多个快照输出，遇到第一个错误即停止
type Multi struct {
	sinks   []Named
	observe func(name string, d time.Duration)
}

// MultiOption Multi 可选项
type MultiOption func(*Multi)

// WithObserver 记录每个输出的耗时
func WithObserver(fn func(name string, d time.Duration)) MultiOption {
	return func(m *Multi) {
		m.observe = fn
	}
}

// NewMulti 创建组合输出
func NewMulti(sinks []Named, opts ...MultiOption) *Multi {
	m := &Multi{sinks: sinks}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Write 依次写入
func (m *Multi) Write(ctx context.Context, accounts []domain.Account) error {
	for _, s := range m.sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := s.Sink.Write(ctx, accounts)
		if m.observe != nil {
			m.observe(s.Name, time.Since(start))
		}
		if err != nil {
			return fmt.Errorf("sink %s: %w", s.Name, err)
		}
	}
	return nil
}
