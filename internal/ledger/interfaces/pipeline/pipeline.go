// Package pipeline 将交易读取端与账本引擎通过有界队列连接：
// 单生产者按文件顺序投递，单消费者按顺序交给引擎处理，队列满时生产者阻塞。
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// DefaultBufferSize 默认队列容量
const DefaultBufferSize = 100

// Source 交易来源，读完返回 io.EOF；可跳过的单行错误需包装 domain.ErrMalformedTransaction
type Source interface {
	Next() (domain.Transaction, error)
}

// Ledger 交易处理端
type Ledger interface {
	Apply(tx domain.Transaction)
}

// Stats 一次运行的统计
type Stats struct {
	// 成功解析并投递的记录数
	Delivered int
	// 解析失败被跳过的记录数
	Skipped int
	// 引擎处理的记录数
	Processed int
}

// Option 流水线选项
type Option func(*Pipeline)

// WithBufferSize 设置队列容量
func WithBufferSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithLogger 注入日志实例
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithSkipHook 每跳过一条记录调用一次
func WithSkipHook(fn func(err error)) Option {
	return func(p *Pipeline) { p.onSkip = fn }
}

// Pipeline 生产者/消费者流水线
type Pipeline struct {
	bufferSize int
	onSkip     func(err error)
	logger     *slog.Logger
}

// New 创建流水线
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		bufferSize: DefaultBufferSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run 读完来源中的全部交易并按顺序交给 ledger，返回运行统计。
// 只有来源读取失败或 ctx 取消才会返回错误。
func (p *Pipeline) Run(ctx context.Context, source Source, ledger Ledger) (Stats, error) {
	var stats Stats
	queue := make(chan domain.Transaction, p.bufferSize)

	g, ctx := errgroup.WithContext(ctx)

	// 生产者
	g.Go(func() error {
		defer close(queue)
		for {
			tx, err := source.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if !errors.Is(err, domain.ErrMalformedTransaction) {
					return err
				}
				stats.Skipped++
				p.logger.WarnContext(ctx, "failed to parse transaction", "error", err)
				if p.onSkip != nil {
					p.onSkip(err)
				}
				continue
			}

			select {
			case queue <- tx:
				stats.Delivered++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	// 消费者
	g.Go(func() error {
		for tx := range queue {
			ledger.Apply(tx)
			stats.Processed++
		}
		return nil
	})

	err := g.Wait()
	return stats, err
}
