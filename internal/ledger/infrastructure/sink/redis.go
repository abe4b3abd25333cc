package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
	"github.com/wyfcoding/paymentsengine/pkg/cache"
)

// BatchStore 批量写入 JSON 值
type BatchStore interface {
	SetJSONBatch(ctx context.Context, entries []cache.Entry, expiration time.Duration) error
}

// RedisSink 以 <prefix><client_id> 为 key 存储账户快照
type RedisSink struct {
	store  BatchStore
	prefix string
	ttl    time.Duration
}

// NewRedisSink 创建 Redis 快照输出，ttl 为 0 表示不过期
func NewRedisSink(store BatchStore, prefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{store: store, prefix: prefix, ttl: ttl}
}

// Key 返回账户快照的 key
func (s *RedisSink) Key(id domain.ClientID) string {
	return s.prefix + strconv.FormatUint(uint64(id), 10)
}

// Write 写入全部账户快照
func (s *RedisSink) Write(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	entries := make([]cache.Entry, len(accounts))
	for i, a := range accounts {
		entries[i] = cache.Entry{Key: s.Key(a.ClientID), Value: NewSnapshot(a)}
	}
	if err := s.store.SetJSONBatch(ctx, entries, s.ttl); err != nil {
		return fmt.Errorf("failed to store account snapshots: %w", err)
	}
	return nil
}
