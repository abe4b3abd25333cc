package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// AccountSnapshotPO 账户快照持久化对象
type AccountSnapshotPO struct {
	ClientID  uint16          `gorm:"column:client_id;primaryKey;autoIncrement:false;comment:客户ID"`
	Available decimal.Decimal `gorm:"column:available;type:decimal(32,4);not null;comment:可用余额"`
	Held      decimal.Decimal `gorm:"column:held;type:decimal(32,4);not null;comment:冻结余额"`
	Total     decimal.Decimal `gorm:"column:total;type:decimal(32,4);not null;comment:总余额"`
	Locked    bool            `gorm:"column:locked;not null;default:false;comment:是否锁定"`
	UpdatedAt time.Time       `gorm:"column:updated_at;comment:快照时间"`
}

// TableName 指定表名
func (AccountSnapshotPO) TableName() string {
	return "account_snapshots"
}

// Upserter 批量写入，冲突时更新
type Upserter interface {
	UpsertBatch(ctx context.Context, records any, uniqueFields, updateFields []string, batchSize int) error
}

var snapshotUpdateColumns = []string{"available", "held", "total", "locked", "updated_at"}

// MySQLSink 以 upsert 方式写入 account_snapshots
type MySQLSink struct {
	store     Upserter
	batchSize int
	now       func() time.Time
}

// NewMySQLSink 创建 MySQL 快照输出
func NewMySQLSink(store Upserter, batchSize int) *MySQLSink {
	return &MySQLSink{store: store, batchSize: batchSize, now: time.Now}
}

// Write 写入全部账户快照
func (s *MySQLSink) Write(ctx context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	now := s.now()
	records := make([]*AccountSnapshotPO, len(accounts))
	for i, a := range accounts {
		records[i] = &AccountSnapshotPO{
			ClientID:  uint16(a.ClientID),
			Available: domain.Round(a.Available),
			Held:      domain.Round(a.Held),
			Total:     domain.Round(a.Total),
			Locked:    a.Locked,
			UpdatedAt: now,
		}
	}
	if err := s.store.UpsertBatch(ctx, records, []string{"client_id"}, snapshotUpdateColumns, s.batchSize); err != nil {
		return fmt.Errorf("failed to upsert account snapshots: %w", err)
	}
	return nil
}
