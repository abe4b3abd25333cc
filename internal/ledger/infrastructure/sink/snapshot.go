// Package sink 账户快照的外部输出：Kafka、Redis、MySQL
package sink

import (
	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// Snapshot 账户快照的对外表示，金额按四位小数格式化为字符串
type Snapshot struct {
	Client    domain.ClientID `json:"client"`
	Available string          `json:"available"`
	Held      string          `json:"held"`
	Total     string          `json:"total"`
	Locked    bool            `json:"locked"`
}

// NewSnapshot 由账户生成快照
func NewSnapshot(a domain.Account) Snapshot {
	return Snapshot{
		Client:    a.ClientID,
		Available: domain.FormatAmount(a.Available),
		Held:      domain.FormatAmount(a.Held),
		Total:     domain.FormatAmount(a.Total),
		Locked:    a.Locked,
	}
}
