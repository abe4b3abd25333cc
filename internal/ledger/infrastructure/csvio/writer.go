package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// Header 快照输出表头
var Header = []string{"client", "available", "held", "total", "locked"}

// Writer 以 CSV 输出账户快照
type Writer struct {
	w io.Writer
}

// NewWriter 创建 CSV 快照输出
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write 输出表头与每个账户一行
func (w *Writer) Write(ctx context.Context, accounts []domain.Account) error {
	cw := csv.NewWriter(w.w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(Header))
	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			return err
		}
		row[0] = strconv.FormatUint(uint64(a.ClientID), 10)
		row[1] = domain.FormatAmount(a.Available)
		row[2] = domain.FormatAmount(a.Held)
		row[3] = domain.FormatAmount(a.Total)
		row[4] = strconv.FormatBool(a.Locked)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write account %d: %w", a.ClientID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
