// Package csvio 交易 CSV 的读取与账户快照的 CSV 输出
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
)

// 输入列名
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

const byteOrderMark = "\ufeff"

var (
	// ErrInvalidHeader 表头缺少必需列
	ErrInvalidHeader = errors.New("invalid csv header")
	// ErrMalformedRecord 单行无法解析，可跳过
	ErrMalformedRecord = fmt.Errorf("csv %w", domain.ErrMalformedTransaction)
)

// RecordError 单行解析失败
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// Reader 逐行解析交易记录
type Reader struct {
	csv     *csv.Reader
	closer  io.Closer
	columns map[string]int
	width   int
}

// Open 打开交易文件
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader 读取表头并按列名定位各列
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrInvalidHeader)
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, byteOrderMark)
		}
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{ColumnType, ColumnClient, ColumnTx, ColumnAmount} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidHeader, required)
		}
	}

	return &Reader{csv: cr, columns: columns, width: len(header)}, nil
}

// Next 返回下一笔交易。
// 单行错误以 *RecordError 返回，调用方可以继续读取；读完返回 io.EOF。
func (r *Reader) Next() (domain.Transaction, error) {
	record, err := r.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return domain.Transaction{}, &RecordError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return domain.Transaction{}, err
	}

	line, _ := r.csv.FieldPos(0)
	tx, err := r.parse(record)
	if err != nil {
		return domain.Transaction{}, &RecordError{Line: line, Err: err}
	}
	return tx, nil
}

func (r *Reader) parse(record []string) (domain.Transaction, error) {
	if len(record) != r.width {
		return domain.Transaction{}, fmt.Errorf("expected %d fields, got %d", r.width, len(record))
	}
	field := func(name string) string {
		return strings.TrimSpace(record[r.columns[name]])
	}

	kind, err := domain.ParseKind(field(ColumnType))
	if err != nil {
		return domain.Transaction{}, err
	}
	client, err := strconv.ParseUint(field(ColumnClient), 10, 16)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid client: %w", err)
	}
	txID, err := strconv.ParseUint(field(ColumnTx), 10, 32)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid tx: %w", err)
	}

	clientID, id := domain.ClientID(client), domain.TxID(txID)
	switch kind {
	case domain.KindDeposit, domain.KindWithdrawal:
		amount, err := domain.ParseAmount(field(ColumnAmount))
		if err != nil {
			return domain.Transaction{}, err
		}
		if kind == domain.KindDeposit {
			return domain.NewDeposit(clientID, id, amount), nil
		}
		return domain.NewWithdrawal(clientID, id, amount), nil
	case domain.KindDispute:
		return domain.NewDispute(clientID, id), nil
	case domain.KindResolve:
		return domain.NewResolve(clientID, id), nil
	default:
		return domain.NewChargeback(clientID, id), nil
	}
}

// Close 关闭底层文件
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
