package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/paymentsengine/internal/ledger/application"
	"github.com/wyfcoding/paymentsengine/internal/ledger/domain"
	"github.com/wyfcoding/paymentsengine/internal/ledger/infrastructure/csvio"
)

type step struct {
	tx  domain.Transaction
	err error
}

type sliceSource struct {
	steps []step
	calls atomic.Int64
}

func (s *sliceSource) Next() (domain.Transaction, error) {
	i := int(s.calls.Add(1)) - 1
	if i >= len(s.steps) {
		return domain.Transaction{}, io.EOF
	}
	return s.steps[i].tx, s.steps[i].err
}

type recordingLedger struct {
	mu  sync.Mutex
	got []domain.TxID
}

func (l *recordingLedger) Apply(tx domain.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, tx.TxID)
}

func deposits(n int) []step {
	steps := make([]step, n)
	for i := range steps {
		steps[i] = step{tx: domain.NewDeposit(1, domain.TxID(i), decimal.NewFromInt(1))}
	}
	return steps
}

func TestRunPreservesOrder(t *testing.T) {
	source := &sliceSource{steps: deposits(500)}
	ledger := &recordingLedger{}

	stats, err := New(WithBufferSize(1)).Run(context.Background(), source, ledger)
	require.NoError(t, err)

	require.Len(t, ledger.got, 500)
	for i, id := range ledger.got {
		require.Equal(t, domain.TxID(i), id)
	}
	assert.Equal(t, Stats{Delivered: 500, Processed: 500}, stats)
}

func TestRunSkipsSkippableErrors(t *testing.T) {
	steps := deposits(3)
	steps = append(steps[:1], append([]step{{err: fmt.Errorf("line 3: %w", domain.ErrMalformedTransaction)}}, steps[1:]...)...)

	var skipped []error
	ledger := &recordingLedger{}
	stats, err := New(WithSkipHook(func(err error) { skipped = append(skipped, err) })).
		Run(context.Background(), &sliceSource{steps: steps}, ledger)

	require.NoError(t, err)
	assert.Equal(t, []domain.TxID{0, 1, 2}, ledger.got)
	assert.Equal(t, Stats{Delivered: 3, Skipped: 1, Processed: 3}, stats)
	require.Len(t, skipped, 1)
	assert.ErrorIs(t, skipped[0], domain.ErrMalformedTransaction)
}

func TestRunStopsOnFatalError(t *testing.T) {
	boom := errors.New("disk gone")
	steps := append(deposits(2), step{err: boom})
	steps = append(steps, deposits(2)...)

	ledger := &recordingLedger{}
	stats, err := New().Run(context.Background(), &sliceSource{steps: steps}, ledger)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []domain.TxID{0, 1}, ledger.got)
	assert.Equal(t, 2, stats.Processed)
}

type blockingLedger struct {
	release chan struct{}
	applied atomic.Int64
}

func (l *blockingLedger) Apply(domain.Transaction) {
	<-l.release
	l.applied.Add(1)
}

func TestRunBackpressure(t *testing.T) {
	const buffer = 2
	source := &sliceSource{steps: deposits(50)}
	ledger := &blockingLedger{release: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := New(WithBufferSize(buffer)).Run(context.Background(), source, ledger)
		done <- err
	}()

	// 消费者持有 1 条，队列 buffer 条，生产者阻塞在第 buffer+2 条的投递上
	limit := int64(buffer + 2)
	assert.Eventually(t, func() bool { return source.calls.Load() == limit }, time.Second, time.Millisecond)
	assert.Never(t, func() bool { return source.calls.Load() > limit }, 50*time.Millisecond, 5*time.Millisecond)

	close(ledger.release)
	require.NoError(t, <-done)
	assert.EqualValues(t, 50, ledger.applied.Load())
}

type endlessSource struct{}

func (endlessSource) Next() (domain.Transaction, error) {
	return domain.NewDeposit(1, 1, decimal.NewFromInt(1)), nil
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ledger := &blockingLedger{release: make(chan struct{})}
	close(ledger.release)

	done := make(chan error, 1)
	go func() {
		_, err := New().Run(ctx, endlessSource{}, ledger)
		done <- err
	}()

	assert.Eventually(t, func() bool { return ledger.applied.Load() > 10 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after cancellation")
	}
}

func runCSV(t *testing.T, input string) (string, Stats) {
	t.Helper()
	reader, err := csvio.NewReader(strings.NewReader(input))
	require.NoError(t, err)

	engine := application.NewEngine()
	stats, err := New(WithBufferSize(4)).Run(context.Background(), reader, engine)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, csvio.NewWriter(&out).Write(context.Background(), engine.Accounts()))
	return out.String(), stats
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantStats Stats
	}{
		{
			name: "deposits and withdrawals",
			input: "type, client, tx, amount\n" +
				"deposit, 1, 1, 1.0\n" +
				"deposit, 2, 2, 2.0\n" +
				"deposit, 1, 3, 2.0\n" +
				"withdrawal, 1, 4, 1.5\n" +
				"withdrawal, 2, 5, 3.0\n",
			want: "client,available,held,total,locked\n" +
				"1,1.5,0.0,1.5,false\n" +
				"2,2.0,0.0,2.0,false\n",
			wantStats: Stats{Delivered: 5, Processed: 5},
		},
		{
			name: "chargeback locks account",
			input: "type,client,tx,amount\n" +
				"deposit,1,1,10\n" +
				"deposit,1,2,5\n" +
				"dispute,1,2,\n" +
				"chargeback,1,2,\n",
			want: "client,available,held,total,locked\n" +
				"1,10.0,0.0,10.0,true\n",
			wantStats: Stats{Delivered: 4, Processed: 4},
		},
		{
			name: "dispute rejected for insufficient funds",
			input: "type,client,tx,amount\n" +
				"deposit,1,1,10\n" +
				"withdrawal,1,2,5\n" +
				"dispute,1,1,\n",
			want: "client,available,held,total,locked\n" +
				"1,5.0,0.0,5.0,false\n",
			wantStats: Stats{Delivered: 3, Processed: 3},
		},
		{
			name: "malformed rows skipped",
			input: "type,client,tx,amount\n" +
				"deposit,3,1,0.55555\n" +
				"refund,3,2,1\n" +
				"deposit,3,3,oops\n" +
				"dispute,3,1,\n",
			want: "client,available,held,total,locked\n" +
				"3,0.0,0.5556,0.5556,false\n",
			wantStats: Stats{Delivered: 2, Skipped: 2, Processed: 2},
		},
		{
			name:      "header only",
			input:     "type,client,tx,amount\n",
			want:      "client,available,held,total,locked\n",
			wantStats: Stats{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats := runCSV(t, tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStats, stats)
		})
	}
}
