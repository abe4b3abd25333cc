package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	d, err := Dialector(Config{Driver: "mysql", DSN: "user:pass@tcp(localhost:3306)/ledger"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialector(Config{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver: oracle")

	_, err = Init(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestGormLoggerTrace(t *testing.T) {
	calls := 0
	fc := func() (string, int64) {
		calls++
		return "INSERT INTO account_snapshots", 3
	}

	quiet := NewGormLogger(false, time.Second)
	quiet.Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 0, calls)

	quiet.Trace(context.Background(), time.Now(), fc, errors.New("deadlock"))
	assert.Equal(t, 1, calls)

	quiet.Trace(context.Background(), time.Now().Add(-2*time.Second), fc, nil)
	assert.Equal(t, 2, calls)

	verbose := NewGormLogger(true, time.Second)
	verbose.Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 3, calls)
	assert.Same(t, verbose, verbose.LogMode(0))
}

func TestConvertStringsToColumns(t *testing.T) {
	cols := convertStringsToColumns([]string{"client_id", "run_id"})
	require.Len(t, cols, 2)
	assert.Equal(t, "client_id", cols[0].Name)
	assert.Equal(t, "run_id", cols[1].Name)
}
