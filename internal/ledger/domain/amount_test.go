package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1"},
		{" 2.5 ", "2.5"},
		{"30.123", "30.123"},
		{"0.123456789", "0.1235"},
		{"0.00005", "0"},      // half to even
		{"0.00015", "0.0002"}, // half to even
		{"1e2", "100"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "ParseAmount(%q) = %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseAmountRejects(t *testing.T) {
	_, err := ParseAmount("")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = ParseAmount("   ")
	assert.ErrorIs(t, err, ErrEmptyAmount)

	_, err = ParseAmount("-1.0")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	for _, in := range []string{"abc", "1.2.3", "1,5", "NaN"} {
		_, err = ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{decimal.Zero, "0.0"},
		{decimal.NewFromInt(2), "2.0"},
		{decimal.RequireFromString("1.50"), "1.5"},
		{decimal.RequireFromString("10.0000"), "10.0"},
		{decimal.RequireFromString("0.123456789"), "0.1235"},
		{decimal.RequireFromString("-3.25"), "-3.25"},
		{decimal.RequireFromString("1234567.0001"), "1234567.0001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in), tt.in.String())
	}
}
