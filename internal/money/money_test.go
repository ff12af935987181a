package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRupees(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"250", 25000},
		{"250.5", 25050},
		{"1,200.75", 120075},
		{"0.005", 1},
		{"0", 0},
	}
	for _, tc := range cases {
		got, err := ParseRupees(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "-1", "abc", "1e30"} {
		_, err := ParseRupees(bad)
		assert.ErrorIs(t, err, ErrInvalidMoney, bad)
	}
}

func TestRupeesToPaise(t *testing.T) {
	got, err := RupeesToPaise(12.34)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)

	_, err = RupeesToPaise(-0.01)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestPaiseToRupeesString(t *testing.T) {
	assert.Equal(t, "123.45", PaiseToRupeesString(12345))
	assert.Equal(t, "-30.00", PaiseToRupeesString(-3000))
	assert.Equal(t, "0.07", PaiseToRupeesString(7))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 40.0, Percent(40, 100))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 125.0, Percent(125, 100))
	assert.Equal(t, 0.0, Percent(10, 0))
}

func TestSumOverflow(t *testing.T) {
	total, err := Sum(100, -40, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(65), total)

	_, err = Sum(1<<62, 1<<62)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestMulOverflow(t *testing.T) {
	got, err := Mul(3, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), got)

	got, err = Mul(0, math.MaxInt64)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = Mul(1<<32, 1<<32)
	assert.ErrorIs(t, err, ErrInvalidMoney)
	_, err = Mul(-1, math.MinInt64)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}
