package quant_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/teenjuna/rolling/internal/testing/require"
	"github.com/teenjuna/rolling/quant"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseDecimal(t *testing.T) {
	v, err := quant.ParseDecimal(" 12.50 ")
	require.Nil(t, err)
	require.Equal(t, v.Equal(d("12.5")), true)

	_, err = quant.ParseDecimal("  ")
	require.Equal(t, err, quant.ErrEmpty)

	_, err = quant.ParseDecimal("12,5")
	require.NotNil(t, err)
}

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		price, tick, want string
	}{
		{"101.37", "0.5", "101.5"},
		{"101.24", "0.5", "101"},
		{"0.123456", "0.0001", "0.1235"},
		{"42", "0", "42"},
	}
	for _, tt := range tests {
		got := quant.RoundToTick(d(tt.price), d(tt.tick))
		require.Equal(t, got.String(), d(tt.want).String())
	}
}

func TestFloorToStep(t *testing.T) {
	tests := []struct {
		size, step, want string
	}{
		{"1.2399", "0.01", "1.23"},
		{"-1.2399", "0.01", "-1.23"},
		{"0.009", "0.01", "0"},
		{"5", "-1", "5"},
	}
	for _, tt := range tests {
		got := quant.FloorToStep(d(tt.size), d(tt.step))
		require.Equal(t, got.String(), d(tt.want).String())
	}
}

func TestNotional(t *testing.T) {
	require.Equal(t, quant.Notional(d("0.1"), d("-3")).String(), "0.3")
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		price       string
		maxDecimals int32
		want        string
	}{
		{"1234.567", 6, "1234.6"},
		{"123456.7", 6, "123457"},
		{"1234567", 6, "1234567"},
		{"0.00123456", 6, "0.001235"},
		{"0.00123456", 8, "0.0012346"},
		{"-12.34567", 6, "-12.346"},
		{"0", 6, "0"},
	}
	for _, tt := range tests {
		got := quant.RoundPrice(d(tt.price), tt.maxDecimals)
		require.Equal(t, got.String(), d(tt.want).String())
	}

	require.PanicWithError(t, "max decimals can't be < 0", func() {
		_ = quant.RoundPrice(d("1"), -1)
	})
}

func TestVWAP(t *testing.T) {
	vwap, err := quant.VWAP(
		[]decimal.Decimal{d("100"), d("110")},
		[]decimal.Decimal{d("1"), d("3")},
	)
	require.Nil(t, err)
	require.Equal(t, vwap.String(), "107.5")

	vwap, err = quant.VWAP(nil, nil)
	require.Nil(t, err)
	require.Equal(t, vwap.IsZero(), true)

	_, err = quant.VWAP([]decimal.Decimal{d("1")}, nil)
	require.Equal(t, err, quant.ErrMismatch)
}
