// Package quant contains decimal helpers for order pricing and sizing.
//
// All helpers work on [decimal.Decimal] so prices and sizes never pass through float64.
package quant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SignificantFigures is the maximum number of significant figures allowed in a non-integer price.
const SignificantFigures = 5

var (
	ErrEmpty    = errors.New("empty decimal")
	ErrMismatch = errors.New("prices and sizes differ in length")
)

// ParseDecimal parses a trimmed decimal string.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", s, err)
	}
	return d, nil
}

// RoundToTick rounds price to the nearest multiple of tick. A non-positive tick leaves price as is.
func RoundToTick(price, tick decimal.Decimal) decimal.Decimal {
	if !tick.IsPositive() {
		return price
	}
	return price.Div(tick).Round(0).Mul(tick)
}

// FloorToStep rounds size toward zero to a multiple of step, so an order never exceeds the size
// asked for. A non-positive step leaves size as is.
func FloorToStep(size, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return size
	}
	return size.Div(step).Truncate(0).Mul(step)
}

// Notional returns the absolute value of price times size.
func Notional(price, size decimal.Decimal) decimal.Decimal {
	return price.Mul(size).Abs()
}

// RoundPrice rounds price to at most [SignificantFigures] significant figures and at most
// maxDecimals decimal places. Integer prices are always allowed, whatever their number of figures.
func RoundPrice(price decimal.Decimal, maxDecimals int32) decimal.Decimal {
	if maxDecimals < 0 {
		panic("max decimals can't be < 0")
	}
	if price.IsZero() {
		return price
	}

	abs := price.Abs()
	integerDigits := int32(abs.NumDigits()) + abs.Exponent()
	places := SignificantFigures - integerDigits
	places = max(places, 0)
	places = min(places, maxDecimals)

	return price.Round(places)
}

// VWAP returns the volume-weighted average price of the given fills. It returns zero when the
// total size is zero.
func VWAP(prices, sizes []decimal.Decimal) (decimal.Decimal, error) {
	if len(prices) != len(sizes) {
		return decimal.Zero, ErrMismatch
	}

	var notional, volume decimal.Decimal
	for i := range prices {
		notional = notional.Add(Notional(prices[i], sizes[i]))
		volume = volume.Add(sizes[i].Abs())
	}

	if volume.IsZero() {
		return decimal.Zero, nil
	}
	return notional.Div(volume), nil
}
