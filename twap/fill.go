// Package twap keeps the execution history of TWAP orders.
package twap

import (
	"cmp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/teenjuna/rolling"
	"github.com/teenjuna/rolling/quant"
)

type Status string

const (
	StatusActivated  Status = "activated"
	StatusFilled     Status = "filled"
	StatusFinished   Status = "finished"
	StatusTerminated Status = "terminated"
	StatusError      Status = "error"
)

// Fill is one update of a TWAP order: its activation, a slice fill, or its end.
//
// Successive updates of the same order share an ID.
type Fill struct {
	ID     string          `json:"id" msg:"id"`
	Coin   string          `json:"coin" msg:"coin"`
	Side   string          `json:"side" msg:"side"`
	Status Status          `json:"status" msg:"status"`
	Time   int64           `json:"time" msg:"time"`
	Price  decimal.Decimal `json:"px" msg:"px"`
	Size   decimal.Decimal `json:"sz" msg:"sz"`
}

// Key identifies the order a fill belongs to.
func Key(f Fill) string {
	return f.ID
}

// Compare orders fills newest first, so a full history evicts the oldest fills.
func Compare(a, b Fill) int {
	if c := cmp.Compare(b.Time, a.Time); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// ShouldReplace keeps the latest update of every order.
func ShouldReplace(existing, incoming Fill) bool {
	return incoming.Time >= existing.Time
}

// NewHistory returns a store keeping the latest update of the maxSize most recent orders.
func NewHistory(maxSize int, configFuncs ...func(*rolling.Config[Fill])) (*rolling.Store[Fill], error) {
	configFuncs = append([]func(*rolling.Config[Fill]){
		func(c *rolling.Config[Fill]) { c.Replace(ShouldReplace) },
	}, configFuncs...)
	return rolling.New(maxSize, Key, Compare, configFuncs...)
}

// Summary aggregates the filled part of a history.
type Summary struct {
	Fills    int
	Size     decimal.Decimal
	Notional decimal.Decimal
	VWAP     decimal.Decimal
}

// Summarize aggregates the fills with status filled or finished.
func Summarize(fills []Fill) Summary {
	var (
		summary Summary
		prices  []decimal.Decimal
		sizes   []decimal.Decimal
	)
	for _, f := range fills {
		if f.Status != StatusFilled && f.Status != StatusFinished {
			continue
		}
		summary.Fills += 1
		summary.Size = summary.Size.Add(f.Size)
		summary.Notional = summary.Notional.Add(quant.Notional(f.Price, f.Size))
		prices = append(prices, f.Price)
		sizes = append(sizes, f.Size)
	}
	// Lengths always match.
	summary.VWAP, _ = quant.VWAP(prices, sizes)
	return summary
}
