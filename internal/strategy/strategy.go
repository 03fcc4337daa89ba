// Package strategy holds the trading rules a simulation can run.
//
// A strategy is asked once per simulated day for a signed share quantity:
// positive buys, negative sells, zero does nothing. It only ever sees the
// causal Snapshot built by the engine, so it cannot read a record dated after
// the day being simulated.
package strategy

import (
	"github.com/rxtech-lab/stockbot/internal/types"
)

type Strategy interface {
	// Name is the registry name of the strategy.
	Name() string
	// Decide returns the number of shares to trade at today's open.
	Decide(open float64, snapshot Snapshot) (float64, error)
}

// Snapshot is the read-only state handed to a strategy each day.
type Snapshot struct {
	// Window holds the records visible today, oldest first. The last one is today.
	Window []types.DailyRecord
	// Portfolio is the cash and position after all previous days.
	Portfolio types.PortfolioState
	// TotalDays is the length of the series being simulated.
	TotalDays int
}

// Day is the 1-indexed simulated day.
func (s Snapshot) Day() int {
	return s.Portfolio.CurrentDay
}

// Today returns the newest visible record.
func (s Snapshot) Today() types.DailyRecord {
	return s.Window[len(s.Window)-1]
}

// IsLastDay reports whether today is the final day of the series.
func (s Snapshot) IsLastDay() bool {
	return s.Portfolio.CurrentDay == s.TotalDays
}
