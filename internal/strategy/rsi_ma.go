package strategy

import (
	"github.com/rxtech-lab/stockbot/internal/indicator"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

const (
	// RsiAndMovingAverageWarmupDays is the first day the strategy trades on.
	RsiAndMovingAverageWarmupDays = 15
	// TrendSpanDays is the moving average span both indicator strategies compare the open against.
	TrendSpanDays = 30
)

// RsiAndMovingAverage combines RSI extremes with the open's position against
// the 30-day moving average. All four rules add up into one quantity; a day
// whose total would leave a negative position is skipped entirely.
type RsiAndMovingAverage struct{}

func NewRsiAndMovingAverage() *RsiAndMovingAverage {
	return &RsiAndMovingAverage{}
}

func (r *RsiAndMovingAverage) Name() string {
	return RsiAndMovingAverageName
}

func (r *RsiAndMovingAverage) Decide(open float64, snapshot Snapshot) (float64, error) {
	if snapshot.Day() < RsiAndMovingAverageWarmupDays || open <= 0 {
		return 0, nil
	}

	rsi, err := indicator.RSI(snapshot.Window)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to compute rsi", err)
	}

	ma30, err := indicator.SimpleMovingAverage(snapshot.Window, TrendSpanDays)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to compute moving average", err)
	}

	cash := snapshot.Portfolio.CashBalance
	shares := snapshot.Portfolio.SharesOwned
	quantity := 0.0

	if rsi < indicator.RSIOversold {
		quantity += min(0.10*cash, 0.60*cash) / open
	}

	if open < ma30 {
		quantity += min(0.10*cash, cash) / open
	}

	if rsi > indicator.RSIOverbought {
		quantity -= 0.40 * shares
	}

	if open > ma30 {
		quantity -= 0.33 * shares
	}

	if shares+quantity < 0 {
		return 0, nil
	}

	return quantity, nil
}
