package strategy_test

import (
	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/internal/types"
)

// snapshotOf builds the snapshot the engine would hand out on day len(window).
func snapshotOf(window []types.DailyRecord, cash float64, shares float64, totalDays int) strategy.Snapshot {
	return strategy.Snapshot{
		Window: window,
		Portfolio: types.PortfolioState{
			CashBalance:    cash,
			SharesOwned:    shares,
			InitialBalance: cash,
			CurrentDay:     len(window),
		},
		TotalDays: totalDays,
	}
}

func descending(from float64, count int) []float64 {
	opens := make([]float64, count)
	for i := range opens {
		opens[i] = from - float64(i)
	}

	return opens
}

func ascending(from float64, count int) []float64 {
	opens := make([]float64, count)
	for i := range opens {
		opens[i] = from + float64(i)
	}

	return opens
}

func flat(price float64, count int) []float64 {
	opens := make([]float64, count)
	for i := range opens {
		opens[i] = price
	}

	return opens
}
