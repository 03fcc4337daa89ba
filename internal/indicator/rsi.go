package indicator

import (
	"math"

	"github.com/rxtech-lab/stockbot/internal/types"
)

const (
	// RSINormalizationPeriod divides the summed gains and losses no matter how
	// long the window is. Windows longer than 15 records therefore scale both
	// sums equally and only the ratio matters.
	RSINormalizationPeriod = 14
	// RSIOversold and RSIOverbought are the thresholds used by the RSI strategy.
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

// RSI computes the Relative Strength Index of the closes in window.
// Callers wanting the canonical 14-day value pass the 14 trailing records plus one anchor.
func RSI(window []types.DailyRecord) (float64, error) {
	if err := requireRecords(window, 2, types.IndicatorTypeRSI); err != nil {
		return 0, err
	}

	gain := 0.0
	loss := 0.0

	for i := 1; i < len(window); i++ {
		change := window[i].Close - window[i-1].Close
		if change > 0 {
			gain += change
		} else {
			loss += math.Abs(change)
		}
	}

	avgGain := gain / RSINormalizationPeriod
	avgLoss := loss / RSINormalizationPeriod

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}
