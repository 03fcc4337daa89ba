package indicator

import (
	"github.com/rxtech-lab/stockbot/internal/types"
)

// SimpleMovingAverage averages Open over the trailing spanDays records ending at
// the last record of window. Near the start of history fewer than spanDays
// records exist and the sum is divided by the number actually available.
// A non-positive span yields 0.
func SimpleMovingAverage(window []types.DailyRecord, spanDays int) (float64, error) {
	if spanDays <= 0 {
		return 0, nil
	}

	if err := requireRecords(window, 1, types.IndicatorTypeMA); err != nil {
		return 0, err
	}

	start := max(len(window)-spanDays, 0)
	sum := 0.0

	for i := start; i < len(window); i++ {
		sum += window[i].Open
	}

	return sum / float64(len(window)-start), nil
}
