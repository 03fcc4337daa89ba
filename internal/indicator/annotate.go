package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/internal/types"
)

const (
	// PrecomputeRSILookback is the number of trailing records before the anchor
	// day used for the annotated RSI column.
	PrecomputeRSILookback = 14
	// PrecomputeMASpan is the span of the annotated moving-average column.
	PrecomputeMASpan = 50
)

// Annotate returns a copy of series with the rsi and ma columns filled in.
//
// Day i (zero-based) gets rsi over records [i-14, i] once i >= 14, and ma over
// the up to 50 records strictly before it. Day 0 has no prior records and keeps
// ma unset.
func Annotate(series *types.HistoricalSeries) (*types.HistoricalSeries, error) {
	records := series.Records()
	annotated := make([]types.DailyRecord, len(records))

	for i, record := range records {
		rsi := optional.None[float64]()
		if i >= PrecomputeRSILookback {
			value, err := RSI(records[i-PrecomputeRSILookback : i+1])
			if err != nil {
				return nil, fmt.Errorf("failed to annotate rsi for day %d: %w", i+1, err)
			}

			rsi = optional.Some(value)
		}

		ma := optional.None[float64]()
		if i > 0 {
			value, err := SimpleMovingAverage(records[:i], PrecomputeMASpan)
			if err != nil {
				return nil, fmt.Errorf("failed to annotate ma for day %d: %w", i+1, err)
			}

			ma = optional.Some(value)
		}

		annotated[i] = record.WithIndicators(rsi, ma)
	}

	return types.NewHistoricalSeries(annotated)
}
