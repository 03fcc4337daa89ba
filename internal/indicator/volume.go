package indicator

import "github.com/rxtech-lab/stockbot/internal/types"

// AverageVolume is the arithmetic mean of Volume over the whole window.
func AverageVolume(window []types.DailyRecord) (float64, error) {
	if err := requireRecords(window, 1, types.IndicatorTypeAverageVolume); err != nil {
		return 0, err
	}

	total := 0.0
	for _, record := range window {
		total += float64(record.Volume)
	}

	return total / float64(len(window)), nil
}
