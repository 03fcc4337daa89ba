package datasource

import (
	"time"

	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

// RollingWindow is the causal view of a HistoricalSeries exposed to a running
// simulation. It only grows by appending the next record at the end and never
// holds more records than the series it was created for.
type RollingWindow struct {
	capacity int
	// records is ordered by date, oldest first
	records []types.DailyRecord
}

// NewRollingWindow creates a window for a series of capacity records, seeded with first.
func NewRollingWindow(capacity int, first types.DailyRecord) *RollingWindow {
	records := make([]types.DailyRecord, 1, max(capacity, 1))
	records[0] = first

	return &RollingWindow{
		capacity: capacity,
		records:  records,
	}
}

// Append adds the next trading day to the end of the window.
// Appending past the series length or out of date order is an invariant violation.
func (w *RollingWindow) Append(record types.DailyRecord) error {
	if len(w.records) >= w.capacity {
		return errors.NewInvariantViolation(errors.ErrCodeWindowOverrun,
			"rolling window already holds all %d records of the series", w.capacity)
	}

	last := w.records[len(w.records)-1]
	if !record.Date.After(last.Date) {
		return errors.NewInvariantViolation(errors.ErrCodeInvariantViolation,
			"record dated %s does not follow the last visible day %s",
			record.Date.Format(time.DateOnly), last.Date.Format(time.DateOnly))
	}

	w.records = append(w.records, record)

	return nil
}

// AsOf returns a copy of the visible records, oldest first.
func (w *RollingWindow) AsOf() []types.DailyRecord {
	result := make([]types.DailyRecord, len(w.records))
	copy(result, w.records)

	return result
}

// Last returns today's record, the newest visible one.
func (w *RollingWindow) Last() types.DailyRecord {
	return w.records[len(w.records)-1]
}

// Len is the number of visible records.
func (w *RollingWindow) Len() int {
	return len(w.records)
}

// Capacity is the length of the underlying series.
func (w *RollingWindow) Capacity() int {
	return w.capacity
}

// Full reports whether every record of the series is visible.
func (w *RollingWindow) Full() bool {
	return len(w.records) >= w.capacity
}

// ResetTo truncates the window to the single record first.
func (w *RollingWindow) ResetTo(first types.DailyRecord) {
	clear(w.records[1:])
	w.records = w.records[:1]
	w.records[0] = first
}
