package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

// HistoricalSeries is the immutable, date-ascending sequence of daily records
// loaded from a price file.
type HistoricalSeries struct {
	records []DailyRecord
}

// NewHistoricalSeries validates every record and the ordering invariant and takes a
// private copy of records. Gaps between dates are accepted; duplicates and
// out-of-order rows are not.
func NewHistoricalSeries(records []DailyRecord) (*HistoricalSeries, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSeries, "historical series must contain at least one record")
	}

	for i, record := range records {
		if err := record.Validate(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidSeries, err,
				"row %d (%s) is not a valid trading day", i, record.Date.Format(time.DateOnly))
		}
	}

	for i := 1; i < len(records); i++ {
		if !records[i].Date.After(records[i-1].Date) {
			return nil, errors.Newf(errors.ErrCodeInvalidSeries,
				"records are not strictly ascending by date: row %d (%s) follows %s",
				i, records[i].Date.Format(time.DateOnly), records[i-1].Date.Format(time.DateOnly))
		}
	}

	owned := make([]DailyRecord, len(records))
	copy(owned, records)

	return &HistoricalSeries{records: owned}, nil
}

// Len returns the number of trading days N.
func (s *HistoricalSeries) Len() int {
	return len(s.records)
}

// At returns the record at the zero-based day offset.
func (s *HistoricalSeries) At(i int) DailyRecord {
	return s.records[i]
}

// First returns the first record of the series.
func (s *HistoricalSeries) First() DailyRecord {
	return s.records[0]
}

// Last returns the last record of the series.
func (s *HistoricalSeries) Last() DailyRecord {
	return s.records[len(s.records)-1]
}

// Records returns a copy of all records, oldest first.
func (s *HistoricalSeries) Records() []DailyRecord {
	out := make([]DailyRecord, len(s.records))
	copy(out, s.records)

	return out
}

// Between returns the sub-series with dates inside [start, end]. Unset bounds are open.
func (s *HistoricalSeries) Between(start optional.Option[time.Time], end optional.Option[time.Time]) (*HistoricalSeries, error) {
	if start.IsNone() && end.IsNone() {
		return s, nil
	}

	filtered := make([]DailyRecord, 0, len(s.records))

	for _, record := range s.records {
		if start.IsSome() && record.Date.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && record.Date.After(end.Unwrap()) {
			continue
		}

		filtered = append(filtered, record)
	}

	if len(filtered) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "no records inside the requested time range")
	}

	return &HistoricalSeries{records: filtered}, nil
}
