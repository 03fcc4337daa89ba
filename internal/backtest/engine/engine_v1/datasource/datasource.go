package datasource

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

// Format is the on-disk format of a price history file.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

type DataSource interface {
	// Initialize loads the daily price history stored at path. A file that cannot
	// be read or contains a malformed row fails as a whole.
	Initialize(path string) error
	// ReadAll yields the loaded records in ascending date order, restricted to
	// the optional inclusive [start, end] range.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.DailyRecord, error) bool)
	// Count returns the number of records within the optional range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the data source.
	Close() error
}

// FormatFromPath detects the file format from the path's extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file %q: expected .csv or .parquet", path)
	}
}

// NewDataSourceForPath returns an uninitialized data source able to read path.
func NewDataSourceForPath(path string, logger *logger.Logger) (DataSource, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatParquet:
		return NewDuckDBDataSource(logger)
	default:
		return NewCSVDataSource(logger), nil
	}
}

// LoadSeries initializes source with path and collects the records in range into
// a HistoricalSeries. Any read error discards everything read so far.
func LoadSeries(source DataSource, path string, start optional.Option[time.Time], end optional.Option[time.Time]) (*types.HistoricalSeries, error) {
	if err := source.Initialize(path); err != nil {
		return nil, err
	}

	var records []types.DailyRecord

	for record, err := range source.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	series, err := types.NewHistoricalSeries(records)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidSeries, err, "failed to build series from %s", path)
	}

	return series, nil
}

func inRange(date time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && date.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && date.After(end.Unwrap()) {
		return false
	}

	return true
}
