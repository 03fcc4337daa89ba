package datasource

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"go.uber.org/zap"
)

// csvDate parses the YYYY-MM-DD date column.
type csvDate struct {
	time.Time
}

func (d *csvDate) UnmarshalCSV(value string) error {
	parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return err
	}

	d.Time = parsed

	return nil
}

// csvFloat is a price column. gocsv would read an empty cell as zero.
type csvFloat float64

func (f *csvFloat) UnmarshalCSV(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty value")
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}

	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return fmt.Errorf("%q is not a finite number", value)
	}

	*f = csvFloat(parsed)

	return nil
}

// csvInt is the volume column.
type csvInt int64

func (n *csvInt) UnmarshalCSV(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty value")
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return err
	}

	*n = csvInt(parsed)

	return nil
}

// csvRow is one line of a daily price history export.
type csvRow struct {
	Date     csvDate  `csv:"Date"`
	Open     csvFloat `csv:"Open"`
	High     csvFloat `csv:"High"`
	Low      csvFloat `csv:"Low"`
	Close    csvFloat `csv:"Close"`
	AdjClose csvFloat `csv:"Adj Close"`
	Volume   csvInt   `csv:"Volume"`
}

func (r csvRow) record() types.DailyRecord {
	return types.DailyRecord{
		Date:     r.Date.Time,
		Open:     float64(r.Open),
		High:     float64(r.High),
		Low:      float64(r.Low),
		Close:    float64(r.Close),
		AdjClose: float64(r.AdjClose),
		Volume:   int64(r.Volume),
		RSI:      optional.None[float64](),
		MA:       optional.None[float64](),
	}
}

// CSVDataSource reads a `Date,Open,High,Low,Close,Adj Close,Volume` file into memory.
type CSVDataSource struct {
	path    string
	records []types.DailyRecord
	logger  *logger.Logger
}

func NewCSVDataSource(logger *logger.Logger) DataSource {
	return &CSVDataSource{
		logger: logger,
	}
}

// Initialize implements DataSource.
func (c *CSVDataSource) Initialize(path string) error {
	c.logger.Debug("Initializing CSV data source", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []csvRow
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse %s", path)
	}

	records := make([]types.DailyRecord, 0, len(rows))

	for i, row := range rows {
		if row.Date.IsZero() {
			// line numbers count the header
			return errors.Newf(errors.ErrCodeMarketDataParseFailed, "%s line %d: missing date", path, i+2)
		}

		record := row.record()
		if err := record.Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "%s line %d: invalid row", path, i+2)
		}

		records = append(records, record)
	}

	c.path = path
	c.records = records

	c.logger.Debug("Loaded daily records", zap.String("path", path), zap.Int("count", len(records)))

	return nil
}

// ReadAll implements DataSource.
func (c *CSVDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.DailyRecord, error) bool) {
	return func(yield func(types.DailyRecord, error) bool) {
		if c.records == nil {
			yield(types.DailyRecord{}, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized"))

			return
		}

		for _, record := range c.records {
			if !inRange(record.Date, start, end) {
				continue
			}

			if !yield(record, nil) {
				return
			}
		}
	}
}

// Count implements DataSource.
func (c *CSVDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if c.records == nil {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	count := 0

	for _, record := range c.records {
		if inRange(record.Date, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (c *CSVDataSource) Close() error {
	c.records = nil

	return nil
}
