package writers

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

// AnnotatedFilePrefix is prepended to the input file name of an annotated echo.
const AnnotatedFilePrefix = "adjusted "

// annotatedRow is one line of the annotated echo. Unset indicators stay empty.
type annotatedRow struct {
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	AdjClose float64 `csv:"adj close"`
	Volume   int64   `csv:"volume"`
	RSI      string  `csv:"rsi"`
	MA       string  `csv:"ma"`
}

func formatIndicator(value optional.Option[float64]) string {
	if value.IsNone() {
		return ""
	}

	return strconv.FormatFloat(value.Unwrap(), 'f', -1, 64)
}

// AnnotatedFileName returns the echo file name for a price file, always with a .csv extension.
func AnnotatedFileName(dataPath string) string {
	base := filepath.Base(dataPath)

	return AnnotatedFilePrefix + strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}

// WriteAnnotatedCSV writes series, with its precomputed rsi and ma columns, to path.
func WriteAnnotatedCSV(path string, series *types.HistoricalSeries) error {
	rows := make([]annotatedRow, 0, series.Len())

	for _, record := range series.Records() {
		rows = append(rows, annotatedRow{
			Date:     record.Date.Format(time.DateOnly),
			Open:     record.Open,
			High:     record.High,
			Low:      record.Low,
			Close:    record.Close,
			AdjClose: record.AdjClose,
			Volume:   record.Volume,
			RSI:      formatIndicator(record.RSI),
			MA:       formatIndicator(record.MA),
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create output directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
