package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource reads a parquet price history through an in-memory DuckDB view.
// The file must carry the columns date, open, high, low, close, adj_close and volume.
type DuckDBDataSource struct {
	db          *sql.DB
	logger      *logger.Logger
	sq          squirrel.StatementBuilderType
	initialized bool
}

// NewDuckDBDataSource opens an in-memory DuckDB database to query parquet files with.
func NewDuckDBDataSource(logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}

	_, err := d.db.Exec(`DROP VIEW IF EXISTS daily_records;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW support
	query := fmt.Sprintf(`
		CREATE VIEW daily_records AS
		SELECT * FROM read_parquet('%s');
	`, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to read parquet file %s", path)
	}

	d.initialized = true

	return nil
}

func (d *DuckDBDataSource) applyRange(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.Unwrap()})
	}

	return builder
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.DailyRecord, error) bool) {
	return func(yield func(types.DailyRecord, error) bool) {
		if !d.initialized {
			yield(types.DailyRecord{}, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized"))

			return
		}

		builder := d.sq.Select(
			"CAST(date AS TIMESTAMP) AS date",
			"CAST(open AS DOUBLE) AS open",
			"CAST(high AS DOUBLE) AS high",
			"CAST(low AS DOUBLE) AS low",
			"CAST(close AS DOUBLE) AS close",
			"CAST(adj_close AS DOUBLE) AS adj_close",
			"CAST(volume AS BIGINT) AS volume",
		).From("daily_records")
		builder = d.applyRange(builder, start, end).OrderBy("date ASC")

		query, args, err := builder.ToSql()
		if err != nil {
			yield(types.DailyRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.DailyRecord{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to query daily records", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var record types.DailyRecord

			err := rows.Scan(&record.Date, &record.Open, &record.High, &record.Low, &record.Close, &record.AdjClose, &record.Volume)
			if err != nil {
				yield(types.DailyRecord{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to scan daily record", err))

				return
			}

			record.RSI = optional.None[float64]()
			record.MA = optional.None[float64]()

			if err := record.Validate(); err != nil {
				yield(types.DailyRecord{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
					"row dated %s is invalid", record.Date.Format(time.DateOnly)))

				return
			}

			if !yield(record, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.DailyRecord{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to iterate daily records", err))
		}
	}
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if !d.initialized {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	query, args, err := d.applyRange(d.sq.Select("COUNT(*)").From("daily_records"), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count daily records", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
