package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/types"
	"go.uber.org/zap"
)

// JournalFileName is the parquet file a run's trades are exported to.
const JournalFileName = "trades.parquet"

// BacktestState is the trade journal of the current run, kept in an in-memory DuckDB.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &BacktestState{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			strategy TEXT,
			day INTEGER,
			date TIMESTAMP,
			side TEXT,
			quantity DOUBLE,
			price DOUBLE,
			notional DOUBLE,
			cash_after DOUBLE,
			shares_after DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// Record implements TradeRecorder.
func (b *BacktestState) Record(entry types.JournalEntry) error {
	_, err := b.sq.
		Insert("trades").
		Columns(
			"id", "run_id", "strategy", "day", "date", "side",
			"quantity", "price", "notional", "cash_after", "shares_after",
		).
		Values(
			entry.ID, entry.RunID, entry.Strategy, entry.Day, entry.Date, string(entry.Side()),
			entry.Quantity, entry.Price, entry.Notional(), entry.CashAfter, entry.SharesAfter,
		).
		RunWith(b.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

// GetAllTrades returns the journal in day order.
func (b *BacktestState) GetAllTrades() ([]types.JournalEntry, error) {
	rows, err := b.sq.
		Select(
			"id", "run_id", "strategy", "day", "date",
			"quantity", "price", "cash_after", "shares_after",
		).
		From("trades").
		OrderBy("day ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []types.JournalEntry

	for rows.Next() {
		var entry types.JournalEntry

		err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Strategy,
			&entry.Day,
			&entry.Date,
			&entry.Quantity,
			&entry.Price,
			&entry.CashAfter,
			&entry.SharesAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trades = append(trades, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// Count returns the number of journal entries.
func (b *BacktestState) Count() (int, error) {
	var count int

	err := b.sq.Select("COUNT(*)").From("trades").RunWith(b.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}

	return count, nil
}

// Cleanup empties the journal for the next run.
func (b *BacktestState) Cleanup() error {
	// squirrel has no DROP support
	if _, err := b.db.Exec(`DROP TABLE IF EXISTS trades;`); err != nil {
		return fmt.Errorf("failed to cleanup tables: %w", err)
	}

	return b.Initialize()
}

// Write exports the journal to JournalFileName in dir and returns the file path.
func (b *BacktestState) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tradesPath := filepath.Join(dir, JournalFileName)

	// squirrel has no COPY support
	_, err := b.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, strings.ReplaceAll(tradesPath, "'", "''")))
	if err != nil {
		return "", fmt.Errorf("failed to export trades to Parquet: %w", err)
	}

	b.logger.Debug("Exported trade journal", zap.String("trades", tradesPath))

	return tradesPath, nil
}

func (b *BacktestState) Close() error {
	return b.db.Close()
}
