package engine

import (
	"context"

	"github.com/rxtech-lab/stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalStrategies int, totalDataFiles int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called before a strategy is run against a data file.
// runID identifies the run and matches the ID of the resulting summary.
type OnRunStartCallback func(runID string, strategyIndex int, strategyName string, dataFileIndex int, dataFilePath string, totalDays int) error

// OnRunEndCallback is called after a run finished and its results were written.
type OnRunEndCallback func(strategyIndex int, dataFileIndex int, dataFilePath string, summary types.RunSummary)

// OnProcessDataCallback is called after each simulated day.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart *OnBacktestStartCallback
	OnBacktestEnd   *OnBacktestEndCallback
	OnRunStart      *OnRunStartCallback
	OnRunEnd        *OnRunEndCallback
	OnProcessData   *OnProcessDataCallback
}

type Engine interface {
	// SetLogger replaces the default info level logger. Call it before Initialize
	// so the engine state and the simulations share it.
	SetLogger(log *logger.Logger) error
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// SetDataPath sets the price history files to backtest. Accepts glob patterns
	// (e.g. "data/*.csv"); .csv and .parquet files can be mixed.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory. Each data file gets its own
	// sub folder holding stats.yaml, the annotated echo and one folder per strategy.
	SetResultsFolder(folder string) error
	// LoadStrategy adds a strategy to run. Could be called multiple times to load multiple strategies.
	LoadStrategy(strategy strategy.Strategy) error
	// Run runs every loaded strategy against every data file, one after another.
	// The context is checked between runs.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// SetDataSource forces the data source used for every data file instead of
	// picking one by file extension.
	SetDataSource(dataSource datasource.DataSource) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
	// Close releases the trade journal database. Run fails on a closed engine.
	Close() error
}
