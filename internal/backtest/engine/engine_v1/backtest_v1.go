package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rxtech-lab/stockbot/internal/backtest/engine"
	"github.com/rxtech-lab/stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stockbot/internal/backtest/engine/engine_v1/writers"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	registry      *strategy.Registry
	strategies    []strategy.Strategy
	dataPaths     []string
	resultsFolder string
	log           *logger.Logger
	state         *BacktestState
	datasource    datasource.DataSource
}

func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithRegistry(strategy.NewRegistry())
}

// NewBacktestEngineV1WithRegistry resolves the configured strategy names against registry.
func NewBacktestEngineV1WithRegistry(registry *strategy.Registry) engine.Engine {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		registry:      registry,
		strategies:    nil,
		dataPaths:     nil,
		resultsFolder: "",
		log:           nil,
		state:         nil,
		datasource:    nil,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &b.config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse backtest config", err)
	}

	if err := b.config.Validate(); err != nil {
		return err
	}

	if b.log == nil {
		log, err := logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}

		b.log = log
	}

	// a second Initialize replaces the journal
	if err := b.Close(); err != nil {
		return err
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	var err error

	b.state, err = NewBacktestState(b.log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create backtest state", err)
	}

	if err := b.state.Initialize(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to initialize state", err)
	}

	names := b.config.Strategies
	if len(names) == 0 {
		names = b.registry.List()
	}

	for _, name := range names {
		s, err := b.registry.Get(name)
		if err != nil {
			return err
		}

		if err := b.LoadStrategy(s); err != nil {
			return err
		}
	}

	return nil
}

// SetLogger implements engine.Engine.
func (b *BacktestEngineV1) SetLogger(log *logger.Logger) error {
	if log == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "logger is required")
	}

	b.log = log

	return nil
}

// Close implements engine.Engine.
func (b *BacktestEngineV1) Close() error {
	if b.state == nil {
		return nil
	}

	state := b.state
	b.state = nil

	if err := state.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestJournalFailed, "failed to close trade journal", err)
	}

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy is required")
	}

	b.strategies = append(b.strategies, s)

	if b.log != nil {
		b.log.Debug("Strategy loaded",
			zap.String("strategy", s.Name()),
			zap.Int("total_strategies", len(b.strategies)),
		)
	}

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	// use glob to get all the files that match the path
	files, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid data path %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to resolve %s", file)
		}

		absolutePaths[i] = absPath
	}

	b.dataPaths = absolutePaths

	if b.log != nil {
		b.log.Debug("Data paths set",
			zap.Strings("files", absolutePaths),
		)
	}

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(source datasource.DataSource) error {
	b.datasource = source

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (runErr error) {
	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(runErr)
		}()
	}

	if err := b.preRunCheck(); err != nil {
		return err
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(len(b.strategies), len(b.dataPaths)); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	// start from an empty results folder
	if _, err := os.Stat(b.resultsFolder); err == nil {
		if err := os.RemoveAll(b.resultsFolder); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to clean results folder", err)
		}
	}

	if err := os.MkdirAll(b.resultsFolder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create results folder", err)
	}

	for dataFileIndex, dataPath := range b.dataPaths {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := b.runDataFile(ctx, dataFileIndex, dataPath, callbacks); err != nil {
			b.log.Error("Backtest failed",
				zap.String("data", dataPath),
				zap.Error(err),
			)

			return err
		}
	}

	return nil
}

// runDataFile loads one price file and runs every strategy against it on a single simulation.
func (b *BacktestEngineV1) runDataFile(ctx context.Context, dataFileIndex int, dataPath string, callbacks engine.LifecycleCallbacks) error {
	source := b.datasource

	if source == nil {
		var err error

		source, err = datasource.NewDataSourceForPath(dataPath, b.log)
		if err != nil {
			return err
		}
		defer source.Close()
	}

	series, err := datasource.LoadSeries(source, dataPath, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return err
	}

	// a data source set by the caller is not required to honor the range
	series, err = series.Between(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeNoDataFound, err, "no records of %s inside the configured time range", dataPath)
	}

	resultFolderPath := getResultFolder(b.resultsFolder, b.config, dataPath)
	if err := os.MkdirAll(resultFolderPath, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create result folder", err)
	}

	opts := []SimulationOption{WithLogger(b.log)}

	if b.config.WriteJournal {
		opts = append(opts, WithTradeRecorder(b.state))
	}

	if callbacks.OnProcessData != nil {
		opts = append(opts, WithProcessDataCallback(*callbacks.OnProcessData))
	}

	simulation, err := NewSimulation(series, b.config.InitialCapital, opts...)
	if err != nil {
		return err
	}

	if b.config.WriteAnnotated {
		annotatedPath := filepath.Join(resultFolderPath, writers.AnnotatedFileName(dataPath))
		if err := writers.WriteAnnotatedCSV(annotatedPath, simulation.Series()); err != nil {
			return err
		}
	}

	summaries := make([]types.RunSummary, 0, len(b.strategies))

	for strategyIndex, s := range b.strategies {
		if err := ctx.Err(); err != nil {
			return err
		}

		runID := uuid.New().String()

		if callbacks.OnRunStart != nil {
			err := (*callbacks.OnRunStart)(runID, strategyIndex, s.Name(), dataFileIndex, dataPath, series.Len())
			if err != nil {
				return errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
			}
		}

		if err := b.state.Cleanup(); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestJournalFailed, "failed to reset trade journal", err)
		}

		b.log.Debug("Running strategy",
			zap.String("strategy", s.Name()),
			zap.String("data", dataPath),
			zap.String("result", resultFolderPath),
		)

		summary, err := simulation.RunWithID(runID, s)
		if err != nil {
			return err
		}

		summary.DataPath = dataPath

		if b.config.WriteJournal {
			journalPath, err := b.state.Write(filepath.Join(resultFolderPath, s.Name()))
			if err != nil {
				return errors.Wrap(errors.ErrCodeBacktestJournalFailed, "failed to write trade journal", err)
			}

			summary.JournalFilePath = journalPath
		}

		summaries = append(summaries, summary)

		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(strategyIndex, dataFileIndex, dataPath, summary)
		}

		simulation.Reset()
	}

	if err := types.WriteRunSummaries(filepath.Join(resultFolderPath, StatsFileName), summaries); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write run summaries", err)
	}

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.log == nil || b.state == nil {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine is not initialized")
	}

	if len(b.strategies) == 0 {
		b.log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if len(b.dataPaths) == 0 {
		b.log.Error("No data paths loaded")

		return errors.New(errors.ErrCodeBacktestNoDataPaths, "no data paths loaded")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	return nil
}
