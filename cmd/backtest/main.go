package main

import (
	"context"
	"fmt"
	"log"
	"os"

	backtest "github.com/rxtech-lab/stockbot/internal/backtest/engine"
	engine "github.com/rxtech-lab/stockbot/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// loadConfig reads the engine config at path and applies the --strategy override.
// An empty path yields the default configuration.
func loadConfig(path string, strategies []string) (string, error) {
	config := engine.EmptyConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if len(strategies) > 0 {
		config.Strategies = strategies
	}

	out, err := yaml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	return string(out), nil
}

// backtestAction runs every configured strategy against the matched price files.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	level, err := zapcore.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	appLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	config, err := loadConfig(cmd.String("config"), cmd.StringSlice("strategy"))
	if err != nil {
		return err
	}

	backtester, err := newBacktester(appLogger, config, cmd.String("data"), cmd.String("results"))
	if err != nil {
		return err
	}
	defer func() { _ = backtester.Close() }()

	reporter := newReporter(os.Stdout, !cmd.Bool("quiet"))

	appLogger.Info("Starting backtest",
		zap.String("data", cmd.String("data")),
		zap.String("results", cmd.String("results")),
	)

	if err := backtester.Run(ctx, reporter.Callbacks()); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	fmt.Fprintln(os.Stdout, reporter.Render())

	appLogger.Info("Backtest completed", zap.Int("runs", len(reporter.Summaries())))

	return nil
}

// newBacktester builds an engine that logs through appLogger. The caller closes it.
func newBacktester(appLogger *logger.Logger, config string, dataPath string, resultsFolder string) (backtest.Engine, error) {
	backtester := engine.NewBacktestEngineV1()

	if err := backtester.SetLogger(appLogger); err != nil {
		return nil, fmt.Errorf("failed to set logger: %w", err)
	}

	if err := backtester.Initialize(config); err != nil {
		_ = backtester.Close()

		return nil, fmt.Errorf("failed to initialize backtest engine: %w", err)
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		_ = backtester.Close()

		return nil, fmt.Errorf("failed to set data path: %w", err)
	}

	if err := backtester.SetResultsFolder(resultsFolder); err != nil {
		_ = backtester.Close()

		return nil, fmt.Errorf("failed to set results folder: %w", err)
	}

	return backtester, nil
}

// reportAction prints the summary table of previously written stats files.
func reportAction(_ context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("at least one stats file is required")
	}

	reporter := newReporter(os.Stdout, false)

	for _, path := range paths {
		summaries, err := engine.ReadStats(path)
		if err != nil {
			return err
		}

		reporter.Add(summaries...)
	}

	fmt.Fprintln(os.Stdout, reporter.Render())

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay daily price history through the trading strategies",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the configured strategies against price files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the backtest config `FILE`. Defaults are used when omitted",
					},
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Glob of the price files to replay (e.g. data/*.csv)",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "results",
						Aliases: []string{"r"},
						Usage:   "Directory the results are written to",
						Value:   "results",
					},
					&cli.StringSliceFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Strategy to run, repeatable. Overrides the config strategies",
					},
					&cli.StringFlag{
						Name:  "log-level",
						Usage: "Log level (debug, info, warn, error)",
						Value: "info",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Hide the progress bars",
					},
				},
				Action: backtestAction,
			},
			{
				Name:      "report",
				Usage:     "Print the summary table of stats.yaml files",
				ArgsUsage: "STATS_FILE...",
				Action:    reportAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
