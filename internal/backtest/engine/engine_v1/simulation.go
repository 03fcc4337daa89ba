package engine

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/stockbot/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/stockbot/internal/indicator"
	"github.com/rxtech-lab/stockbot/internal/logger"
	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/internal/version"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"go.uber.org/zap"
)

type SimulationState string

const (
	SimulationStateReady    SimulationState = "ready"
	SimulationStateRunning  SimulationState = "running"
	SimulationStateFinished SimulationState = "finished"
)

// RollingRSIWarmupDays is the last day without a rolling RSI diagnostic.
const RollingRSIWarmupDays = 15

// TradeRecorder receives every applied non-zero decision of a run.
type TradeRecorder interface {
	Record(entry types.JournalEntry) error
}

type SimulationOption func(*Simulation)

func WithLogger(log *logger.Logger) SimulationOption {
	return func(s *Simulation) {
		s.log = log
	}
}

func WithTradeRecorder(recorder TradeRecorder) SimulationOption {
	return func(s *Simulation) {
		s.recorder = recorder
	}
}

// WithProcessDataCallback is called after each simulated day with the number of
// days processed so far. Returning an error aborts the run.
func WithProcessDataCallback(callback func(current int, total int) error) SimulationOption {
	return func(s *Simulation) {
		s.onProcessData = callback
	}
}

// Simulation steps one strategy through a series a day at a time. The strategy
// only ever sees the rolling window, which holds exactly CurrentDay records.
type Simulation struct {
	series      *types.HistoricalSeries
	window      *datasource.RollingWindow
	portfolio   types.PortfolioState
	initialCash float64
	state       SimulationState

	// sum of the visible opens, backing rollingAverages
	openSum         float64
	rollingAverages []float64
	rollingRSI      []float64

	log           *logger.Logger
	recorder      TradeRecorder
	onProcessData func(current int, total int) error
}

// NewSimulation annotates series and prepares a day-1 simulation over it.
func NewSimulation(series *types.HistoricalSeries, initialCash float64, opts ...SimulationOption) (*Simulation, error) {
	if series == nil || series.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSeries, "simulation needs a non-empty series")
	}

	if initialCash < 0 || math.IsNaN(initialCash) || math.IsInf(initialCash, 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "initial cash must be a non-negative amount, got %v", initialCash)
	}

	annotated, err := indicator.Annotate(series)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to annotate series", err)
	}

	s := &Simulation{
		series:      annotated,
		window:      datasource.NewRollingWindow(annotated.Len(), annotated.First()),
		initialCash: initialCash,
		log:         logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.Reset()

	return s, nil
}

// Run drives strategy through every day of the series and returns the final
// portfolio valuation. The simulation must be Ready; call Reset between runs.
func (s *Simulation) Run(strat strategy.Strategy) (types.RunSummary, error) {
	return s.RunWithID(uuid.New().String(), strat)
}

// RunWithID is Run with a caller chosen run id, used to tag journal entries and the summary.
func (s *Simulation) RunWithID(runID string, strat strategy.Strategy) (types.RunSummary, error) {
	if s.state != SimulationStateReady {
		return types.RunSummary{}, errors.Newf(errors.ErrCodeSimulationNotReady, "simulation is %s, reset it before running again", s.state)
	}

	if strat == nil {
		return types.RunSummary{}, errors.New(errors.ErrCodeInvalidParameter, "strategy is required")
	}

	s.state = SimulationStateRunning
	name := strat.Name()
	total := s.series.Len()
	tradeDays := 0

	s.log.Info("Simulation started",
		zap.String("run_id", runID),
		zap.String("strategy", name),
		zap.Int("days", total),
		zap.Float64("initial_cash", s.initialCash),
	)

	for i := 0; i < total; i++ {
		today := s.window.Last()

		quantity, err := strat.Decide(today.Open, s.Snapshot())
		if err != nil {
			return types.RunSummary{}, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err,
				"strategy %s failed on day %d", name, s.portfolio.CurrentDay)
		}

		if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
			return types.RunSummary{}, errors.Newf(errors.ErrCodeStrategyRuntimeError,
				"strategy %s returned %v on day %d", name, quantity, s.portfolio.CurrentDay)
		}

		if quantity != 0 {
			s.portfolio.SharesOwned += quantity
			s.portfolio.CashBalance -= quantity * today.Open
			tradeDays++

			s.log.Debug("Trade applied",
				zap.Int("day", s.portfolio.CurrentDay),
				zap.Time("date", today.Date),
				zap.Float64("quantity", quantity),
				zap.Float64("open", today.Open),
				zap.Float64("cash", s.portfolio.CashBalance),
				zap.Float64("shares", s.portfolio.SharesOwned),
			)

			if err := s.record(runID, name, today, quantity); err != nil {
				return types.RunSummary{}, err
			}
		}

		if s.onProcessData != nil {
			if err := s.onProcessData(i+1, total); err != nil {
				return types.RunSummary{}, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}

		if err := s.AdvanceDay(); err != nil {
			return types.RunSummary{}, err
		}
	}

	s.state = SimulationStateFinished

	summary, err := types.NewRunSummary(s.portfolio, s.window.Last().Open)
	if err != nil {
		return types.RunSummary{}, err
	}

	summary.ID = runID
	summary.Timestamp = time.Now()
	summary.Strategy = name
	summary.StartDate = s.series.First().Date
	summary.EndDate = s.window.Last().Date
	summary.TradeDays = tradeDays
	summary.EngineVersion = version.GetVersion()

	s.log.Info("Simulation finished",
		zap.String("run_id", runID),
		zap.String("strategy", name),
		zap.Float64("cash", summary.FinalCash),
		zap.Float64("shares", summary.SharesOwned),
		zap.Float64("net_worth", summary.NetWorth),
	)

	return summary, nil
}

func (s *Simulation) record(runID string, name string, today types.DailyRecord, quantity float64) error {
	if s.recorder == nil {
		return nil
	}

	err := s.recorder.Record(types.JournalEntry{
		ID:          uuid.New().String(),
		RunID:       runID,
		Strategy:    name,
		Day:         s.portfolio.CurrentDay,
		Date:        today.Date,
		Quantity:    quantity,
		Price:       today.Open,
		CashAfter:   s.portfolio.CashBalance,
		SharesAfter: s.portfolio.SharesOwned,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestJournalFailed, "failed to record trade", err)
	}

	return nil
}

// AdvanceDay reveals the next record. It does nothing once the whole series is visible.
func (s *Simulation) AdvanceDay() error {
	if s.window.Full() {
		return nil
	}

	next := s.series.At(s.window.Len())
	if err := s.window.Append(next); err != nil {
		return err
	}

	s.portfolio.CurrentDay++
	s.openSum += next.Open
	s.rollingAverages = append(s.rollingAverages, s.openSum/float64(s.window.Len()))

	if s.portfolio.CurrentDay > RollingRSIWarmupDays {
		rsi, err := indicator.RSI(s.window.AsOf())
		if err != nil {
			return err
		}

		s.rollingRSI = append(s.rollingRSI, rsi)
	}

	return nil
}

// Reset returns to day 1 with the initial cash and no position, ready for another Run.
func (s *Simulation) Reset() {
	first := s.series.First()

	s.portfolio = types.NewPortfolioState(s.initialCash)
	s.window.ResetTo(first)
	s.openSum = first.Open
	s.rollingAverages = []float64{first.Open}
	s.rollingRSI = nil
	s.state = SimulationStateReady
}

// Snapshot is the causal view handed to strategies.
func (s *Simulation) Snapshot() strategy.Snapshot {
	return strategy.Snapshot{
		Window:    s.window.AsOf(),
		Portfolio: s.portfolio,
		TotalDays: s.series.Len(),
	}
}

func (s *Simulation) Portfolio() types.PortfolioState {
	return s.portfolio
}

// Window returns a copy of the visible records.
func (s *Simulation) Window() []types.DailyRecord {
	return s.window.AsOf()
}

func (s *Simulation) State() SimulationState {
	return s.state
}

// Series is the annotated series being simulated.
func (s *Simulation) Series() *types.HistoricalSeries {
	return s.series
}

// RollingAverages holds the mean visible open for each day so far, day 1 first.
func (s *Simulation) RollingAverages() []float64 {
	result := make([]float64, len(s.rollingAverages))
	copy(result, s.rollingAverages)

	return result
}

// RollingRSI holds the RSI of the whole window for each day after day 15.
func (s *Simulation) RollingRSI() []float64 {
	result := make([]float64, len(s.rollingRSI))
	copy(result, s.rollingRSI)

	return result
}
