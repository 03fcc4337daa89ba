package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/internal/version"
	"github.com/rxtech-lab/stockbot/mocks"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// twentyDayOpens alternates up and down moves around a rising trend.
var twentyDayOpens = []float64{
	100, 101, 99, 102, 103, 98, 104, 105, 97, 106,
	107, 96, 108, 109, 95, 110, 111, 94, 112, 113,
}

type SimulationTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
}

func TestSimulationSuite(t *testing.T) {
	suite.Run(t, new(SimulationTestSuite))
}

func (suite *SimulationTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
}

func (suite *SimulationTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *SimulationTestSuite) newSimulation(records []types.DailyRecord, cash float64, opts ...SimulationOption) *Simulation {
	simulation, err := NewSimulation(mocks.MustSeries(records), cash, opts...)
	suite.Require().NoError(err)

	return simulation
}

// journal collects recorded trades in memory.
type journal struct {
	entries []types.JournalEntry
}

func (j *journal) Record(entry types.JournalEntry) error {
	j.entries = append(j.entries, entry)

	return nil
}

// positionGuard fails the test when a strategy is handed a negative position.
type positionGuard struct {
	strategy.Strategy
	suite *SimulationTestSuite
}

func (g positionGuard) Decide(open float64, snapshot strategy.Snapshot) (float64, error) {
	g.suite.GreaterOrEqual(snapshot.Portfolio.SharesOwned, 0.0, "day %d", snapshot.Day())

	return g.Strategy.Decide(open, snapshot)
}

func (suite *SimulationTestSuite) TestNewSimulationValidation() {
	_, err := NewSimulation(nil, 1000)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))

	_, err = NewSimulation(mocks.MustSeries(mocks.Flat(5, 10)), -1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = NewSimulation(mocks.MustSeries(mocks.Flat(5, 10)), math.NaN())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = NewSimulation(mocks.MustSeries(mocks.Flat(5, 10)), 0)
	suite.NoError(err)
}

func (suite *SimulationTestSuite) TestInitialState() {
	records := mocks.FromOpens(twentyDayOpens...)
	simulation := suite.newSimulation(records, 10000)

	suite.Equal(SimulationStateReady, simulation.State())
	suite.Equal(types.NewPortfolioState(10000), simulation.Portfolio())
	suite.Len(simulation.Window(), 1)
	suite.Equal(records[0].Date, simulation.Window()[0].Date)
	suite.Equal([]float64{100}, simulation.RollingAverages())
	suite.Empty(simulation.RollingRSI())

	// the precompute pass annotates a copy and leaves the input alone
	series := simulation.Series()
	suite.Equal(len(records), series.Len())
	suite.True(series.At(0).MA.IsNone())
	suite.True(series.At(1).MA.IsSome())
	suite.True(series.At(13).RSI.IsNone())
	suite.True(series.At(14).RSI.IsSome())
	suite.True(records[14].RSI.IsNone())
}

func (suite *SimulationTestSuite) TestStrategySeesOnlyThePast() {
	records := mocks.NewDataGenerator(3).Generate(mocks.DefaultConfig())
	simulation := suite.newSimulation(records, 10000)

	mockStrategy := mocks.NewMockStrategy(suite.ctrl)
	mockStrategy.EXPECT().Name().Return("mock").AnyTimes()

	calls := 0
	mockStrategy.EXPECT().Decide(gomock.Any(), gomock.Any()).
		DoAndReturn(func(open float64, snapshot strategy.Snapshot) (float64, error) {
			calls++
			day := snapshot.Day()

			suite.Equal(calls, day)
			suite.Len(snapshot.Window, day)
			suite.Equal(len(records), snapshot.TotalDays)
			suite.Equal(records[day-1].Open, open)

			for i, record := range snapshot.Window {
				suite.Equal(records[i].Date, record.Date)
			}

			return 0, nil
		}).
		Times(len(records))

	summary, err := simulation.Run(mockStrategy)
	suite.Require().NoError(err)
	suite.Equal(SimulationStateFinished, simulation.State())
	suite.Equal(len(records), summary.Days)
	suite.Equal(0, summary.TradeDays)
	suite.Equal(10000.0, summary.NetWorth)
}

func (suite *SimulationTestSuite) TestSnapshotIsACopy() {
	records := mocks.FromOpens(1, 2, 3)
	simulation := suite.newSimulation(records, 100)

	mockStrategy := mocks.NewMockStrategy(suite.ctrl)
	mockStrategy.EXPECT().Name().Return("mutating").AnyTimes()
	mockStrategy.EXPECT().Decide(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ float64, snapshot strategy.Snapshot) (float64, error) {
			snapshot.Window[0].Open = -1
			snapshot.Portfolio.CashBalance = 1e9

			return 0, nil
		}).
		Times(3)

	summary, err := simulation.Run(mockStrategy)
	suite.Require().NoError(err)
	suite.Equal(100.0, summary.FinalCash)
	suite.Equal(1.0, simulation.Window()[0].Open)
}

func (suite *SimulationTestSuite) TestLongHoldTwentyDays() {
	simulation := suite.newSimulation(mocks.FromOpens(twentyDayOpens...), 10000)

	summary, err := simulation.Run(strategy.NewLongHold())
	suite.Require().NoError(err)

	finalOpen := twentyDayOpens[len(twentyDayOpens)-1]
	suite.Equal(0.0, summary.SharesOwned)
	suite.Equal(10000-100*(10000.0/100)+finalOpen*(10000.0/100), summary.FinalCash)
	suite.Equal(11300.0, summary.FinalCash)
	suite.Equal(11300.0, summary.NetWorth)
	suite.Equal(0.0, summary.MarkToMarket)
	suite.Equal(1300.0, summary.PnL)
	suite.Equal(finalOpen, summary.LastOpen)
	suite.Equal(20, summary.Days)
	suite.Equal(2, summary.TradeDays)
	suite.Equal("long_hold", summary.Strategy)
	suite.Equal(version.GetVersion(), summary.EngineVersion)
	suite.NotEmpty(summary.ID)
}

func (suite *SimulationTestSuite) TestLongHoldFlatSeriesKeepsNetWorth() {
	for _, price := range []float64{1, 37.3, 99.99, 1234.5678} {
		suite.Run(fmt.Sprintf("price %v", price), func() {
			simulation := suite.newSimulation(mocks.Flat(60, price), 10000)

			summary, err := simulation.Run(strategy.NewLongHold())
			suite.Require().NoError(err)
			suite.InDelta(10000.0, summary.NetWorth, 1e-6)
			suite.InDelta(0.0, summary.SharesOwned, 1e-9)
		})
	}
}

func (suite *SimulationTestSuite) TestPositionsStayNonNegative() {
	gen := mocks.NewDataGenerator(21)
	config := mocks.DefaultConfig()
	config.Count = 500
	config.Volatility = 0.04
	config.VolumeVariance = 0.8
	records := gen.Generate(config)

	for _, s := range []strategy.Strategy{strategy.NewRsiAndMovingAverage(), strategy.NewMomentumAndVolume()} {
		suite.Run(s.Name(), func() {
			simulation := suite.newSimulation(records, 10000)

			summary, err := simulation.Run(positionGuard{Strategy: s, suite: suite})
			suite.Require().NoError(err)
			suite.GreaterOrEqual(summary.SharesOwned, 0.0)
		})
	}
}

func (suite *SimulationTestSuite) TestRunRequiresReady() {
	simulation := suite.newSimulation(mocks.FromOpens(twentyDayOpens...), 10000)

	first, err := simulation.Run(strategy.NewLongHold())
	suite.Require().NoError(err)

	_, err = simulation.Run(strategy.NewLongHold())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSimulationNotReady))

	simulation.Reset()

	second, err := simulation.Run(strategy.NewLongHold())
	suite.Require().NoError(err)
	suite.Equal(first.FinalCash, second.FinalCash)
	suite.Equal(first.SharesOwned, second.SharesOwned)
	suite.Equal(first.NetWorth, second.NetWorth)
	suite.NotEqual(first.ID, second.ID)
}

func (suite *SimulationTestSuite) TestRunRejectsNilStrategy() {
	simulation := suite.newSimulation(mocks.Flat(3, 10), 100)

	_, err := simulation.Run(nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
	suite.Equal(SimulationStateReady, simulation.State())
}

func (suite *SimulationTestSuite) TestResetIsIdempotent() {
	records := mocks.NewDataGenerator(5).Generate(mocks.DefaultConfig())
	simulation := suite.newSimulation(records, 10000)

	_, err := simulation.Run(strategy.NewMomentumAndVolume())
	suite.Require().NoError(err)

	simulation.Reset()
	portfolio := simulation.Portfolio()
	window := simulation.Window()
	averages := simulation.RollingAverages()

	simulation.Reset()
	suite.Equal(portfolio, simulation.Portfolio())
	suite.Equal(window, simulation.Window())
	suite.Equal(averages, simulation.RollingAverages())
	suite.Empty(simulation.RollingRSI())
	suite.Equal(SimulationStateReady, simulation.State())
	suite.Equal(types.NewPortfolioState(10000), simulation.Portfolio())
	suite.Len(simulation.Window(), 1)
}

func (suite *SimulationTestSuite) TestAdvanceDayStopsAtTheEnd() {
	records := mocks.FromOpens(1, 2, 3, 4)
	simulation := suite.newSimulation(records, 100)

	for i := 0; i < 10; i++ {
		suite.Require().NoError(simulation.AdvanceDay())
	}

	suite.Equal(4, simulation.Portfolio().CurrentDay)
	suite.Len(simulation.Window(), 4)
	suite.Equal([]float64{1, 1.5, 2, 2.5}, simulation.RollingAverages())
}

func (suite *SimulationTestSuite) TestRollingRSIStartsAfterDayFifteen() {
	simulation := suite.newSimulation(mocks.FromOpens(twentyDayOpens...), 100)

	for day := 2; day <= 15; day++ {
		suite.Require().NoError(simulation.AdvanceDay())
	}

	suite.Equal(15, simulation.Portfolio().CurrentDay)
	suite.Empty(simulation.RollingRSI())

	suite.Require().NoError(simulation.AdvanceDay())
	rsi := simulation.RollingRSI()
	suite.Len(rsi, 1)
	suite.GreaterOrEqual(rsi[0], 0.0)
	suite.LessOrEqual(rsi[0], 100.0)

	for i := 0; i < 10; i++ {
		suite.Require().NoError(simulation.AdvanceDay())
	}

	suite.Len(simulation.RollingRSI(), len(twentyDayOpens)-15)
}

func (suite *SimulationTestSuite) TestStrategyErrorAbortsRun() {
	simulation := suite.newSimulation(mocks.Flat(10, 50), 1000)

	mockStrategy := mocks.NewMockStrategy(suite.ctrl)
	mockStrategy.EXPECT().Name().Return("broken").AnyTimes()
	gomock.InOrder(
		mockStrategy.EXPECT().Decide(50.0, gomock.Any()).Return(2.0, nil).Times(2),
		mockStrategy.EXPECT().Decide(50.0, gomock.Any()).Return(0.0, fmt.Errorf("no signal")),
	)

	_, err := simulation.Run(mockStrategy)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyRuntimeError))
	suite.Equal(SimulationStateRunning, simulation.State())
	suite.Equal(3, simulation.Portfolio().CurrentDay)
	suite.Equal(4.0, simulation.Portfolio().SharesOwned)
	suite.Equal(800.0, simulation.Portfolio().CashBalance)

	_, err = simulation.Run(mockStrategy)
	suite.True(errors.HasCode(err, errors.ErrCodeSimulationNotReady))

	simulation.Reset()
	suite.Equal(SimulationStateReady, simulation.State())
}

func (suite *SimulationTestSuite) TestNonFiniteQuantityAbortsRun() {
	simulation := suite.newSimulation(mocks.Flat(3, 50), 1000)

	mockStrategy := mocks.NewMockStrategy(suite.ctrl)
	mockStrategy.EXPECT().Name().Return("nan").AnyTimes()
	mockStrategy.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(math.NaN(), nil)

	_, err := simulation.Run(mockStrategy)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyRuntimeError))
	suite.Equal(0.0, simulation.Portfolio().SharesOwned)
}

func (suite *SimulationTestSuite) TestUnvaluablePortfolioFailsTheRun() {
	simulation := suite.newSimulation(mocks.Flat(3, 50), 1000)

	mockStrategy := mocks.NewMockStrategy(suite.ctrl)
	mockStrategy.EXPECT().Name().Return("overflow").AnyTimes()
	gomock.InOrder(
		mockStrategy.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(1e308, nil),
		mockStrategy.EXPECT().Decide(gomock.Any(), gomock.Any()).Return(0.0, nil).Times(2),
	)

	suite.NotPanics(func() {
		_, err := simulation.Run(mockStrategy)
		suite.Error(err)
		suite.True(errors.IsInvariantViolation(err))
	})
}

func (suite *SimulationTestSuite) TestNonFiniteOpenNeverReachesTheEngine() {
	_, err := types.NewHistoricalSeries(mocks.FromOpens(100, 101, math.Inf(1)))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
}

func (suite *SimulationTestSuite) TestTradesAreRecorded() {
	trades := &journal{}
	simulation := suite.newSimulation(mocks.FromOpens(100, 110, 120, 125), 1000, WithTradeRecorder(trades))

	summary, err := simulation.Run(strategy.NewLongHold())
	suite.Require().NoError(err)
	suite.Require().Len(trades.entries, 2)

	buy := trades.entries[0]
	suite.Equal(summary.ID, buy.RunID)
	suite.Equal("long_hold", buy.Strategy)
	suite.Equal(1, buy.Day)
	suite.Equal(10.0, buy.Quantity)
	suite.Equal(100.0, buy.Price)
	suite.Equal(0.0, buy.CashAfter)
	suite.Equal(10.0, buy.SharesAfter)
	suite.Equal(types.PurchaseTypeBuy, buy.Side())

	sell := trades.entries[1]
	suite.Equal(4, sell.Day)
	suite.Equal(-10.0, sell.Quantity)
	suite.Equal(125.0, sell.Price)
	suite.Equal(1250.0, sell.CashAfter)
	suite.Equal(types.PurchaseTypeSell, sell.Side())
	suite.NotEqual(buy.ID, sell.ID)
}

func (suite *SimulationTestSuite) TestProcessDataCallback() {
	var progress []int

	simulation := suite.newSimulation(mocks.Flat(5, 10), 100, WithProcessDataCallback(func(current int, total int) error {
		suite.Equal(5, total)
		progress = append(progress, current)

		return nil
	}))

	_, err := simulation.Run(strategy.NewLongHold())
	suite.Require().NoError(err)
	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *SimulationTestSuite) TestProcessDataCallbackAbortsRun() {
	simulation := suite.newSimulation(mocks.Flat(5, 10), 100, WithProcessDataCallback(func(current int, _ int) error {
		if current == 2 {
			return fmt.Errorf("cancelled")
		}

		return nil
	}))

	_, err := simulation.Run(strategy.NewLongHold())
	suite.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
}
