package strategy_test

import (
	"testing"

	"github.com/rxtech-lab/stockbot/internal/strategy"
	"github.com/rxtech-lab/stockbot/mocks"
	"github.com/stretchr/testify/suite"
)

type RsiAndMovingAverageTestSuite struct {
	suite.Suite
	strategy *strategy.RsiAndMovingAverage
}

func TestRsiAndMovingAverageSuite(t *testing.T) {
	suite.Run(t, new(RsiAndMovingAverageTestSuite))
}

func (suite *RsiAndMovingAverageTestSuite) SetupTest() {
	suite.strategy = strategy.NewRsiAndMovingAverage()
}

func (suite *RsiAndMovingAverageTestSuite) TestInertDuringWarmup() {
	records := mocks.FromOpens(descending(120, 20)...)

	for day := 1; day < strategy.RsiAndMovingAverageWarmupDays; day++ {
		window := records[:day]

		quantity, err := suite.strategy.Decide(window[day-1].Open, snapshotOf(window, 10000, 50, len(records)))
		suite.NoError(err)
		suite.Zero(quantity, "day %d", day)
	}
}

func (suite *RsiAndMovingAverageTestSuite) TestOversoldBelowAverageBuysTwice() {
	// falling closes give rsi 0 and today's open sits under the average
	window := mocks.FromOpens(descending(115, 15)...)
	open := window[len(window)-1].Open

	quantity, err := suite.strategy.Decide(open, snapshotOf(window, 10000, 0, 30))
	suite.NoError(err)
	suite.InDelta(1000/open+1000/open, quantity, 1e-9)
}

func (suite *RsiAndMovingAverageTestSuite) TestOverboughtAboveAverageSellsTwice() {
	window := mocks.FromOpens(ascending(101, 15)...)
	open := window[len(window)-1].Open

	quantity, err := suite.strategy.Decide(open, snapshotOf(window, 10000, 100, 30))
	suite.NoError(err)
	suite.InDelta(-73.0, quantity, 1e-9)
}

func (suite *RsiAndMovingAverageTestSuite) TestRulesAddUp() {
	// rsi 56.25 sits between the thresholds, open above the average sells a third
	opens := []float64{100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 102}
	window := mocks.FromOpens(opens...)

	quantity, err := suite.strategy.Decide(102, snapshotOf(window, 10000, 100, 30))
	suite.NoError(err)
	suite.InDelta(-33.0, quantity, 1e-9)
}

func (suite *RsiAndMovingAverageTestSuite) TestOverboughtBelowAverageNetsBuyAndSell() {
	// gains of 100 against a loss of 30 put rsi near 77 while 170 sits under the ~191 average
	opens := append(append([]float64{100}, flat(200, 13)...), 170)
	window := mocks.FromOpens(opens...)

	quantity, err := suite.strategy.Decide(170, snapshotOf(window, 10000, 100, 30))
	suite.NoError(err)
	// the overbought sell is added to the below-average buy, it does not replace it
	suite.InDelta(1000.0/170-40, quantity, 1e-9)
	suite.NotEqual(-40.0, quantity)
}

func (suite *RsiAndMovingAverageTestSuite) TestNegativePositionDiscardsTheDay() {
	window := mocks.FromOpens(ascending(101, 15)...)
	open := window[len(window)-1].Open

	quantity, err := suite.strategy.Decide(open, snapshotOf(window, 10000, -10, 30))
	suite.NoError(err)
	suite.Zero(quantity)
}

func (suite *RsiAndMovingAverageTestSuite) TestPositionNeverGoesNegative() {
	gen := mocks.NewDataGenerator(7)
	config := mocks.DefaultConfig()
	config.Volatility = 0.04
	records := gen.Generate(config)

	cash, shares := 10000.0, 0.0

	for day := 1; day <= len(records); day++ {
		window := records[:day]
		open := window[day-1].Open

		quantity, err := suite.strategy.Decide(open, snapshotOf(window, cash, shares, len(records)))
		suite.Require().NoError(err)

		shares += quantity
		cash -= quantity * open
		suite.GreaterOrEqual(shares, 0.0, "day %d", day)
	}
}
