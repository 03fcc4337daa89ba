package indicator_test

import (
	"testing"

	"github.com/rxtech-lab/stockbot/internal/indicator"
	"github.com/rxtech-lab/stockbot/mocks"
	"github.com/rxtech-lab/stockbot/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MATestSuite struct {
	suite.Suite
}

func TestMASuite(t *testing.T) {
	suite.Run(t, new(MATestSuite))
}

func (suite *MATestSuite) TestNonPositiveSpanIsZero() {
	windows := [][]float64{nil, {100}, {1, 2, 3, 4, 5}}

	for _, opens := range windows {
		for _, span := range []int{0, -1, -30} {
			value, err := indicator.SimpleMovingAverage(mocks.FromOpens(opens...), span)
			suite.NoError(err)
			suite.Equal(0.0, value)
		}
	}
}

func (suite *MATestSuite) TestEmptyWindow() {
	_, err := indicator.SimpleMovingAverage(nil, 30)
	suite.Error(err)
	suite.True(errors.IsInvariantViolation(err))
}

func (suite *MATestSuite) TestTrailingSpan() {
	window := mocks.FromOpens(1, 2, 3, 4, 5)

	value, err := indicator.SimpleMovingAverage(window, 3)
	suite.NoError(err)
	suite.Equal(4.0, value)

	value, err = indicator.SimpleMovingAverage(window, 1)
	suite.NoError(err)
	suite.Equal(5.0, value)
}

// At the start of history the denominator is the number of records available,
// not the requested span.
func (suite *MATestSuite) TestSpanLongerThanHistoryDividesByAvailable() {
	window := mocks.FromOpens(1, 2, 3, 4, 5)

	value, err := indicator.SimpleMovingAverage(window, 30)
	suite.NoError(err)
	suite.Equal(3.0, value)

	value, err = indicator.SimpleMovingAverage(mocks.FromOpens(42), 30)
	suite.NoError(err)
	suite.Equal(42.0, value)
}

func (suite *MATestSuite) TestUsesOpen() {
	window := mocks.FromOpens(10, 20)
	window[1].Close = 1000

	value, err := indicator.SimpleMovingAverage(window, 2)
	suite.NoError(err)
	suite.Equal(15.0, value)
}
