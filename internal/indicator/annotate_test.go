package indicator_test

import (
	"testing"

	"github.com/rxtech-lab/stockbot/internal/indicator"
	"github.com/rxtech-lab/stockbot/mocks"
	"github.com/stretchr/testify/suite"
)

type AnnotateTestSuite struct {
	suite.Suite
}

func TestAnnotateSuite(t *testing.T) {
	suite.Run(t, new(AnnotateTestSuite))
}

func (suite *AnnotateTestSuite) TestRSIColumn() {
	config := mocks.DefaultConfig()
	config.Count = 30
	records := mocks.NewDataGenerator(1).Generate(config)
	series := mocks.MustSeries(records)

	annotated, err := indicator.Annotate(series)
	suite.Require().NoError(err)
	suite.Equal(series.Len(), annotated.Len())

	for i := 0; i < indicator.PrecomputeRSILookback; i++ {
		suite.True(annotated.At(i).RSI.IsNone(), "day %d should have no rsi", i+1)
	}

	for i := indicator.PrecomputeRSILookback; i < annotated.Len(); i++ {
		expected, err := indicator.RSI(records[i-14 : i+1])
		suite.Require().NoError(err)
		suite.True(annotated.At(i).RSI.IsSome())
		suite.Equal(expected, annotated.At(i).RSI.Unwrap())
	}
}

func (suite *AnnotateTestSuite) TestMAColumn() {
	opens := make([]float64, 60)
	for i := range opens {
		opens[i] = float64(i + 1)
	}

	annotated, err := indicator.Annotate(mocks.MustSeries(mocks.FromOpens(opens...)))
	suite.Require().NoError(err)

	suite.True(annotated.At(0).MA.IsNone())
	// day 2 sees only day 1
	suite.Equal(1.0, annotated.At(1).MA.Unwrap())
	// mean of 1, 2, 3
	suite.Equal(2.0, annotated.At(3).MA.Unwrap())
	// index 55 averages opens at indices 5..54, i.e. 6..55
	suite.Equal(30.5, annotated.At(55).MA.Unwrap())
}

func (suite *AnnotateTestSuite) TestInputSeriesUntouched() {
	series := mocks.MustSeries(mocks.Flat(20, 10))

	annotated, err := indicator.Annotate(series)
	suite.Require().NoError(err)

	suite.True(annotated.At(15).RSI.IsSome())
	suite.True(series.At(15).RSI.IsNone())
	suite.True(series.At(15).MA.IsNone())
}

func (suite *AnnotateTestSuite) TestShortSeries() {
	annotated, err := indicator.Annotate(mocks.MustSeries(mocks.Flat(1, 10)))
	suite.Require().NoError(err)
	suite.Equal(1, annotated.Len())
	suite.False(annotated.At(0).Annotated())
}
