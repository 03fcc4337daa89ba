package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TradeTestSuite struct {
	suite.Suite
}

func TestTradeSuite(t *testing.T) {
	suite.Run(t, new(TradeTestSuite))
}

func (suite *TradeTestSuite) TestSide() {
	tests := []struct {
		name     string
		quantity float64
		expected PurchaseType
	}{
		{name: "positive quantity buys", quantity: 2.5, expected: PurchaseTypeBuy},
		{name: "negative quantity sells", quantity: -1, expected: PurchaseTypeSell},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			entry := JournalEntry{Quantity: tc.quantity}
			suite.Equal(tc.expected, entry.Side())
		})
	}
}

func (suite *TradeTestSuite) TestNotional() {
	suite.Equal(250.0, JournalEntry{Quantity: 2.5, Price: 100}.Notional())
	suite.Equal(300.0, JournalEntry{Quantity: -3, Price: 100}.Notional())
}
