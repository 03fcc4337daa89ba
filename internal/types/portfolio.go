package types

// PortfolioState is the cash and position of one simulation. It is owned by the
// engine and only handed to strategies by value.
type PortfolioState struct {
	CashBalance    float64 `yaml:"cash_balance" json:"cash_balance"`
	SharesOwned    float64 `yaml:"shares_owned" json:"shares_owned"`
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`
	// CurrentDay is 1-indexed and equals the number of visible records.
	CurrentDay int `yaml:"current_day" json:"current_day"`
}

// NewPortfolioState returns the day-1 state for the given starting cash.
func NewPortfolioState(initialBalance float64) PortfolioState {
	return PortfolioState{
		CashBalance:    initialBalance,
		SharesOwned:    0,
		InitialBalance: initialBalance,
		CurrentDay:     1,
	}
}

// MarkToMarket values the position at price.
func (p PortfolioState) MarkToMarket(price float64) float64 {
	return p.SharesOwned * price
}

// NetWorth is cash plus the position valued at price.
func (p PortfolioState) NetWorth(price float64) float64 {
	return p.CashBalance + p.MarkToMarket(price)
}
