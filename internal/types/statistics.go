package types

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rxtech-lab/stockbot/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RunSummary is the report produced at the end of one strategy run.
type RunSummary struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run finished.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Strategy is the name of the strategy that produced the run.
	Strategy string `yaml:"strategy" json:"strategy"`
	// DataPath is the price file the series was loaded from. Empty for in-memory series.
	DataPath string `yaml:"data_path" json:"data_path"`
	// Days is the number of simulated days.
	Days int `yaml:"days" json:"days"`
	// StartDate and EndDate are the first and last simulated dates.
	StartDate time.Time `yaml:"start_date" json:"start_date"`
	EndDate   time.Time `yaml:"end_date" json:"end_date"`
	// InitialBalance is the cash the run started with.
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`
	// FinalCash is the money left in the wallet.
	FinalCash float64 `yaml:"final_cash" json:"final_cash"`
	// SharesOwned is the position held after the last day.
	SharesOwned float64 `yaml:"shares_owned" json:"shares_owned"`
	// LastOpen is the open of the last visible day, used for valuation.
	LastOpen float64 `yaml:"last_open" json:"last_open"`
	// MarkToMarket is SharesOwned * LastOpen.
	MarkToMarket float64 `yaml:"mark_to_market" json:"mark_to_market"`
	// NetWorth is FinalCash + MarkToMarket.
	NetWorth float64 `yaml:"net_worth" json:"net_worth"`
	// PnL is NetWorth - InitialBalance.
	PnL float64 `yaml:"pnl" json:"pnl"`
	// TradeDays counts the days with a non-zero decision.
	TradeDays int `yaml:"trade_days" json:"trade_days"`
	// EngineVersion is the stockbot version that produced the run.
	EngineVersion string `yaml:"engine_version,omitempty" json:"engine_version,omitempty"`
	// JournalFilePath is the path to the trades parquet file, if one was written.
	JournalFilePath string `yaml:"journal_file_path,omitempty" json:"journal_file_path,omitempty"`
}

// NewRunSummary values the final portfolio at lastOpen. A portfolio that cannot
// be valued as a finite amount is an invariant violation.
func NewRunSummary(portfolio PortfolioState, lastOpen float64) (RunSummary, error) {
	markToMarket := portfolio.MarkToMarket(lastOpen)
	netWorth := portfolio.NetWorth(lastOpen)

	if !isFinite(netWorth) || !isFinite(portfolio.InitialBalance) {
		return RunSummary{}, errors.NewInvariantViolation(errors.ErrCodeInvariantViolation,
			"net worth %v (cash %v, shares %v at %v) is not a finite amount",
			netWorth, portfolio.CashBalance, portfolio.SharesOwned, lastOpen)
	}

	pnlDec := decimal.NewFromFloat(netWorth).Sub(decimal.NewFromFloat(portfolio.InitialBalance))
	pnl, _ := pnlDec.Float64()

	return RunSummary{
		Days:           portfolio.CurrentDay,
		InitialBalance: portfolio.InitialBalance,
		FinalCash:      portfolio.CashBalance,
		SharesOwned:    portfolio.SharesOwned,
		LastOpen:       lastOpen,
		MarkToMarket:   markToMarket,
		NetWorth:       netWorth,
		PnL:            pnl,
	}, nil
}

// ReturnPercent is the PnL relative to the initial balance, in percent.
func (s RunSummary) ReturnPercent() float64 {
	if s.InitialBalance == 0 {
		return 0
	}

	if !isFinite(s.PnL) || !isFinite(s.InitialBalance) {
		return math.NaN()
	}

	result, _ := decimal.NewFromFloat(s.PnL).
		Div(decimal.NewFromFloat(s.InitialBalance)).
		Mul(decimal.NewFromInt(100)).
		Float64()

	return result
}

func WriteRunSummaries(path string, summaries []RunSummary) error {
	data, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal run summaries to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summaries to file: %w", err)
	}

	return nil
}

// ReadRunSummaries reads a stats.yaml written by WriteRunSummaries.
func ReadRunSummaries(path string) ([]RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summaries: %w", err)
	}

	var summaries []RunSummary
	if err := yaml.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summaries: %w", err)
	}

	return summaries, nil
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
