package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/stockbot/internal/backtest/engine"
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/schollz/progressbar/v3"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	gainStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	lossStyle   = cellStyle.Foreground(lipgloss.Color("203"))
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

// pnlColumn is the index of the profit/loss column in the summary table.
const pnlColumn = 7

// reporter renders run progress and collects the run summaries for the final table.
type reporter struct {
	mu        sync.Mutex
	out       io.Writer
	progress  bool
	bar       *progressbar.ProgressBar
	summaries []types.RunSummary
}

func newReporter(out io.Writer, progress bool) *reporter {
	return &reporter{
		out:      out,
		progress: progress,
	}
}

// Callbacks wires the reporter into the engine lifecycle.
func (r *reporter) Callbacks() engine.LifecycleCallbacks {
	onRunStart := engine.OnRunStartCallback(r.onRunStart)
	onProcessData := engine.OnProcessDataCallback(r.onProcessData)
	onRunEnd := engine.OnRunEndCallback(r.onRunEnd)

	return engine.LifecycleCallbacks{
		OnRunStart:    &onRunStart,
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	}
}

func (r *reporter) onRunStart(_ string, _ int, strategyName string, _ int, dataFilePath string, totalDays int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.progress {
		return nil
	}

	r.bar = progressbar.NewOptions(totalDays,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%s on %s", strategyName, filepath.Base(dataFilePath))),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	return nil
}

func (r *reporter) onProcessData(current int, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar == nil {
		return nil
	}

	return r.bar.Set(current)
}

func (r *reporter) onRunEnd(_ int, _ int, _ string, summary types.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}

	r.summaries = append(r.summaries, summary)
}

// Add appends summaries produced outside of a run, such as a stats file.
func (r *reporter) Add(summaries ...types.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summaries = append(r.summaries, summaries...)
}

// Summaries returns the collected run summaries in completion order.
func (r *reporter) Summaries() []types.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]types.RunSummary(nil), r.summaries...)
}

// Render formats the collected summaries as a table.
func (r *reporter) Render() string {
	summaries := r.Summaries()
	if len(summaries) == 0 {
		return titleStyle.Render("No runs completed")
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, summaryRow(s))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("File", "Strategy", "Days", "Cash", "Shares", "MTM", "Net Worth", "PnL", "Return", "Trade Days").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if col == pnlColumn && row >= 0 && row < len(summaries) {
				if summaries[row].PnL < 0 {
					return lossStyle
				}

				return gainStyle
			}

			return cellStyle
		})

	return titleStyle.Render("Backtest summary") + "\n" + t.Render()
}

func summaryRow(s types.RunSummary) []string {
	file := "-"
	if s.DataPath != "" {
		file = filepath.Base(s.DataPath)
	}

	return []string{
		file,
		s.Strategy,
		fmt.Sprintf("%d", s.Days),
		fmt.Sprintf("%.2f", s.FinalCash),
		fmt.Sprintf("%.4f", s.SharesOwned),
		fmt.Sprintf("%.2f", s.MarkToMarket),
		fmt.Sprintf("%.2f", s.NetWorth),
		fmt.Sprintf("%.2f", s.PnL),
		fmt.Sprintf("%.2f%%", s.ReturnPercent()),
		fmt.Sprintf("%d", s.TradeDays),
	}
}
