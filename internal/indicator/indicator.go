// Package indicator holds the technical indicators used by the simulation.
//
// Every function is pure over the window it is given. The engine calls them
// twice: once over prefixes of the full series to annotate it before the first
// run, and again over the causal rolling window while a strategy runs.
package indicator

import (
	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

func requireRecords(window []types.DailyRecord, minimum int, name types.IndicatorType) error {
	if len(window) < minimum {
		return errors.NewInvariantViolation(errors.ErrCodeInsufficientData,
			"%s needs at least %d records, window has %d", name, minimum, len(window))
	}

	return nil
}
