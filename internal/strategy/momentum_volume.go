package strategy

import (
	"github.com/rxtech-lab/stockbot/internal/indicator"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

// MomentumPositionFraction is the share of cash traded on a momentum signal.
const MomentumPositionFraction = 0.05

// MomentumAndVolume follows the open across the 30-day moving average when
// today's volume is above the window's average volume.
type MomentumAndVolume struct{}

func NewMomentumAndVolume() *MomentumAndVolume {
	return &MomentumAndVolume{}
}

func (m *MomentumAndVolume) Name() string {
	return MomentumAndVolumeName
}

func (m *MomentumAndVolume) Decide(open float64, snapshot Snapshot) (float64, error) {
	if open <= 0 {
		return 0, nil
	}

	ma30, err := indicator.SimpleMovingAverage(snapshot.Window, TrendSpanDays)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to compute moving average", err)
	}

	averageVolume, err := indicator.AverageVolume(snapshot.Window)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStrategyRuntimeError, "failed to compute average volume", err)
	}

	if float64(snapshot.Today().Volume) <= averageVolume {
		return 0, nil
	}

	size := MomentumPositionFraction * snapshot.Portfolio.CashBalance / open

	switch {
	case open > ma30:
		return size, nil
	case open < ma30:
		return -min(snapshot.Portfolio.SharesOwned, size), nil
	default:
		return 0, nil
	}
}
