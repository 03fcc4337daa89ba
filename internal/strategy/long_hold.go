package strategy

// LongHold buys with all cash on the first day and sells the whole position on
// the last day of the series.
type LongHold struct{}

func NewLongHold() *LongHold {
	return &LongHold{}
}

func (l *LongHold) Name() string {
	return LongHoldName
}

func (l *LongHold) Decide(open float64, snapshot Snapshot) (float64, error) {
	// the last-day sell wins on a one-day series
	if snapshot.IsLastDay() {
		return -snapshot.Portfolio.SharesOwned, nil
	}

	if snapshot.Day() == 1 && open > 0 {
		return snapshot.Portfolio.CashBalance / open, nil
	}

	return 0, nil
}
