package types

import "time"

type PurchaseType string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

// JournalEntry is one applied, non-zero daily decision.
type JournalEntry struct {
	ID       string    `csv:"id"`
	RunID    string    `csv:"run_id"`
	Strategy string    `csv:"strategy"`
	Day      int       `csv:"day"`
	Date     time.Time `csv:"date"`
	// Quantity is the signed trade size: positive buys, negative sells.
	Quantity    float64 `csv:"quantity"`
	Price       float64 `csv:"price"`
	CashAfter   float64 `csv:"cash_after"`
	SharesAfter float64 `csv:"shares_after"`
}

// Side derives the purchase type from the sign of Quantity.
func (e JournalEntry) Side() PurchaseType {
	if e.Quantity < 0 {
		return PurchaseTypeSell
	}

	return PurchaseTypeBuy
}

// Notional is the absolute cash moved by the trade.
func (e JournalEntry) Notional() float64 {
	if e.Quantity < 0 {
		return -e.Quantity * e.Price
	}

	return e.Quantity * e.Price
}
