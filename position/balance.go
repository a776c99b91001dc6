// Package position is the Position Lifecycle Manager (PLM): it owns the
// OPEN -> PARTIAL_TP1 -> PARTIAL_TP2 -> CLOSED state machine and every
// direct-to-CLOSED transition (stop/trail/timeout/early/emergency/
// manual), per spec.md §4.8. Grounded on trader/alpaca_trader.go's
// position-close-then-account-update sequencing, generalized from a
// single-broker fill callback to a strategy-agnostic exit monitor.
package position

import "github.com/shopspring/decimal"

// Ledger is the external balance collaborator spec.md §4.8 names:
// "applies P&L to paper or live balance". A decimal.Decimal-backed
// implementation is used for the cash ledger specifically (unlike the
// indicator/strategy float64 math elsewhere) because realized-P&L
// accounting accumulates over thousands of trades, where float64
// summation drift is a real correctness concern for a balance figure
// users read directly; indicator/scoring math has no such accumulation.
type Ledger interface {
	Balance() decimal.Decimal
	ApplyRealizedPnL(netPnL, fees float64)
}

// PaperLedger is the backtester/paper-trading balance collaborator.
type PaperLedger struct {
	balance decimal.Decimal
}

// NewPaperLedger creates a paper ledger starting at startingBalance.
func NewPaperLedger(startingBalance float64) *PaperLedger {
	return &PaperLedger{balance: decimal.NewFromFloat(startingBalance)}
}

// Balance returns the current paper balance.
func (l *PaperLedger) Balance() decimal.Decimal { return l.balance }

// ApplyRealizedPnL adds a closed trade's net P&L (already fee-adjusted
// by the caller) to the paper balance.
func (l *PaperLedger) ApplyRealizedPnL(netPnL, fees float64) {
	l.balance = l.balance.Add(decimal.NewFromFloat(netPnL))
}
