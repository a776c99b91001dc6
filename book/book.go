// Package book implements the OrderBook entity from spec.md §3: ordered
// bid/ask sequences, snapshot/delta mutation, the best-bid<best-ask
// invariant with degraded-book fallback, and the top-N imbalance used by
// HYDRA's D4 microstructure dimension. Grounded on
// yoghaf-market-indikator/internal/orderbook/book.go (fixed-capacity
// level arrays, snapshot replace, imbalance over top-N levels) adapted
// from that package's lock-free single-writer design to the SDE's
// single-threaded event-loop model (so no atomics are needed here: the
// event loop is the only caller).
package book

import "sort"

// Side identifies which side of the book a delta applies to.
type Side string

const (
	Bid Side = "bid"
	Ask Side = "ask"
)

// Level is one price/quantity rung.
type Level struct {
	Price float64
	Qty   float64
}

// MaxLevels bounds how many rungs per side are retained; HYDRA's D4
// reads only the top ImbalanceLevels of them.
const MaxLevels = 50

// ImbalanceLevels is the top-N used for the D4 imbalance ratio.
const ImbalanceLevels = 10

// Book is the two-sided order book for one pair.
type Book struct {
	Bids []Level // descending price
	Asks []Level // ascending price

	// Degraded is set when a mutation would violate best-bid < best-ask
	// (or leaves either side empty); depth-dependent strategies must
	// skip a degraded book per spec.md §7 DegradedBook.
	Degraded bool
}

func New() *Book { return &Book{} }

// ApplySnapshot replaces the book wholesale. Bids/asks are expected
// pre-sorted (bids descending, asks ascending) as the exchange delivers
// them; ApplySnapshot re-sorts defensively since replaying is required
// to be idempotent regardless of caller discipline.
func (b *Book) ApplySnapshot(bids, asks []Level) {
	b.Bids = sortedCopy(bids, true)
	b.Asks = sortedCopy(asks, false)
	b.truncate()
	b.checkInvariant()
}

func sortedCopy(levels []Level, descending bool) []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}

// ApplyDelta sets (or removes, if newQty <= 0) a single level on the
// given side.
func (b *Book) ApplyDelta(side Side, price, newQty float64) {
	levels := &b.Bids
	descending := true
	if side == Ask {
		levels = &b.Asks
		descending = false
	}

	idx := -1
	for i, lv := range *levels {
		if lv.Price == price {
			idx = i
			break
		}
	}

	switch {
	case newQty <= 0:
		if idx >= 0 {
			*levels = append((*levels)[:idx], (*levels)[idx+1:]...)
		}
	case idx >= 0:
		(*levels)[idx].Qty = newQty
	default:
		*levels = append(*levels, Level{Price: price, Qty: newQty})
		sort.Slice(*levels, func(i, j int) bool {
			if descending {
				return (*levels)[i].Price > (*levels)[j].Price
			}
			return (*levels)[i].Price < (*levels)[j].Price
		})
	}
	b.truncate()
	b.checkInvariant()
}

func (b *Book) truncate() {
	if len(b.Bids) > MaxLevels {
		b.Bids = b.Bids[:MaxLevels]
	}
	if len(b.Asks) > MaxLevels {
		b.Asks = b.Asks[:MaxLevels]
	}
}

func (b *Book) checkInvariant() {
	bid, bok := b.BestBid()
	ask, aok := b.BestAsk()
	b.Degraded = !bok || !aok || bid >= ask
}

// BestBid returns the top bid price, and whether one exists.
func (b *Book) BestBid() (float64, bool) {
	if len(b.Bids) == 0 {
		return 0, false
	}
	return b.Bids[0].Price, true
}

// BestAsk returns the top ask price, and whether one exists.
func (b *Book) BestAsk() (float64, bool) {
	if len(b.Asks) == 0 {
		return 0, false
	}
	return b.Asks[0].Price, true
}

// Mid returns the mid price, and whether it could be computed.
func (b *Book) Mid() (float64, bool) {
	bid, bok := b.BestBid()
	ask, aok := b.BestAsk()
	if !bok || !aok {
		return 0, false
	}
	return (bid + ask) / 2, true
}

// SpreadPct returns (ask-bid)/mid as a fraction (0.0025 == 0.25%), and
// whether the book is healthy enough to measure it. A degraded book
// reports ok=false so callers fall back to spec.md §7's "spread unknown
// -> not blocked" rule for HYDRA D4.
func (b *Book) SpreadPct() (pct float64, ok bool) {
	if b.Degraded {
		return 0, false
	}
	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	mid, _ := b.Mid()
	if mid == 0 {
		return 0, false
	}
	return (ask - bid) / mid, true
}

// Imbalance returns Σtop-N bid qty / Σtop-N ask qty, and whether it was
// computable (false if the book is degraded or the ask side is empty).
func (b *Book) Imbalance() (ratio float64, ok bool) {
	if b.Degraded {
		return 0, false
	}
	bidVol := sumQty(b.Bids, ImbalanceLevels)
	askVol := sumQty(b.Asks, ImbalanceLevels)
	if askVol <= 0 {
		return 0, false
	}
	return bidVol / askVol, true
}

func sumQty(levels []Level, n int) float64 {
	if n > len(levels) {
		n = len(levels)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += levels[i].Qty
	}
	return sum
}
