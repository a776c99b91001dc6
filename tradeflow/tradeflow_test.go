package tradeflow

import (
	"testing"
	"time"
)

func TestWindowEvictsOldEvents(t *testing.T) {
	w := NewWindow()
	base := time.Unix(1_700_000_000, 0)
	w.Record(base, 10, Buy)
	w.Record(base.Add(30*time.Second), 5, Sell)

	snap := w.Snapshot(base.Add(100 * time.Second)) // both events now >60s stale
	if snap.BuyVolume != 0 || snap.SellVolume != 0 {
		t.Fatalf("expected full eviction, got %+v", snap)
	}
}

func TestWindowRatioUsesEpsilonFloor(t *testing.T) {
	w := NewWindow()
	base := time.Unix(1_700_000_000, 0)
	w.Record(base, 10, Buy)
	snap := w.Snapshot(base.Add(1 * time.Second))
	if snap.SellVolume != 0 {
		t.Fatalf("expected zero sell volume, got %v", snap.SellVolume)
	}
	if snap.Ratio <= 0 {
		t.Fatal("expected a large positive ratio from epsilon-floored denominator")
	}
}

func TestBuyShare(t *testing.T) {
	w := NewWindow()
	base := time.Unix(1_700_000_000, 0)
	w.Record(base, 60, Buy)
	w.Record(base, 40, Sell)
	snap := w.Snapshot(base)
	share, ok := snap.BuyShare()
	if !ok || share != 0.6 {
		t.Fatalf("expected buy share 0.6, got %v ok=%v", share, ok)
	}
}
