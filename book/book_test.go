package book

import "testing"

func TestApplySnapshotIdempotentReplay(t *testing.T) {
	b := New()
	bids := []Level{{Price: 100, Qty: 1}, {Price: 99, Qty: 2}}
	asks := []Level{{Price: 101, Qty: 1}, {Price: 102, Qty: 2}}

	b.ApplySnapshot(bids, asks)
	first := *b

	b.ApplySnapshot(bids, asks)
	second := *b

	if len(first.Bids) != len(second.Bids) || len(first.Asks) != len(second.Asks) {
		t.Fatal("replaying identical snapshot changed level counts")
	}
	for i := range first.Bids {
		if first.Bids[i] != second.Bids[i] {
			t.Fatalf("replay mismatch at bid %d: %+v vs %+v", i, first.Bids[i], second.Bids[i])
		}
	}
}

func TestDeltaRemovesLevelAtNonPositiveQty(t *testing.T) {
	b := New()
	b.ApplySnapshot([]Level{{Price: 100, Qty: 1}}, []Level{{Price: 101, Qty: 1}})
	b.ApplyDelta(Bid, 100, 0)
	if len(b.Bids) != 0 {
		t.Fatalf("expected level removed, got %+v", b.Bids)
	}
}

func TestDegradedWhenBestBidCrossesAsk(t *testing.T) {
	b := New()
	b.ApplySnapshot([]Level{{Price: 101, Qty: 1}}, []Level{{Price: 100, Qty: 1}})
	if !b.Degraded {
		t.Fatal("expected degraded book when bid >= ask")
	}
	if _, ok := b.SpreadPct(); ok {
		t.Fatal("expected spread unmeasurable on degraded book")
	}
}

func TestImbalanceTopN(t *testing.T) {
	b := New()
	b.ApplySnapshot(
		[]Level{{Price: 100, Qty: 10}, {Price: 99, Qty: 10}},
		[]Level{{Price: 101, Qty: 5}},
	)
	ratio, ok := b.Imbalance()
	if !ok {
		t.Fatal("expected computable imbalance")
	}
	if ratio != 4 {
		t.Fatalf("expected imbalance 4.0 (20/5), got %v", ratio)
	}
}
