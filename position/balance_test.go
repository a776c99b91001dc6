package position

import "testing"

func TestPaperLedgerAppliesRealizedPnL(t *testing.T) {
	l := NewPaperLedger(10000)
	l.ApplyRealizedPnL(14.72, 2.0)
	got, _ := l.Balance().Float64()
	if got != 10014.72 {
		t.Fatalf("expected balance 10014.72, got %v", got)
	}
}

func TestPaperLedgerAccumulatesAcrossTrades(t *testing.T) {
	l := NewPaperLedger(1000)
	for i := 0; i < 100; i++ {
		l.ApplyRealizedPnL(0.1, 0)
	}
	got, _ := l.Balance().Float64()
	if got != 1010 {
		t.Fatalf("expected exact accumulation to 1010 (no float drift), got %v", got)
	}
}
