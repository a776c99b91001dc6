package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSignalAcceptedObservesScore(t *testing.T) {
	RecordSignal("BTCUSDT", "hydra", true, 62)
	if got := testutil.ToFloat64(SignalsTotal.WithLabelValues("BTCUSDT", "hydra", "true")); got != 1 {
		t.Fatalf("expected SignalsTotal=1, got %v", got)
	}
}

func TestRecordSignalDeniedSkipsScore(t *testing.T) {
	RecordSignal("ETHUSDT", "viper", false, 0)
	if got := testutil.ToFloat64(SignalsTotal.WithLabelValues("ETHUSDT", "viper", "false")); got != 1 {
		t.Fatalf("expected SignalsTotal=1, got %v", got)
	}
}

func TestRecordTradeClassifiesWinLoss(t *testing.T) {
	RecordTrade("SOLUSDT", "hydra", 12.5)
	RecordTrade("SOLUSDT", "hydra", -3)
	if got := testutil.ToFloat64(TradesTotal.WithLabelValues("SOLUSDT", "hydra", "win")); got != 1 {
		t.Fatalf("expected 1 win, got %v", got)
	}
	if got := testutil.ToFloat64(TradesTotal.WithLabelValues("SOLUSDT", "hydra", "loss")); got != 1 {
		t.Fatalf("expected 1 loss, got %v", got)
	}
}

func TestSetRatchetLevelZeroesOtherLevels(t *testing.T) {
	SetRatchetLevel("PROTECTED")
	if got := testutil.ToFloat64(RatchetLevel.WithLabelValues("PROTECTED")); got != 1 {
		t.Fatalf("expected PROTECTED=1, got %v", got)
	}
	if got := testutil.ToFloat64(RatchetLevel.WithLabelValues("NORMAL")); got != 0 {
		t.Fatalf("expected NORMAL=0, got %v", got)
	}

	SetRatchetLevel("LOCKED")
	if got := testutil.ToFloat64(RatchetLevel.WithLabelValues("PROTECTED")); got != 0 {
		t.Fatalf("expected PROTECTED to zero out after a new level activates, got %v", got)
	}
	if got := testutil.ToFloat64(RatchetLevel.WithLabelValues("LOCKED")); got != 1 {
		t.Fatalf("expected LOCKED=1, got %v", got)
	}
}

func TestRecordIngressEventIncrements(t *testing.T) {
	RecordIngressEvent("BTCUSDT", "candle")
	RecordIngressEvent("BTCUSDT", "candle")
	if got := testutil.ToFloat64(EventsIngested.WithLabelValues("BTCUSDT", "candle")); got != 2 {
		t.Fatalf("expected 2 ingested candle events, got %v", got)
	}
}
