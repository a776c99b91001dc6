package config

import (
	"os"
	"testing"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() failed Validate: %v", err)
	}
}

func TestValidateRejectsOutOfRangeEntryThreshold(t *testing.T) {
	s := Default()
	s.EntryThreshold = 96
	if err := s.Validate(); err == nil {
		t.Fatalf("expected an error for entryThreshold above 95")
	}
}

func TestValidateRejectsPositiveHydraDailyLossLimit(t *testing.T) {
	s := Default()
	s.HydraDailyLossLimit = 1
	if err := s.Validate(); err == nil {
		t.Fatalf("expected an error for a positive hydraDailyLossLimit")
	}
}

func TestValidateRejectsTooManyScannerPairs(t *testing.T) {
	s := Default()
	s.ScannerPairs = []string{"A", "B", "C", "D", "E", "F"}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected an error for more than 5 scanner pairs")
	}
}

func TestLoadOverlaysEnvOntoDefault(t *testing.T) {
	os.Setenv("TRADEFORGE_ENTRY_THRESHOLD", "88")
	os.Setenv("TRADEFORGE_PAIRS", "BTCUSDT, ETHUSDT ,SOLUSDT")
	defer os.Unsetenv("TRADEFORGE_ENTRY_THRESHOLD")
	defer os.Unsetenv("TRADEFORGE_PAIRS")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.EntryThreshold != 88 {
		t.Fatalf("expected entryThreshold overlaid to 88, got %v", s.EntryThreshold)
	}
	if len(s.Pairs) != 3 || s.Pairs[2] != "SOLUSDT" {
		t.Fatalf("expected 3 trimmed pairs, got %v", s.Pairs)
	}
}

func TestToEngineConfigCarriesCoreFields(t *testing.T) {
	s := Default()
	s.PortfolioValue = 25000
	cfg := s.ToEngineConfig()
	if cfg.PortfolioValue != 25000 {
		t.Fatalf("expected PortfolioValue to carry through, got %v", cfg.PortfolioValue)
	}
	if cfg.HydraThreshold != s.EntryThreshold {
		t.Fatalf("expected HydraThreshold == EntryThreshold, got %v vs %v", cfg.HydraThreshold, s.EntryThreshold)
	}
	if cfg.Limits.HydraDailyLossPctCap != -s.HydraDailyLossLimit {
		t.Fatalf("expected HydraDailyLossPctCap to be the positive magnitude of HydraDailyLossLimit")
	}
}
