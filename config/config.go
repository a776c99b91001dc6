// Package config is the typed settings record spec.md §6 names
// ("Configuration enumeration"): every tunable the engine, risk gate,
// and VIPER election read, loaded from environment (via joho/godotenv
// for local .env files, generalized from market/api_client.go's
// credential-fallback idiom to a full settings record) and persisted
// through store.Persister so edits made via the HTTP API survive a
// restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeforge/engine"
	"tradeforge/risk"
	"tradeforge/store"
)

// Settings is the full configuration enumeration from spec.md §6, plus
// the VIPER/risk knobs §4.6/§4.7 name.
type Settings struct {
	Pairs []string `json:"pairs"`

	EntryThreshold      float64 `json:"entryThreshold"`      // [65,95]
	RiskPerTrade        float64 `json:"riskPerTrade"`
	MaxPositionPct      float64 `json:"maxPositionPct"`
	ExitScoreThreshold  float64 `json:"exitScoreThreshold"`  // [20,60]
	SignalExpirySec     float64 `json:"signalExpirySec"`
	AutoCalibrate       bool    `json:"autoCalibrate"`
	ConsecutiveLossPause    bool `json:"consecutiveLossPause"`
	ConsecutiveLossPauseMin int  `json:"consecutiveLossPauseMin"`
	SessionWeight       float64 `json:"sessionWeight"`

	EdgeDetectorIntervalMin  int     `json:"edgeDetectorIntervalMin"`
	StrikeCooldownSec        int     `json:"strikeCooldownSec"`
	StrikeMaxConsecutiveWins int     `json:"strikeMaxConsecutiveWins"`
	CoilMaxPositions         int     `json:"coilMaxPositions"`
	LungeMaxPositions        int     `json:"lungeMaxPositions"`
	RatchetEnabled           bool    `json:"ratchetEnabled"`
	OvernightCutoffHourUTC   int     `json:"overnightCutoffHourUTC"`
	DailyPnLTarget           float64 `json:"dailyPnLTarget"`
	MaxDailyLossPct          float64 `json:"maxDailyLossPct"`
	PerformanceLedgerEnabled bool    `json:"performanceLedgerEnabled"`
	CapitalSplitPct          float64 `json:"capitalSplitPct"`

	ScannerPairs           []string `json:"scannerPairs"` // <=5
	MaxConcurrentPositions int      `json:"maxConcurrentPositions"`
	HydraDailyLossLimit    float64  `json:"hydraDailyLossLimit"` // negative %

	PortfolioValue     float64 `json:"portfolioValue"`
	EstSlippagePct     float64 `json:"estSlippagePct"`
	EstFeePct          float64 `json:"estFeePct"`
	CorrelationMinUnit float64 `json:"correlationMinUnit"`

	WorkerPoolSize int `json:"workerPoolSize"`
}

// Default returns spec.md §6's stated defaults/midpoints, the floor the
// env loader and persisted overlay both start from.
func Default() Settings {
	return Settings{
		Pairs:                    []string{"BTCUSDT", "ETHUSDT"},
		EntryThreshold:           80,
		RiskPerTrade:             0.01,
		MaxPositionPct:           0.08,
		ExitScoreThreshold:       40,
		SignalExpirySec:          20,
		AutoCalibrate:            true,
		ConsecutiveLossPause:     true,
		ConsecutiveLossPauseMin:  30,
		SessionWeight:            1.0,
		EdgeDetectorIntervalMin:  15,
		StrikeCooldownSec:        90,
		StrikeMaxConsecutiveWins: 3,
		CoilMaxPositions:         2,
		LungeMaxPositions:        1,
		RatchetEnabled:           true,
		OvernightCutoffHourUTC:   0,
		DailyPnLTarget:           2,
		MaxDailyLossPct:          3,
		PerformanceLedgerEnabled: true,
		CapitalSplitPct:          0.35,
		ScannerPairs:             []string{"BTCUSDT", "ETHUSDT"},
		MaxConcurrentPositions:   6,
		HydraDailyLossLimit:      -2,
		PortfolioValue:           10000,
		EstSlippagePct:           0.0005,
		EstFeePct:                0.001,
		CorrelationMinUnit:       50,
		WorkerPoolSize:           4,
	}
}

// Load reads envPath (if present; a missing .env file is not an error,
// matching godotenv's own convention) then overlays any TRADEFORGE_*
// environment variable onto Default(), mirroring
// market/api_client.go's global-then-env credential fallback
// generalized from two credential strings to the full settings record.
func Load(envPath string) (Settings, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("config: load %s: %w", envPath, err)
		}
	}

	s := Default()
	overlayString("TRADEFORGE_PAIRS", &s.Pairs)
	overlayFloat("TRADEFORGE_ENTRY_THRESHOLD", &s.EntryThreshold)
	overlayFloat("TRADEFORGE_RISK_PER_TRADE", &s.RiskPerTrade)
	overlayFloat("TRADEFORGE_MAX_POSITION_PCT", &s.MaxPositionPct)
	overlayFloat("TRADEFORGE_EXIT_SCORE_THRESHOLD", &s.ExitScoreThreshold)
	overlayFloat("TRADEFORGE_SIGNAL_EXPIRY_SEC", &s.SignalExpirySec)
	overlayBool("TRADEFORGE_AUTO_CALIBRATE", &s.AutoCalibrate)
	overlayBool("TRADEFORGE_CONSECUTIVE_LOSS_PAUSE", &s.ConsecutiveLossPause)
	overlayInt("TRADEFORGE_CONSECUTIVE_LOSS_PAUSE_MIN", &s.ConsecutiveLossPauseMin)
	overlayFloat("TRADEFORGE_SESSION_WEIGHT", &s.SessionWeight)
	overlayInt("TRADEFORGE_EDGE_DETECTOR_INTERVAL_MIN", &s.EdgeDetectorIntervalMin)
	overlayInt("TRADEFORGE_STRIKE_COOLDOWN_SEC", &s.StrikeCooldownSec)
	overlayInt("TRADEFORGE_STRIKE_MAX_CONSECUTIVE_WINS", &s.StrikeMaxConsecutiveWins)
	overlayInt("TRADEFORGE_COIL_MAX_POSITIONS", &s.CoilMaxPositions)
	overlayInt("TRADEFORGE_LUNGE_MAX_POSITIONS", &s.LungeMaxPositions)
	overlayBool("TRADEFORGE_RATCHET_ENABLED", &s.RatchetEnabled)
	overlayInt("TRADEFORGE_OVERNIGHT_CUTOFF_HOUR_UTC", &s.OvernightCutoffHourUTC)
	overlayFloat("TRADEFORGE_DAILY_PNL_TARGET", &s.DailyPnLTarget)
	overlayFloat("TRADEFORGE_MAX_DAILY_LOSS_PCT", &s.MaxDailyLossPct)
	overlayBool("TRADEFORGE_PERFORMANCE_LEDGER_ENABLED", &s.PerformanceLedgerEnabled)
	overlayFloat("TRADEFORGE_CAPITAL_SPLIT_PCT", &s.CapitalSplitPct)
	overlayString("TRADEFORGE_SCANNER_PAIRS", &s.ScannerPairs)
	overlayInt("TRADEFORGE_MAX_CONCURRENT_POSITIONS", &s.MaxConcurrentPositions)
	overlayFloat("TRADEFORGE_HYDRA_DAILY_LOSS_LIMIT", &s.HydraDailyLossLimit)
	overlayFloat("TRADEFORGE_PORTFOLIO_VALUE", &s.PortfolioValue)
	overlayFloat("TRADEFORGE_EST_SLIPPAGE_PCT", &s.EstSlippagePct)
	overlayFloat("TRADEFORGE_EST_FEE_PCT", &s.EstFeePct)
	overlayFloat("TRADEFORGE_CORRELATION_MIN_UNIT", &s.CorrelationMinUnit)
	overlayInt("TRADEFORGE_WORKER_POOL_SIZE", &s.WorkerPoolSize)

	return s, s.Validate()
}

// Validate enforces spec.md §6's stated ranges.
func (s Settings) Validate() error {
	if s.EntryThreshold < 65 || s.EntryThreshold > 95 {
		return fmt.Errorf("config: entryThreshold %v out of range [65,95]", s.EntryThreshold)
	}
	if s.ExitScoreThreshold < 20 || s.ExitScoreThreshold > 60 {
		return fmt.Errorf("config: exitScoreThreshold %v out of range [20,60]", s.ExitScoreThreshold)
	}
	if len(s.ScannerPairs) > 5 {
		return fmt.Errorf("config: scannerPairs has %d entries, max 5", len(s.ScannerPairs))
	}
	if s.HydraDailyLossLimit > 0 {
		return fmt.Errorf("config: hydraDailyLossLimit must be negative, got %v", s.HydraDailyLossLimit)
	}
	return nil
}

// ToEngineConfig materializes Settings into the engine package's live
// Config, filling in the fixed parts of risk.Limits/CorrelationTable
// that spec.md §6 does not expose as individually tunable options.
func (s Settings) ToEngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Pairs = s.Pairs
	cfg.HydraThreshold = s.EntryThreshold
	cfg.RiskPerTrade = s.RiskPerTrade
	cfg.MaxPositionPct = s.MaxPositionPct
	cfg.PortfolioValue = s.PortfolioValue
	cfg.ConfiguredViperPct = s.CapitalSplitPct
	cfg.CorrelationMinUnit = s.CorrelationMinUnit
	cfg.ElectionInterval = time.Duration(s.EdgeDetectorIntervalMin) * time.Minute
	cfg.WorkerPoolSize = s.WorkerPoolSize
	cfg.SessionWeight = s.SessionWeight
	cfg.EstSlippagePct = s.EstSlippagePct
	cfg.EstFeePct = s.EstFeePct

	cfg.Limits = s.RiskLimits()
	return cfg
}

// RiskLimits derives the Risk & Portfolio Gate's limits from Settings;
// split out of ToEngineConfig so the api package can report the active
// limits without constructing a full engine.Config.
func (s Settings) RiskLimits() risk.Limits {
	lim := engine.DefaultConfig().Limits
	lim.MaxConcurrentPositions = s.MaxConcurrentPositions
	lim.MaxDailyLossPct = s.MaxDailyLossPct
	lim.HydraDailyLossPctCap = -s.HydraDailyLossLimit
	lim.SignalExpirySec = s.SignalExpirySec
	return lim
}

// Key is the store.Persister logical key Settings round-trips under,
// matching spec.md §6's "Persisted state layout" naming (risk_settings,
// hydra_settings, viper_settings, allocation_config, ... collapsed into
// one record since Settings already carries every one of those logical
// keys' fields together).
const Key = "engine_settings"

// LoadFromStore reads a previously saved Settings overlay from the
// Persister, falling back to Default() if none has been saved yet.
func LoadFromStore(p *store.Persister) (Settings, error) {
	var s Settings
	ok, err := p.Get(Key, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("config: load from store: %w", err)
	}
	if !ok {
		return Default(), nil
	}
	return s, nil
}

// SaveToStore persists the current Settings overlay so an HTTP API edit
// survives a restart.
func SaveToStore(p *store.Persister, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return p.Set(Key, s)
}

func overlayFloat(key string, dst *float64) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil {
		*dst = f
	}
}

func overlayInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err == nil {
		*dst = n
	}
}

func overlayBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err == nil {
		*dst = b
	}
}

func overlayString(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
