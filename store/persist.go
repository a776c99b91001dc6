package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Persister is the durable side of the Market State Store: the logical
// keys of spec.md §6 (trading_mode, risk_settings, hydra_settings,
// hydra_calibration_history, viper_performance_ledger, session profiles,
// watchlist, paper portfolio, ...), each stored as a JSON blob under its
// key name. Grounded on store/strategy.go and store/tactics.go's
// table-per-entity, JSON-blob-config idiom (`CREATE TABLE IF NOT
// EXISTS`, `CREATE TRIGGER ... updated_at`), collapsed from many
// bespoke tables into one key/value table because every logical key in
// §6 is already "a structured record matching a §3 entity shape" with
// no need for SQL-level querying across keys.
//
// Writes are best-effort: per spec.md §7's PersistenceQuota kind, a
// failed write is logged and silently dropped rather than propagated
// into the tick loop.
type Persister struct {
	db *sql.DB
}

// OpenPersister opens (creating if absent) a sqlite-backed Persister at
// path.
func OpenPersister(path string) (*Persister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	p := &Persister{db: db}
	if err := p.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Persister) initTables() error {
	const schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trade_history (
	id          TEXT PRIMARY KEY,
	pair        TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	closed_ts   DATETIME NOT NULL,
	record      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_history_closed_ts ON trade_history(closed_ts);

CREATE TABLE IF NOT EXISTS calibration_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         DATETIME NOT NULL,
	record     TEXT NOT NULL
);
`
	_, err := p.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (p *Persister) Close() error { return p.db.Close() }

// Set persists a logical key as a JSON blob. A failure is always
// returned to the caller, who (per spec.md §7 PersistenceQuota) is
// expected to log it and continue rather than fail the calling
// operation.
func (p *Persister) Set(key string, value any) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", key, err)
	}
	_, err = p.db.Exec(
		`INSERT INTO kv_store(key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(blob), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: persist %s: %w", key, err)
	}
	return nil
}

// Get loads a logical key into out, returning ok=false if the key has
// never been written.
func (p *Persister) Get(key string, out any) (ok bool, err error) {
	var blob string
	row := p.db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("store: load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(blob), out); err != nil {
		return false, fmt.Errorf("store: unmarshal %s: %w", key, err)
	}
	return true, nil
}

// AppendCalibrationHistory records one self-calibration event
// (hydra_calibration_history in spec.md §6).
func (p *Persister) AppendCalibrationHistory(rec any) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal calibration record: %w", err)
	}
	_, err = p.db.Exec(`INSERT INTO calibration_history(ts, record) VALUES (?, ?)`, time.Now().UTC(), string(blob))
	if err != nil {
		return fmt.Errorf("store: append calibration history: %w", err)
	}
	return nil
}

// CalibrationHistory returns up to `limit` most recent calibration
// records, newest first, each still JSON-encoded for the caller to
// unmarshal into its own concrete type.
func (p *Persister) CalibrationHistory(limit int) ([]string, error) {
	rows, err := p.db.Query(`SELECT record FROM calibration_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: read calibration history: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var rec string
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("store: scan calibration history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AppendTrade persists one closed Trade to the pair-independent history
// ring buffer's durable backing (spec.md §3's Trade entity).
func (p *Persister) AppendTrade(id, pair, strategy string, closedTs time.Time, rec any) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal trade %s: %w", id, err)
	}
	_, err = p.db.Exec(
		`INSERT INTO trade_history(id, pair, strategy, closed_ts, record) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record=excluded.record`,
		id, pair, strategy, closedTs, string(blob),
	)
	if err != nil {
		return fmt.Errorf("store: persist trade %s: %w", id, err)
	}
	return nil
}

// RecentTrades returns up to `limit` most recently closed trades,
// newest first, still JSON-encoded.
func (p *Persister) RecentTrades(limit int) ([]string, error) {
	rows, err := p.db.Query(`SELECT record FROM trade_history ORDER BY closed_ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: read trade history: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var rec string
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("store: scan trade history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Logical key names for Persister.Set/Get, matching spec.md §6 exactly.
const (
	KeyTradingMode             = "trading_mode"
	KeyActivePair              = "active_pair"
	KeyWatchlist               = "watchlist"
	KeyFavorites                = "favorites"
	KeyRiskSettings            = "risk_settings"
	KeyPaperPortfolio          = "paper_portfolio"
	KeyActiveStrategies        = "active_strategies"
	KeyIndicatorConfig         = "indicator_config"
	KeyIndicatorPresets        = "indicator_presets"
	KeyHydraSettings           = "hydra_settings"
	KeyHydraEntryThreshold     = "hydra_entry_threshold"
	KeyViperSettings           = "viper_settings"
	KeyViperEnabled            = "viper_enabled"
	KeyViperPerformanceLedger  = "viper_performance_ledger"
	KeyViperTickerTuning       = "viper_ticker_tuning"
	KeyHydraSessionProfiles    = "hydra_session_profiles"
	KeyAllocationConfig        = "allocation_config"
	KeyScannerPairs            = "scanner_pairs"
	KeyScannerEnabled          = "scanner_enabled"
	KeyMaxConcurrentPositions  = "max_concurrent_positions"
	KeyHydraDailyLossLimit     = "hydra_daily_loss_limit"
)
