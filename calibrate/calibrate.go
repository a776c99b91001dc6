// Package calibrate is the Self-Calibrator (SC): HYDRA threshold
// adaptation and per-pair session-profile learning from realized trades
// (spec.md §4.9). Grounded on decision/localfunc.go's genetic-chromosome
// "pre-tuned profile" idiom, generalized from a static, hand-picked
// profile to one that adapts from a rolling trade-outcome window.
package calibrate

import "time"

// CalibrationEvent is one audit record of a threshold adjustment.
type CalibrationEvent struct {
	Ts           time.Time
	OldThreshold float64
	NewThreshold float64
	WinRate10    float64
	WinRate20    float64
	Reason       string
}

// ThresholdFloor enforces spec.md §4.9's "floor = max(65, initial-10)".
func ThresholdFloor(initialThreshold float64) float64 {
	floor := initialThreshold - 10
	if floor < 65 {
		floor = 65
	}
	return floor
}

// winRate computes the fraction of wins (netPnL > 0) over the trailing
// n trades (oldest first in the slice). Returns 0, false if fewer than
// n trades are available.
func winRate(netPnLs []float64, n int) (float64, bool) {
	if len(netPnLs) < n {
		return 0, false
	}
	window := netPnLs[len(netPnLs)-n:]
	wins := 0
	for _, pnl := range window {
		if pnl > 0 {
			wins++
		}
	}
	return float64(wins) / float64(n), true
}

// AdaptThreshold runs every 10 completed HYDRA trades (spec.md §4.9):
// compute the 10-trade win rate; below 40% raises the threshold by 3
// (capped at 95); with >=20 trades available, a 20-trade win rate above
// 70% lowers the threshold by 2 (floored at ThresholdFloor). netPnLs is
// every completed HYDRA trade's net P&L, oldest first; currentThreshold
// and initialThreshold are the live and originally configured HYDRA
// entry thresholds. Returns the possibly-updated threshold and, if an
// adjustment fired, the audit event.
func AdaptThreshold(netPnLs []float64, currentThreshold, initialThreshold float64, now time.Time) (float64, *CalibrationEvent) {
	if len(netPnLs)%10 != 0 || len(netPnLs) == 0 {
		return currentThreshold, nil
	}

	wr10, ok := winRate(netPnLs, 10)
	if !ok {
		return currentThreshold, nil
	}

	if wr10 < 0.40 {
		next := currentThreshold + 3
		if next > 95 {
			next = 95
		}
		if next == currentThreshold {
			return currentThreshold, nil
		}
		return next, &CalibrationEvent{
			Ts: now, OldThreshold: currentThreshold, NewThreshold: next,
			WinRate10: wr10, Reason: "10-trade win rate below 40%",
		}
	}

	if wr20, ok := winRate(netPnLs, 20); ok && wr20 > 0.70 {
		floor := ThresholdFloor(initialThreshold)
		next := currentThreshold - 2
		if next < floor {
			next = floor
		}
		if next == currentThreshold {
			return currentThreshold, nil
		}
		return next, &CalibrationEvent{
			Ts: now, OldThreshold: currentThreshold, NewThreshold: next,
			WinRate10: wr10, WinRate20: wr20, Reason: "20-trade win rate above 70%",
		}
	}

	return currentThreshold, nil
}
