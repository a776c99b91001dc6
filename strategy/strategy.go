// Package strategy implements spec.md §9's tagged-variant dispatch: a
// common {check_entry, check_exit, sizing} trait over HYDRA and VIPER's
// three modes, avoiding a class hierarchy. Cyclic references (position
// <-> strategy <-> SC) are broken by identity per §9: a Strategy never
// holds a *store.Position directly, only looks one up by id through the
// MSS when it needs to act on it.
package strategy

import (
	"time"

	"tradeforge/hydra"
	"tradeforge/position"
	"tradeforge/store"
	"tradeforge/vipermode"
)

// Variant tags which concrete strategy/mode a Strategy value implements.
type Variant string

const (
	VariantHydra       Variant = "hydra"
	VariantViperStrike Variant = "viper_strike"
	VariantViperCoil   Variant = "viper_coil"
	VariantViperLunge  Variant = "viper_lunge"
)

// EntryInputs bundles every variant's entry-evaluation inputs; each
// Strategy implementation reads only the fields belonging to its own
// variant.
type EntryInputs struct {
	Pair string

	HydraDimensions hydra.Dimensions
	HydraParams     hydra.EntryParams

	Strike vipermode.StrikeConditions

	CoilRange vipermode.CoilRange
	Coil      vipermode.CoilConditions

	Lunge vipermode.LungeConditions
}

// SizingInputs bundles every variant's sizing inputs.
type SizingInputs struct {
	Price          float64
	ATR14          float64
	PortfolioValue float64
	RiskPerTrade   float64
	MaxPositionPct float64
	HydraScore     float64

	AllocatedCapital  float64
	PerPairMultiplier float64 // COIL

	StrikeParams vipermode.StrikeParams // STRIKE exit geometry, carried onto the position

	CoilExit vipermode.CoilExitParams // support/width/atr, carried onto the position

	StopPrice float64 // LUNGE: caller-computed stop for risk-based sizing
}

// EntryResult is a Strategy's evaluated entry: either accepted with a
// ready-to-open store.Position, or rejected with a reason (spec.md §9:
// "every denial is a value").
type EntryResult struct {
	Accepted bool
	Reason   string
	Position store.Position
}

// Strategy is the common trait every variant implements.
type Strategy interface {
	Variant() Variant
	CheckEntry(in EntryInputs) EntryResult
	CheckExit(pos *store.Position, m position.MarketContext) (exitType store.ExitType, closePct, price float64, fired bool)
}

// For returns the Strategy implementation for a variant.
func For(v Variant) Strategy {
	switch v {
	case VariantViperStrike:
		return strikeStrategy{}
	case VariantViperCoil:
		return coilStrategy{}
	case VariantViperLunge:
		return lungeStrategy{}
	default:
		return hydraStrategy{}
	}
}

// checkExitViaPLM is shared by every variant: exit evaluation is already
// a single dispatch in the position package keyed off the position's
// own Strategy/Mode tag, so no variant needs its own copy.
func checkExitViaPLM(pos *store.Position, m position.MarketContext) (store.ExitType, float64, float64, bool) {
	return position.EvaluateExit(pos, m)
}

type hydraStrategy struct{}

func (hydraStrategy) Variant() Variant { return VariantHydra }

func (hydraStrategy) CheckEntry(in EntryInputs) EntryResult {
	ev := hydra.Evaluate(in.HydraDimensions, in.HydraParams)
	if !ev.Accepted {
		return EntryResult{Reason: ev.Reason}
	}
	pos := hydra.NewPosition(in.Pair, in.HydraParams.Price, ev.Sizing)
	pos.Strategy = store.StrategyHydra
	pos.Mode = store.ModeNone
	pos.DimensionScores = map[string]float64{
		"d1": ev.Dimensions.D1, "d2": ev.Dimensions.D2, "d3": ev.Dimensions.D3,
		"d4": ev.Dimensions.D4, "d5": ev.Dimensions.D5,
	}
	return EntryResult{Accepted: true, Position: pos}
}

func (hydraStrategy) CheckExit(pos *store.Position, m position.MarketContext) (store.ExitType, float64, float64, bool) {
	return checkExitViaPLM(pos, m)
}

type strikeStrategy struct{}

func (strikeStrategy) Variant() Variant { return VariantViperStrike }

func (strikeStrategy) CheckEntry(in EntryInputs) EntryResult {
	ok, reason := vipermode.CheckStrikeEntry(in.Strike)
	if !ok {
		return EntryResult{Reason: reason}
	}
	return EntryResult{Accepted: true, Position: store.Position{
		Pair: in.Pair, Strategy: store.StrategyViper, Mode: store.ModeStrike,
		Side: "long",
	}}
}

func (strikeStrategy) CheckExit(pos *store.Position, m position.MarketContext) (store.ExitType, float64, float64, bool) {
	return checkExitViaPLM(pos, m)
}

type coilStrategy struct{}

func (coilStrategy) Variant() Variant { return VariantViperCoil }

func (coilStrategy) CheckEntry(in EntryInputs) EntryResult {
	ok, reason := vipermode.CheckCoilEntry(in.CoilRange, in.Coil)
	if !ok {
		return EntryResult{Reason: reason}
	}
	return EntryResult{Accepted: true, Position: store.Position{
		Pair: in.Pair, Strategy: store.StrategyViper, Mode: store.ModeCoil,
		Side: "long", RangeSupport: in.CoilRange.Support, RangeResistance: in.CoilRange.Resistance,
	}}
}

func (coilStrategy) CheckExit(pos *store.Position, m position.MarketContext) (store.ExitType, float64, float64, bool) {
	return checkExitViaPLM(pos, m)
}

type lungeStrategy struct{}

func (lungeStrategy) Variant() Variant { return VariantViperLunge }

func (lungeStrategy) CheckEntry(in EntryInputs) EntryResult {
	ok, reason := vipermode.CheckLungeEntry(in.Lunge)
	if !ok {
		return EntryResult{Reason: reason}
	}
	return EntryResult{Accepted: true, Position: store.Position{
		Pair: in.Pair, Strategy: store.StrategyViper, Mode: store.ModeLunge,
		Side: "long",
	}}
}

func (lungeStrategy) CheckExit(pos *store.Position, m position.MarketContext) (store.ExitType, float64, float64, bool) {
	return checkExitViaPLM(pos, m)
}

// Sizing computes the USD position size for a variant, applying the
// ratchet sizing multiplier on top of each mode's own formula (spec.md
// §4.6).
func Sizing(v Variant, in SizingInputs, ratchetLevel store.RatchetLevel) float64 {
	mult := vipermode.SizingMultiplier(ratchetLevel)
	switch v {
	case VariantViperStrike:
		return vipermode.StrikeSize(in.AllocatedCapital) * mult
	case VariantViperCoil:
		return vipermode.CoilSize(in.AllocatedCapital, in.PerPairMultiplier) * mult
	case VariantViperLunge:
		return vipermode.LungeSize(in.AllocatedCapital, in.Price, in.StopPrice) * mult
	default:
		sz := hydra.Size(in.PortfolioValue, in.Price, in.ATR14, in.HydraScore, in.RiskPerTrade, in.MaxPositionPct)
		return sz.PositionUSD * mult
	}
}

// EntryAge returns how long ago a candidate's signal was generated.
// risk.Evaluate's signal-expiry check computes the same age itself from
// Portfolio.Now and Candidate.SignalTs.
func EntryAge(signalTs, now time.Time) time.Duration { return now.Sub(signalTs) }
