package candle

// Aggregator maintains the in-progress 5m/15m/1h/4h bucket for one pair,
// fed every 1m bar update (sealed or in-progress) by the Market State
// Store. It keeps the bucket's 1m bars and refolds them on each Feed, so
// an update to the latest 1m bar replaces that bar and updates the
// derived bucket, satisfying spec.md §3's "any 1m mutation inside an
// aggregation bucket updates the derived bucket" invariant.
type Aggregator struct {
	tf      Timeframe
	current Candle
	started bool
	// minuteBars holds every raw 1m bar folded into `current`, in order,
	// so an Upsert-in-place 1m correction can be refolded from scratch.
	minuteBars []Candle
}

func NewAggregator(tf Timeframe) *Aggregator {
	return &Aggregator{tf: tf}
}

// Feed folds one 1m candle (sealed or in-progress) into the bucket it
// belongs to. Returns the completed bucket and true if the bar's bucket
// start differs from the bucket currently being accumulated (i.e. the
// prior bucket just sealed).
func (a *Aggregator) Feed(bar1m Candle) (sealed Candle, didSeal bool) {
	bucketStart := BucketStart(bar1m.TsMs, a.tf)

	if !a.started {
		a.started = true
		a.current = Candle{TsMs: bucketStart}
		a.minuteBars = a.minuteBars[:0]
	}

	if bucketStart != a.current.TsMs {
		sealed = a.current
		sealed.Sealed = true
		didSeal = true
		a.current = Candle{TsMs: bucketStart}
		a.minuteBars = a.minuteBars[:0]
	}

	if n := len(a.minuteBars); n > 0 && a.minuteBars[n-1].TsMs == bar1m.TsMs {
		a.minuteBars[n-1] = bar1m
	} else {
		a.minuteBars = append(a.minuteBars, bar1m)
	}
	folded, _ := Aggregate(a.minuteBars, bucketStart, a.tf)
	a.current = folded
	return sealed, didSeal
}

// Current returns the bucket being accumulated right now (may still be
// mutated by further Feed calls for in-progress 1m bars).
func (a *Aggregator) Current() Candle { return a.current }
