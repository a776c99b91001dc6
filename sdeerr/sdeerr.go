// Package sdeerr defines the closed taxonomy of failure kinds from the
// SDE's error-handling design: denials are values, true failures carry a
// Kind and are never allowed to panic the tick loop. Grounded on the
// plain fmt.Errorf("...: %w", err) wrapping idiom used throughout this
// module, generalized into a typed kind.
package sdeerr

import "fmt"

// Kind is a closed enum of failure categories distinct from ordinary
// gate denials (which travel as risk.Decision values, not errors).
type Kind string

const (
	// DataGap: missing indicator warm-up or stale series. Skip the tick
	// silently; log once.
	DataGap Kind = "data_gap"
	// DegradedBook: best bid >= best ask, or an empty book.
	DegradedBook Kind = "degraded_book"
	// ExchangeTransient: network/5xx on an order call. No order call in
	// this module retries on it.
	ExchangeTransient Kind = "exchange_transient"
	// ExchangePermanent: auth/validation/4xx on an order call. No retry.
	ExchangePermanent Kind = "exchange_permanent"
	// InvariantViolation: a data-model invariant was about to be broken
	// (e.g. quantity < 0, tp1 >= tp2). Fail-closed.
	InvariantViolation Kind = "invariant_violation"
	// PersistenceQuota: a durable write was silently dropped.
	PersistenceQuota Kind = "persistence_quota"
)

// Error is a typed SDE failure. It always carries enough context to log
// and to decide the propagation policy (skip / retry / fail-closed /
// drop-silently) without inspecting the error string.
type Error struct {
	Kind    Kind
	Pair    string
	Op      string
	Err     error
	Fields  map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s[%s] %s: %v", e.Kind, e.Pair, e.Op, e.Err)
	}
	return fmt.Sprintf("%s[%s] %s", e.Kind, e.Pair, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a typed SDE error.
func New(kind Kind, pair, op string, err error) *Error {
	return &Error{Kind: kind, Pair: pair, Op: op, Err: err}
}

// Is lets errors.Is(err, sdeerr.DataGap) work by comparing Kind via a
// sentinel wrapper, matching the stdlib errors.Is contract.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel returns a zero-value *Error of the given kind for use with
// errors.Is, e.g. errors.Is(err, sdeerr.Sentinel(sdeerr.DataGap)).
func Sentinel(k Kind) *Error { return &Error{Kind: k} }
