package reactive

import "reflect"

// Kind tags a Result variant. Exactly one kind holds at any time.
type Kind uint8

const (
	// KindUninit means no run has ever started.
	KindUninit Kind = iota
	// KindPending means a run is in flight.
	KindPending
	// KindOK means the last run completed successfully.
	KindOK
	// KindErr means the last run returned an error.
	KindErr
	// KindAborted means the last run was cancelled before settling.
	KindAborted
)

func (k Kind) String() string {
	switch k {
	case KindUninit:
		return "uninit"
	case KindPending:
		return "pending"
	case KindOK:
		return "ok"
	case KindErr:
		return "err"
	case KindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result is the outcome of a task run. Data is meaningful only for KindOK,
// Err only for KindErr.
type Result[T any] struct {
	Kind Kind
	Data T
	Err  error
}

// Uninit returns the initial result of a task that has never run.
func Uninit[T any]() Result[T] {
	return Result[T]{Kind: KindUninit}
}

// Pending returns the result of a run that is in flight.
func Pending[T any]() Result[T] {
	return Result[T]{Kind: KindPending}
}

// OK returns a successful result carrying data.
func OK[T any](data T) Result[T] {
	return Result[T]{Kind: KindOK, Data: data}
}

// Failed returns an error result carrying the raw error unmodified.
func Failed[T any](err error) Result[T] {
	return Result[T]{Kind: KindErr, Err: err}
}

// Aborted returns the result of a run cancelled before settling.
func Aborted[T any]() Result[T] {
	return Result[T]{Kind: KindAborted}
}

// Equal reports whether two results are equivalent: same kind, and for
// ok/err the same payload identity. Task state writes use this to suppress
// redundant notifications when racing runs settle to the same value.
func (r Result[T]) Equal(o Result[T]) bool {
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case KindOK:
		return Identical(r.Data, o.Data)
	case KindErr:
		return Identical(r.Err, o.Err)
	default:
		return true
	}
}

// Identical reports whether a and b are the same value under Go's ==
// semantics. Values of non-comparable dynamic types are never identical,
// so they always count as a change.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() {
		return false
	}
	return va.Equal(vb)
}
