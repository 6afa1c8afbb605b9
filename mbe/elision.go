package mbe

import (
	"fmt"
	"iter"
	"slices"
)

// Elision optionally marks one element of a group as standing for zero or
// more repetitions (a template's `...`).
type Elision struct {
	at_  int
	set_ bool
}

var NoElision = Elision{}

// ElideAt marks element i. It panics on a negative i; use TryElideAt for
// indexes from outside the program.
func ElideAt(i int) Elision {
	if i < 0 {
		panic(fmt.Sprintf("negative elision index %d", i))
	}
	return Elision{at_: i, set_: true}
}

// TryElideAt is ElideAt reporting a negative i as an ElideMismatch error.
func TryElideAt(i int) (Elision, error) {
	if i < 0 {
		return NoElision, newError(ElideMismatch, "negative elision index %d", i)
	}
	return Elision{at_: i, set_: true}, nil
}

func (this Elision) Index() (int, bool) { return this.at_, this.set_ }

func (this Elision) IsSet() bool { return this.set_ }

func (this Elision) String() string {
	if !this.set_ {
		return "none"
	}
	return fmt.Sprintf("...%d...", this.at_)
}

// Elided yields seq with the element at index at replaced by count copies of
// itself; every other position passes through unchanged. With count 0 the
// element disappears.
func Elided[S any](seq []S, at, count int) iter.Seq[S] {
	return func(yield func(S) bool) {
		for i, s := range seq {
			n := 1
			if i == at {
				n = count
			}
			for ; n > 0; n-- {
				if !yield(s) {
					return
				}
			}
		}
	}
}

type pair[A, B any] struct {
	lhs Env[A]
	rhs Env[B]
}

// resolveEllipsis lines up two groups, letting the elided element of at most
// one side stretch or shrink to cover the length difference.
func resolveEllipsis[A, B any](lhs []Env[A], lhsElide Elision, rhs []Env[B], rhsElide Elision) ([]pair[A, B], error) {
	lenDiff := len(lhs) - len(rhs)
	lhsAt, lhsSet := lhsElide.Index()
	rhsAt, rhsSet := rhsElide.Index()

	switch {
	case !lhsSet && !rhsSet:
		if lenDiff != 0 {
			return nil, newError(ArityMismatch, "mismatched repetition lengths %d and %d", len(lhs), len(rhs))
		}
	case lhsSet && !rhsSet:
		if lhsAt >= len(lhs) {
			return nil, newError(ArityMismatch, "elision index %d out of range for %d elements", lhsAt, len(lhs))
		}
		if 1-lenDiff < 0 {
			return nil, newError(ArityMismatch, "elided LHS too long: %d elements against %d", len(lhs), len(rhs))
		}
		lhs = slices.Collect(Elided(lhs, lhsAt, 1-lenDiff))
	case !lhsSet && rhsSet:
		if rhsAt >= len(rhs) {
			return nil, newError(ArityMismatch, "elision index %d out of range for %d elements", rhsAt, len(rhs))
		}
		if lenDiff+1 < 0 {
			return nil, newError(ArityMismatch, "elided RHS too long: %d elements against %d", len(rhs), len(lhs))
		}
		rhs = slices.Collect(Elided(rhs, rhsAt, lenDiff+1))
	default:
		return nil, newError(AmbiguousElision, "both sides are elided (at %d and %d)", lhsAt, rhsAt)
	}

	matched := make([]pair[A, B], len(lhs))
	for i := range lhs {
		matched[i] = pair[A, B]{lhs: lhs[i], rhs: rhs[i]}
	}
	return matched, nil
}
