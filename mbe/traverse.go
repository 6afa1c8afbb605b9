package mbe

import (
	"errors"

	"github.com/ahrtr/gocontainer/set"

	"mbe-go/assoc"
	"mbe-go/name"
)

// Map applies f to every leaf at every depth. The shape, indices and
// elisions are kept as they are.
func Map[T, U any](e Env[T], f func(T) U) Env[U] {
	var repeats []*group[U]
	if len(e.repeats_) > 0 {
		repeats = make([]*group[U], len(e.repeats_))
	}
	for i, g := range e.repeats_ {
		elts := make([]Env[U], len(g.elts_))
		for j, sub := range g.elts_ {
			elts[j] = Map(sub, f)
		}
		repeats[i] = &group[U]{elts_: elts}
	}
	return Env[U]{
		leaves_:        assoc.Map(e.leaves_, f),
		repeats_:       repeats,
		elisions_:      e.elisions_,
		leafLocations_: e.leafLocations_,
		namedRepeats_:  e.namedRepeats_,
	}
}

func leafMismatch(err error) error {
	var kerr *assoc.KeyMismatchError
	if errors.As(err, &kerr) {
		return newError(MissingLeaf, "leaf %s is present on only one side", kerr.Key)
	}
	return err
}

// Zip pairs the leaves of a and b by name and their repetitions position by
// position, stretching an elided element on one side to cover the other
// side's length. Both sides need the same leaf names and the same number of
// repetitions. The result has no elisions.
func Zip[A, B, U any](a Env[A], b Env[B], f func(A, B) U) (Env[U], error) {
	leaves, err := assoc.MapWith(a.leaves_, b.leaves_, f)
	if err != nil {
		return Env[U]{}, leafMismatch(err)
	}
	if len(a.repeats_) != len(b.repeats_) {
		return Env[U]{}, newError(ArityMismatch, "%d repetitions zipped against %d", len(a.repeats_), len(b.repeats_))
	}

	var repeats []*group[U]
	var elisions []Elision
	if len(a.repeats_) > 0 {
		repeats = make([]*group[U], len(a.repeats_))
		elisions = make([]Elision, len(a.repeats_))
	}
	for i := range a.repeats_ {
		matched, err := resolveEllipsis(a.repeats_[i].elts_, a.elisions_[i], b.repeats_[i].elts_, b.elisions_[i])
		if err != nil {
			return Env[U]{}, err
		}
		elts := make([]Env[U], len(matched))
		for j, p := range matched {
			if elts[j], err = Zip(p.lhs, p.rhs, f); err != nil {
				return Env[U]{}, err
			}
		}
		repeats[i] = &group[U]{elts_: elts}
	}

	return Env[U]{
		leaves_:        leaves,
		repeats_:       repeats,
		elisions_:      elisions,
		leafLocations_: a.leafLocations_,
		namedRepeats_:  a.namedRepeats_,
	}, nil
}

// FoldZip zips a and b like Zip but folds the results of f into seed with
// combine instead of building a tree. Leaves come first, then every
// repetition once, found through the names that occur under it. Visiting
// order is otherwise unspecified, so combine should be associative and
// commutative when the result has to be deterministic.
func FoldZip[A, B, R any](a Env[A], b Env[B], f func(A, B) R, combine func(R, R) R, seed R) (R, error) {
	leaves, err := assoc.MapWith(a.leaves_, b.leaves_, f)
	if err != nil {
		return seed, leafMismatch(err)
	}
	reduced := assoc.Reduce(leaves, func(_ name.Name, v R, acc R) R { return combine(v, acc) }, seed)

	alreadyProcessed := set.New()
	for _, leafName := range a.leafLocations_.Keys() {
		selfIdx, _ := a.leafLocations_.Find(leafName)
		if alreadyProcessed.Contains(selfIdx) {
			continue
		}
		alreadyProcessed.Add(selfIdx)

		otherIdx, ok := b.leafLocations_.Find(leafName)
		if !ok {
			return seed, newError(MissingLeaf, "%s is repeated on one side only", leafName)
		}

		matched, err := resolveEllipsis(a.repeats_[selfIdx].elts_, a.elisions_[selfIdx],
			b.repeats_[otherIdx].elts_, b.elisions_[otherIdx])
		if err != nil {
			return seed, err
		}
		for _, p := range matched {
			if reduced, err = FoldZip(p.lhs, p.rhs, f, combine, reduced); err != nil {
				return seed, err
			}
		}
	}
	return reduced, nil
}

// Result is a leaf that may have failed to compute.
type Result[T any] struct {
	Val T
	Err error
}

func Ok[T any](v T) Result[T] { return Result[T]{Val: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

func (this Result[T]) Get() (T, error) { return this.Val, this.Err }

// HoistError returns the first failed leaf, searching depth-first with each
// level's leaves ahead of its repetitions. Without failures it returns the
// same tree with the values unwrapped.
func HoistError[T any](e Env[Result[T]]) (Env[T], error) {
	leaves, err := assoc.TryMap(e.leaves_, func(_ name.Name, r Result[T]) (T, error) { return r.Get() })
	if err != nil {
		return Env[T]{}, err
	}

	var repeats []*group[T]
	if len(e.repeats_) > 0 {
		repeats = make([]*group[T], len(e.repeats_))
	}
	for i, g := range e.repeats_ {
		elts := make([]Env[T], len(g.elts_))
		for j, sub := range g.elts_ {
			if elts[j], err = HoistError(sub); err != nil {
				return Env[T]{}, err
			}
		}
		repeats[i] = &group[T]{elts_: elts}
	}

	return Env[T]{
		leaves_:        leaves,
		repeats_:       repeats,
		elisions_:      e.elisions_,
		leafLocations_: e.leafLocations_,
		namedRepeats_:  e.namedRepeats_,
	}, nil
}
