package mbe

import (
	"slices"
	"strconv"
	"strings"

	"mbe-go/assoc"
	"mbe-go/name"
)

// EqualFunc compares two environments structurally, using eq for leaves.
// Anonymized names count as absent on both sides. Repetitions must appear in
// the same order; permutations are not recognized.
func EqualFunc[T any](a, b Env[T], eq func(T, T) bool) bool {
	if !assoc.EqualFunc(a.leaves_, b.leaves_, eq) {
		return false
	}
	if len(a.repeats_) != len(b.repeats_) || !slices.Equal(a.elisions_, b.elisions_) {
		return false
	}
	for i := range a.repeats_ {
		if a.repeats_[i] == b.repeats_[i] {
			continue
		}
		lhs, rhs := a.repeats_[i].elts_, b.repeats_[i].elts_
		if len(lhs) != len(rhs) {
			return false
		}
		for j := range lhs {
			if !EqualFunc(lhs[j], rhs[j], eq) {
				return false
			}
		}
	}
	return assoc.Equal(a.leafLocations_, b.leafLocations_) &&
		liveSlotsEqual(a.namedRepeats_, b.namedRepeats_)
}

func Equal[T comparable](a, b Env[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

func liveSlotsEqual(lhs, rhs assoc.Assoc[slot]) bool {
	covers := func(x, y assoc.Assoc[slot]) bool {
		ok := true
		x.Each(func(n name.Name, s slot) bool {
			if s.removed {
				return true
			}
			other, found := y.Find(n)
			ok = found && !other.removed && other.idx == s.idx
			return ok
		})
		return ok
	}
	return covers(lhs, rhs) && covers(rhs, lhs)
}

func (this Env[T]) String() string {
	if this.IsEmpty() {
		return "mbe∅"
	}
	var sb strings.Builder
	sb.WriteString("mbe{ 🍂 ")
	sb.WriteString(this.leaves_.String())
	sb.WriteString(", ✶[")
	for i, rep := range this.repeats_ {
		if i > 0 {
			sb.WriteString(", ")
		}
		// is it a named repeat?
		for _, n := range this.namedRepeats_.Keys() {
			if s, _ := this.namedRepeats_.Find(n); !s.removed && s.idx == i {
				sb.WriteString("(" + n.String() + ") ")
			}
		}
		if at, ok := this.elisions_[i].Index(); ok {
			sb.WriteString("..." + strconv.Itoa(at) + "... ")
		}
		sb.WriteString("[")
		for j, sub := range rep.elts_ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(sub.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]}")
	return sb.String()
}
