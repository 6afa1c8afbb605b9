package mbe

import (
	"fmt"
	"slices"

	"mbe-go/assoc"
	"mbe-go/name"
)

// Snapshot is a plain, serializable copy of an Env. Names are stored by
// spelling; anonymized names are dropped.
type Snapshot[T any] struct {
	Leaves     map[string]T       `json:"leaves,omitempty"`
	Groups     []GroupSnapshot[T] `json:"groups,omitempty"`
	LeafIndex  map[string]int     `json:"leaf_index,omitempty"`
	NamedIndex map[string]int     `json:"named_index,omitempty"`
	/// The names in NamedIndex bound to their group directly rather than
	/// lifted out of its elements.
	Owned []string `json:"owned,omitempty"`
}

type GroupSnapshot[T any] struct {
	Elide    *int          `json:"elide,omitempty"`
	Elements []Snapshot[T] `json:"elements"`
}

func (this Env[T]) Snapshot() Snapshot[T] {
	res := Snapshot[T]{}
	if !this.leaves_.Empty() {
		res.Leaves = map[string]T{}
		this.leaves_.Each(func(n name.Name, v T) bool {
			res.Leaves[n.String()] = v
			return true
		})
	}
	if !this.leafLocations_.Empty() {
		res.LeafIndex = map[string]int{}
		this.leafLocations_.Each(func(n name.Name, idx int) bool {
			res.LeafIndex[n.String()] = idx
			return true
		})
	}
	this.namedRepeats_.Each(func(n name.Name, s slot) bool {
		if s.removed {
			return true
		}
		if res.NamedIndex == nil {
			res.NamedIndex = map[string]int{}
		}
		res.NamedIndex[n.String()] = s.idx
		if s.own {
			res.Owned = append(res.Owned, n.String())
		}
		return true
	})
	slices.Sort(res.Owned)
	for i, g := range this.repeats_ {
		gs := GroupSnapshot[T]{Elements: make([]Snapshot[T], len(g.elts_))}
		if at, ok := this.elisions_[i].Index(); ok {
			gs.Elide = &at
		}
		for j, sub := range g.elts_ {
			gs.Elements[j] = sub.Snapshot()
		}
		res.Groups = append(res.Groups, gs)
	}
	return res
}

// Restore rebuilds the Env a Snapshot was taken from, interning names in in
// (the default interner when nil).
func Restore[T any](s Snapshot[T], in *name.Interner) (Env[T], error) {
	if in == nil {
		in = name.Default()
	}
	res := Env[T]{}
	for spelling, v := range s.Leaves {
		n, err := in.TryIntern(spelling)
		if err != nil {
			return Env[T]{}, err
		}
		res.leaves_ = res.leaves_.Set(n, v)
	}

	for i, gs := range s.Groups {
		if len(gs.Elements) == 0 {
			return Env[T]{}, fmt.Errorf("snapshot: group %d is empty", i)
		}
		elide := NoElision
		if gs.Elide != nil {
			if *gs.Elide < 0 || *gs.Elide >= len(gs.Elements) {
				return Env[T]{}, fmt.Errorf("snapshot: group %d elides index %d of %d", i, *gs.Elide, len(gs.Elements))
			}
			elide = ElideAt(*gs.Elide)
		}
		elts := make([]Env[T], len(gs.Elements))
		for j, es := range gs.Elements {
			e, err := Restore(es, in)
			if err != nil {
				return Env[T]{}, err
			}
			elts[j] = e
		}
		res.repeats_ = append(res.repeats_, &group[T]{elts_: elts})
		res.elisions_ = append(res.elisions_, elide)
	}

	var err error
	res.leafLocations_, err = restoreIndex(s.LeafIndex, len(s.Groups), in, func(idx int) int { return idx })
	if err != nil {
		return Env[T]{}, err
	}
	res.namedRepeats_, err = restoreIndex(s.NamedIndex, len(s.Groups), in, func(idx int) slot { return slot{idx: idx} })
	if err != nil {
		return Env[T]{}, err
	}
	for _, spelling := range s.Owned {
		n, err := in.TryIntern(spelling)
		if err != nil {
			return Env[T]{}, err
		}
		bound, ok := res.namedRepeats_.Find(n)
		if !ok {
			return Env[T]{}, fmt.Errorf("snapshot: owned name %q has no group", spelling)
		}
		res.namedRepeats_ = res.namedRepeats_.Set(n, slot{idx: bound.idx, own: true})
	}
	return res, nil
}

func restoreIndex[V any](index map[string]int, groups int, in *name.Interner, wrap func(int) V) (assoc.Assoc[V], error) {
	res := assoc.Assoc[V]{}
	for spelling, idx := range index {
		if idx < 0 || idx >= groups {
			return assoc.Assoc[V]{}, fmt.Errorf("snapshot: %q points at group %d of %d", spelling, idx, groups)
		}
		n, err := in.TryIntern(spelling)
		if err != nil {
			return assoc.Assoc[V]{}, err
		}
		res = res.Set(n, wrap(idx))
	}
	return res, nil
}
