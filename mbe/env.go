// Package mbe ("march by example") stores what matched under Kleene stars,
// keeping every name that repeated in lock-step with the names it repeated
// with.
//
// An Env holds leaves (non-repeated values) and repetition groups. Each group
// is a sequence of child environments, one per repetition, which may carry
// groups of their own. Marching a set of driving names peels one level of
// repetition off and yields one environment per repeated element.
package mbe

import (
	"slices"
	"strings"

	"github.com/ahrtr/gocontainer/set"

	"mbe-go/assoc"
	"mbe-go/name"
)

// group is one repetition. Its element slice is never written after the
// group is created; changing a group means building a new one.
type group[T any] struct {
	elts_ []Env[T]
}

// slot is a named-group binding. A removed slot is an anonymized name: the
// group is still there, only the name no longer finds it. An own slot was
// bound by AddNamedRepeat; the others were lifted out of the group's
// elements and name a repetition nested inside it.
type slot struct {
	idx     int
	removed bool
	own     bool
}

// Env is a repetition environment. The zero value is empty and ready to use.
//
// Copying an Env is cheap and the copy is never affected by later Add calls
// on the original, since all modifications replace storage rather than
// writing into it.
type Env[T any] struct {
	/// Non-repeated values.
	leaves_ assoc.Assoc[T]

	/// Distinct repetitions (differently named, or anonymous).
	repeats_ []*group[T]

	/// Which element of each repetition stands for zero or more matches.
	/// Always the same length as repeats_.
	elisions_ []Elision

	/// Where in repeats_ to look for a name that occurs under a repetition.
	leafLocations_ assoc.Assoc[int]

	/// The repetition a repetition name designates.
	namedRepeats_ assoc.Assoc[slot]
}

func New[T any]() Env[T] { return Env[T]{} }

// / Creates an Env without any repetition.
func FromLeaves[T any](leaves assoc.Assoc[T]) Env[T] {
	return Env[T]{leaves_: leaves}
}

// / Creates an Env containing a single anonymous repeat.
func FromAnonRepeat[T any](elts []Env[T], elide Elision) Env[T] {
	res := Env[T]{}
	res.AddAnonRepeat(elts, elide)
	return res
}

// / Creates an Env containing a single named repeat.
func FromNamedRepeat[T any](n name.Name, elts []Env[T]) (Env[T], error) {
	res := Env[T]{}
	if err := res.AddNamedRepeat(n, elts, NoElision); err != nil {
		return Env[T]{}, err
	}
	return res, nil
}

// AddLeaf binds a non-repeated value; the last write for a name wins.
func (this *Env[T]) AddLeaf(n name.Name, v T) {
	this.leaves_ = this.leaves_.Set(n, v)
}

// / Adds (or extends) the repetition called n. Extending requires the same
// / number of elements and the same elision; each existing element is then
// / combined with its new counterpart, so a repetition can be filled in
// / piece by piece. An empty elts is a no-op.
func (this *Env[T]) AddNamedRepeat(n name.Name, elts []Env[T], elide Elision) error {
	if len(elts) == 0 {
		return nil // keeps the repeats clean, which matters for Equal
	}

	s, ok := this.namedRepeats_.Find(n)
	if !ok || s.removed {
		idx := this.pushGroup(&group[T]{elts_: slices.Clone(elts)}, elide)
		this.updateLeafLocs(idx, elts)
		this.namedRepeats_ = this.namedRepeats_.Set(n, slot{idx: idx, own: true})
		return nil
	}

	old := this.repeats_[s.idx]
	if len(old.elts_) != len(elts) {
		return newError(ArityMismatch, "named repetition %s is repeated %d times in one place, %d times in another",
			n, len(old.elts_), len(elts))
	}
	if this.elisions_[s.idx] != elide {
		return newError(ElideMismatch, "named repetition %s has mismatched elisions %v and %v",
			n, this.elisions_[s.idx], elide)
	}

	this.updateLeafLocs(s.idx, elts)
	this.namedRepeats_ = this.namedRepeats_.Set(n, slot{idx: s.idx, own: true})

	combined := make([]Env[T], len(elts))
	for i := range elts {
		combined[i] = old.elts_[i].CombineOverriding(elts[i])
	}
	repeats := slices.Clone(this.repeats_)
	repeats[s.idx] = &group[T]{elts_: combined}
	this.repeats_ = repeats
	return nil
}

// AddAnonRepeat appends a repetition that has no name of its own; it can only
// be reached through the names inside it. An empty elts is a no-op.
func (this *Env[T]) AddAnonRepeat(elts []Env[T], elide Elision) {
	if len(elts) == 0 {
		return
	}
	idx := this.pushGroup(&group[T]{elts_: slices.Clone(elts)}, elide)
	this.updateLeafLocs(idx, elts)
}

// Anonymize forgets the name n as a repetition name. The repetition and the
// names inside it are untouched.
func (this *Env[T]) Anonymize(n name.Name) {
	s, ok := this.namedRepeats_.Find(n)
	if !ok || s.removed {
		return
	}
	this.namedRepeats_ = this.namedRepeats_.Set(n, slot{idx: s.idx, removed: true, own: s.own})
}

func (this *Env[T]) pushGroup(g *group[T], elide Elision) int {
	idx := len(this.repeats_)
	// Clip forces append to allocate, so copies of this Env keep their slices.
	this.repeats_ = append(slices.Clip(this.repeats_), g)
	this.elisions_ = append(slices.Clip(this.elisions_), elide)
	return idx
}

// updateLeafLocs points every name visible in elts at repetition idx. When a
// name shows up in more than one element, the first element decides.
func (this *Env[T]) updateLeafLocs(idx int, elts []Env[T]) {
	placedLeaves := set.New()
	placedRepeats := set.New()

	place := func(n name.Name) {
		if !placedLeaves.Contains(n) {
			this.leafLocations_ = this.leafLocations_.Set(n, idx)
			placedLeaves.Add(n)
		}
	}

	for _, sub := range elts {
		sub.leafLocations_.Each(func(n name.Name, _ int) bool {
			place(n)
			return true
		})
		sub.leaves_.Each(func(n name.Name, _ T) bool {
			place(n)
			return true
		})
		sub.namedRepeats_.Each(func(n name.Name, s slot) bool {
			if !s.removed && !placedRepeats.Contains(n) {
				this.namedRepeats_ = this.namedRepeats_.Set(n, slot{idx: idx})
				placedRepeats.Add(n)
			}
			return true
		})
	}
}

// / Combine two Envs whose names (both leaf names and repetition names) are
// / disjoint, or just overwrite the contents of the previous one.
// / rhs's repetitions are placed after this one's.
func (this Env[T]) CombineOverriding(rhs Env[T]) Env[T] {
	shift := len(this.repeats_)
	return Env[T]{
		leaves_:   this.leaves_.SetAssoc(rhs.leaves_),
		repeats_:  slices.Concat(this.repeats_, rhs.repeats_),
		elisions_: slices.Concat(this.elisions_, rhs.elisions_),
		leafLocations_: this.leafLocations_.SetAssoc(
			assoc.Map(rhs.leafLocations_, func(idx int) int { return idx + shift })),
		namedRepeats_: this.namedRepeats_.SetAssoc(
			assoc.Map(rhs.namedRepeats_, func(s slot) slot { return slot{idx: s.idx + shift, removed: s.removed, own: s.own} })),
	}
}

// / Combine two Envs whose leaves should be disjoint, but which can contain
// / named repeats with the same name. This makes sense for combining the
// / results of matching two different chunks of a pattern.
func (this Env[T]) Merge(rhs Env[T]) (Env[T], error) {
	res := this
	handled := make([]bool, len(rhs.repeats_))

	for _, n := range rhs.namedRepeats_.Keys() {
		s, _ := rhs.namedRepeats_.Find(n)
		if s.removed || !s.own || handled[s.idx] {
			continue
		}
		if err := res.AddNamedRepeat(n, rhs.repeats_[s.idx].elts_, rhs.elisions_[s.idx]); err != nil {
			return Env[T]{}, err
		}
		handled[s.idx] = true
	}

	for idx, g := range rhs.repeats_ {
		if !handled[idx] {
			res.AddAnonRepeat(g.elts_, rhs.elisions_[idx])
		}
	}

	res.leaves_ = res.leaves_.SetAssoc(rhs.leaves_)
	return res, nil
}

// / Given driving names, marches the whole set of names that can march with
// / them. Names that do not occur under a repetition here are ignored, since
// / a name might not be transcribed at this level at all.
func (this Env[T]) MarchAll(driving ...name.Name) ([]Env[T], error) {
	marchLoc := -1
	var firstName name.Name

	for _, n := range driving {
		loc, ok := this.leafLocations_.Find(n)
		if !ok {
			continue
		}
		if marchLoc < 0 {
			marchLoc, firstName = loc, n
			continue
		}
		if loc != marchLoc {
			return nil, newError(DriveMismatch,
				"%s and %s cannot march together; they weren't matched to have the same number of repeats",
				firstName, n)
		}
	}

	if marchLoc < 0 {
		return nil, newError(NotRepeated, "none of [%s] are repeated", joinNames(driving))
	}

	result := make([]Env[T], 0, len(this.repeats_[marchLoc].elts_))
	for _, marchedOut := range this.repeats_[marchLoc].elts_ {
		result = append(result, this.CombineOverriding(marchedOut))
	}
	return result, nil
}

// / Get a non-repeated thing in the environment.
func (this Env[T]) Leaf(n name.Name) (T, bool) {
	return this.leaves_.Find(n)
}

// RequireLeaf is Leaf reporting absence as a MissingLeaf error.
func (this Env[T]) RequireLeaf(n name.Name) (T, error) {
	if v, ok := this.leaves_.Find(n); ok {
		return v, nil
	}
	var zero T
	if this.leafLocations_.Contains(n) {
		return zero, newError(MissingLeaf, "%s is still repeated; march it first", n)
	}
	if hint := SpellcheckName(n, this.Names()); hint != "" {
		return zero, newError(MissingLeaf, "%s not found, did you mean '%s'?", n, hint)
	}
	return zero, newError(MissingLeaf, "%s not found", n)
}

// MustLeaf is RequireLeaf for callers that treat absence as a bug.
func (this Env[T]) MustLeaf(n name.Name) T {
	v, err := this.RequireLeaf(n)
	if err != nil {
		panic(err)
	}
	return v
}

// RepLeaf collects n from every element of the repetition n lives under.
func (this Env[T]) RepLeaf(n name.Name) ([]T, bool) {
	loc, ok := this.leafLocations_.Find(n)
	if !ok {
		return nil, false
	}
	res := make([]T, 0, len(this.repeats_[loc].elts_))
	for _, r := range this.repeats_[loc].elts_ {
		leaf, ok := r.Leaf(n)
		if !ok {
			return nil, false
		}
		res = append(res, leaf)
	}
	return res, true
}

func (this Env[T]) RequireRepLeaf(n name.Name) ([]T, error) {
	loc, ok := this.leafLocations_.Find(n)
	if !ok {
		return nil, newError(MissingLeaf, "%s is not repeated here", n)
	}
	res := make([]T, 0, len(this.repeats_[loc].elts_))
	for i, r := range this.repeats_[loc].elts_ {
		leaf, err := r.RequireLeaf(n)
		if err != nil {
			return nil, newError(MissingLeaf, "repetition %d: %s", i, err.(*Error).Msg)
		}
		res = append(res, leaf)
	}
	return res, nil
}

func (this Env[T]) MustRepLeaf(n name.Name) []T {
	res, err := this.RequireRepLeaf(n)
	if err != nil {
		panic(err)
	}
	return res
}

// Leaves returns the non-repeated values at this level.
func (this Env[T]) Leaves() assoc.Assoc[T] { return this.leaves_ }

// Groups returns the number of repetitions at this level.
func (this Env[T]) Groups() int { return len(this.repeats_) }

// Group returns the elements of repetition i along with its elision. It
// panics unless 0 <= i < Groups().
func (this Env[T]) Group(i int) ([]Env[T], Elision) {
	return slices.Clone(this.repeats_[i].elts_), this.elisions_[i]
}

// GroupLen is the element count of repetition i. It panics unless
// 0 <= i < Groups().
func (this Env[T]) GroupLen(i int) int { return len(this.repeats_[i].elts_) }

// NamedGroup returns the repetition n designates, if it still does.
func (this Env[T]) NamedGroup(n name.Name) (int, bool) {
	s, ok := this.namedRepeats_.Find(n)
	if !ok || s.removed {
		return 0, false
	}
	return s.idx, true
}

// Location returns the repetition under which n occurs.
func (this Env[T]) Location(n name.Name) (int, bool) {
	return this.leafLocations_.Find(n)
}

// Names lists, sorted, every name visible at this level: the leaves and the
// names that occur under a repetition.
func (this Env[T]) Names() []name.Name {
	all := this.leafLocations_
	this.leaves_.Each(func(n name.Name, _ T) bool {
		all = all.Set(n, -1)
		return true
	})
	return all.Keys()
}

func (this Env[T]) IsEmpty() bool {
	return this.leaves_.Empty() && len(this.repeats_) == 0
}

func joinNames(ns []name.Name) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
