// Package assoc is a persistent map keyed by interned names.
//
// Every "modification" returns a new Assoc sharing structure with the old one;
// an Assoc that has been handed out never changes.
package assoc

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"

	"mbe-go/name"
)

type nameHasher struct{}

func (nameHasher) Hash(key name.Name) uint32 {
	h := key.Hash()
	return uint32(h) ^ uint32(h>>32)
}

func (nameHasher) Equal(a, b name.Name) bool { return a == b }

// Assoc maps names to values. The zero value is the empty map.
type Assoc[V any] struct {
	m *immutable.Map[name.Name, V]
}

// KeyMismatchError is returned by MapWith when a key is present on only one side.
type KeyMismatchError struct {
	Key name.Name
}

func (this *KeyMismatchError) Error() string {
	return fmt.Sprintf("key %q is present on only one side", this.Key.String())
}

func New[V any]() Assoc[V] { return Assoc[V]{} }

// Single is shorthand for New().Set(k, v).
func Single[V any](k name.Name, v V) Assoc[V] {
	return Assoc[V]{}.Set(k, v)
}

func (this Assoc[V]) Len() int {
	if this.m == nil {
		return 0
	}
	return this.m.Len()
}

func (this Assoc[V]) Empty() bool { return this.Len() == 0 }

func (this Assoc[V]) Find(k name.Name) (V, bool) {
	if this.m == nil {
		var zero V
		return zero, false
	}
	return this.m.Get(k)
}

func (this Assoc[V]) Contains(k name.Name) bool {
	_, ok := this.Find(k)
	return ok
}

func (this Assoc[V]) Set(k name.Name, v V) Assoc[V] {
	m := this.m
	if m == nil {
		m = immutable.NewMap[name.Name, V](nameHasher{})
	}
	return Assoc[V]{m: m.Set(k, v)}
}

// Each visits every entry until fn returns false. The order is unspecified
// but stable for a given set of keys.
func (this Assoc[V]) Each(fn func(k name.Name, v V) bool) {
	if this.m == nil {
		return
	}
	itr := this.m.Iterator()
	for !itr.Done() {
		k, v, _ := itr.Next()
		if !fn(k, v) {
			return
		}
	}
}

// Keys returns the keys sorted by spelling.
func (this Assoc[V]) Keys() []name.Name {
	keys := make([]name.Name, 0, this.Len())
	this.Each(func(k name.Name, _ V) bool {
		keys = append(keys, k)
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// SetAssoc returns the union of this and rhs; rhs wins on collisions.
func (this Assoc[V]) SetAssoc(rhs Assoc[V]) Assoc[V] {
	if rhs.Empty() {
		return this
	}
	if this.Empty() {
		return rhs
	}
	res := this
	rhs.Each(func(k name.Name, v V) bool {
		res = res.Set(k, v)
		return true
	})
	return res
}

// Reduce folds every value into seed.
func Reduce[V, R any](a Assoc[V], f func(k name.Name, v V, acc R) R, seed R) R {
	acc := seed
	a.Each(func(k name.Name, v V) bool {
		acc = f(k, v, acc)
		return true
	})
	return acc
}

func Map[V, U any](a Assoc[V], f func(V) U) Assoc[U] {
	res := Assoc[U]{}
	a.Each(func(k name.Name, v V) bool {
		res = res.Set(k, f(v))
		return true
	})
	return res
}

// MapWith pairs the values of a and b by key. Both must carry the same keys.
func MapWith[A, B, U any](a Assoc[A], b Assoc[B], f func(A, B) U) (Assoc[U], error) {
	res := Assoc[U]{}
	var err error
	a.Each(func(k name.Name, va A) bool {
		vb, ok := b.Find(k)
		if !ok {
			err = &KeyMismatchError{Key: k}
			return false
		}
		res = res.Set(k, f(va, vb))
		return true
	})
	if err != nil {
		return Assoc[U]{}, err
	}
	if a.Len() != b.Len() {
		b.Each(func(k name.Name, _ B) bool {
			if !a.Contains(k) {
				err = &KeyMismatchError{Key: k}
				return false
			}
			return true
		})
		return Assoc[U]{}, err
	}
	return res, nil
}

// TryMap is Map with a fallible f. Keys are visited in spelling order and
// the first error stops the walk.
func TryMap[V, U any](a Assoc[V], f func(k name.Name, v V) (U, error)) (Assoc[U], error) {
	res := Assoc[U]{}
	for _, k := range a.Keys() {
		v, _ := a.Find(k)
		u, err := f(k, v)
		if err != nil {
			return Assoc[U]{}, err
		}
		res = res.Set(k, u)
	}
	return res, nil
}

func EqualFunc[V any](a, b Assoc[V], eq func(V, V) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	same := true
	a.Each(func(k name.Name, va V) bool {
		vb, ok := b.Find(k)
		if !ok || !eq(va, vb) {
			same = false
		}
		return same
	})
	return same
}

func Equal[V comparable](a, b Assoc[V]) bool {
	return EqualFunc(a, b, func(x, y V) bool { return x == y })
}

func (this Assoc[V]) String() string {
	s := "{"
	for i, k := range this.Keys() {
		if i > 0 {
			s += ", "
		}
		v, _ := this.Find(k)
		s += fmt.Sprintf("%s: %v", k.String(), v)
	}
	return s + "}"
}
