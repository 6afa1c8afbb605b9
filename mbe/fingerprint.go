package mbe

import (
	"fmt"
	"io"

	"github.com/edwingeng/deque"
	"github.com/zeebo/blake3"
	"lukechampine.com/uint128"
)

// Fingerprint digests the structure and leaf values (as printed by %v) of e.
// Structurally equal environments with equally printing leaves share a
// fingerprint regardless of how they were built.
func Fingerprint[T any](e Env[T]) uint128.Uint128 {
	h := blake3.New()
	writeCanonical(h, e)
	return uint128.FromBytes(h.Sum(nil)[:16])
}

// FingerprintHex is Fingerprint rendered as 32 hex digits.
func FingerprintHex[T any](e Env[T]) string {
	fp := Fingerprint(e)
	return fmt.Sprintf("%016x%016x", fp.Hi, fp.Lo)
}

func writeCanonical[T any](w io.Writer, e Env[T]) {
	for _, n := range e.leaves_.Keys() {
		v, _ := e.leaves_.Find(n)
		fmt.Fprintf(w, "l %q %v\n", n.String(), v)
	}
	for _, n := range e.leafLocations_.Keys() {
		idx, _ := e.leafLocations_.Find(n)
		fmt.Fprintf(w, "i %q %d\n", n.String(), idx)
	}
	for _, n := range e.namedRepeats_.Keys() {
		if s, _ := e.namedRepeats_.Find(n); !s.removed {
			fmt.Fprintf(w, "n %q %d\n", n.String(), s.idx)
		}
	}
	for i, g := range e.repeats_ {
		fmt.Fprintf(w, "g %d %v %d\n", i, e.elisions_[i], len(g.elts_))
		for _, sub := range g.elts_ {
			io.WriteString(w, "{\n")
			writeCanonical(w, sub)
			io.WriteString(w, "}\n")
		}
	}
}

// Stats summarizes the size of an environment tree.
type Stats struct {
	Nodes    int
	Leaves   int
	Groups   int
	MaxDepth int
}

type statsItem[T any] struct {
	env   Env[T]
	depth int
}

func (this Env[T]) Stats() Stats {
	res := Stats{}
	nodes := deque.NewDeque()
	nodes.PushBack(statsItem[T]{env: this})

	for nodes.Len() != 0 {
		item := nodes.PopFront().(statsItem[T])
		res.Nodes++
		res.Leaves += item.env.leaves_.Len()
		res.Groups += len(item.env.repeats_)
		res.MaxDepth = max(res.MaxDepth, item.depth)
		for _, g := range item.env.repeats_ {
			for _, sub := range g.elts_ {
				nodes.PushBack(statsItem[T]{env: sub, depth: item.depth + 1})
			}
		}
	}
	return res
}
