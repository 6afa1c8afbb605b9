package assoc

import (
	"errors"
	"testing"

	"mbe-go/name"
)

var (
	nA = name.N("a")
	nB = name.N("b")
	nC = name.N("c")
)

func TestZeroValue(t *testing.T) {
	var a Assoc[int]
	if !a.Empty() || a.Len() != 0 {
		t.Fatalf("zero assoc not empty")
	}
	if _, ok := a.Find(nA); ok {
		t.Fatalf("found a key in an empty assoc")
	}
	if a.String() != "{}" {
		t.Fatalf("unexpected rendering %q", a.String())
	}
}

func TestSetIsPersistent(t *testing.T) {
	a := Single(nA, 1)
	b := a.Set(nB, 2)
	c := b.Set(nA, 10)

	if a.Len() != 1 || a.Contains(nB) {
		t.Fatalf("a was mutated: %v", a)
	}
	if v, _ := b.Find(nA); v != 1 {
		t.Fatalf("b saw a later overwrite: %d", v)
	}
	if v, _ := c.Find(nA); v != 10 {
		t.Fatalf("last write should win, got %d", v)
	}
	if c.String() != "{a: 10, b: 2}" {
		t.Fatalf("unexpected rendering %q", c.String())
	}
}

func TestSetAssocRightBiased(t *testing.T) {
	lhs := New[int]().Set(nA, 1).Set(nB, 2)
	rhs := New[int]().Set(nB, 20).Set(nC, 30)
	got := lhs.SetAssoc(rhs)
	want := New[int]().Set(nA, 1).Set(nB, 20).Set(nC, 30)
	if !Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !Equal(lhs.SetAssoc(Assoc[int]{}), lhs) || !Equal(Assoc[int]{}.SetAssoc(rhs), rhs) {
		t.Fatalf("union with empty should be identity")
	}
}

func TestKeysSorted(t *testing.T) {
	a := New[int]().Set(nC, 3).Set(nA, 1).Set(nB, 2)
	keys := a.Keys()
	if len(keys) != 3 || keys[0] != nA || keys[1] != nB || keys[2] != nC {
		t.Fatalf("unexpected key order %v", keys)
	}
}

func TestMapAndReduce(t *testing.T) {
	a := New[int]().Set(nA, 1).Set(nB, 2).Set(nC, 3)
	doubled := Map(a, func(v int) int { return v * 2 })
	sum := Reduce(doubled, func(_ name.Name, v int, acc int) int { return acc + v }, 0)
	if sum != 12 {
		t.Fatalf("expected 12, got %d", sum)
	}
}

func TestMapWith(t *testing.T) {
	a := New[int]().Set(nA, 1).Set(nB, 2)
	b := New[string]().Set(nA, "x").Set(nB, "y")
	got, err := MapWith(a, b, func(i int, s string) string { return s + string(rune('0'+i)) })
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := got.Find(nB); v != "y2" {
		t.Fatalf("unexpected pairing %q", v)
	}

	tests := []struct {
		name string
		rhs  Assoc[string]
	}{
		{"missing key", New[string]().Set(nA, "x")},
		{"extra key", b.Set(nC, "z")},
		{"different key", New[string]().Set(nA, "x").Set(nC, "z")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapWith(a, tt.rhs, func(int, string) string { return "" })
			var kerr *KeyMismatchError
			if !errors.As(err, &kerr) {
				t.Fatalf("expected KeyMismatchError, got %v", err)
			}
		})
	}
}

func TestTryMap(t *testing.T) {
	boom := errors.New("boom")
	a := New[int]().Set(nA, 1).Set(nB, -1)
	_, err := TryMap(a, func(_ name.Name, v int) (int, error) {
		if v < 0 {
			return 0, boom
		}
		return v, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
