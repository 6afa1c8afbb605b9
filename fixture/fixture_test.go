package fixture

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"mbe-go/mbe"
	"mbe-go/name"
)

const kVecFixture = `
leaves:
  macro: vec
repeats:
  - name: args
    elide: 1
    elements:
      - leaves: {arg: a}
      - leaves: {arg: b}
      - leaves: {arg: c}
`

func TestParse(t *testing.T) {
	in := name.NewInterner()
	e, err := Parse([]byte(kVecFixture), in)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.MustLeaf(in.Intern("macro")); got != "vec" {
		t.Fatalf("unexpected macro %q", got)
	}
	idx, ok := e.NamedGroup(in.Intern("args"))
	if !ok {
		t.Fatalf("args is not a named group")
	}
	elts, elide := e.Group(idx)
	if len(elts) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(elts))
	}
	if at, ok := elide.Index(); !ok || at != 1 {
		t.Fatalf("unexpected elision %v", elide)
	}
	if got := e.MustRepLeaf(in.Intern("arg")); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected args %v", got)
	}
}

func TestParseMatchesProducers(t *testing.T) {
	in := name.NewInterner()
	got, err := Parse([]byte(`
leaves: {n: "1"}
repeats:
  - elements:
      - leaves: {x: "2"}
  - name: g
    elements:
      - repeats:
          - name: inner
            elements:
              - leaves: {y: "3"}
anonymize: [g]
`), in)
	if err != nil {
		t.Fatal(err)
	}

	n, x, y := in.Intern("n"), in.Intern("x"), in.Intern("y")
	g, inner := in.Intern("g"), in.Intern("inner")
	want := mbe.New[string]()
	want.AddLeaf(n, "1")
	xe := mbe.New[string]()
	xe.AddLeaf(x, "2")
	want.AddAnonRepeat([]mbe.Env[string]{xe}, mbe.NoElision)
	ye := mbe.New[string]()
	ye.AddLeaf(y, "3")
	innerEnv, err := mbe.FromNamedRepeat(inner, []mbe.Env[string]{ye})
	if err != nil {
		t.Fatal(err)
	}
	if err := want.AddNamedRepeat(g, []mbe.Env[string]{innerEnv}, mbe.NoElision); err != nil {
		t.Fatal(err)
	}
	want.Anonymize(g)

	if !mbe.Equal(got, want) {
		t.Fatalf("got %v\nwant %v", got, want)
	}
}

func TestParseNumbersAreStrings(t *testing.T) {
	in := name.NewInterner()
	e, err := Parse([]byte("leaves: {n: 12, b: true}"), in)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.MustLeaf(in.Intern("n")); got != "12" {
		t.Fatalf("unexpected value %q", got)
	}
	if got := e.MustLeaf(in.Intern("b")); got != "true" {
		t.Fatalf("unexpected value %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"leaves not a mapping", "leaves: [a, b]"},
		{"leaf value not a scalar", "leaves: {a: [1]}"},
		{"duplicate leaf", "leaves:\n  a: 1\n  a: 2\n"},
		{"negative elide", "repeats:\n  - elide: -1\n    elements: [{}]\n"},
		{"not yaml", "leaves: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), name.NewInterner())
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestParseReportsCoreErrors(t *testing.T) {
	_, err := Parse([]byte(`
repeats:
  - name: g
    elements: [{leaves: {x: "1"}}]
  - name: g
    elements: [{leaves: {y: "1"}}, {leaves: {y: "2"}}]
`), name.NewInterner())
	if !errors.Is(err, mbe.ErrArityMismatch) {
		t.Fatalf("expected an arity mismatch, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vec.yaml")
	if err := os.WriteFile(path, []byte(kVecFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}
