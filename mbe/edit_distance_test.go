package mbe

import (
	"testing"

	"mbe-go/name"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		s1, s2  string
		replace bool
		max     int
		want    int
	}{
		{"", "ninja", true, 0, 5},
		{"ninja", "", true, 0, 5},
		{"", "", true, 0, 0},
		{"same", "same", true, 0, 0},
		{"kitten", "sitting", true, 0, 3},
		{"kitten", "sitting", false, 0, 5},
		{"abcdefgh", "zyxwvuts", true, 2, 3},
	}
	for _, tt := range tests {
		if got := EditDistance(tt.s1, tt.s2, tt.replace, tt.max); got != tt.want {
			t.Errorf("EditDistance(%q, %q, %v, %d) = %d, want %d", tt.s1, tt.s2, tt.replace, tt.max, got, tt.want)
		}
	}
}

func TestSpellcheckName(t *testing.T) {
	candidates := []name.Name{name.N("arg"), name.N("arg_t"), name.N("body")}
	if got := SpellcheckName(name.N("agr"), candidates); got != "arg" {
		t.Fatalf("expected arg, got %q", got)
	}
	if got := SpellcheckName(name.N("completely_different"), candidates); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
}
