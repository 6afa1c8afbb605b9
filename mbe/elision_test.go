package mbe

import (
	"slices"
	"testing"
)

func TestElided(t *testing.T) {
	tests := []struct {
		at, count int
		want      []int
	}{
		{0, 0, []int{1, 2}},
		{1, 0, []int{0, 2}},
		{2, 0, []int{0, 1}},
		{1, 1, []int{0, 1, 2}},
		{1, 3, []int{0, 1, 1, 1, 2}},
		{5, 3, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		got := slices.Collect(Elided([]int{0, 1, 2}, tt.at, tt.count))
		if !slices.Equal(got, tt.want) {
			t.Errorf("Elided(at=%d, count=%d) = %v, want %v", tt.at, tt.count, got, tt.want)
		}
	}
}

func TestElidedStopsEarly(t *testing.T) {
	var got []int
	for v := range Elided([]int{0, 1, 2}, 1, 5) {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	if !slices.Equal(got, []int{0, 1, 1}) {
		t.Fatalf("unexpected prefix %v", got)
	}
}

func TestElisionValue(t *testing.T) {
	if NoElision.IsSet() {
		t.Fatalf("NoElision is set")
	}
	at, ok := ElideAt(4).Index()
	if !ok || at != 4 {
		t.Fatalf("unexpected index %d %v", at, ok)
	}
	if ElideAt(0) == NoElision {
		t.Fatalf("eliding index 0 must differ from no elision")
	}

	if e, err := TryElideAt(2); err != nil || e != ElideAt(2) {
		t.Fatalf("TryElideAt(2) = %v, %v", e, err)
	}
	_, err := TryElideAt(-1)
	expectKind(t, err, ElideMismatch)
	defer func() {
		if recover() == nil {
			t.Fatalf("ElideAt(-1) should panic")
		}
	}()
	ElideAt(-1)
}

func TestGroupIndexPanics(t *testing.T) {
	e := basicEnv(t)
	if n := e.GroupLen(e.Groups() - 1); n != 2 {
		t.Fatalf("unexpected length %d of the last group", n)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("GroupLen past the last group should panic")
		}
	}()
	e.GroupLen(e.Groups())
}

func pairValues(t *testing.T, matched []pair[int, int]) [][2]int {
	t.Helper()
	res := make([][2]int, len(matched))
	for i, p := range matched {
		res[i] = [2]int{p.lhs.MustLeaf(nX), p.rhs.MustLeaf(nX)}
	}
	return res
}

func TestResolveEllipsis(t *testing.T) {
	tests := []struct {
		name       string
		lhs        []int
		lhsElide   Elision
		rhs        []int
		rhsElide   Elision
		want       [][2]int
		wantErrFor ErrorKind
	}{
		{
			name: "no elision, equal lengths",
			lhs:  []int{1, 2}, rhs: []int{10, 20},
			want: [][2]int{{1, 10}, {2, 20}},
		},
		{
			name: "no elision, unequal lengths",
			lhs:  []int{1, 2}, rhs: []int{10},
			wantErrFor: ArityMismatch,
		},
		{
			name: "lhs elision stretches",
			lhs:  []int{1, 2, 3}, lhsElide: ElideAt(1), rhs: []int{10, 20, 30, 40, 50},
			want: [][2]int{{1, 10}, {2, 20}, {2, 30}, {2, 40}, {3, 50}},
		},
		{
			name: "lhs elision shrinks to nothing",
			lhs:  []int{1, 2, 3}, lhsElide: ElideAt(1), rhs: []int{10, 30},
			want: [][2]int{{1, 10}, {3, 30}},
		},
		{
			name: "lhs too long",
			lhs:  []int{1, 2, 3}, lhsElide: ElideAt(1), rhs: []int{10},
			wantErrFor: ArityMismatch,
		},
		{
			name: "rhs elision stretches",
			lhs:  []int{1, 2, 3, 4}, rhs: []int{10, 20}, rhsElide: ElideAt(0),
			want: [][2]int{{1, 10}, {2, 10}, {3, 10}, {4, 20}},
		},
		{
			name: "rhs too long",
			lhs:  []int{1}, rhs: []int{10, 20, 30}, rhsElide: ElideAt(2),
			wantErrFor: ArityMismatch,
		},
		{
			name: "elision out of range",
			lhs:  []int{1}, lhsElide: ElideAt(3), rhs: []int{10},
			wantErrFor: ArityMismatch,
		},
		{
			name: "both sides elided",
			lhs:  []int{1}, lhsElide: ElideAt(0), rhs: []int{10}, rhsElide: ElideAt(0),
			wantErrFor: AmbiguousElision,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lhs, rhs := intLeafEnvs(nX, tt.lhs...), intLeafEnvs(nX, tt.rhs...)
			matched, err := resolveEllipsis(lhs, tt.lhsElide, rhs, tt.rhsElide)
			if tt.wantErrFor != 0 {
				expectKind(t, err, tt.wantErrFor)
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := pairValues(t, matched); !slices.Equal(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveEllipsisLeavesInputsAlone(t *testing.T) {
	lhs := intLeafEnvs(nX, 1, 2, 3)
	rhs := intLeafEnvs(nX, 10, 20, 30, 40, 50)
	if _, err := resolveEllipsis(lhs, ElideAt(1), rhs, NoElision); err != nil {
		t.Fatal(err)
	}
	if len(lhs) != 3 || lhs[2].MustLeaf(nX) != 3 {
		t.Fatalf("input was modified: %v", lhs)
	}
}
