package mbe

import (
	"encoding/json"
	"strings"
	"testing"

	"mbe-go/name"
)

func TestSnapshotRoundTrip(t *testing.T) {
	e := basicEnv(t)
	if err := e.AddNamedRepeat(nDigits, intLeafEnvs(nNT, -11, -12, -13), NoElision); err != nil {
		t.Fatal(err)
	}
	e.AddAnonRepeat(intLeafEnvs(nX, 1, 2, 3), ElideAt(2))

	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot[int]
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(restored, e) {
		t.Fatalf("round trip changed the tree:\n%v\n%v", restored, e)
	}
}

func TestSnapshotKeepsOwnedNames(t *testing.T) {
	e := nestedRep(t, NoElision, []string{"a", "b"}, []string{"c", "d"})
	snap := e.Snapshot()
	if len(snap.Owned) != 1 || snap.Owned[0] != "a" {
		t.Fatalf("unexpected owned names %v", snap.Owned)
	}
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := restored.Merge(e)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Groups() != 1 {
		t.Fatalf("restored a should still own its group, got %d groups", merged.Groups())
	}
}

func TestSnapshotDropsAnonymizedNames(t *testing.T) {
	e, err := FromNamedRepeat(nDigits, intLeafEnvs(nT, 1))
	if err != nil {
		t.Fatal(err)
	}
	e.Anonymize(nDigits)
	snap := e.Snapshot()
	if len(snap.NamedIndex) != 0 {
		t.Fatalf("anonymized name persisted: %v", snap.NamedIndex)
	}
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(restored, e) {
		t.Fatalf("round trip changed the tree")
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	bad := 3
	tests := []struct {
		name string
		snap Snapshot[int]
		want string
	}{
		{"empty group", Snapshot[int]{Groups: []GroupSnapshot[int]{{}}}, "is empty"},
		{"elision out of range", Snapshot[int]{Groups: []GroupSnapshot[int]{{Elide: &bad, Elements: []Snapshot[int]{{}}}}}, "elides"},
		{"dangling index", Snapshot[int]{LeafIndex: map[string]int{"t": 0}}, "points at group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(tt.snap, nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected an error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRestoreIntoFrozenInterner(t *testing.T) {
	in := name.NewInterner()
	in.Freeze()
	_, err := Restore(Snapshot[int]{Leaves: map[string]int{"fresh": 1}}, in)
	if err == nil {
		t.Fatalf("expected an error restoring unknown names into a frozen interner")
	}
}

func TestFingerprint(t *testing.T) {
	a := basicEnv(t)
	b := basicEnv(t)
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("equal trees have different fingerprints")
	}
	if len(FingerprintHex(a)) != 32 {
		t.Fatalf("unexpected hex fingerprint %q", FingerprintHex(a))
	}
	b.AddLeaf(nEight, 80)
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("different trees share a fingerprint")
	}

	elided := FromAnonRepeat(intLeafEnvs(nX, 1, 2), ElideAt(0))
	plain := FromAnonRepeat(intLeafEnvs(nX, 1, 2), NoElision)
	if Fingerprint(elided) == Fingerprint(plain) {
		t.Fatalf("elision does not affect the fingerprint")
	}
}

func TestStats(t *testing.T) {
	inner := FromAnonRepeat(intLeafEnvs(nY, 1, 2), NoElision)
	e := basicEnv(t)
	e.AddAnonRepeat([]Env[int]{inner}, NoElision)

	got := e.Stats()
	want := Stats{Nodes: 9, Leaves: 9, Groups: 4, MaxDepth: 2}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestString(t *testing.T) {
	e := leaves[int](nEight, 8)
	if err := e.AddNamedRepeat(nDigits, intLeafEnvs(nT, 11), ElideAt(0)); err != nil {
		t.Fatal(err)
	}
	want := "mbe{ 🍂 {eight: 8}, ✶[(low_two_digits) ...0... [mbe{ 🍂 {t: 11}, ✶[]}]]}"
	if got := e.String(); got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}
