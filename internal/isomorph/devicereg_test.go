package isomorph

import "testing"

func TestCanonicalizeTerminalsDistinctLabels(t *testing.T) {
	classes := canonicalizeTerminals([]string{"in", "out", "ctrl"})
	if len(classes) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(classes))
	}
	seen := map[int]bool{}
	for _, c := range classes {
		if seen[c] {
			t.Fatalf("distinct labels must not share a class: %v", classes)
		}
		seen[c] = true
	}
}

func TestCanonicalizeTerminalsCaseInsensitiveCollapse(t *testing.T) {
	classes := canonicalizeTerminals([]string{"IN", "in", "OUT"})
	if classes[0] != classes[1] {
		t.Fatalf("hash-and-string-equal labels (case folded) should share a class: %v", classes)
	}
	if classes[0] == classes[2] {
		t.Fatalf("distinct labels must not share a class: %v", classes)
	}
}

// TestCanonicalizeTerminalsPermutationInvariant covers the
// terminal-class canonicalization property: the assigned class-tuple must be
// invariant under permutations of pin-labels that preserve multiset equality
//, i.e. permuting the inputs permutes the outputs the same way.
func TestCanonicalizeTerminalsPermutationInvariant(t *testing.T) {
	labels := []string{"a", "b", "a", "c", "b"}
	base := canonicalizeTerminals(labels)

	perm := []int{4, 0, 3, 1, 2}
	permuted := make([]string, len(labels))
	for i, p := range perm {
		permuted[i] = labels[p]
	}
	got := canonicalizeTerminals(permuted)

	for i, p := range perm {
		if got[i] != base[p] {
			t.Fatalf("class at position %d = %d, want %d (permutation-consistent with base %v)", i, got[i], base[p], base)
		}
	}
}

func TestDefineDeviceMasterIdempotentRedefinition(t *testing.T) {
	e := NewEngine(nil, 1)
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("first DefineDeviceMaster failed: %v", err)
	}
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("identical redefinition should be idempotent, got: %v", err)
	}
	if len(e.deviceDefs) != 1 {
		t.Fatalf("expected exactly one registered master, got %d", len(e.deviceDefs))
	}
}

func TestDefineDeviceMasterConflictingRedefinitionFails(t *testing.T) {
	e := NewEngine(nil, 1)
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("first DefineDeviceMaster failed: %v", err)
	}
	if err := e.DefineDeviceMaster("inv", []string{"in", "out", "ctrl"}); err == nil {
		t.Fatalf("expected an error redefining %q with a different terminal count", "inv")
	}
}
