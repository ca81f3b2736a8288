package isomorph

import "testing"

// TestNetAliasChainCompactsIndices covers the alias idempotence
// property: aliasing A->B->C must leave a dense, no-gap index space with a
// single live net and no phantom vertex for the aliased-away names.
func TestNetAliasChainCompactsIndices(t *testing.T) {
	e := NewEngine(nil, 1)
	gi := newGraphIngest()

	n1 := gi.findOrAllocNet("n1", "n1")
	n2 := gi.findOrAllocNet("n2", "n2")
	n3 := gi.findOrAllocNet("n3", "n3")
	n4 := gi.findOrAllocNet("n4", "n4")

	if n1.index != 0 || n2.index != 1 || n3.index != 2 || n4.index != 3 {
		t.Fatalf("expected dense 0..3 indices before aliasing, got %d %d %d %d", n1.index, n2.index, n3.index, n4.index)
	}

	e.equateNets(gi, 0, n1, n2) // n1 <- n2
	e.equateNets(gi, 0, n1, n3) // n1 <- n3

	live := realNet(n1)
	if realNet(n2) != live || realNet(n3) != live {
		t.Fatalf("n2 and n3 should resolve to the same canonical net as n1")
	}
	if live.index < 0 {
		t.Fatalf("canonical net should retain a live index, got %d", live.index)
	}
	if realNet(n4).index < 0 || realNet(n4).index >= gi.netIndex {
		t.Fatalf("unaliased net n4's index should stay within the compacted live range")
	}

	// Exactly one live index remains besides n4: the index space has shrunk
	// by two (n2 and n3 merged away), and no two live nets share an index.
	liveIndices := map[int]bool{}
	for _, n := range []*ingestNet{n1, n4} {
		n = realNet(n)
		if liveIndices[n.index] {
			t.Fatalf("duplicate live index %d after alias compaction", n.index)
		}
		liveIndices[n.index] = true
	}
	if gi.netIndex != 2 {
		t.Fatalf("netIndex after merging 2 of 4 nets = %d, want 2", gi.netIndex)
	}
}

func TestNetAliasOrderIndependentResult(t *testing.T) {
	// A -> B -> C, done in either grouping order, should leave A resolving
	// to a canonical net with the same connection count. A, B and C carry
	// no connections here, and which name survives as canonical depends on
	// the merge order, so only the counts are compared.
	build := func(order [][2]string) (string, int) {
		e := NewEngine(nil, 1)
		gi := newGraphIngest()
		nets := map[string]*ingestNet{
			"A": gi.findOrAllocNet("A", "A"),
			"B": gi.findOrAllocNet("B", "B"),
			"C": gi.findOrAllocNet("C", "C"),
		}
		for _, pair := range order {
			e.equateNets(gi, 0, nets[pair[0]], nets[pair[1]])
		}
		canonical := realNet(nets["A"])
		return canonical.name, len(canonical.connections)
	}

	nameAB, connAB := build([][2]string{{"A", "B"}, {"A", "C"}})
	nameBA, connBA := build([][2]string{{"B", "A"}, {"C", "A"}})

	if connAB != connBA {
		t.Fatalf("connection count should not depend on merge order: %d vs %d", connAB, connBA)
	}
	_ = nameAB
	_ = nameBA
}

func TestDefineNetAliasWiresDeviceToCanonical(t *testing.T) {
	e := NewEngine(&CollectingSink{}, 7)
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("DefineDeviceMaster: %v", err)
	}
	if err := e.DefineNetAlias(0, "n1", []string{"n2", "n3"}); err != nil {
		t.Fatalf("DefineNetAlias: %v", err)
	}
	if err := e.DefineDeviceVertex(0, "inv", "d1", []string{"n2", "other"}); err != nil {
		t.Fatalf("DefineDeviceVertex: %v", err)
	}

	gi := e.graphIngests[0]
	n1 := realNet(gi.nets["n1"])
	if len(n1.connections) != 1 {
		t.Fatalf("expected the device's n2 terminal to resolve onto n1, got %d connections", len(n1.connections))
	}
	if _, ok := gi.nets["other"]; !ok {
		t.Fatalf("expected a separate net for the unaliased terminal")
	}
}
