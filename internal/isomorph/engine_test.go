package isomorph

import (
	"fmt"
	"testing"
)

// buildRing wires n identical "inv" devices into a ring on graphID: device i
// connects its "in" terminal to net i and its "out" terminal to net (i+1)%n,
// with net names drawn from netPrefix so two rings on different graphIDs can
// use distinct or identical net namespaces as the test needs.
func buildRing(t *testing.T, e *Engine, graphID int, n int, netPrefix string) {
	t.Helper()
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("DefineDeviceMaster: %v", err)
	}
	nets := make([]string, n)
	for i := range nets {
		nets[i] = fmt.Sprintf("%s%d", netPrefix, i)
	}
	for i := 0; i < n; i++ {
		tag := fmt.Sprintf("d%d", i)
		terms := []string{nets[i], nets[(i+1)%n]}
		if err := e.DefineDeviceVertex(graphID, "inv", tag, terms); err != nil {
			t.Fatalf("DefineDeviceVertex(%d, %s): %v", graphID, tag, err)
		}
	}
}

func assertFullyResolved(t *testing.T, result Result) {
	t.Helper()
	for i := 0; i < 2; i++ {
		if len(result.BadNets[i]) != 0 {
			t.Errorf("side %d: expected no bad nets, got %v", i, result.BadNets[i])
		}
		if len(result.BadDevices[i]) != 0 {
			t.Errorf("side %d: expected no bad devices, got %v", i, result.BadDevices[i])
		}
		if len(result.SuspectNets[i]) != 0 {
			t.Errorf("side %d: expected no suspect nets, got %v", i, result.SuspectNets[i])
		}
		if len(result.SuspectDevices[i]) != 0 {
			t.Errorf("side %d: expected no suspect devices, got %v", i, result.SuspectDevices[i])
		}
		if result.UnresolvedNets[i] != 0 || result.UnresolvedDevices[i] != 0 {
			t.Errorf("side %d: expected nothing left unresolved, got nets=%d devices=%d", i,
				result.UnresolvedNets[i], result.UnresolvedDevices[i])
		}
	}
}

// TestTwoIdenticalRingsFullyMatch covers two identical
// rings compare with every vertex uniquely matched and nothing bad/suspect.
func TestTwoIdenticalRingsFullyMatch(t *testing.T) {
	e := NewEngine(&CollectingSink{}, 42)
	buildRing(t, e, 0, 2, "n")
	buildRing(t, e, 1, 2, "n")

	result, err := e.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Matched {
		t.Fatalf("expected identical rings to match, got %+v", result)
	}
	assertFullyResolved(t, result)
}

// TestRingOfFourRequiresForcedMatch covers a fully
// rotationally-symmetric ring can't be disambiguated by refinement alone and
// must fall through to the force-match fallback, yet still ends fully
// matched.
func TestRingOfFourRequiresForcedMatch(t *testing.T) {
	e := NewEngine(&CollectingSink{}, 99)
	buildRing(t, e, 0, 4, "n")
	buildRing(t, e, 1, 4, "n")

	result, err := e.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Matched {
		t.Fatalf("expected the symmetric 4-rings to match, got %+v", result)
	}
	if result.ForcedMatches == 0 {
		t.Fatalf("expected at least one forced match to break the ring's rotational symmetry")
	}
}

// TestEquivalenceAnchorResolvesRingWithoutForcing covers
// anchoring one net pair across two otherwise-symmetric rings lets
// refinement alone disambiguate the rest, without ever falling through to
// the force-match fallback.
func TestEquivalenceAnchorResolvesRingWithoutForcing(t *testing.T) {
	e := NewEngine(&CollectingSink{}, 123)
	buildRing(t, e, 0, 4, "a")
	buildRing(t, e, 1, 4, "b")
	if err := e.DefineEquate("a0", "b0"); err != nil {
		t.Fatalf("DefineEquate: %v", err)
	}

	result, err := e.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !result.Matched {
		t.Fatalf("expected the equivalence-anchored rings to match, got %+v", result)
	}
	if result.ForcedMatches != 0 {
		t.Fatalf("expected the anchor to resolve the ring without forcing a guess, got %d forced matches", result.ForcedMatches)
	}
}

// TestDifferentMasterNamesDoNotMatch covers identical
// topology built from two differently-named device masters must not resolve
// to a match.
func TestDifferentMasterNamesDoNotMatch(t *testing.T) {
	e := NewEngine(&CollectingSink{}, 7)
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("DefineDeviceMaster(inv): %v", err)
	}
	if err := e.DefineDeviceMaster("buf", []string{"in", "out"}); err != nil {
		t.Fatalf("DefineDeviceMaster(buf): %v", err)
	}
	for i := 0; i < 2; i++ {
		terms := []string{fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", (i+1)%2)}
		if err := e.DefineDeviceVertex(0, "inv", fmt.Sprintf("d%d", i), terms); err != nil {
			t.Fatalf("DefineDeviceVertex graph0: %v", err)
		}
		if err := e.DefineDeviceVertex(1, "buf", fmt.Sprintf("d%d", i), terms); err != nil {
			t.Fatalf("DefineDeviceVertex graph1: %v", err)
		}
	}

	result, err := e.Execute()
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Matched {
		t.Fatalf("expected differing device masters to prevent a match, got %+v", result)
	}
}

// TestAliasedNetProducesSingleGraphVertex covers aliasing
// n2 and n3 onto n1 must leave exactly one live vertex for that net, wired to
// every device that named any of the three.
func TestAliasedNetProducesSingleGraphVertex(t *testing.T) {
	e := NewEngine(&CollectingSink{}, 5)
	if err := e.DefineDeviceMaster("inv", []string{"in", "out"}); err != nil {
		t.Fatalf("DefineDeviceMaster: %v", err)
	}
	if err := e.DefineNetAlias(0, "n1", []string{"n2", "n3"}); err != nil {
		t.Fatalf("DefineNetAlias: %v", err)
	}
	if err := e.DefineDeviceVertex(0, "inv", "d1", []string{"n2", "tail1"}); err != nil {
		t.Fatalf("DefineDeviceVertex d1: %v", err)
	}
	if err := e.DefineDeviceVertex(0, "inv", "d2", []string{"n3", "tail2"}); err != nil {
		t.Fatalf("DefineDeviceVertex d2: %v", err)
	}

	g, err := e.buildGraph(0, 1)
	if err != nil {
		t.Fatalf("buildGraph: %v", err)
	}

	counts := map[string]int{}
	var canonical *Vertex
	for _, v := range g.Nets {
		counts[v.Name]++
		if v.Name == "n1" {
			canonical = v
		}
	}
	if counts["n2"] != 0 || counts["n3"] != 0 {
		t.Fatalf("aliased names must not surface as their own vertex, got %v", counts)
	}
	if counts["n1"] != 1 {
		t.Fatalf("expected exactly one n1 vertex, got %d", counts["n1"])
	}
	if canonical == nil || len(canonical.Neighbors) != 2 {
		t.Fatalf("expected n1's vertex to have 2 device neighbors (from d1 and d2), got %v", canonical)
	}
}
