package isomorph

// probeSlot is one entry of the local neighbor-deduction probe table: the
// single candidate neighbor seen so far for a (value, terminal class) key,
// or the ambiguous sentinel (vertex == nil with the slot still live) once a
// second, different candidate collides on it.
type probeSlot struct {
	stamp int
	key   uint32
	vertex *Vertex
}

// probeTable is a fixed-capacity, lazily-cleared hash table keyed by a
// neighbor's current refined value plus its terminal class, reused across
// every matchNeighbors call for the run's lifetime. Lazy clearing (bump
// stamp, never zero the backing array) keeps the cost of each call
// proportional to the small number of neighbors touched rather than the
// table's capacity.
type probeTable struct {
	slots []probeSlot
	stamp int
}

const probeOversizeFactor = 10
const probeMaxLinearScan = 8

func newProbeTable(size int) *probeTable {
	if size < 1 {
		size = 1
	}
	return &probeTable{slots: make([]probeSlot, size*probeOversizeFactor)}
}

func (t *probeTable) reset() { t.stamp++ }

// neighborKey combines a neighbor's current value and terminal class into
// the probe table's lookup key, so only neighbors whose refined value also
// agrees are ever considered candidates for a deduced match.
func neighborKey(n Neighbor) uint32 {
	return n.Vertex.Value + uint32(n.Class)
}

// insert records key -> v as the sole candidate for that key. A second,
// different vertex seen for the same key marks it ambiguous (vertex is
// cleared but the slot stays live so lookupUnique reports "no unique
// candidate" rather than falling through to an unrelated key).
func (t *probeTable) insert(key uint32, v *Vertex) {
	idx := int(key) % len(t.slots)
	for i := 0; i < probeMaxLinearScan; i++ {
		s := &t.slots[(idx+i)%len(t.slots)]
		if s.stamp != t.stamp {
			s.stamp, s.key, s.vertex = t.stamp, key, v
			return
		}
		if s.key == key {
			if s.vertex != v {
				s.vertex = nil // ambiguous: more than one candidate for this key
			}
			return
		}
	}
	// Ran out of probe attempts; treat as ambiguous rather than silently
	// dropping the first candidate.
}

// lookupUnique reports the sole candidate recorded for key, if any.
func (t *probeTable) lookupUnique(key uint32) (*Vertex, bool) {
	idx := int(key) % len(t.slots)
	for i := 0; i < probeMaxLinearScan; i++ {
		s := &t.slots[(idx+i)%len(t.slots)]
		if s.stamp != t.stamp {
			continue
		}
		if s.key == key {
			if s.vertex == nil {
				return nil, false
			}
			return s.vertex, true
		}
	}
	return nil, false
}

func (e *Engine) probeTable() *probeTable {
	if e.neighborProbe == nil {
		e.neighborProbe = newProbeTable(e.options.DeduceNeighbors)
	}
	return e.neighborProbe
}

// matchNeighbors examines v1 and v2's still-pending neighbors (v1 and v2
// having just been matched against each other) and deduces a match for any
// (value, terminal class) key where each side has exactly one pending
// candidate, a cheap local shortcut around the full bucket-hash refinement
// cycle for low-degree vertices. Requiring the neighbor's current value to
// also agree, not just its terminal class, keeps this from declaring a
// match between neighbors that merely share a class but refine to
// different colors. Grounded on the "deduce" pass used by the local
// neighbor deducer.
func (e *Engine) matchNeighbors(v1, v2 *Vertex) {
	t := e.probeTable()
	t.reset()
	for _, n := range v1.Neighbors {
		if n.Vertex.Flag == Pending {
			t.insert(neighborKey(n), n.Vertex)
		}
	}
	for _, n := range v2.Neighbors {
		if n.Vertex.Flag != Pending {
			continue
		}
		cand, ok := t.lookupUnique(neighborKey(n))
		if ok && cand != n.Vertex {
			e.deduceMatch(cand, n.Vertex)
		}
	}
}

// deduceMatch records a locally-deduced pair exactly as an equivalence hit
// would: shared fresh value, MATCHING flag, fast-queued for the next
// characterize step's localMatchUniques pass rather than waiting for a full
// bucket-hash cycle to rediscover them.
func (e *Engine) deduceMatch(a, b *Vertex) {
	if a.Flag != Pending || b.Flag != Pending {
		return
	}
	fresh := e.rng.next()
	a.Value, b.Value = fresh, fresh
	a.Flag, b.Flag = Matching, Matching
	e.graphs[a.graphNumber-1].EvaluationQueue.PushBack(a)
	e.graphs[b.graphNumber-1].EvaluationQueue.PushBack(b)
}

// hasPendingMatching reports whether g's evaluation queue currently starts
// with (or contains) MATCHING-flagged vertices queued by an equivalence
// anchor or a neighbor deduction, the signal that the cheap fast path
// applies this step rather than a full assignNewValues/enterHash cycle.
func hasPendingMatching(g *Graph) bool {
	found := false
	g.EvaluationQueue.ForEach(func(v *Vertex) {
		if v.Flag == Matching {
			found = true
		}
	})
	return found
}

// localMatchUniques drains every MATCHING-flagged vertex at the front of
// g1's and g2's evaluation queues, confirms each pair's values still agree
// (they were assigned identically at deduction time, so disagreement means
// an internal bookkeeping bug, not a semantic mismatch), and finalizes them
// straight to UNIQUE without touching the bucket hash table at all, as the
// fast path for a pair that was already matched by equivalence or deduction.
func (e *Engine) localMatchUniques(g1, g2 *Graph) (int, error) {
	pending1 := drainMatching(&g1.EvaluationQueue)
	pending2 := drainMatching(&g2.EvaluationQueue)
	byValue := make(map[uint32]*Vertex, len(pending2))
	for _, v := range pending2 {
		byValue[v.Value] = v
	}
	count := 0
	for _, v1 := range pending1 {
		v2, ok := byValue[v1.Value]
		if !ok {
			return count, newError(ErrInternal, "deduced vertex %q has no matching counterpart with value %d", v1.Name, v1.Value)
		}
		delete(byValue, v1.Value)
		v1.Match, v2.Match = v2, v1
		v1.Flag, v2.Flag = Unique, Unique
		e.matchedCount += 2
		count += 2
		fileUnique(g1, v1)
		fileUnique(g2, v2)
		queueNeighbors(g1, v1, e.pass)
		queueNeighbors(g2, v2, e.pass)
	}
	for _, leftover := range byValue {
		return count, newError(ErrInternal, "deduced vertex %q on graph 2 has no matching counterpart", leftover.Name)
	}
	return count, nil
}

func fileUnique(g *Graph, v *Vertex) {
	if v.Kind == Net {
		g.UniqueNets.PushBack(v)
	} else {
		g.UniqueDevices.PushBack(v)
	}
}

// drainMatching pulls every MATCHING-flagged vertex currently queued, in
// order, leaving any non-MATCHING (ordinary pending) vertex in place.
func drainMatching(q *Queue) []*Vertex {
	rest := Queue{}
	var matched []*Vertex
	for {
		v := q.PopFront()
		if v == nil {
			break
		}
		if v.Flag == Matching {
			matched = append(matched, v)
		} else {
			rest.PushBack(v)
		}
	}
	*q = rest
	return matched
}
