package isomorph

// countPending counts vertices of kind still flagged PENDING in g, without
// mutating g's pending arrays.
func countPending(g *Graph, kind VertexKind) int {
	src := g.PendingNets
	if kind == Device {
		src = g.PendingDevices
	}
	n := 0
	for _, v := range src {
		if v.Flag == Pending {
			n++
		}
	}
	return n
}

func allResolved(g *Graph) bool {
	return countPending(g, Net) == 0 && countPending(g, Device) == 0 && !hasPendingMatching(g)
}

func toggleKind(k VertexKind) VertexKind {
	if k == Net {
		return Device
	}
	return Net
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// assignNewValues rebuilds g's evaluation queue for kind (reusing a queue
// already seeded by queueNeighbors, or compacting the pending array when
// none was seeded), recomputes every candidate's value, and feeds the
// result into a freshly sized hash table
func (e *Engine) assignNewValues(g *Graph, kind VertexKind, hashSize int) {
	if e.options.NoOpt {
		g.EvaluationQueue.Clear()
	}
	var verts []*Vertex
	if g.EvaluationQueue.Empty() {
		verts = cleanPendingArray(g, kind)
	} else {
		verts = g.EvaluationQueue.ToSlice()
		g.EvaluationQueue.Clear()
	}

	g.Hash = newHashTable(hashSize)
	g.CheckSum = 0
	for _, v := range verts {
		v.queued = false
		if v.Flag == Matching {
			// A straggler that bypassed the fast path (localMatchUniques):
			// rejoin the ordinary pending pool without recomputing its value,
			// so it gets picked up cleanly on a future pass.
			v.Flag = Pending
			continue
		}
		if v.Flag != Pending {
			continue
		}
		v.Value = computeValue(v)
		v.Pass = e.pass
		enterHash(g.Hash, g, v)
	}
	appendUniques(g.Hash, g)
}

// characterizeGraphs runs one refinement step for kind across both graphs:
// the cheap fast path when either evaluation queue already holds
// MATCHING-flagged vertices (an equivalence anchor or a local neighbor
// deduction), otherwise the full assign/hash/match/section cycle. Returns
// the number of vertices newly resolved to UNIQUE this step each pass.
func (e *Engine) characterizeGraphs(kind VertexKind) (int, error) {
	g1, g2 := e.graphs[0], e.graphs[1]
	if hasPendingMatching(g1) || hasPendingMatching(g2) {
		return e.localMatchUniques(g1, g2)
	}

	size := calcHashSize(maxInt(countPending(g1, kind), countPending(g2, kind)))
	e.assignNewValues(g1, kind, size)
	e.assignNewValues(g2, kind, size)

	e.matchUniques(g1, g2)
	e.matchSections(g1, g2)

	n1 := e.processUniques(g1, e.pass)
	n2 := e.processUniques(g2, e.pass)
	return n1 + n2, nil
}

// distillSections alternates refinement passes between NET and DEVICE
// vertices until neither graph has any pending vertices left, or
// NoProgressCutOff consecutive passes make no progress at all. It returns
// -1 once both graphs are fully characterized, otherwise the net reduction
// in verticesLeft achieved during this call (which may be 0).
func (e *Engine) distillSections() (int, error) {
	kind := Net
	noProgress := 0
	start := e.verticesLeft()
	for {
		if allResolved(e.graphs[0]) && allResolved(e.graphs[1]) {
			return -1, nil
		}
		e.pass++
		progress, err := e.characterizeGraphs(kind)
		if err != nil {
			return 0, err
		}
		if progress == 0 {
			noProgress++
			if noProgress >= e.options.NoProgressCutOff {
				return start - e.verticesLeft(), nil
			}
		} else {
			noProgress = 0
		}
		kind = toggleKind(kind)
	}
}

// verticesLeft reports the combined net+device vertex count not yet
// uniquely labeled, counted on graph 1 only: a match always resolves both
// sides of a pair together, so the two graphs' counts move in lockstep.
func (e *Engine) verticesLeft() int {
	g := e.graphs[0]
	return (g.NumDevices() - g.UniqueDevices.Size()) + (g.NumNets() - g.UniqueNets.Size())
}

func (e *Engine) badCount() int {
	g1, g2 := e.graphs[0], e.graphs[1]
	return g1.BadNets.Size() + g1.BadDevices.Size() + g2.BadNets.Size() + g2.BadDevices.Size()
}

func (e *Engine) suspectCount() int {
	g1, g2 := e.graphs[0], e.graphs[1]
	return g1.SuspectNets.Size() + g1.SuspectDevices.Size() + g2.SuspectNets.Size() + g2.SuspectDevices.Size()
}

// smallerPendingKind picks whichever kind has fewer combined pending
// vertices across both graphs, so assignMatch's guess touches the smallest
// possible section, ties favor NET.
func smallerPendingKind(g1, g2 *Graph) VertexKind {
	nets := countPending(g1, Net) + countPending(g2, Net)
	devices := countPending(g1, Device) + countPending(g2, Device)
	if devices < nets {
		return Device
	}
	return Net
}

func pendingOf(g *Graph, kind VertexKind) []*Vertex {
	src := g.PendingNets
	if kind == Device {
		src = g.PendingDevices
	}
	out := make([]*Vertex, 0, len(src))
	for _, v := range src {
		if v.Flag == Pending {
			out = append(out, v)
		}
	}
	return out
}

func describeVertex(v *Vertex) string {
	if v.Kind == Net {
		return "net " + v.Name
	}
	return "device"
}

// assignMatch is the force-match fallback: when refinement stalls with
// pending vertices remaining on both sides, it guesses one pair, seeding
// them as a MATCHING anchor for the next characterize step to confirm. It
// tries whichever kind has fewer pending vertices combined first (less
// chance of guessing wrong); if that kind has nothing left to force on
// either side, it falls back to the other kind before giving up. The guess
// is never semantically justified by value equality alone; it is the
// documented last resort for breaking automorphism-induced ties.
func (e *Engine) assignMatch() bool {
	kind := smallerPendingKind(e.graphs[0], e.graphs[1])
	if e.assignMatchKind(kind) {
		return true
	}
	return e.assignMatchKind(toggleKind(kind))
}

func (e *Engine) assignMatchKind(kind VertexKind) bool {
	g1, g2 := e.graphs[0], e.graphs[1]
	p1 := pendingOf(g1, kind)
	p2 := pendingOf(g2, kind)
	if len(p1) == 0 || len(p2) == 0 {
		return false
	}

	var a, b *Vertex
	if e.options.UseSuffix {
		var q1, q2 Queue
		for _, v := range p1 {
			q1.PushBack(v)
		}
		for _, v := range p2 {
			q2.PushBack(v)
		}
		if m1, m2, ok := MatchBySuffix(&q1, &q2); ok {
			a, b = m1, m2
		}
	}
	if a == nil {
		a, b = p1[0], p2[0]
	}

	fresh := e.rng.next()
	a.Value, b.Value = fresh, fresh
	a.Flag, b.Flag = Matching, Matching
	e.forcedMatches++
	e.sink.Warning("forced match: " + describeVertex(a) + " <-> " + describeVertex(b))
	g1.EvaluationQueue.PushBack(a)
	g2.EvaluationQueue.PushBack(b)
	return true
}

// resetSuspects moves every SUSPECT vertex in g back to PENDING with a fresh
// random value, giving it one more chance now that other sections of the
// graph may have resolved the ambiguity that first made it suspect.
func (e *Engine) resetSuspects(g *Graph) int {
	return resetQueue(e, g, g.suspectQueue(Net)) + resetQueue(e, g, g.suspectQueue(Device))
}

// resetBad does the same for BAD vertices. Unlike SUSPECT, a BAD vertex was
// provably wrong under its old value, so redemption is only meaningful once
// the surrounding graph has changed since, matchTheGraphs calls this
// every time the outer loop stalls with BAD vertices present, not just once,
// since a later stall may follow refinement that has since changed the
// picture.
func (e *Engine) resetBad(g *Graph) int {
	return resetQueue(e, g, g.badQueue(Net)) + resetQueue(e, g, g.badQueue(Device))
}

// resetQueue pops every vertex off q, reseeds it, and feeds it straight into
// g's evaluation queue. cleanPendingArray has already compacted these out of
// PendingNets/PendingDevices by the time a vertex reaches SUSPECT or BAD, so
// routing through EvaluationQueue (rather than just flipping Flag back to
// PENDING) is what keeps them from becoming unreachable, assignNewValues
// reads straight from EvaluationQueue whenever it is non-empty.
func resetQueue(e *Engine, g *Graph, q *Queue) int {
	n := 0
	for {
		v := q.PopFront()
		if v == nil {
			break
		}
		v.Value = e.rng.next()
		v.Flag = Pending
		v.Match = nil
		v.queued = false
		g.EvaluationQueue.PushBack(v)
		n++
	}
	return n
}

func (g *Graph) suspectQueue(kind VertexKind) *Queue {
	if kind == Net {
		return &g.SuspectNets
	}
	return &g.SuspectDevices
}

func (g *Graph) badQueue(kind VertexKind) *Queue {
	if kind == Net {
		return &g.BadNets
	}
	return &g.BadDevices
}

// matchTheGraphs is the top-level refinement driver. Each time distillSections
// stalls, suspectTry counts how many consecutive stalls have passed since
// progress was last made (-1 meaning none has ever been made): once it
// reaches SuspectCutOff, a guessed match is forced instead of waiting for
// another distill cycle. Independently, any SUSPECT or BAD vertices left
// over from the stall are always given a redemption pass before a match is
// forced, since refinement elsewhere in the graph may since have resolved
// the ambiguity that first made them suspect or bad. ErrorCutOff stops the
// run early once the number of vertices still pending drops below the
// threshold, regardless of how that happened.
func (e *Engine) matchTheGraphs() error {
	suspectTry := -1
	for {
		if allResolved(e.graphs[0]) && allResolved(e.graphs[1]) {
			return nil
		}
		progress, err := e.distillSections()
		if err != nil {
			return err
		}
		if progress < 0 {
			return nil
		}
		switch {
		case progress > 0:
			suspectTry = 0
		case suspectTry < 0:
			suspectTry = e.options.SuspectCutOff
		default:
			suspectTry++
		}

		if e.verticesLeft() < e.options.ErrorCutOff {
			return nil
		}

		if e.suspectCount()+e.badCount() != 0 {
			e.graphs[0].EvaluationQueue.Clear()
			e.graphs[1].EvaluationQueue.Clear()
			e.resetSuspects(e.graphs[0])
			e.resetSuspects(e.graphs[1])
			e.resetBad(e.graphs[0])
			e.resetBad(e.graphs[1])
		}

		if suspectTry >= e.options.SuspectCutOff {
			if !e.options.FindMatch || !e.assignMatch() {
				return nil
			}
			suspectTry = -1
		}
	}
}
