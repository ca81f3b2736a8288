package isomorph

// section is a maximal run of same-valued vertices extracted from a
// bucket's notUnique+overflow vertices
// of ambiguity (same value, same section size).
type section struct {
	value    uint32
	vertices []*Vertex
}

// extractSections drains b's notUnique and overflow sub-queues into one
// value-sorted slice and groups it into maximal equal-value runs.
func extractSections(b *Bucket) []section {
	all := append(b.notUnique.ToSlice(), b.overflow.ToSlice()...)
	b.notUnique.Clear()
	b.overflow.Clear()
	sortVertices(all)
	var sections []section
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].Value == all[i].Value {
			j++
		}
		sections = append(sections, section{value: all[i].Value, vertices: all[i:j]})
		i = j
	}
	return sections
}

// requeueSectionPending puts an equal-value, equal-size section back into
// its bucket's notUnique/overflow split, updating bookkeeping, the "keep
// both sections pending" branch for a tie.
func requeueSectionPending(b *Bucket, s section) {
	if len(s.vertices) == 0 {
		return
	}
	rep := s.vertices[0]
	rep.SectionSize = len(s.vertices)
	b.notUnique.PushBack(rep)
	for _, v := range s.vertices[1:] {
		b.overflow.PushBack(v)
	}
	if b.minPartSize == 0 || len(s.vertices) < b.minPartSize {
		b.minPartSize = len(s.vertices)
	}
}

func (g *Graph) queueFor(kind VertexKind) *Queue {
	if kind == Net {
		return &g.BadNets
	}
	return &g.BadDevices
}

// makeBad demotes v to BAD: value is zeroed, it is filed into its graph's
// bad queue, and the run's error counter advances, the "values differ"
// branch, as opposed to a tie.
func (e *Engine) makeBad(g *Graph, v *Vertex) {
	v.Flag = Bad
	v.Value = 0
	e.errorsCount++
	g.queueFor(v.Kind).PushBack(v)
}

// markSuspect demotes every vertex in vertices to SUSPECT.
func (e *Engine) markSuspect(g *Graph, vertices []*Vertex) {
	for _, v := range vertices {
		v.Flag = Suspect
		e.errorsCount++
		if v.Kind == Net {
			g.SuspectNets.PushBack(v)
		} else {
			g.SuspectDevices.PushBack(v)
		}
	}
}

// matchUniques pops g1.NewUniques and g2.NewUniques in lock-step, matching
// equal-valued heads, failing the lesser of unequal heads to BAD, and
// draining any tail once one queue empties rather than assuming equal lengths.
func (e *Engine) matchUniques(g1, g2 *Graph) {
	var matched1, matched2 Queue
	for {
		v1, v2 := g1.NewUniques.Peek(), g2.NewUniques.Peek()
		if v1 == nil && v2 == nil {
			g1.NewUniques.Append(&matched1)
			g2.NewUniques.Append(&matched2)
			return
		}
		if v1 == nil {
			g2.NewUniques.PopFront()
			e.makeBad(g2, v2)
			continue
		}
		if v2 == nil {
			g1.NewUniques.PopFront()
			e.makeBad(g1, v1)
			continue
		}
		switch {
		case v1.Value == v2.Value:
			g1.NewUniques.PopFront()
			g2.NewUniques.PopFront()
			e.matchPair(v1, v2)
			matched1.PushBack(v1)
			matched2.PushBack(v2)
		case v1.Value < v2.Value:
			g1.NewUniques.PopFront()
			e.makeBad(g1, v1)
		default:
			g2.NewUniques.PopFront()
			e.makeBad(g2, v2)
		}
	}
}

// matchPair assigns v1 and v2 a shared fresh unique value and cross-links
// their Match pointers, then invokes the local neighbor deducer when
// the pair's degree is small enough to make it worthwhile.
func (e *Engine) matchPair(v1, v2 *Vertex) {
	fresh := e.rng.next()
	v1.Value, v2.Value = fresh, fresh
	v1.Match, v2.Match = v2, v1
	if len(v1.Neighbors) < e.options.DeduceNeighbors {
		e.matchNeighbors(v1, v2)
	}
}

// matchSections compares bucket sums between the two graphs and, for any
// bucket whose sums disagree, pairs up same-value sections across graphs.
// Buckets whose sums already agree are skipped entirely, a pure
// bookkeeping optimization rather than a behavior change.
func (e *Engine) matchSections(g1, g2 *Graph) {
	size := g1.Hash.size
	for i := 0; i < size; i++ {
		b1, b2 := &g1.Hash.buckets[i], &g2.Hash.buckets[i]
		if b1.sum == b2.sum {
			continue
		}
		sections1 := extractSections(b1)
		sections2 := extractSections(b2)
		i1, i2 := 0, 0
		for i1 < len(sections1) && i2 < len(sections2) {
			s1, s2 := sections1[i1], sections2[i2]
			switch {
			case s1.value == s2.value && len(s1.vertices) == len(s2.vertices):
				requeueSectionPending(b1, s1)
				requeueSectionPending(b2, s2)
				i1++
				i2++
			case s1.value == s2.value:
				e.markSuspect(g1, s1.vertices)
				e.markSuspect(g2, s2.vertices)
				i1++
				i2++
			case s1.value < s2.value:
				e.markSuspect(g1, s1.vertices)
				i1++
			default:
				e.markSuspect(g2, s2.vertices)
				i2++
			}
		}
		for ; i1 < len(sections1); i1++ {
			e.markSuspect(g1, sections1[i1].vertices)
		}
		for ; i2 < len(sections2); i2++ {
			e.markSuspect(g2, sections2[i2].vertices)
		}
	}
}

// queueNeighbors seeds v's still-PENDING neighbors into their graph's
// evaluation queue for the next pass, deduplicating via the transient
// queued flag
func queueNeighbors(g *Graph, v *Vertex, pass int) {
	for _, n := range v.Neighbors {
		nb := n.Vertex
		if nb.Flag == Pending && !nb.queued {
			nb.queued = true
			nb.Pass = pass
			g.EvaluationQueue.PushBack(nb)
		}
	}
}

// processUniques drains g.NewUniques (after matchUniques/matchSections),
// finalizing every remaining vertex to UNIQUE, filing it into the graph's
// unique queue, and seeding its neighbors for the next pass. Returns the
// count of vertices newly made unique.
func (e *Engine) processUniques(g *Graph, pass int) int {
	count := 0
	for {
		v := g.NewUniques.PopFront()
		if v == nil {
			break
		}
		v.Flag = Unique
		e.matchedCount++
		count++
		if v.Kind == Net {
			g.UniqueNets.PushBack(v)
		} else {
			g.UniqueDevices.PushBack(v)
		}
		queueNeighbors(g, v, pass)
	}
	return count
}

// cleanPendingArray compacts g's pending array for kind down to vertices
// still flagged PENDING and returns them as the next evaluation queue,
// driven per pass-type rather than globally since each characterize step
// only ever processes one kind.
func cleanPendingArray(g *Graph, kind VertexKind) []*Vertex {
	var src *[]*Vertex
	if kind == Net {
		src = &g.PendingNets
	} else {
		src = &g.PendingDevices
	}
	kept := (*src)[:0]
	var queue []*Vertex
	for _, v := range *src {
		if v.Flag == Pending {
			kept = append(kept, v)
			queue = append(queue, v)
		}
	}
	*src = kept
	return queue
}
