package isomorph

// computeValue recomputes a vertex's color from its current neighbor values:
// a DEVICE sums net neighbor values weighted by primeFactor(terminal class);
// a NET sums device neighbor values weighted by primeFactor2(terminal
// class). The nil-neighbor guard is defensive: pruning happens before the
// graph is built, so a nil entry should never occur in practice.
func computeValue(v *Vertex) uint32 {
	sum := v.Value
	if v.Kind == Device {
		for _, n := range v.Neighbors {
			if n.Vertex == nil {
				continue
			}
			sum += n.Vertex.Value * primeFactor(n.Class)
		}
	} else {
		for _, n := range v.Neighbors {
			if n.Vertex == nil {
				continue
			}
			sum += n.Vertex.Value * primeFactor2(n.Class)
		}
	}
	return sum
}

// assignInitialValue seeds v's starting color: an equivalence-table hit
// wins outright (and flags the vertex MATCHING); otherwise random1/random2
// seed DEVICE/NET respectively
func (e *Engine) assignInitialValue(graphID int, v *Vertex) {
	if tag, ok := e.findEquate(graphID, v.equivalenceKey()); ok {
		v.Value = tag
		v.Flag = Matching
		return
	}
	if v.Kind == Device {
		v.Value = random1(uint32(v.DeviceDef + 1))
	} else {
		v.Value = random2(uint32(len(v.Neighbors)))
	}
}

// equivalenceKey is the name an equivalence lookup is keyed on: the net's
// own name for NET vertices. DEVICE vertices are tagged "*" internally so
// they are keyed by their user tag's string form when it is a string,
// otherwise they simply never hit the equivalence table, DefineEquate only
// ever makes sense against net names in practice even though the table is
// technically name-keyed for either kind.
func (v *Vertex) equivalenceKey() string {
	if v.Kind == Net {
		return v.Name
	}
	if s, ok := v.UserTag.(string); ok {
		return s
	}
	return ""
}

// initialDeviceValues seeds every device vertex's value. An equivalence hit
// forces the flag back to PENDING immediately afterward: devices, unlike
// nets, are never fast-queued via the MATCHING path (the equivalence-anchor
// fast path only applies to nets).
func (e *Engine) initialDeviceValues(graphID int, g *Graph) {
	for _, v := range g.Devices {
		e.assignInitialValue(graphID, v)
		if v.Flag == Matching {
			v.Flag = Pending
		}
	}
}

// initialNetValues seeds every net vertex's value. Equivalence-matched nets
// are queued directly into the evaluation queue at pass 0, bypassing the
// normal refinement entry path
func (e *Engine) initialNetValues(graphID int, g *Graph) {
	for _, v := range g.Nets {
		e.assignInitialValue(graphID, v)
		if v.Flag == Matching {
			v.Pass = 0
			g.EvaluationQueue.PushBack(v)
		}
	}
}

// enterHash inserts v into ht, tracking uniqueness per value within the
// vertex's bucket
func enterHash(ht *HashTable, g *Graph, v *Vertex) {
	bucketIndex := int(v.Value % uint32(ht.size))
	b := &ht.buckets[bucketIndex]

	// 1. Already a known duplicate value in this bucket -> overflow.
	var rep *Vertex
	b.notUnique.ForEach(func(u *Vertex) {
		if rep == nil && u.Value == v.Value {
			rep = u
		}
	})
	if rep != nil {
		b.overflow.PushBack(v)
		rep.SectionSize++
		b.sum += v.Value
		g.CheckSum += v.Value
		return
	}

	// 2. Scan the unique sub-queue for a collision.
	var collide *Vertex
	prevUnique := b.unique.ToSlice()
	for _, u := range prevUnique {
		if u.Value == v.Value {
			collide = u
			break
		}
	}
	if collide == nil {
		b.unique.PushBack(v)
		return
	}

	// Promote the colliding pair: the earlier vertex moves from unique to
	// notUnique, the new one goes to overflow.
	removeFromQueue(&b.unique, collide)
	b.notUnique.PushBack(collide)
	b.overflow.PushBack(v)
	collide.SectionSize = 2
	b.sum += 2 * v.Value
	g.CheckSum += 2 * v.Value
}

// removeFromQueue splices target out of q, preserving order of the rest.
// Queues are small per bucket in practice; this is a straightforward O(n)
// rebuild rather than a doubly-linked splice, keeping Queue singly-linked.
func removeFromQueue(q *Queue, target *Vertex) {
	items := q.ToSlice()
	q.Clear()
	for _, v := range items {
		if v != target {
			q.PushBack(v)
		}
	}
}

// appendUniques concatenates every bucket's unique sub-queue onto
// g.NewUniques, then sorts it
func appendUniques(ht *HashTable, g *Graph) {
	for i := range ht.buckets {
		g.NewUniques.Append(&ht.buckets[i].unique)
	}
	g.NewUniques.Sort()
}
