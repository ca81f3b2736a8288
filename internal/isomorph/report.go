package isomorph

// VertexPair names one matched vertex by its name (or tag, for devices) on
// each side of the comparison.
type VertexPair struct {
	Graph1 string `json:"graph1"`
	Graph2 string `json:"graph2"`
}

// Result is the outcome of one Execute call: which vertices matched, and
// which didn't, on each side. A non-empty set of bad or suspect vertices, or
// any unresolved pending count, means the two graphs are not isomorphic (or
// the run gave up trying to prove they are), the engine itself never
// returns an error for that; a mismatch is a normal, successful comparison,
// only reported through Result and Status events by design.
type Result struct {
	Matched bool `json:"matched"`

	NetPairs    []VertexPair `json:"netPairs"`
	DevicePairs []VertexPair `json:"devicePairs"`

	BadNets    [2][]string `json:"badNets"`
	BadDevices [2][]string `json:"badDevices"`

	SuspectNets    [2][]string `json:"suspectNets"`
	SuspectDevices [2][]string `json:"suspectDevices"`

	UnresolvedNets    [2]int `json:"unresolvedNets"`
	UnresolvedDevices [2]int `json:"unresolvedDevices"`

	MatchedCount  int `json:"matchedCount"`
	ForcedMatches int `json:"forcedMatches"`
	Passes        int `json:"passes"`
}

func deviceLabel(v *Vertex) string {
	if s, ok := v.UserTag.(string); ok && s != "" {
		return s
	}
	return v.Name
}

// reportStatus walks both graphs' terminal queues in the fixed order BAD,
// SUSPECT, remaining PENDING, UNIQUE, for NET then DEVICE, emitting one
// Status event per vertex and assembling the final Result. Failures are
// reported before successes so a log reader sees the worst news first.
func (e *Engine) reportStatus() Result {
	var res Result
	res.Passes = e.pass
	res.MatchedCount = e.matchedCount
	res.ForcedMatches = e.forcedMatches

	for graphIndex, g := range e.graphs {
		// BAD
		g.BadNets.ForEach(func(v *Vertex) {
			res.BadNets[graphIndex] = append(res.BadNets[graphIndex], v.Name)
			e.sink.Status(Net, StatusBad, graphIndex, v.Name, []VertexTag{{Kind: Net, Name: v.Name}})
		})
		g.BadDevices.ForEach(func(v *Vertex) {
			label := deviceLabel(v)
			res.BadDevices[graphIndex] = append(res.BadDevices[graphIndex], label)
			e.sink.Status(Device, StatusBad, graphIndex, label, []VertexTag{{Kind: Device, Name: label, Tag: v.UserTag}})
		})

		// SUSPECT
		g.SuspectNets.ForEach(func(v *Vertex) {
			res.SuspectNets[graphIndex] = append(res.SuspectNets[graphIndex], v.Name)
			e.sink.Status(Net, StatusNoMatchOther, graphIndex, v.Name, []VertexTag{{Kind: Net, Name: v.Name}})
		})
		g.SuspectDevices.ForEach(func(v *Vertex) {
			label := deviceLabel(v)
			res.SuspectDevices[graphIndex] = append(res.SuspectDevices[graphIndex], label)
			e.sink.Status(Device, StatusNoMatchOther, graphIndex, label, []VertexTag{{Kind: Device, Name: label, Tag: v.UserTag}})
		})

		// Remaining PENDING: never reached a UNIQUE/SUSPECT/BAD verdict at
		// all, distillSections stalled with FindMatch disabled, or the
		// cutoff tripped first. Reported one Status event per vertex, same
		// as BAD and SUSPECT above, rather than only rolled into a count.
		for _, v := range pendingOf(g, Net) {
			res.UnresolvedNets[graphIndex]++
			e.sink.Status(Net, StatusNoMatchSymmetry, graphIndex, v.Name, []VertexTag{{Kind: Net, Name: v.Name}})
		}
		for _, v := range pendingOf(g, Device) {
			label := deviceLabel(v)
			res.UnresolvedDevices[graphIndex]++
			e.sink.Status(Device, StatusNoMatchSymmetry, graphIndex, label, []VertexTag{{Kind: Device, Name: label, Tag: v.UserTag}})
		}
	}

	// UNIQUE: report matched pairs once, from graph 1's perspective.
	e.graphs[0].UniqueNets.ForEach(func(v *Vertex) {
		if v.Match == nil {
			return
		}
		res.NetPairs = append(res.NetPairs, VertexPair{Graph1: v.Name, Graph2: v.Match.Name})
		e.sink.Status(Net, StatusMatch, 0, v.Name, []VertexTag{
			{Kind: Net, Name: v.Name},
			{Kind: Net, Name: v.Match.Name},
		})
	})
	e.graphs[0].UniqueDevices.ForEach(func(v *Vertex) {
		if v.Match == nil {
			return
		}
		l1, l2 := deviceLabel(v), deviceLabel(v.Match)
		res.DevicePairs = append(res.DevicePairs, VertexPair{Graph1: l1, Graph2: l2})
		e.sink.Status(Device, StatusMatch, 0, l1, []VertexTag{
			{Kind: Device, Name: l1, Tag: v.UserTag},
			{Kind: Device, Name: l2, Tag: v.Match.UserTag},
		})
	})

	res.Matched = len(res.BadNets[0]) == 0 && len(res.BadNets[1]) == 0 &&
		len(res.BadDevices[0]) == 0 && len(res.BadDevices[1]) == 0 &&
		len(res.SuspectNets[0]) == 0 && len(res.SuspectNets[1]) == 0 &&
		len(res.SuspectDevices[0]) == 0 && len(res.SuspectDevices[1]) == 0 &&
		res.UnresolvedNets[0] == 0 && res.UnresolvedNets[1] == 0 &&
		res.UnresolvedDevices[0] == 0 && res.UnresolvedDevices[1] == 0

	return res
}

// Execute builds both graphs from their ingested state, seeds initial
// values, runs the refinement driver to a stable outcome, and reports the
// result. It may be called exactly once per Engine; build a new Engine for
// another comparison.
func (e *Engine) Execute() (Result, error) {
	if e.executed {
		return Result{}, newError(ErrConfiguration, "Execute already called on this engine")
	}
	if len(e.deviceDefs) == 0 {
		return Result{}, newError(ErrConfiguration, "no device masters registered")
	}

	g1, err := e.buildGraph(0, 1)
	if err != nil {
		return Result{}, err
	}
	g2, err := e.buildGraph(1, 2)
	if err != nil {
		return Result{}, err
	}
	e.graphs = [2]*Graph{g1, g2}
	e.built = true

	e.initialDeviceValues(0, g1)
	e.initialDeviceValues(1, g2)
	e.initialNetValues(0, g1)
	e.initialNetValues(1, g2)

	if err := e.matchTheGraphs(); err != nil {
		return Result{}, err
	}

	if err := g1.CheckInvariants(); err != nil {
		return Result{}, err
	}
	if err := g2.CheckInvariants(); err != nil {
		return Result{}, err
	}

	e.checkEquates()
	e.executed = true
	return e.reportStatus(), nil
}
