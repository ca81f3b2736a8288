package isomorph

import "strconv"

// Options tunes the refinement driver, grounded on the reference tool's
// documented option defaults.
type Options struct {
	// IgnoreCase folds net and device-master names before comparison.
	IgnoreCase bool
	// Trace is stored with the options but not read by the engine; it
	// emits no per-pass Progress events.
	Trace bool
	// Verbose is stored with the options but not read by the engine;
	// ingestion emits no additional Progress events for it.
	Verbose bool
	// PrintZeroNets emits a Progress event for every zero-connection net
	// pruned out of a graph at build time.
	PrintZeroNets bool
	// UseSuffix enables the name-suffix heuristic (MatchBySuffix) as a
	// tie-breaker inside the force-match fallback.
	UseSuffix bool
	// NoOpt disables the evaluation-queue reuse optimization, forcing a full
	// pending-array recompute every pass. Useful for isolating correctness
	// from performance when debugging a mismatch.
	NoOpt bool
	// DeduceNeighbors caps the degree below which a freshly matched pair
	// triggers the local neighbor deducer; above it, the cost of building the
	// probe hash table outweighs the benefit. Clamped to deduceHTSize.
	DeduceNeighbors int
	// ErrorCutOff stops the run early, accepting whatever is resolved so
	// far, once the number of vertices still pending (on either graph, the
	// two move in lockstep) drops below this value. 0 never stops the run
	// this way, since the pending count can't go negative.
	ErrorCutOff int
	// SuspectCutOff is the number of consecutive stalled distill cycles
	// (cycles that made no further refinement progress) the driver waits
	// before forcing a guessed match, rather than continuing to hope
	// redemption and refinement alone resolve the rest. 0 forces a match
	// attempt on every stall.
	SuspectCutOff int
	// NoProgressCutOff is the number of consecutive zero-progress refinement
	// passes the driver tolerates before handing off to the force-match
	// fallback.
	NoProgressCutOff int
	// FindMatch enables the force-match fallback entirely; when false, a run
	// that stalls with pending vertices remaining reports them unresolved
	// rather than guessing.
	FindMatch bool
	// NetPrintLimit is stored with the options but not read by the engine:
	// reportStatus emits one Status event per vertex, and no event
	// summarizes net names as a count.
	NetPrintLimit int
}

// DefaultOptions mirrors the reference defaults.
func DefaultOptions() Options {
	return Options{
		UseSuffix:        true,
		DeduceNeighbors:  31,
		NoProgressCutOff: 2,
		FindMatch:        true,
		NetPrintLimit:    10,
	}
}

// Engine holds all state for one comparison run: registered device masters,
// per-graph ingestion scratch state, equivalence tables, the shared PRNG, and
// (once built) the two dense Graphs the refinement driver operates on.
//
// Every piece of mutable state lives on the Engine, not a package global, so
// that multiple comparisons can run concurrently without sharing memory
// across engines.
type Engine struct {
	options Options
	sink    EventSink
	rng     *rng

	deviceDefs []DeviceDefinition

	graphIngests [2]*graphIngest
	equivalence  [2]map[string]*equateEntry
	graphNames   [2]string

	graphs [2]*Graph

	pass          int
	matchedCount  int
	errorsCount   int
	forcedMatches int
	built         bool
	executed      bool

	neighborProbe *probeTable
}

// NewEngine constructs an Engine ready to accept device masters, nets, and
// devices for both graphs. sink receives Progress/Warning/Status events; pass
// NullSink{} to discard them. seed drives the deterministic PRNG used for
// initial values, equivalence anchors, and fresh unique-value assignment:
// the same seed against the same ingestion sequence always produces the
// same Result.
func NewEngine(sink EventSink, seed uint32) *Engine {
	if sink == nil {
		sink = NullSink{}
	}
	return &Engine{
		options: DefaultOptions(),
		sink:    sink,
		rng:     newRNG(seed),
		graphIngests: [2]*graphIngest{
			newGraphIngest(),
			newGraphIngest(),
		},
		equivalence: [2]map[string]*equateEntry{
			make(map[string]*equateEntry),
			make(map[string]*equateEntry),
		},
	}
}

// SetOptions replaces the engine's tuning parameters wholesale. Must be
// called, if at all, before Execute.
func (e *Engine) SetOptions(o Options) error {
	if e.built {
		return newError(ErrConfiguration, "options cannot change after the graphs are built")
	}
	if o.DeduceNeighbors > deduceHTSize {
		e.sink.Warning("deduce neighbors " + strconv.Itoa(o.DeduceNeighbors) +
			" exceeds " + strconv.Itoa(deduceHTSize) + ", clamped")
		o.DeduceNeighbors = deduceHTSize
	}
	e.options = o
	return nil
}

// SetGraphName records a display name for one side (graphID 0 or 1).
func (e *Engine) SetGraphName(graphID int, name string) error {
	if graphID != 0 && graphID != 1 {
		return newError(ErrConfiguration, "graph id must be 0 or 1, got %d", graphID)
	}
	e.graphNames[graphID] = name
	return nil
}

// GraphName returns the display name previously set for graphID, or "" if
// none was set.
func (e *Engine) GraphName(graphID int) string {
	if graphID != 0 && graphID != 1 {
		return ""
	}
	return e.graphNames[graphID]
}

func (e *Engine) graphIngestFor(graphID int) (*graphIngest, error) {
	if graphID != 0 && graphID != 1 {
		return nil, newError(ErrConfiguration, "graph id must be 0 or 1, got %d", graphID)
	}
	return e.graphIngests[graphID], nil
}

// DefineDeviceVertex registers one device instance on graphID: masterName
// must already be registered via DefineDeviceMaster, netNames names the net
// attached to each terminal in declaration order, and userTag is carried
// through untouched to Status events and the final Result for this instance.
func (e *Engine) DefineDeviceVertex(graphID int, masterName string, userTag any, netNames []string) error {
	gi, err := e.graphIngestFor(graphID)
	if err != nil {
		return err
	}
	defIndex, ok := e.findDeviceDef(masterName)
	if !ok {
		return newError(ErrIngestion, "device master %q is not registered", masterName)
	}
	def := e.deviceDefs[defIndex]
	if len(netNames) != len(def.Terminals) {
		return newError(ErrIngestion,
			"device instance of %q connects %d nets, master declares %d terminals",
			masterName, len(netNames), len(def.Terminals))
	}

	deviceIndex := len(gi.devices)
	conns := make([]*ingestNet, len(netNames))
	for i, name := range netNames {
		if name == "" {
			continue // unconnected terminal
		}
		key := e.netKey(name)
		n := gi.findOrAllocNet(key, name)
		n.connections = append(n.connections, ingestConnection{
			deviceIndex: deviceIndex,
			terminal:    i,
			class:       def.Terminals[i],
		})
		conns[i] = n
	}

	gi.devices = append(gi.devices, &ingestDevice{
		defIndex:    defIndex,
		userTag:     userTag,
		connections: conns,
	})
	return nil
}

func calcHashSize(n int) int {
	size := n/hashRatio + 1
	if size < minNumBuckets {
		size = minNumBuckets
	}
	if size > maxNumBuckets {
		size = maxNumBuckets
	}
	return size
}
