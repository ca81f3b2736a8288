package isomorph

import "fmt"

// Bucket groups vertices that currently hash to the same slot, split into
// three sub-queues:
//   - unique:     vertices whose value has been seen exactly once so far
//   - notUnique:  representatives of values seen two or more times
//   - overflow:   the 2nd-and-later vertex for each not-unique value
type Bucket struct {
	sum         uint32
	minPartSize int
	unique      Queue
	notUnique   Queue
	overflow    Queue
}

// HashTable is the per-pass bucket table shared (by size) across both
// graphs, so bucket index i in graph1 corresponds to bucket index i in
// graph2
type HashTable struct {
	buckets []Bucket
	size    int
}

func newHashTable(size int) *HashTable {
	if size < minNumBuckets {
		size = minNumBuckets
	}
	return &HashTable{buckets: make([]Bucket, size), size: size}
}

const (
	hashRatio     = 4
	minNumBuckets = 1
	maxNumBuckets = 10000000
	deduceHTSize  = 310
)

// Graph is the post-ingestion, post-build side of a comparison: dense vertex
// vectors plus the queues and hash table the refinement driver operates on.
type Graph struct {
	Name   string
	Number int // 1 or 2

	Devices []*Vertex
	Nets    []*Vertex

	PendingDevices []*Vertex
	PendingNets    []*Vertex

	NewUniques      Queue
	EvaluationQueue Queue

	UniqueNets, UniqueDevices   Queue
	SuspectNets, SuspectDevices Queue
	BadNets, BadDevices         Queue

	Hash     *HashTable
	CheckSum uint32

	LastUniquePass int
}

func newGraph(number int, name string) *Graph {
	return &Graph{Number: number, Name: name, LastUniquePass: 0}
}

// NumNets / NumDevices report the live vertex counts for invariant checks
// (per-graph conservation identities).
func (g *Graph) NumNets() int   { return len(g.Nets) }
func (g *Graph) NumDevices() int { return len(g.Devices) }

// CheckInvariants verifies the per-graph conservation identities.
func (g *Graph) CheckInvariants() error {
	nets := countPending(g, Net) + g.SuspectNets.Size() + g.BadNets.Size() + g.UniqueNets.Size()
	if nets != g.NumNets() {
		return newError(ErrInternal, "graph %d: net accounting mismatch: %d tracked vs %d total", g.Number, nets, g.NumNets())
	}
	devices := countPending(g, Device) + g.SuspectDevices.Size() + g.BadDevices.Size() + g.UniqueDevices.Size()
	if devices != g.NumDevices() {
		return newError(ErrInternal, "graph %d: device accounting mismatch: %d tracked vs %d total", g.Number, devices, g.NumDevices())
	}
	return nil
}

// buildGraph materializes the dense Devices/Nets vectors from ingestion
// scratch state, wires neighbor lists, and prunes zero-connection nets.
func (e *Engine) buildGraph(graphID int, number int) (*Graph, error) {
	gi := e.graphIngests[graphID]
	g := newGraph(number, e.graphNames[graphID])

	// Devices always get the literal tag name "*" for NET-side neighbor
	// class bookkeeping; device identity for reporting comes from UserTag,
	// not Name.
	g.Devices = make([]*Vertex, len(gi.devices))
	for i, d := range gi.devices {
		v := &Vertex{
			Kind:        Device,
			Name:        "*",
			Pass:        pendingStartPass,
			Flag:        Pending,
			DeviceDef:   d.defIndex,
			UserTag:     d.userTag,
			graphNumber: number,
			index:       i,
		}
		g.Devices[i] = v
	}

	// Walk nets in ingestion order, skip aliased nets (already removed from
	// the index space) and zero-connection nets (pruned with a progress
	// event).
	for _, n := range gi.netsOrder {
		if n.index == -1 {
			e.sink.Progress("Aliased net: " + n.name)
			continue
		}
		if len(n.connections) == 0 {
			if e.options.PrintZeroNets {
				e.sink.Progress("Dropping zero-connection net: " + n.name)
			}
			continue
		}
		v := &Vertex{
			Kind:        Net,
			Name:        n.name,
			Pass:        pendingStartPass,
			Flag:        Pending,
			graphNumber: number,
		}
		g.Nets = append(g.Nets, v)
	}
	for i, v := range g.Nets {
		v.index = i
	}

	// Wire neighbor lists: each device connection names a net by index into
	// gi.netsOrder's *live* (non-aliased) net; resolve via the ingestNet
	// pointer directly since graphIngest already carries the resolved net.
	netByPtr := make(map[*ingestNet]*Vertex, len(g.Nets))
	idx := 0
	for _, n := range gi.netsOrder {
		if n.index == -1 || len(n.connections) == 0 {
			continue
		}
		netByPtr[n] = g.Nets[idx]
		idx++
	}

	for di, d := range gi.devices {
		dv := g.Devices[di]
		def := e.deviceDefs[d.defIndex]
		for ti, n := range d.connections {
			if n == nil {
				continue
			}
			live := realNet(n)
			nv, ok := netByPtr[live]
			if !ok {
				continue // pruned zero-connection net should never be referenced, but guard anyway
			}
			class := def.Terminals[ti]
			dv.Neighbors = append(dv.Neighbors, Neighbor{Vertex: nv, Class: class})
			nv.Neighbors = append(nv.Neighbors, Neighbor{Vertex: dv, Class: class})
		}
	}

	e.sink.Progress(fmt.Sprintf("Devices count: %d", len(g.Devices)))
	e.sink.Progress(fmt.Sprintf("Nets count: %d", len(g.Nets)))

	g.PendingDevices = append([]*Vertex(nil), g.Devices...)
	g.PendingNets = append([]*Vertex(nil), g.Nets...)

	return g, nil
}
