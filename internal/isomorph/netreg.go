package isomorph

// ingestConnection is one (device, terminal, class) edge recorded against a
// net while ingestion is still in progress, before the graph builder
// materializes dense Vertex neighbor lists.
type ingestConnection struct {
	deviceIndex int
	terminal    int
	class       int
}

// ingestNet is the ingestion-time form of a net, with alias-forwarding
// machinery attached. index == -1 means the net has been aliased away;
// equalNet then points at its forwarding target. The chain is deliberately
// left uncompressed, relying on chains staying short rather than "fixing"
// it with path compression.
type ingestNet struct {
	name        string
	index       int
	connections []ingestConnection
	equalNet    *ingestNet
	orderSeq    int // preserves insertion order for graph build
}

// graphIngest is the per-graph scratch state used only during ingestion. It
// is discarded once the graph builder produces the dense Graph.
type graphIngest struct {
	nets      map[string]*ingestNet // case-sensitive key if !IgnoreCase
	netsOrder []*ingestNet          // insertion-order sequence, append-only
	devices   []*ingestDevice
	netIndex  int
}

type ingestDevice struct {
	defIndex    int
	userTag     any
	connections []*ingestNet // one per terminal, in pin order
}

func newGraphIngest() *graphIngest {
	return &graphIngest{nets: make(map[string]*ingestNet)}
}

// netKey folds case per the engine's IgnoreCase option, so that case
// sensitivity is decided once at key-normalization time rather than
// requiring two separate hash/compare paths through the rest of ingestion.
func (e *Engine) netKey(name string) string {
	if !e.options.IgnoreCase {
		return name
	}
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// findOrAllocNet resolves name to its ingestNet, allocating a fresh one if
// this is the first reference, and walking any alias forwarding chain to the
// live net
func (gi *graphIngest) findOrAllocNet(key, name string) *ingestNet {
	n, ok := gi.nets[key]
	if !ok {
		n = &ingestNet{name: name, index: gi.netIndex, orderSeq: len(gi.netsOrder)}
		gi.netIndex++
		gi.nets[key] = n
		gi.netsOrder = append(gi.netsOrder, n)
	}
	return realNet(n)
}

// realNet walks the (uncompressed) alias-forwarding chain to the live net.
func realNet(n *ingestNet) *ingestNet {
	for n.index == -1 {
		n = n.equalNet
	}
	return n
}

// equateNets merges net2 into net1 (or vice versa, subject to alias
// preference), concatenating connection lists onto the surviving net and
// compacting indices so they stay dense
func (e *Engine) equateNets(gi *graphIngest, graphID int, net1, net2 *ingestNet) {
	net1, net2 = realNet(net1), realNet(net2)
	if net1 == net2 {
		return
	}

	// Alias preference: whichever endpoint's name is anchored in this
	// graph's equivalence table becomes canonical.
	if e.equivalenceHasName(graphID, net2.name) && !e.equivalenceHasName(graphID, net1.name) {
		net1, net2 = net2, net1
	}

	net1.connections = append(net1.connections, net2.connections...)
	net2.connections = nil
	removedIndex := net2.index
	net2.equalNet = net1
	net2.index = -1

	gi.popUpIndex(removedIndex)
}

// popUpIndex decrements the index of every net whose index exceeds the
// removed one, keeping the live index space dense after an alias merge.
func (gi *graphIngest) popUpIndex(removedIndex int) {
	for _, n := range gi.netsOrder {
		if n.index > removedIndex {
			n.index--
		}
	}
	gi.netIndex--
}

// DefineNetAlias merges the named aliases into canonical within one graph.
func (e *Engine) DefineNetAlias(graphID int, canonical string, aliases []string) error {
	gi, err := e.graphIngestFor(graphID)
	if err != nil {
		return err
	}
	canonKey := e.netKey(canonical)
	canonNet := gi.findOrAllocNet(canonKey, canonical)
	for _, alias := range aliases {
		aliasKey := e.netKey(alias)
		aliasNet := gi.findOrAllocNet(aliasKey, alias)
		e.equateNets(gi, graphID, canonNet, aliasNet)
		canonNet = realNet(canonNet)
	}
	return nil
}
