package isomorph

// StatusCategory classifies a Status event.
type StatusCategory int

const (
	StatusGeneral StatusCategory = iota
	StatusMatch
	StatusBad
	StatusNoMatchOther
	StatusNoMatchSymmetry
)

// VertexTag is what a Status event reports for one vertex: the opaque
// caller-supplied tag for DEVICE vertices, the net name for NET vertices.
type VertexTag struct {
	Kind VertexKind
	Name string
	Tag  any
}

// EventSink receives the three event categories the engine emits: no IPC
// bridge is built in, a host wires this interface to however it wants
// events observed (e.g. a websocket hub).
type EventSink interface {
	Progress(message string)
	Warning(message string)
	Status(vertexType VertexKind, category StatusCategory, graphIndex int, message string, tags []VertexTag)
}

// NullSink discards every event; useful as a default and in tests that don't
// care about the event stream.
type NullSink struct{}

func (NullSink) Progress(string)                                                 {}
func (NullSink) Warning(string)                                                  {}
func (NullSink) Status(VertexKind, StatusCategory, int, string, []VertexTag) {}

// CollectingSink accumulates every event it receives, in order, for tests
// that need to assert on the exact event sequence (the
// Determinism property).
type CollectingSink struct {
	Progress_ []string
	Warnings  []string
	Statuses  []StatusEvent
}

type StatusEvent struct {
	VertexType VertexKind
	Category   StatusCategory
	GraphIndex int
	Message    string
	Tags       []VertexTag
}

func (s *CollectingSink) Progress(message string) { s.Progress_ = append(s.Progress_, message) }
func (s *CollectingSink) Warning(message string)   { s.Warnings = append(s.Warnings, message) }
func (s *CollectingSink) Status(vertexType VertexKind, category StatusCategory, graphIndex int, message string, tags []VertexTag) {
	s.Statuses = append(s.Statuses, StatusEvent{vertexType, category, graphIndex, message, tags})
}
