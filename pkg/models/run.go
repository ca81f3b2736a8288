package models

import "time"

// DeviceMaster is one request-side declaration of a device master: a name
// and the pin labels that canonicalizeTerminals will collapse into terminal
// classes.
type DeviceMaster struct {
	Name string   `json:"name"`
	Pins []string `json:"pins"`
}

// DeviceInstance is one device vertex to add to a graph: which master it
// instantiates, an opaque tag carried through to the report, and the net
// name connected to each terminal in declaration order (empty string for an
// unconnected terminal).
type DeviceInstance struct {
	Master string `json:"master"`
	Tag    string `json:"tag,omitempty"`
	Nets   []string `json:"nets"`
}

// NetAliasGroup merges Aliases into Canonical within one graph.
type NetAliasGroup struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

// GraphInput is one side of a submitted comparison.
type GraphInput struct {
	Name          string           `json:"name"`
	DeviceMasters []DeviceMaster   `json:"deviceMasters"`
	Devices       []DeviceInstance `json:"devices"`
	NetAliases    []NetAliasGroup  `json:"netAliases,omitempty"`
}

// Equate names one net (or device tag) equivalence anchored across both
// graphs before matching starts.
type Equate struct {
	NameA string `json:"nameA"`
	NameB string `json:"nameB"`
}

// RunOptions mirrors isomorph.Options at the wire boundary; zero values fall
// back to isomorph.DefaultOptions() field-by-field where that distinction
// matters (see api.optionsFromRequest).
type RunOptions struct {
	IgnoreCase       bool `json:"ignoreCase"`
	UseSuffix        *bool `json:"useSuffix,omitempty"`
	FindMatch        *bool `json:"findMatch,omitempty"`
	DeduceNeighbors  *int  `json:"deduceNeighbors,omitempty"`
	ErrorCutOff      int   `json:"errorCutOff,omitempty"`
	SuspectCutOff    int   `json:"suspectCutOff,omitempty"`
	NoProgressCutOff *int  `json:"noProgressCutOff,omitempty"`
}

// RunRequest is the POST /runs request body.
type RunRequest struct {
	Graph1  GraphInput   `json:"graph1"`
	Graph2  GraphInput   `json:"graph2"`
	Equates []Equate     `json:"equates,omitempty"`
	Options RunOptions   `json:"options"`
}

// RunStatus is the lifecycle state of a submitted run.
type RunStatus string

const (
	RunQueued  RunStatus = "queued"
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

// VertexPair names one matched vertex by its name (or tag) on each side.
type VertexPair struct {
	Graph1 string `json:"graph1"`
	Graph2 string `json:"graph2"`
}

// RunReport is the persisted/returned outcome of one run, a wire-shaped
// mirror of isomorph.Result plus the run's own bookkeeping.
type RunReport struct {
	RunID  string    `json:"runId"`
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	Graph1Name string `json:"graph1Name"`
	Graph2Name string `json:"graph2Name"`

	Matched bool `json:"matched,omitempty"`

	NetPairs    []VertexPair `json:"netPairs,omitempty"`
	DevicePairs []VertexPair `json:"devicePairs,omitempty"`

	BadNets    [2][]string `json:"badNets,omitempty"`
	BadDevices [2][]string `json:"badDevices,omitempty"`

	SuspectNets    [2][]string `json:"suspectNets,omitempty"`
	SuspectDevices [2][]string `json:"suspectDevices,omitempty"`

	UnresolvedNets    [2]int `json:"unresolvedNets,omitempty"`
	UnresolvedDevices [2]int `json:"unresolvedDevices,omitempty"`

	MatchedCount  int `json:"matchedCount,omitempty"`
	ForcedMatches int `json:"forcedMatches,omitempty"`
	Passes        int `json:"passes,omitempty"`

	SubmittedAt time.Time `json:"submittedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// RunEvent is one Progress/Warning/Status event relayed over a run's
// websocket topic and persisted for audit.
type RunEvent struct {
	RunID     string    `json:"runId"`
	Seq       int       `json:"seq"`
	Kind      string    `json:"kind"` // "progress" | "warning" | "status"
	Message   string    `json:"message"`
	Category  string    `json:"category,omitempty"`
	EmittedAt time.Time `json:"emittedAt"`
}
