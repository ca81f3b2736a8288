package api

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/rawblock/isocompare/internal/isomorph"
	"github.com/rawblock/isocompare/internal/store"
	"github.com/rawblock/isocompare/pkg/models"
)

// runSink adapts one run's isomorph.EventSink calls to the run's websocket
// topic and, when a store is configured, to its audit log, the concrete
// implementation of the "host wires EventSink to however it wants events
// observed" contract this host implements.
type runSink struct {
	runID string
	hub   *Hub
	db    *store.PostgresStore

	mu  sync.Mutex
	seq int
}

func newRunSink(runID string, hub *Hub, db *store.PostgresStore) *runSink {
	return &runSink{runID: runID, hub: hub, db: db}
}

func categoryName(c isomorph.StatusCategory) string {
	switch c {
	case isomorph.StatusMatch:
		return "match"
	case isomorph.StatusBad:
		return "bad"
	case isomorph.StatusNoMatchOther:
		return "suspect"
	case isomorph.StatusNoMatchSymmetry:
		return "no_match"
	default:
		return "general"
	}
}

func (s *runSink) emit(kind, category, message string) {
	s.mu.Lock()
	s.seq++
	ev := models.RunEvent{
		RunID:     s.runID,
		Seq:       s.seq,
		Kind:      kind,
		Category:  category,
		Message:   message,
		EmittedAt: time.Now(),
	}
	s.mu.Unlock()

	if body, err := json.Marshal(ev); err == nil {
		s.hub.Broadcast(s.runID, body)
	}
	if s.db != nil {
		if err := s.db.SaveEvent(context.Background(), ev); err != nil {
			log.Printf("run %s: failed to persist event: %v", s.runID, err)
		}
	}
}

func (s *runSink) Progress(message string) { s.emit("progress", "", message) }
func (s *runSink) Warning(message string)  { s.emit("warning", "", message) }
func (s *runSink) Status(_ isomorph.VertexKind, category isomorph.StatusCategory, _ int, message string, _ []isomorph.VertexTag) {
	s.emit("status", categoryName(category), message)
}
