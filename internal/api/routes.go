package api

import (
	"context"
	"encoding/binary"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rawblock/isocompare/internal/isomorph"
	"github.com/rawblock/isocompare/internal/store"
	"github.com/rawblock/isocompare/pkg/models"
)

// APIHandler wires the comparison host's REST surface to a run's event sink,
// an optional audit store, and the in-memory registry every run's current
// state lives in regardless of whether a store is configured.
type APIHandler struct {
	db    *store.PostgresStore
	wsHub *Hub

	mu   sync.RWMutex
	runs map[string]*models.RunReport
}

// SetupRouter splits routes into a public group and an AuthMiddleware-gated
// protected group, with per-IP rate limiting on the endpoint that does the
// expensive work.
func SetupRouter(db *store.PostgresStore, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		db:    db,
		wsHub: wsHub,
		runs:  make(map[string]*models.RunReport),
	}

	pub := r.Group("/api/v1")
	{
		pub.GET("/healthz", handler.handleHealth)
		pub.GET("/runs", handler.handleListRuns)
		pub.GET("/runs/:id", handler.handleGetRun)
		pub.GET("/runs/:id/stream", wsHub.Subscribe)
	}

	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.POST("/runs", handler.handleCreateRun)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"engine":      "isocompare",
		"dbConnected": h.db != nil,
	})
}

// handleCreateRun validates the submitted graph pair, assigns a UUID,
// persists the queued row (if a store is configured), and launches the
// comparison in a goroutine so the HTTP response doesn't block on it.
func (h *APIHandler) handleCreateRun(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Graph1.DeviceMasters) == 0 && len(req.Graph2.DeviceMasters) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one device master must be declared"})
		return
	}

	runID := uuid.New()
	now := time.Now()
	report := &models.RunReport{
		RunID:       runID.String(),
		Status:      models.RunQueued,
		Graph1Name:  req.Graph1.Name,
		Graph2Name:  req.Graph2.Name,
		SubmittedAt: now,
	}

	h.mu.Lock()
	h.runs[report.RunID] = report
	h.mu.Unlock()

	if h.db != nil {
		if err := h.db.CreateRun(context.Background(), *report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist run", "details": err.Error()})
			return
		}
	}

	go h.execute(runID, req)

	c.JSON(http.StatusAccepted, gin.H{"runId": report.RunID, "status": report.Status})
}

// execute runs the engine to completion and files the final report. It owns
// no locks across isomorph.Engine.Execute, that call can run for a while on
// a large netlist pair, and nothing else in the handler needs h.mu held
// during it.
func (h *APIHandler) execute(runID uuid.UUID, req models.RunRequest) {
	h.setStatus(runID.String(), models.RunRunning, nil)

	sink := newRunSink(runID.String(), h.wsHub, h.db)
	eng, err := buildEngine(runID, req, sink)
	if err != nil {
		h.fail(runID.String(), req, err)
		return
	}

	result, err := eng.Execute()
	if err != nil {
		h.fail(runID.String(), req, err)
		return
	}

	finished := time.Now()
	report := models.RunReport{
		RunID:             runID.String(),
		Status:            models.RunDone,
		Graph1Name:        req.Graph1.Name,
		Graph2Name:        req.Graph2.Name,
		Matched:           result.Matched,
		NetPairs:          toPairs(result.NetPairs),
		DevicePairs:       toPairs(result.DevicePairs),
		BadNets:           result.BadNets,
		BadDevices:        result.BadDevices,
		SuspectNets:       result.SuspectNets,
		SuspectDevices:    result.SuspectDevices,
		UnresolvedNets:    result.UnresolvedNets,
		UnresolvedDevices: result.UnresolvedDevices,
		MatchedCount:      result.MatchedCount,
		ForcedMatches:     result.ForcedMatches,
		Passes:            result.Passes,
		FinishedAt:        &finished,
	}

	h.mu.Lock()
	if existing, ok := h.runs[report.RunID]; ok {
		report.SubmittedAt = existing.SubmittedAt
	}
	h.runs[report.RunID] = &report
	h.mu.Unlock()

	if h.db != nil {
		if err := h.db.FinishRun(context.Background(), report); err != nil {
			log.Printf("run %s: failed to persist final report: %v", report.RunID, err)
		}
	}
}

func toPairs(in []isomorph.VertexPair) []models.VertexPair {
	out := make([]models.VertexPair, len(in))
	for i, p := range in {
		out[i] = models.VertexPair{Graph1: p.Graph1, Graph2: p.Graph2}
	}
	return out
}

func (h *APIHandler) fail(runID string, req models.RunRequest, err error) {
	finished := time.Now()
	report := models.RunReport{
		RunID:      runID,
		Status:     models.RunFailed,
		Graph1Name: req.Graph1.Name,
		Graph2Name: req.Graph2.Name,
		Error:      err.Error(),
		FinishedAt: &finished,
	}
	h.mu.Lock()
	if existing, ok := h.runs[runID]; ok {
		report.SubmittedAt = existing.SubmittedAt
	}
	h.runs[runID] = &report
	h.mu.Unlock()
	if h.db != nil {
		_ = h.db.FinishRun(context.Background(), report)
	}
}

func (h *APIHandler) setStatus(runID string, status models.RunStatus, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.runs[runID]; ok {
		r.Status = status
	}
}

func (h *APIHandler) handleGetRun(c *gin.Context) {
	id := c.Param("id")
	h.mu.RLock()
	report, ok := h.runs[id]
	h.mu.RUnlock()
	if ok {
		c.JSON(http.StatusOK, report)
		return
	}
	if h.db != nil {
		if persisted, found, err := h.db.GetRun(c.Request.Context(), id); err == nil && found {
			c.JSON(http.StatusOK, persisted)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
}

func (h *APIHandler) handleListRuns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	if h.db != nil {
		runs, total, err := h.db.ListRuns(c.Request.Context(), page, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": runs, "totalCount": total, "page": page, "limit": limit})
		return
	}

	h.mu.RLock()
	runs := make([]*models.RunReport, 0, len(h.runs))
	for _, r := range h.runs {
		runs = append(runs, r)
	}
	h.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"data": runs, "totalCount": len(runs), "page": 1, "limit": len(runs)})
}

// buildEngine translates the request's graph descriptions into the engine's
// six ingestion calls (the comparison host contract) and derives
// a deterministic PRNG seed from the run id itself, so that re-submitting
// byte-identical ingestion under the same run id always reproduces the same
// event sequence without the client
// having to carry a separate seed parameter.
func buildEngine(runID uuid.UUID, req models.RunRequest, sink isomorph.EventSink) (*isomorph.Engine, error) {
	seed := binary.BigEndian.Uint32(runID[:4])
	eng := isomorph.NewEngine(sink, seed)

	if err := eng.SetOptions(optionsFromRequest(req.Options)); err != nil {
		return nil, err
	}
	if err := eng.SetGraphName(0, req.Graph1.Name); err != nil {
		return nil, err
	}
	if err := eng.SetGraphName(1, req.Graph2.Name); err != nil {
		return nil, err
	}

	for _, dm := range req.Graph1.DeviceMasters {
		if err := eng.DefineDeviceMaster(dm.Name, dm.Pins); err != nil {
			return nil, err
		}
	}
	for _, dm := range req.Graph2.DeviceMasters {
		if err := eng.DefineDeviceMaster(dm.Name, dm.Pins); err != nil {
			return nil, err
		}
	}

	for _, d := range req.Graph1.Devices {
		if err := eng.DefineDeviceVertex(0, d.Master, d.Tag, d.Nets); err != nil {
			return nil, err
		}
	}
	for _, d := range req.Graph2.Devices {
		if err := eng.DefineDeviceVertex(1, d.Master, d.Tag, d.Nets); err != nil {
			return nil, err
		}
	}

	for _, na := range req.Graph1.NetAliases {
		if err := eng.DefineNetAlias(0, na.Canonical, na.Aliases); err != nil {
			return nil, err
		}
	}
	for _, na := range req.Graph2.NetAliases {
		if err := eng.DefineNetAlias(1, na.Canonical, na.Aliases); err != nil {
			return nil, err
		}
	}

	for _, eq := range req.Equates {
		if err := eng.DefineEquate(eq.NameA, eq.NameB); err != nil {
			return nil, err
		}
	}

	return eng, nil
}

// optionsFromRequest starts from isomorph.DefaultOptions() and overrides
// only the fields the request explicitly set, so an absent field keeps the
// engine's documented default rather than zeroing it out.
func optionsFromRequest(o models.RunOptions) isomorph.Options {
	opts := isomorph.DefaultOptions()
	opts.IgnoreCase = o.IgnoreCase
	if o.UseSuffix != nil {
		opts.UseSuffix = *o.UseSuffix
	}
	if o.FindMatch != nil {
		opts.FindMatch = *o.FindMatch
	}
	if o.DeduceNeighbors != nil {
		opts.DeduceNeighbors = *o.DeduceNeighbors
	}
	if o.ErrorCutOff > 0 {
		opts.ErrorCutOff = o.ErrorCutOff
	}
	if o.SuspectCutOff > 0 {
		opts.SuspectCutOff = o.SuspectCutOff
	}
	if o.NoProgressCutOff != nil {
		opts.NoProgressCutOff = *o.NoProgressCutOff
	}
	return opts
}
