// Package statusapi exposes a read-only snapshot of an in-progress
// ingestion over HTTP, modeled on the gin-based REST server the driver
// CLI runs for its own orchestrator.
package statusapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Phase names the ingestion stage currently running.
type Phase string

const (
	PhaseHeader Phase = "header"
	PhaseBody   Phase = "body"
	PhaseFlush  Phase = "flush"
	PhaseDone   Phase = "done"
)

// Snapshot is the status payload served at GET /status. It is copied out
// of the ingestion's own counters under Tracker's mutex and never
// references the live HashDB, keeping the server strictly read-only.
type Snapshot struct {
	Phase            Phase `json:"phase"`
	NamesIngested    int   `json:"names_ingested"`
	SlotsAllocated   int   `json:"slots_allocated"`
	TransitionsSoFar int   `json:"transitions_so_far"`
}

// Tracker is updated by the ingestion loop and read by the HTTP handlers.
// Safe for concurrent use.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Phase: PhaseHeader}}
}

func (t *Tracker) Set(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = snap
}

func (t *Tracker) Get() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Server wraps a gin engine serving /healthz and /status.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a Server bound to addr, reporting tracker's snapshots.
func NewServer(addr string, tracker *Tracker) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, tracker.Get())
	})

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
	}
}

// Run starts serving in the background and returns immediately. The
// caller must call Shutdown to stop it.
func (s *Server) Run() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("statusapi: %w", err)
			return
		}
		errCh <- nil
	}()
	return errCh
}

// Shutdown stops the server, giving in-flight requests up to 5s to drain.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
