package handlers

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Stats tracks lightweight process counters surfaced by the health
// endpoint. Safe for concurrent use.
type Stats struct {
	started  time.Time
	handled  atomic.Int64
	lastUnix atomic.Int64
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Record counts one handled request.
func (s *Stats) Record() {
	s.handled.Add(1)
	s.lastUnix.Store(time.Now().Unix())
}

// HealthHandler reports liveness plus basic service counters.
type HealthHandler struct {
	Stats   *Stats
	Version string
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := time.Now()
	res := map[string]any{
		"status":     "healthy",
		"service":    "inspection-route-service",
		"version":    h.Version,
		"started_at": h.Stats.started.UTC().Format(time.RFC3339),

		"uptime_seconds":   int64(now.Sub(h.Stats.started).Seconds()),
		"requests_handled": h.Stats.handled.Load(),
		"timestamp":        now.UTC().Format(time.RFC3339),
	}

	if last := h.Stats.lastUnix.Load(); last > 0 {
		res["last_request"] = time.Unix(last, 0).UTC().Format(time.RFC3339)
	} else {
		res["last_request"] = nil
	}

	writeJSON(w, r, http.StatusOK, res)
}
