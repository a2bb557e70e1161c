// Package healthprobe serves liveness and readiness checks.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
)

// HealthChecker provides health and readiness checks. Readiness also
// requires a recent snapshot when a maximum snapshot age is configured.
type HealthChecker struct {
	startTime    time.Time
	ready        atomic.Bool
	lastSnapshot atomic.Int64
	maxAge       time.Duration
	now          func() time.Time
}

// New creates a new HealthChecker with no snapshot freshness requirement.
func New() *HealthChecker {
	return NewWithMaxSnapshotAge(0)
}

// NewWithMaxSnapshotAge creates a HealthChecker that reports not ready once
// the last snapshot is older than maxAge. Zero disables the check.
func NewWithMaxSnapshotAge(maxAge time.Duration) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// MarkSnapshot records the time of the most recent saved snapshot.
func (h *HealthChecker) MarkSnapshot(at time.Time) {
	h.lastSnapshot.Store(at.UnixNano())
}

// LastSnapshot returns the last recorded snapshot time, or zero.
func (h *HealthChecker) LastSnapshot() time.Time {
	ns := h.lastSnapshot.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status       string `json:"status"`
	Uptime       string `json:"uptime,omitempty"`
	LastSnapshot string `json:"last_snapshot,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		resp := HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		}

		last := h.LastSnapshot()
		if !last.IsZero() {
			resp.LastSnapshot = last.Format(time.RFC3339)
		}

		if h.maxAge > 0 {
			if last.IsZero() {
				resp.Status = "not_ready"
				resp.Message = "no snapshot collected yet"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
			if age := h.now().Sub(last); age > h.maxAge {
				resp.Status = "not_ready"
				resp.Message = "last snapshot is stale: " + age.Truncate(time.Second).String()
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
