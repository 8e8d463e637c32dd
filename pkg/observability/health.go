package observability

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// BuildStatus describes the most recent documentation build
type BuildStatus struct {
	FinishedAt time.Time `json:"finished_at"`
	Generated  int       `json:"generated"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Version   string       `json:"version,omitempty"`
	LastBuild *BuildStatus `json:"last_build,omitempty"`
}

// HealthChecker reports liveness and build readiness
type HealthChecker struct {
	version string

	mu        sync.RWMutex
	lastBuild *BuildStatus
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version}
}

// RecordBuild stores the outcome of a build
func (h *HealthChecker) RecordBuild(generated, failed int, err error) {
	status := &BuildStatus{
		FinishedAt: time.Now(),
		Generated:  generated,
		Failed:     failed,
	}
	if err != nil {
		status.Error = err.Error()
	}

	h.mu.Lock()
	h.lastBuild = status
	h.mu.Unlock()
}

// Status returns the current health status. Before the first build the
// service is unhealthy; a build with failures or an error is degraded.
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   h.version,
	}
	switch {
	case h.lastBuild == nil:
		status.Status = StatusUnhealthy
	case h.lastBuild.Error != "" || h.lastBuild.Failed > 0:
		status.Status = StatusDegraded
	}
	if h.lastBuild != nil {
		build := *h.lastBuild
		status.LastBuild = &build
	}
	return status
}

// Liveness returns a simple liveness probe (always returns 200 if server is running)
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness returns 200 once a build has completed, 503 before that
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.Status()

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
