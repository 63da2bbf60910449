package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// HealthChecker reports the health of one infrastructure component.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// checkerFunc adapts a plain function to HealthChecker.
type checkerFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// NamedCheck wraps a health probe function as a HealthChecker.
func NamedCheck(name string, fn func(ctx context.Context) error) HealthChecker {
	return checkerFunc{name: name, fn: fn}
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
	version  string
	startAt  time.Time
}

// NewHealthHandler creates a HealthHandler over the given component probes.
func NewHealthHandler(version string, checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers, version: version, startAt: time.Now()}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

type componentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status     string                    `json:"status"`
	Components map[string]componentCheck `json:"components,omitempty"`
}

// Liveness handles GET /healthz.  It confirms the process is alive and
// never consults dependencies.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, livenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz.  All component probes run in parallel; any
// failure yields 503.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if len(h.checkers) == 0 {
		writeJSON(w, http.StatusOK, readinessResponse{Status: "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	var wg sync.WaitGroup
	components := make(map[string]componentCheck, len(h.checkers))
	ready := true

	for _, checker := range h.checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			check := componentCheck{
				Status:  "up",
				Latency: time.Since(start).Truncate(time.Millisecond).String(),
			}
			if err != nil {
				check.Status = "down"
				check.Error = err.Error()
			}
			mu.Lock()
			components[c.Name()] = check
			if err != nil {
				ready = false
			}
			mu.Unlock()
		}(checker)
	}
	wg.Wait()

	resp := readinessResponse{Status: "ready", Components: components}
	status := http.StatusOK
	if !ready {
		resp.Status = "not ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
