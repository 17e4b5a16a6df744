// Package health provides Kubernetes-style liveness and readiness probes.
// All registered checks run from one background loop; probe endpoints
// serve the latest results without re-running anything.
package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health tracks probe state for a service. The zero value is unusable;
// call New.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
	// failures holds the latest error message per failing check. Healthy
	// checks are absent.
	failures map[string]string
	cancel   context.CancelFunc
}

// New creates a Health in the not-ready state. Call SetReady(true) once
// initialization completes.
func New() *Health {
	return &Health{failures: make(map[string]string)}
}

// AddLivenessCheck registers a liveness check. Register before Start.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check. Register before Start.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// Start runs all registered checks now and then every interval until the
// context is cancelled or Stop is called.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		h.runChecks(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runChecks(ctx)
			}
		}
	}()
}

func (h *Health) runChecks(ctx context.Context) {
	h.mu.RLock()
	checks := make([]check, 0, len(h.liveness)+len(h.readiness))
	checks = append(checks, h.liveness...)
	checks = append(checks, h.readiness...)
	h.mu.RUnlock()

	results := make(map[string]string)
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if err := c.fn(checkCtx); err != nil {
			results[c.name] = err.Error()
		}
		cancel()
	}

	h.mu.Lock()
	h.failures = results
	h.mu.Unlock()
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it to
// false before draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check
// passed on its last run.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.readiness {
		if _, failed := h.failures[c.name]; failed {
			return false
		}
	}
	return true
}

// Stop halts the background check loop. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// LiveEndpoint serves the /livez probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	failures := h.failuresOf(h.liveness)
	h.mu.RUnlock()

	writeProbe(w, failures)
}

// ReadyEndpoint serves the /readyz probe.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	failures := h.failuresOf(h.readiness)
	h.mu.RUnlock()

	if !h.ready.Load() {
		failures["service"] = "not ready"
	}
	writeProbe(w, failures)
}

// failuresOf snapshots the failing subset of checks. Callers hold mu.
func (h *Health) failuresOf(checks []check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if msg, failed := h.failures[c.name]; failed {
			failures[c.name] = msg
		}
	}
	return failures
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	status := http.StatusOK
	state := "ok"
	if len(failures) > 0 {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(state) })
		if len(failures) > 0 {
			e.Field("checks", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					for name, msg := range failures {
						e.Field(name, func(e *jx.Encoder) { e.Str(msg) })
					}
				})
			})
		}
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
