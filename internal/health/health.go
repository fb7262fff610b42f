// Package health runs named checks in parallel with a timeout and
// aggregates pass/fail, following the same shape as pkg/consumer/health.go.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// CheckFunc performs one health check and returns an error on failure.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Status  string `json:"status"` // "pass" or "fail"
	Message string `json:"message,omitempty"`
}

// Status is the aggregate of every registered check.
type Status struct {
	Status  string                 `json:"status"` // "healthy" or "unhealthy"
	Checks  map[string]CheckResult `json:"checks"`
	Message string                 `json:"message"`
}

// Registry holds named checks and runs them in parallel on demand.
// Safe for concurrent Register and Run calls.
type Registry struct {
	o11y observability.Observability

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry(o11y observability.Observability) *Registry {
	return &Registry{o11y: o11y, checks: make(map[string]CheckFunc)}
}

// Register adds or replaces a named check.
func (r *Registry) Register(name string, check CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = check
}

// Run executes every registered check concurrently, bounded by timeout,
// and aggregates the result. An empty registry reports healthy.
func (r *Registry) Run(ctx context.Context, timeout time.Duration) Status {
	r.mu.RLock()
	checks := make(map[string]CheckFunc, len(r.checks))
	for name, check := range r.checks {
		checks[name] = check
	}
	r.mu.RUnlock()

	if len(checks) == 0 {
		return Status{Status: "healthy", Message: "no checks registered", Checks: map[string]CheckResult{}}
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string]CheckResult, len(checks))

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			err := check(checkCtx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[name] = CheckResult{Status: "fail", Message: err.Error()}
				r.o11y.Logger().Warn(checkCtx, "health check failed",
					observability.String("check", name), observability.Error(err))
				return
			}
			results[name] = CheckResult{Status: "pass"}
		}(name, check)
	}
	wg.Wait()

	status := "healthy"
	message := "all checks passed"
	for _, result := range results {
		if result.Status == "fail" {
			status = "unhealthy"
			message = "one or more checks failed"
			break
		}
	}

	return Status{Status: status, Checks: results, Message: message}
}
