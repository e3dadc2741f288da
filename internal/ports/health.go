package ports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when a checker name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// HealthChecker is implemented by components that can report their health.
// quotebook registers two at startup: "storage", the durable slot store, and
// the remote feed under its service name ("remote-quotes" by default), which
// reports its circuit breaker state without calling the remote.
type HealthChecker interface {
	// Name identifies the check in readiness responses. Must be unique.
	Name() string

	// Check returns nil when the component is usable. Implementations must
	// honour ctx; the readiness handler bounds it with a timeout.
	Check(ctx context.Context) error
}

// NamedCheck adapts a plain function to HealthChecker.
type NamedCheck struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

// Name implements HealthChecker.
func (c NamedCheck) Name() string { return c.CheckName }

// Check implements HealthChecker. A nil Fn always passes.
func (c NamedCheck) Check(ctx context.Context) error {
	if c.Fn == nil {
		return nil
	}

	return c.Fn(ctx)
}

// HealthRegistry aggregates the checks behind GET /-/ready.
type HealthRegistry interface {
	// Register adds a required check. A failing required check makes the
	// service unhealthy.
	Register(checker HealthChecker) error

	// CheckAll runs every check concurrently under ctx.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the state of one check or of the whole service.
type HealthStatus string

const (
	// HealthStatusHealthy means every check passed.
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusDegraded means only optional checks failed. Quotes can
	// still be read and added; sync is unavailable until the remote recovers.
	HealthStatusDegraded HealthStatus = "degraded"

	// HealthStatusUnhealthy means a required check failed.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult is the aggregated outcome of CheckAll.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status HealthStatus `json:"status"`

	// Message is the check's error text.
	Message string `json:"message,omitempty"`

	// Optional checks only degrade the service.
	Optional bool `json:"optional,omitempty"`

	Duration time.Duration `json:"duration"`
}

type registration struct {
	checker  HealthChecker
	optional bool
}

// DefaultHealthRegistry is the HealthRegistry used by the server.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []registration
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *DefaultHealthRegistry {
	return &DefaultHealthRegistry{checkers: make([]registration, 0)}
}

// Register adds a required check.
func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	return r.add(checker, false)
}

// RegisterOptional adds a check whose failure degrades the service without
// taking it out of rotation. The remote feed is registered this way: sync
// failures are reported to users and retried, never fatal.
func (r *DefaultHealthRegistry) RegisterOptional(checker HealthChecker) error {
	return r.add(checker, true)
}

func (r *DefaultHealthRegistry) add(checker HealthChecker, optional bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	for _, reg := range r.checkers {
		if reg.checker.Name() == name {
			return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
		}
	}

	r.checkers = append(r.checkers, registration{checker: checker, optional: optional})

	return nil
}

// CheckAll runs every registered check concurrently and folds the results:
// any required failure is unhealthy, optional failures alone are degraded.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	regs := make([]registration, len(r.checkers))
	copy(regs, r.checkers)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(regs))

	var wg sync.WaitGroup
	for i, reg := range regs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			start := time.Now()
			err := reg.checker.Check(ctx)

			res := &CheckResult{
				Status:   HealthStatusHealthy,
				Optional: reg.optional,
				Duration: time.Since(start),
			}
			if err != nil {
				res.Status = HealthStatusUnhealthy
				res.Message = err.Error()
			}

			results[i] = res
		}()
	}

	wg.Wait()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(regs)),
		Timestamp: time.Now(),
	}

	for i, reg := range regs {
		res := results[i]
		result.Checks[reg.checker.Name()] = res

		switch {
		case res.Status == HealthStatusHealthy:
		case !res.Optional:
			result.Status = HealthStatusUnhealthy
		case result.Status == HealthStatusHealthy:
			result.Status = HealthStatusDegraded
		}
	}

	return result
}
