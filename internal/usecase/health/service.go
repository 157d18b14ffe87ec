// Package health probes the document store and the model providers the search path depends on.
package health

import (
	"context"
	"maps"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pinger checks document store availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker checks an external provider (embedding, completion, rerank).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the aggregated outcome.
type Status string

const (
	Healthy Status = "ok"
	// Degraded: a provider is down. Search still answers, with fewer legs.
	Degraded Status = "degraded"
	// Unhealthy: the document store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult is one component's outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// ComponentDatabase names the store in Report.Checks.
const ComponentDatabase = "database"

// Report aggregates one round of checks. Errors holds the cause for every failed component.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]error
}

// Names returns the checked component names in a stable order.
func (r Report) Names() []string {
	return slices.Sorted(maps.Keys(r.Checks))
}

type probe struct {
	name string
	fn   func(context.Context) error
}

// Service runs the checks.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. providers maps a component name to its checker; nil entries are skipped.
// timeout bounds each check; zero disables it.
func New(db Pinger, providers map[string]Checker, timeout time.Duration) *Service {
	probes := []probe{{name: ComponentDatabase, fn: db.Ping}}
	for _, name := range slices.Sorted(maps.Keys(providers)) {
		if c := providers[name]; c != nil {
			probes = append(probes, probe{name: name, fn: c.HealthCheck})
		}
	}
	return &Service{probes: probes, timeout: timeout}
}

// Check probes every component concurrently. A failing probe never cancels the others.
func (s *Service) Check(ctx context.Context) Report {
	errs := make([]error, len(s.probes))

	var g errgroup.Group
	for i, p := range s.probes {
		g.Go(func() error {
			pctx := ctx
			if s.timeout > 0 {
				var cancel context.CancelFunc
				pctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}
			errs[i] = p.fn(pctx)
			return nil
		})
	}
	_ = g.Wait()

	r := Report{
		Status: Healthy,
		Checks: make(map[string]CheckResult, len(s.probes)),
		Errors: map[string]error{},
	}
	for i, p := range s.probes {
		if errs[i] == nil {
			r.Checks[p.name] = CheckOK
			continue
		}
		r.Checks[p.name] = CheckError
		r.Errors[p.name] = errs[i]
		if p.name == ComponentDatabase {
			r.Status = Unhealthy
		} else if r.Status == Healthy {
			r.Status = Degraded
		}
	}
	return r
}
