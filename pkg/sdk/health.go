package semsearch

import (
	"context"
	"errors"
	"sort"

	healthuc "github.com/sagar8080/semantic-search-system/internal/usecase/health"
)

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// HealthStatus is the outcome of Health. Status is "ok", "degraded" (a provider is
// down) or "error" (the store is down). Checks maps each component to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// OK reports whether every component answered.
func (h HealthStatus) OK() bool {
	return h.Status == string(healthuc.Healthy)
}

// Failing lists the components that did not answer, sorted.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, state := range h.Checks {
		if state != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

var errStoreDown = errors.New("store unavailable")

// Health probes the store and every configured provider that supports health checks.
func (c *Client) Health(ctx context.Context) HealthStatus {
	done := c.obs.track("health")
	report := c.healthSvc.Check(ctx)

	h := HealthStatus{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}

	var err error
	if report.Status == healthuc.Unhealthy {
		err = errStoreDown
	}
	done(&err)
	return h
}
