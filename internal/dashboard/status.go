package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Overall and component states.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	ComponentUp    = "up"
	ComponentDown  = "down"
)

// Check reports whether one dependency is healthy.
type Check func(ctx context.Context) error

// Probe gathers SystemStatus from named dependency checks.
type Probe struct {
	version string
	timeout time.Duration
	checks  map[string]Check
	now     func() time.Time
}

// NewProbe builds a probe. Nil checks are skipped.
func NewProbe(version string, timeout time.Duration, checks map[string]Check) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	filtered := make(map[string]Check, len(checks))
	for name, c := range checks {
		if c != nil {
			filtered[name] = c
		}
	}
	return &Probe{version: version, timeout: timeout, checks: filtered, now: func() time.Time { return time.Now().UTC() }}
}

// Status runs every check concurrently. Any failure degrades the overall status.
func (p *Probe) Status(ctx context.Context) SystemStatus {
	status := SystemStatus{Status: StatusOK, Version: p.version, CheckedAt: p.now(), Components: make(map[string]string, len(p.checks))}
	names := make([]string, 0, len(p.checks))
	for name := range p.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, check Check) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				results[i] = ComponentDown
				return
			}
			results[i] = ComponentUp
		}(i, p.checks[name])
	}
	wg.Wait()
	for i, name := range names {
		status.Components[name] = results[i]
		if results[i] != ComponentUp {
			status.Status = StatusDegraded
		}
	}
	return status
}
