package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentEngine     = "engine"
	ComponentCache      = "cache"
	ComponentTranslator = "translator"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	engine     Pinger
	cache      Pinger
	translator TranslatorChecker
	timeout    time.Duration
}

// New creates a Service. cache and translator can be nil.
func New(engine Pinger, cache Pinger, translator TranslatorChecker) *Service {
	return &Service{engine: engine, cache: cache, translator: translator, timeout: DefaultTimeout}
}

// WithTimeout bounds each component check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs health checks against all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult)
	)
	set := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	probes := map[string]func(context.Context) error{ComponentEngine: s.engine.Ping}
	if s.cache != nil {
		probes[ComponentCache] = s.cache.Ping
	}
	if s.translator != nil {
		probes[ComponentTranslator] = s.translator.HealthCheck
	}

	// Probes never return errors to the group, so one failure does not cancel the others.
	var g errgroup.Group
	for name, probe := range probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			set(name, probe(pctx))
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for name, v := range checks {
		if v != CheckError {
			continue
		}
		if name == ComponentEngine {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
