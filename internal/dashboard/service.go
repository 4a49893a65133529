package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/console/internal/employees"
	"github.com/odyssey-erp/console/internal/expenses"
	"github.com/odyssey-erp/console/internal/invoices"
	"github.com/odyssey-erp/console/internal/platform/cache"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/risks"
	"github.com/odyssey-erp/console/internal/tasks"
)

// Lister loads a full collection.
type Lister[T any] interface {
	ListAll(ctx context.Context) ([]T, error)
}

// StatusProvider supplies the system section.
type StatusProvider interface {
	Status(ctx context.Context) SystemStatus
}

// BuildObserver records how long a dashboard took to produce.
type BuildObserver interface {
	ObserveDashboardBuild(source string, d time.Duration)
}

// Sources are the collaborators the snapshot is loaded from.
type Sources struct {
	Projects  Lister[projects.Project]
	Tasks     Lister[tasks.Task]
	Invoices  Lister[invoices.Invoice]
	Expenses  Lister[expenses.Expense]
	Risks     Lister[risks.Risk]
	Employees Lister[employees.Employee]
	Status    StatusProvider
}

// Service loads snapshots concurrently and caches computed views.
type Service struct {
	sources Sources
	policy  Policy
	cache   *cache.Versioned
	metrics BuildObserver
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewService wires the dashboard. cache and metrics may be nil.
func NewService(sources Sources, policy Policy, c *cache.Versioned, metrics BuildObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sources: sources,
		policy:  policy,
		cache:   c,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Policy returns the aggregation policy in force.
func (s *Service) Policy() Policy { return s.policy }

// Get returns the dashboard for scope, from cache when possible. The system
// section is always fresh.
func (s *Service) Get(ctx context.Context, scope Scope) (ViewModel, error) {
	scope = s.normalize(scope)
	start := time.Now()
	key, err := s.cache.BuildKey(ctx, append([]string{"view"}, scopeToken(scope)...)...)
	if err != nil {
		s.logger.Warn("dashboard cache key", slog.Any("error", err))
		return s.build(ctx, scope, start)
	}

	built := false
	result, err, _ := s.group.Do(key, func() (any, error) {
		var vm ViewModel
		err := s.cache.FetchJSON(ctx, key, &vm, func(ctx context.Context) (any, error) {
			built = true
			snap, err := s.Snapshot(ctx)
			if err != nil {
				return nil, err
			}
			return Compute(snap, scope, s.policy), nil
		})
		return vm, err
	})
	if err != nil {
		return ViewModel{}, err
	}
	vm := result.(ViewModel)
	if s.sources.Status != nil {
		vm.System = s.sources.Status.Status(ctx)
	}
	source := "cache"
	if built {
		source = "build"
	}
	s.observe(source, start)
	return vm, nil
}

// Warm precomputes the organization view so the first request hits the cache.
func (s *Service) Warm(ctx context.Context) error {
	_, err := s.Get(ctx, Scope{})
	return err
}

// Invalidate bumps the cache version.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Snapshot loads every collection concurrently. Completion order does not matter.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	load(g, gctx, "projects", s.sources.Projects, &snap.Projects)
	load(g, gctx, "tasks", s.sources.Tasks, &snap.Tasks)
	load(g, gctx, "invoices", s.sources.Invoices, &snap.Invoices)
	load(g, gctx, "expenses", s.sources.Expenses, &snap.Expenses)
	load(g, gctx, "risks", s.sources.Risks, &snap.Risks)
	load(g, gctx, "employees", s.sources.Employees, &snap.Employees)
	if s.sources.Status != nil {
		g.Go(func() error {
			snap.System = s.sources.Status.Status(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func load[T any](g *errgroup.Group, ctx context.Context, name string, src Lister[T], dest *[]T) {
	if src == nil {
		return
	}
	g.Go(func() error {
		items, err := src.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("dashboard: load %s: %w", name, err)
		}
		*dest = items
		return nil
	})
}

func (s *Service) build(ctx context.Context, scope Scope, start time.Time) (ViewModel, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return ViewModel{}, err
	}
	vm := Compute(snap, scope, s.policy)
	s.observe("build", start)
	return vm, nil
}

func (s *Service) normalize(scope Scope) Scope {
	if scope.Now.IsZero() {
		scope.Now = s.now()
	}
	if scope.WindowDays <= 0 {
		scope.WindowDays = s.policy.WindowDays
	}
	if scope.WindowDays <= 0 {
		scope.WindowDays = DefaultWindowDays
	}
	return scope
}

func (s *Service) observe(source string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDashboardBuild(source, time.Since(start))
	}
}

// scopeToken identifies a scope in cache keys. Views are cached per day
// because overdue evaluation depends on the date.
func scopeToken(scope Scope) []string {
	return []string{
		strconv.FormatInt(scope.EmployeeID, 10),
		strconv.Itoa(scope.WindowDays),
		scope.Now.Format("20060102"),
		dateToken(scope.PeriodStart.String()),
		dateToken(scope.PeriodEnd.String()),
	}
}

func dateToken(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
