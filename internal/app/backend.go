package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/console/internal/assets"
	"github.com/odyssey-erp/console/internal/clients"
	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/employees"
	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/expenses"
	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/invoices"
	"github.com/odyssey-erp/console/internal/observability"
	"github.com/odyssey-erp/console/internal/platform/cache"
	"github.com/odyssey-erp/console/internal/projects"
	"github.com/odyssey-erp/console/internal/risks"
	"github.com/odyssey-erp/console/internal/shared"
	"github.com/odyssey-erp/console/internal/tasks"
)

// DashboardCacheNamespace prefixes the dashboard keys in Redis.
const DashboardCacheNamespace = "console:dashboard"

// Infra carries the connections the services are built on. Pool is nil for
// the memory backend; Redis and Broker are optional.
type Infra struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Broker  events.Publisher
	Metrics *observability.Metrics
}

// Services is the assembled domain layer.
type Services struct {
	Clients     *clients.Service
	Employees   *employees.Service
	Projects    *projects.Service
	Tasks       *tasks.Service
	Invoices    *invoices.Service
	Expenses    *expenses.Service
	Risks       *risks.Service
	Assets      *assets.Service
	Dashboard   *dashboard.Service
	Probe       *dashboard.Probe
	Idempotency shared.IdempotencyChecker
	Events      *events.Bus
}

type repositories struct {
	history   history.Reader
	clients   clients.RepositoryPort
	employees employees.RepositoryPort
	projects  projects.RepositoryPort
	tasks     tasks.RepositoryPort
	invoices  invoices.RepositoryPort
	expenses  expenses.RepositoryPort
	risks     risks.RepositoryPort
	assets    assets.RepositoryPort
}

// BuildServices wires every service against the configured backend.
func BuildServices(cfg *Config, policy Policy, infra Infra, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}

	var dashCache *cache.Versioned
	if infra.Redis != nil {
		dashCache = cache.NewVersioned(infra.Redis, DashboardCacheNamespace, cfg.CacheTTL)
	}
	sinks := []events.Publisher{events.MetricsRecorder(metricsCounter(infra.Metrics)), infra.Broker}
	if dashCache != nil {
		sinks = append(sinks, events.CacheInvalidator(dashCache))
	}
	bus := events.NewBus(logger, sinks...)

	svc := &Services{Events: bus}
	var repos repositories
	if infra.Pool != nil {
		repos = postgresRepositories(infra.Pool)
		svc.Idempotency = shared.NewIdempotencyStore(infra.Pool)
	} else {
		repos = memoryRepositories(func() *clients.Service { return svc.Clients })
		svc.Idempotency = shared.NewMemoryIdempotencyStore()
	}

	calcPolicy := policy.Calc()
	svc.Clients = clients.NewService(repos.clients, bus)
	svc.Employees = employees.NewService(repos.employees, repos.tasks, calcPolicy, bus)
	svc.Projects = projects.NewService(repos.projects, repos.history, svc.Clients, svc.Employees, bus)
	svc.Tasks = tasks.NewService(repos.tasks, repos.history, svc.Projects, svc.Employees, bus)
	svc.Invoices = invoices.NewService(repos.invoices, repos.history, svc.Clients, svc.Projects, bus, calcPolicy.TaxRate, logger)
	svc.Expenses = expenses.NewService(repos.expenses, repos.history, svc.Employees, svc.Projects, bus)
	svc.Risks = risks.NewService(repos.risks, repos.history, svc.Employees, bus)
	svc.Assets = assets.NewService(repos.assets, repos.history, svc.Employees, bus)

	svc.Probe = dashboard.NewProbe(cfg.AppVersion, 2*time.Second, healthChecks(infra))
	svc.Dashboard = dashboard.NewService(dashboard.Sources{
		Projects:  svc.Projects,
		Tasks:     svc.Tasks,
		Invoices:  svc.Invoices,
		Expenses:  svc.Expenses,
		Risks:     svc.Risks,
		Employees: svc.Employees,
		Status:    svc.Probe,
	}, policy.Dashboard, dashCache, buildObserver(infra.Metrics), logger)
	return svc
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		history:   history.NewPostgres(pool),
		clients:   clients.NewRepository(pool),
		employees: employees.NewRepository(pool),
		projects:  projects.NewRepository(pool),
		tasks:     tasks.NewRepository(pool),
		invoices:  invoices.NewRepository(pool),
		expenses:  expenses.NewRepository(pool),
		risks:     risks.NewRepository(pool),
		assets:    assets.NewRepository(pool),
	}
}

// memoryRepositories shares one transition log across entities. Client names
// resolve through the clients service once it exists.
func memoryRepositories(clientsSvc func() *clients.Service) repositories {
	log := history.NewMemory()
	names := lazyNames(clientsSvc)
	return repositories{
		history:   log,
		clients:   clients.NewMemoryRepository(),
		employees: employees.NewMemoryRepository(),
		projects:  projects.NewMemoryRepository(log, names),
		tasks:     tasks.NewMemoryRepository(log),
		invoices:  invoices.NewMemoryRepository(log, names),
		expenses:  expenses.NewMemoryRepository(log),
		risks:     risks.NewMemoryRepository(log),
		assets:    assets.NewMemoryRepository(log),
	}
}

type lazyNames func() *clients.Service

func (f lazyNames) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	return f().Names(ctx, ids)
}

func healthChecks(infra Infra) map[string]dashboard.Check {
	checks := make(map[string]dashboard.Check)
	if infra.Pool != nil {
		checks["database"] = infra.Pool.Ping
	} else {
		checks["database"] = func(context.Context) error { return nil }
	}
	if infra.Redis != nil {
		checks["cache"] = func(ctx context.Context) error { return infra.Redis.Ping(ctx).Err() }
	}
	return checks
}

// metricsCounter and buildObserver keep a nil *Metrics from becoming a
// non-nil interface value.
func metricsCounter(m *observability.Metrics) events.Counter {
	if m == nil {
		return nil
	}
	return m
}

func buildObserver(m *observability.Metrics) dashboard.BuildObserver {
	if m == nil {
		return nil
	}
	return m
}
