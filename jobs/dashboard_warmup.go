package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/console/internal/dashboard"
	"github.com/odyssey-erp/console/internal/employees"
	jobmetrics "github.com/odyssey-erp/console/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardBuilder produces dashboard views; the service caches them on the way.
type DashboardBuilder interface {
	Get(ctx context.Context, scope dashboard.Scope) (dashboard.ViewModel, error)
}

// EmployeeLister lists every employee.
type EmployeeLister interface {
	ListAll(ctx context.Context) ([]employees.Employee, error)
}

// DashboardWarmupJob pre-populates the dashboard cache.
type DashboardWarmupJob struct {
	Dashboard DashboardBuilder
	Employees EmployeeLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(builder DashboardBuilder, staff EmployeeLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboard: builder,
		Employees: staff,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	resultErr := j.run(ctx, payload)
	return tracker.End(resultErr)
}

func (j *DashboardWarmupJob) run(ctx context.Context, payload DashboardWarmupPayload) error {
	logger := j.logger()
	logger.Info("starting dashboard warmup", slog.Bool("employees", payload.Employees))

	scopes, err := j.scopes(ctx, payload)
	if err != nil {
		logger.Error("load warmup scopes", slog.Any("error", err))
		return err
	}

	now := j.now()
	for _, scope := range scopes {
		scope.Now = now
		scopeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Dashboard.Get(scopeCtx, scope)
		cancel()
		if err != nil {
			logger.Error("warm scope", slog.Int64("employee_id", scope.EmployeeID), slog.Any("error", err))
			return err
		}
	}
	j.metrics().AddProcessed(TaskDashboardWarmup, len(scopes))
	logger.Info("completed dashboard warmup", slog.Int("scopes", len(scopes)), slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *DashboardWarmupJob) scopes(ctx context.Context, payload DashboardWarmupPayload) ([]dashboard.Scope, error) {
	scopes := []dashboard.Scope{{}}
	if !payload.Employees || j.Employees == nil {
		return scopes, nil
	}
	staff, err := j.Employees.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range staff {
		if e.IsAvailable {
			scopes = append(scopes, dashboard.Scope{EmployeeID: e.ID})
		}
	}
	return scopes, nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
