package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup precomputes cached dashboard views.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskIdempotencyCleanup prunes expired Idempotency-Key records.
	TaskIdempotencyCleanup = "housekeeping:idempotency_cleanup"
)

// DashboardWarmupPayload selects which views to warm. The organization view is
// always included; Employees adds every available employee's personal view.
type DashboardWarmupPayload struct {
	Employees bool `json:"employees"`
}

// NewDashboardWarmupTask constructs the warmup task.
func NewDashboardWarmupTask(employees bool) (*asynq.Task, error) {
	body, err := json.Marshal(DashboardWarmupPayload{Employees: employees})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, body, asynq.Queue(QueueDefault)), nil
}

// IdempotencyCleanupPayload sets how long keys are retained.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("jobs: retention must be positive, got %s", retention)
	}
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}

// NewTask builds a task by type name with default payloads, for manual triggers.
func NewTask(taskType string, retention time.Duration) (*asynq.Task, error) {
	switch taskType {
	case TaskDashboardWarmup:
		return NewDashboardWarmupTask(true)
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(retention)
	default:
		return nil, fmt.Errorf("jobs: unknown task type %q", taskType)
	}
}
