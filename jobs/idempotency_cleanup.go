package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/console/internal/jobs"
	"github.com/odyssey-erp/console/internal/shared"
)

// IdempotencyCleanupJob deletes Idempotency-Key records past their retention.
type IdempotencyCleanupJob struct {
	Store   shared.IdempotencyChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires the cleanup handler.
func NewIdempotencyCleanupJob(store shared.IdempotencyChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &IdempotencyCleanupJob{Store: store, Logger: logger.With(slog.String("job", TaskIdempotencyCleanup)), Metrics: metrics}
}

// Handle processes cleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: store not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Retention <= 0 {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	removed, err := j.Store.Cleanup(ctx, payload.Retention)
	if err != nil {
		j.Logger.Error("cleanup idempotency keys", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Metrics.AddProcessed(TaskIdempotencyCleanup, int(removed))
	j.Logger.Info("cleaned idempotency keys", slog.Int64("removed", removed), slog.Duration("retention", payload.Retention))
	return tracker.End(nil)
}
