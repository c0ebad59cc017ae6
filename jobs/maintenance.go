package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypeIdempotencyCleanup prunes processed-task keys past retention.
const TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"

// DefaultIdempotencyRetention keeps keys long enough to absorb delayed
// Asynq retries of a package task.
const DefaultIdempotencyRetention = 7 * 24 * time.Hour

// NewIdempotencyCleanupTask constructs the recurring cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyCleanupJob prunes expired idempotency keys on a schedule.
type IdempotencyCleanupJob struct {
	logger    *slog.Logger
	store     KeyCleaner
	retention time.Duration
}

// NewIdempotencyCleanupJob wires the cleanup handler.
func NewIdempotencyCleanupJob(logger *slog.Logger, store KeyCleaner, retention time.Duration) *IdempotencyCleanupJob {
	if retention <= 0 {
		retention = DefaultIdempotencyRetention
	}
	return &IdempotencyCleanupJob{logger: logger, store: store, retention: retention}
}

// Handle processes TaskTypeIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	if err := j.store.Cleanup(ctx, j.retention); err != nil {
		return err
	}
	j.logger.Info("idempotency keys pruned", slog.Duration("retention", j.retention))
	return nil
}
