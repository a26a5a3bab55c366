package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// RequeueStaleProcessing returns jobs abandoned mid-processing to the queue.
// A worker that crashes or loses a job past the dispatch timeout leaves the
// row in processing; rows older than staleness whose attempt counter is
// still inside the retry budget become claimable again.
func (r *JobRepo) RequeueStaleProcessing(ctx context.Context, staleness time.Duration, batchSize int) (int64, error) {
	query := `
  UPDATE dialectic_generation_jobs SET
    status = 'retrying'
  WHERE id IN (
    SELECT id FROM dialectic_generation_jobs
    WHERE status = 'processing'
      AND started_at < $1
      AND attempt_count < max_retries
    ORDER BY started_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
  )`

	cutoff := r.timeProvider.Now().UTC().Add(-staleness)
	count, err := r.execCount(ctx, query, cutoff, batchSize)
	if err != nil {
		return 0, err
	}
	if count > 0 && r.logger != nil {
		r.logger.InfoContext(ctx, "requeued stale processing jobs", "count", count, "cutoff", cutoff)
	}
	return count, nil
}

// FailStaleProcessing terminates abandoned processing jobs whose retry
// budget is already spent. Requeueing them would exceed the budget the
// executor enforces, so they are marked failed with a timeout record.
func (r *JobRepo) FailStaleProcessing(ctx context.Context, staleness time.Duration, batchSize int) (int64, error) {
	details, err := json.Marshal(model.ErrorDetails{
		Message: fmt.Sprintf("job stalled in processing for more than %s", staleness),
		Code:    string(apperrors.ErrCodeTimeout),
	})
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal stale-job error details")
	}

	query := `
  UPDATE dialectic_generation_jobs SET
    status = 'failed',
    error_details = $3,
    completed_at = $4
  WHERE id IN (
    SELECT id FROM dialectic_generation_jobs
    WHERE status = 'processing'
      AND started_at < $1
      AND attempt_count >= max_retries
    ORDER BY started_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
  )`

	now := r.timeProvider.Now().UTC()
	count, err := r.execCount(ctx, query, now.Add(-staleness), batchSize, details, now)
	if err != nil {
		return 0, err
	}
	if count > 0 && r.logger != nil {
		r.logger.WarnContext(ctx, "failed exhausted stale processing jobs", "count", count)
	}
	return count, nil
}

func (r *JobRepo) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return affected, nil
}
