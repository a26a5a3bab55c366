// Package data provides the PostgreSQL repositories for job and
// contribution rows, accessed through database/sql with the pgx driver.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// JobRepo provides database operations for dialectic job rows.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// JobRepoConfig holds optional dependencies for JobRepo.
type JobRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewJobRepo creates a new JobRepo with the given database connection.
func NewJobRepo(db *sql.DB, cfg JobRepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &JobRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const jobColumns = `
  id,
  session_id,
  user_id,
  stage_slug,
  iteration_number,
  job_type,
  payload,
  status,
  attempt_count,
  max_retries,
  parent_job_id,
  target_contribution_id,
  results,
  error_details,
  created_at,
  started_at,
  completed_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job          model.Job
		parentJobID  sql.NullString
		targetID     sql.NullString
		results      []byte
		errorDetails []byte
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)
	err := row.Scan(
		&job.ID,
		&job.SessionID,
		&job.UserID,
		&job.StageSlug,
		&job.IterationNumber,
		&job.JobType,
		&job.Payload,
		&job.Status,
		&job.AttemptCount,
		&job.MaxRetries,
		&parentJobID,
		&targetID,
		&results,
		&errorDetails,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentJobID.Valid {
		job.ParentJobID = &parentJobID.String
	}
	if targetID.Valid {
		job.TargetContributionID = &targetID.String
	}
	job.Results = results
	job.ErrorDetails = errorDetails
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// Create inserts a new job row.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid create job request")
	}

	query := `
  INSERT INTO dialectic_generation_jobs (
    id, session_id, user_id, stage_slug, iteration_number, job_type,
    payload, status, attempt_count, max_retries,
    parent_job_id, target_contribution_id, created_at
  ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11, $12)
  RETURNING ` + jobColumns

	row := r.DB.QueryRowContext(ctx, query,
		uuid.NewString(),
		req.SessionID,
		req.UserID,
		req.StageSlug,
		req.IterationNumber,
		req.JobType,
		[]byte(req.Payload),
		req.Status,
		req.MaxRetries,
		req.ParentJobID,
		req.TargetContributionID,
		r.timeProvider.Now().UTC(),
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "job created", "id", job.ID, "job_type", job.JobType, "status", job.Status)
	}
	return job, nil
}

// GetByID loads one job row.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM dialectic_generation_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// ClaimNext reserves the next dispatchable job for a worker, bumping its
// attempt counter. Returns model.ErrNoJobsAvailable when the queue is empty.
func (r *JobRepo) ClaimNext(ctx context.Context) (*model.Job, error) {
	query := `
  UPDATE dialectic_generation_jobs j SET
    status = 'processing',
    attempt_count = j.attempt_count + 1,
    started_at = $1
  WHERE j.id = (
    SELECT id FROM dialectic_generation_jobs
    WHERE status IN ('pending', 'pending_continuation', 'retrying')
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  RETURNING ` + qualifiedJobColumns

	row := r.DB.QueryRowContext(ctx, query, r.timeProvider.Now().UTC())
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

const qualifiedJobColumns = `
  j.id, j.session_id, j.user_id, j.stage_slug, j.iteration_number, j.job_type,
  j.payload, j.status, j.attempt_count, j.max_retries, j.parent_job_id,
  j.target_contribution_id, j.results, j.error_details, j.created_at,
  j.started_at, j.completed_at
`

// MarkProcessing flips a job to processing without touching its attempt
// counter; external dispatchers that claimed the row elsewhere use this.
func (r *JobRepo) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, `
  UPDATE dialectic_generation_jobs
  SET status = 'processing', started_at = COALESCE(started_at, $2)
  WHERE id = $1`, r.timeProvider.Now().UTC())
}

// MarkCompleted records a successful outcome with its structured results.
func (r *JobRepo) MarkCompleted(ctx context.Context, id string, results json.RawMessage) error {
	return r.setStatus(ctx, id, `
  UPDATE dialectic_generation_jobs
  SET status = 'completed', results = $2, completed_at = $3
  WHERE id = $1`, nullableJSON(results), r.timeProvider.Now().UTC())
}

// MarkFailed records a terminal failure with its error details.
func (r *JobRepo) MarkFailed(ctx context.Context, id string, errorDetails json.RawMessage) error {
	return r.setStatus(ctx, id, `
  UPDATE dialectic_generation_jobs
  SET status = 'failed', error_details = $2, completed_at = $3
  WHERE id = $1`, nullableJSON(errorDetails), r.timeProvider.Now().UTC())
}

// MarkRetrying records a failed attempt that remains within the retry
// budget, together with the accumulated failed-attempt diagnostics.
func (r *JobRepo) MarkRetrying(ctx context.Context, id string, attemptCount int, errorDetails json.RawMessage) error {
	return r.setStatus(ctx, id, `
  UPDATE dialectic_generation_jobs
  SET status = 'retrying', attempt_count = $2, error_details = $3
  WHERE id = $1`, attemptCount, nullableJSON(errorDetails))
}

func (r *JobRepo) setStatus(ctx context.Context, id, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("job %s not found", id)
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
