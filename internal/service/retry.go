package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/notify"
)

// RetryControllerOptions groups dependencies for RetryController.
type RetryControllerOptions struct {
	Jobs     core.JobRepository      // Required: job rows
	Notifier notify.LifecycleNotifier // Optional: defaults to a no-op
	Logger   *slog.Logger            // Optional: structured logger
}

// RetryController marks a job as retrying after a failed attempt within the
// retry budget and best-effort notifies the project owner.
type RetryController struct {
	jobs     core.JobRepository
	notifier notify.LifecycleNotifier
	logger   *slog.Logger
}

// NewRetryController constructs a RetryController.
func NewRetryController(opts RetryControllerOptions) (*RetryController, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "retry_controller")
	}
	return &RetryController{jobs: opts.Jobs, notifier: notifier, logger: logger}, nil
}

// MarkRetrying records the failed attempt on the job row: status becomes
// retrying, the attempt counter advances, and error_details accumulates
// every failed-attempt record so far for diagnostics. Notification delivery
// failures are logged and never fail the retry itself.
func (r *RetryController) MarkRetrying(ctx context.Context, job *model.Job, attemptErr error, attempt model.FailedAttempt) error {
	if job == nil {
		return apperrors.Validation("job is required")
	}

	details := model.ErrorDetails{
		Message:        attemptErr.Error(),
		Code:           string(apperrors.GetCode(attemptErr)),
		FailedAttempts: append(priorAttempts(job), attempt),
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistence, "marshal retry error details")
	}

	if err := r.jobs.MarkRetrying(ctx, job.ID, job.AttemptCount, raw); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistence, "mark job retrying")
	}

	ref := notify.JobRef{
		JobID:     job.ID,
		SessionID: job.SessionID,
		StageSlug: job.StageSlug,
		Iteration: job.IterationNumber,
	}
	if notifyErr := r.notifier.ContributionGenerationRetrying(ctx, job.UserID, ref, attemptErr.Error()); notifyErr != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "retry notification failed", "job_id", job.ID, "error", notifyErr)
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "job retrying",
			"job_id", job.ID,
			"attempt_count", job.AttemptCount,
			"max_retries", job.MaxRetries)
	}
	return nil
}

// priorAttempts decodes the failed-attempt history already recorded on the
// job row; undecodable history is dropped rather than failing the retry.
func priorAttempts(job *model.Job) []model.FailedAttempt {
	if len(job.ErrorDetails) == 0 {
		return nil
	}
	var details model.ErrorDetails
	if err := json.Unmarshal(job.ErrorDetails, &details); err != nil {
		return nil
	}
	return details.FailedAttempts
}
