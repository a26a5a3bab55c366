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

// RenderJobProcessorOptions groups dependencies for RenderJobProcessor.
type RenderJobProcessorOptions struct {
	Jobs     core.JobRepository       // Required: job rows
	Renderer *DocumentRenderer        // Required: the rendering pipeline
	Notifier notify.LifecycleNotifier // Optional: defaults to a no-op
	Logger   *slog.Logger             // Optional: structured logger
}

// RenderJobProcessor drives one render job from claimed to terminal. Render
// jobs are never retried: any failure marks the job failed outright.
type RenderJobProcessor struct {
	jobs     core.JobRepository
	renderer *DocumentRenderer
	notifier notify.LifecycleNotifier
	logger   *slog.Logger
}

// NewRenderJobProcessor constructs a RenderJobProcessor.
func NewRenderJobProcessor(opts RenderJobProcessorOptions) (*RenderJobProcessor, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("DocumentRenderer is required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "render_job_processor")
	}
	return &RenderJobProcessor{
		jobs:     opts.Jobs,
		renderer: opts.Renderer,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Process renders the document a claimed render job describes and records
// the terminal outcome on the job row.
func (p *RenderJobProcessor) Process(ctx context.Context, job *model.Job) error {
	ref := notify.JobRef{
		JobID:     job.ID,
		SessionID: job.SessionID,
		StageSlug: job.StageSlug,
		Iteration: job.IterationNumber,
	}

	payload, err := model.ParseRenderPayload(job.Payload)
	if err != nil {
		p.fail(ctx, job, ref, err)
		return err
	}

	if notifyErr := p.notifier.RenderStarted(ctx, job.UserID, ref); notifyErr != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "render started notification failed", "job_id", job.ID, "error", notifyErr)
	}

	result, err := p.renderer.Render(ctx, payload)
	if err != nil {
		p.fail(ctx, job, ref, err)
		return err
	}

	results, err := json.Marshal(model.JobResult{
		ModelID:        payload.ModelID,
		Status:         string(model.JobStatusCompleted),
		AttemptCount:   job.AttemptCount,
		ContributionID: payload.SourceContributionID,
	})
	if err != nil {
		markErr := apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal render job result")
		p.fail(ctx, job, ref, markErr)
		return markErr
	}
	if err := p.jobs.MarkCompleted(ctx, job.ID, results); err != nil {
		return err
	}

	if notifyErr := p.notifier.RenderChunkCompleted(ctx, job.UserID, ref, result.Parts.FullPath()); notifyErr != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "render completed notification failed", "job_id", job.ID, "error", notifyErr)
	}

	if p.logger != nil {
		p.logger.InfoContext(ctx, "render job completed",
			"job_id", job.ID,
			"document_identity", payload.DocumentIdentity,
			"chunks", result.ChunkCount,
			"path", result.Parts.FullPath())
	}
	return nil
}

// fail records the terminal failure and emits the job-failed event. Marking
// or notification failures are logged, never escalated past the original
// error.
func (p *RenderJobProcessor) fail(ctx context.Context, job *model.Job, ref notify.JobRef, cause error) {
	// The failure record must land even when the per-job deadline has
	// already expired, or the row stays processing forever.
	ctx = context.WithoutCancel(ctx)

	details, err := json.Marshal(model.ErrorDetails{
		Message: cause.Error(),
		Code:    string(apperrors.GetCode(cause)),
	})
	if err != nil {
		details = nil
	}
	if markErr := p.jobs.MarkFailed(ctx, job.ID, details); markErr != nil && p.logger != nil {
		p.logger.ErrorContext(ctx, "mark render job failed errored", "job_id", job.ID, "error", markErr)
	}
	if notifyErr := p.notifier.JobFailed(ctx, job.UserID, ref, cause.Error()); notifyErr != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "job failed notification errored", "job_id", job.ID, "error", notifyErr)
	}
	if p.logger != nil {
		p.logger.ErrorContext(ctx, "render job failed", "job_id", job.ID, "error", cause)
	}
}
