package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// DefaultMaxContinuationDepth bounds how many continuation chunks one
// document may accumulate when no policy override is configured.
const DefaultMaxContinuationDepth = 5

// ContinuationPolicy decides whether a truncated response may continue.
type ContinuationPolicy struct {
	maxDepth int
}

// NewContinuationPolicy constructs a policy; non-positive depths fall back
// to the default.
func NewContinuationPolicy(maxDepth int) ContinuationPolicy {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxContinuationDepth
	}
	return ContinuationPolicy{maxDepth: maxDepth}
}

// MaxDepth returns the configured continuation depth bound.
func (p ContinuationPolicy) MaxDepth() int {
	return p.maxDepth
}

// ShouldContinue applies the continuation decision rule: the payload must
// opt in, the finish reason must be a length-type truncation, and the
// current continuation count must be strictly below the depth bound.
func (p ContinuationPolicy) ShouldContinue(payload *model.ExecutePayload, reason model.FinishReason) bool {
	if payload == nil || !payload.ContinueUntilComplete {
		return false
	}
	if !reason.IsTruncation() {
		return false
	}
	return payload.ContinuationCount < p.maxDepth
}

// ContinuationControllerOptions groups dependencies for ContinuationController.
type ContinuationControllerOptions struct {
	Jobs   core.JobRepository // Required: job rows
	Policy ContinuationPolicy // Optional: defaults to depth 5
	Logger *slog.Logger       // Optional: structured logger
}

// ContinuationController decides whether a just-completed model call must
// continue and, when it must, constructs and enqueues the continuation job.
type ContinuationController struct {
	jobs   core.JobRepository
	policy ContinuationPolicy
	logger *slog.Logger
}

// NewContinuationController constructs a ContinuationController.
func NewContinuationController(opts ContinuationControllerOptions) (*ContinuationController, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	policy := opts.Policy
	if policy.maxDepth == 0 {
		policy = NewContinuationPolicy(0)
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "continuation_controller")
	}
	return &ContinuationController{jobs: opts.Jobs, policy: policy, logger: logger}, nil
}

// Policy exposes the controller's continuation policy.
func (c *ContinuationController) Policy() ContinuationPolicy {
	return c.policy
}

// ContinuationRequest carries the facts of a just-completed model call.
type ContinuationRequest struct {
	Job          *model.Job
	Payload      *model.ExecutePayload
	FinishReason model.FinishReason
	Chunk        *model.Contribution
}

// MaybeContinue enqueues a continuation job when the decision rule says the
// document is unfinished. It returns (nil, nil) when no continuation is
// needed. Construction failures return structured errors and leave the
// triggering job's own outcome untouched; this method never retries it.
func (c *ContinuationController) MaybeContinue(ctx context.Context, req ContinuationRequest) (*model.Job, error) {
	if req.Job == nil || req.Payload == nil || req.Chunk == nil {
		return nil, apperrors.Continuation("continuation request is missing its job, payload, or chunk")
	}
	if !c.policy.ShouldContinue(req.Payload, req.FinishReason) {
		return nil, nil
	}

	next, err := c.buildPayload(req)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeContinuation, "marshal continuation payload")
	}

	job, err := c.jobs.Create(ctx, &model.CreateJobRequest{
		SessionID:            req.Job.SessionID,
		UserID:               req.Job.UserID,
		StageSlug:            req.Job.StageSlug,
		IterationNumber:      req.Job.IterationNumber,
		JobType:              model.JobTypeExecute,
		Payload:              raw,
		Status:               model.JobStatusPendingContinuation,
		MaxRetries:           req.Job.MaxRetries,
		ParentJobID:          req.Job.ParentJobID,
		TargetContributionID: &req.Chunk.ID,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeContinuation, "insert continuation job")
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "continuation enqueued",
			"job_id", job.ID,
			"parent_job_id", req.Job.ID,
			"continuation_count", next.ContinuationCount)
	}
	return job, nil
}

// buildPayload takes the triggering payload verbatim and overlays the
// continuation fields. It refuses to fabricate missing security or identity
// context: no JWT, no wallet, no output type, or no resolvable document
// relationships each reject the continuation outright.
func (c *ContinuationController) buildPayload(req ContinuationRequest) (*model.ExecutePayload, error) {
	p := req.Payload
	if p.UserJWT == "" {
		return nil, apperrors.Continuation("triggering payload carries no auth token")
	}
	if p.WalletID == "" {
		return nil, apperrors.Continuation("triggering payload carries no wallet reference")
	}
	if p.OutputType == "" {
		return nil, apperrors.Continuation("triggering payload carries no output type")
	}

	relationships := p.DocumentRelationships
	if relationships[p.StageSlug] == "" {
		relationships = req.Chunk.DocumentRelationships
	}
	if relationships[p.StageSlug] == "" {
		return nil, apperrors.Continuation("no valid document relationships on payload or chunk")
	}

	next := *p
	next.TargetContributionID = req.Chunk.ID
	next.ContinuationCount = p.ContinuationCount + 1
	next.DocumentRelationships = relationships

	params := &model.CanonicalPathParams{}
	if p.CanonicalPathParams != nil {
		cp := *p.CanonicalPathParams
		params = &cp
	}
	params.ContributionType = p.OutputType
	if params.StageSlug == "" {
		params.StageSlug = p.StageSlug
	}
	next.CanonicalPathParams = params

	return &next, nil
}
