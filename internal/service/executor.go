package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/notify"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/statsd"
)

// ModelCallExecutorOptions groups dependencies for ModelCallExecutor.
type ModelCallExecutorOptions struct {
	Jobs          core.JobRepository          // Required: job rows
	Contributions core.ContributionRepository // Required: contribution rows
	Files         core.FileStore              // Required: blob storage reads
	Registrar     core.FileRegistrar          // Required: chunk persistence
	Models        core.ModelConfigProvider    // Required: provider/model config
	Caller        core.ModelCaller            // Required: the AI provider boundary
	Tokens        core.TokenCounter           // Required: prompt token counting
	Compressor    core.ContextCompressor      // Required: context-window recovery
	Prompts       core.PromptAssembler        // Required: prompt construction
	Continuations *ContinuationController     // Required: truncation follow-ups
	Retries       *RetryController            // Required: retry bookkeeping
	Policy        core.RenderPolicy           // Required: render-vs-assemble decision
	Assembler     *DocumentAssembler          // Required: synchronous JSON assembly
	Notifier      notify.LifecycleNotifier    // Optional: defaults to a no-op
	Metrics       statsd.Sink                 // Optional: defaults to a no-op
	Logger        *slog.Logger                // Optional: structured logger
}

// ModelCallExecutor drives one execute job from claimed to terminal: prompt
// assembly, context-window checks, the model call, chunk persistence,
// continuation scheduling, and exactly one of render-job enqueue or
// synchronous assembly once the document is complete.
type ModelCallExecutor struct {
	jobs          core.JobRepository
	contributions core.ContributionRepository
	files         core.FileStore
	registrar     core.FileRegistrar
	models        core.ModelConfigProvider
	caller        core.ModelCaller
	tokens        core.TokenCounter
	compressor    core.ContextCompressor
	prompts       core.PromptAssembler
	continuations *ContinuationController
	retries       *RetryController
	policy        core.RenderPolicy
	assembler     *DocumentAssembler
	notifier      notify.LifecycleNotifier
	metrics       statsd.Sink
	logger        *slog.Logger
}

// NewModelCallExecutor constructs a ModelCallExecutor.
func NewModelCallExecutor(opts ModelCallExecutorOptions) (*ModelCallExecutor, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Contributions == nil:
		return nil, errors.New("ContributionRepository is required")
	case opts.Files == nil:
		return nil, errors.New("FileStore is required")
	case opts.Registrar == nil:
		return nil, errors.New("FileRegistrar is required")
	case opts.Models == nil:
		return nil, errors.New("ModelConfigProvider is required")
	case opts.Caller == nil:
		return nil, errors.New("ModelCaller is required")
	case opts.Tokens == nil:
		return nil, errors.New("TokenCounter is required")
	case opts.Compressor == nil:
		return nil, errors.New("ContextCompressor is required")
	case opts.Prompts == nil:
		return nil, errors.New("PromptAssembler is required")
	case opts.Continuations == nil:
		return nil, errors.New("ContinuationController is required")
	case opts.Retries == nil:
		return nil, errors.New("RetryController is required")
	case opts.Policy == nil:
		return nil, errors.New("RenderPolicy is required")
	case opts.Assembler == nil:
		return nil, errors.New("DocumentAssembler is required")
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.NopSink{}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "model_call_executor")
	}
	return &ModelCallExecutor{
		jobs:          opts.Jobs,
		contributions: opts.Contributions,
		files:         opts.Files,
		registrar:     opts.Registrar,
		models:        opts.Models,
		caller:        opts.Caller,
		tokens:        opts.Tokens,
		compressor:    opts.Compressor,
		prompts:       opts.Prompts,
		continuations: opts.Continuations,
		retries:       opts.Retries,
		policy:        opts.Policy,
		assembler:     opts.Assembler,
		notifier:      notifier,
		metrics:       metrics,
		logger:        logger,
	}, nil
}

// Process executes one claimed execute job to its terminal state. Errors are
// routed through the retry budget: retryable failures inside the budget mark
// the job retrying, everything else marks it failed.
func (e *ModelCallExecutor) Process(ctx context.Context, job *model.Job) error {
	ref := notify.JobRef{
		JobID:     job.ID,
		SessionID: job.SessionID,
		StageSlug: job.StageSlug,
		Iteration: job.IterationNumber,
	}

	payload, err := model.ParseExecutePayload(job.Payload)
	if err != nil {
		return e.handleFailure(ctx, job, ref, "", "", err)
	}

	cfg, err := e.models.GetModelConfig(ctx, payload.ModelID)
	if err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, "", err)
	}

	prompt, err := e.prompts.AssemblePrompt(ctx, payload)
	if err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, cfg.APIIdentifier, err)
	}
	prompt, err = e.ensureFits(ctx, cfg, prompt)
	if err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, cfg.APIIdentifier, err)
	}

	e.announce(ctx, job, ref)

	resp, err := e.callModel(ctx, cfg, payload, prompt)
	if err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, cfg.APIIdentifier, err)
	}

	content, err := e.fullContent(ctx, payload, resp.Content)
	if err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, cfg.APIIdentifier, err)
	}

	chunk, err := e.persistChunk(ctx, job, payload, cfg, resp, content)
	if err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, cfg.APIIdentifier, err)
	}

	contJob := e.maybeContinue(ctx, job, payload, resp, chunk)

	if notifyErr := e.notifier.DialecticContributionReceived(ctx, job.UserID, ref, chunk, contJob != nil); notifyErr != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "contribution received notification failed", "job_id", job.ID, "error", notifyErr)
	}

	if contJob != nil {
		if notifyErr := e.notifier.ContributionGenerationContinued(ctx, job.UserID, ref, payload.ContinuationCount+1); notifyErr != nil && e.logger != nil {
			e.logger.WarnContext(ctx, "continuation notification failed", "job_id", job.ID, "error", notifyErr)
		}
		return e.complete(ctx, job, payload, chunk)
	}

	if err := e.finalizeDocument(ctx, job, payload, chunk); err != nil {
		return e.handleFailure(ctx, job, ref, payload.ModelID, cfg.APIIdentifier, err)
	}

	if notifyErr := e.notifier.ContributionGenerationComplete(ctx, job.UserID, ref); notifyErr != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "generation complete notification failed", "job_id", job.ID, "error", notifyErr)
	}
	if notifyErr := e.notifier.DialecticProgressUpdate(ctx, job.UserID, ref, chunk.DocumentIdentity(job.StageSlug)); notifyErr != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "progress update notification failed", "job_id", job.ID, "error", notifyErr)
	}

	return e.complete(ctx, job, payload, chunk)
}

// ensureFits checks the prompt against the model's context window,
// compressing once when it overflows. A prompt that still overflows after
// compression is a fatal context-window failure, never retried.
func (e *ModelCallExecutor) ensureFits(ctx context.Context, cfg *core.ModelConfig, prompt string) (string, error) {
	count, err := e.tokens.CountTokens(ctx, cfg.ModelID, prompt)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "count prompt tokens")
	}
	if cfg.ContextWindowTokens <= 0 || count <= cfg.ContextWindowTokens {
		return prompt, nil
	}

	compressed, err := e.compressor.Compress(ctx, cfg.ModelID, prompt, cfg.ContextWindowTokens)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeContextWindow, "compress prompt")
	}
	count, err = e.tokens.CountTokens(ctx, cfg.ModelID, compressed)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "recount compressed prompt tokens")
	}
	if count > cfg.ContextWindowTokens {
		return "", apperrors.ContextWindowf(
			"prompt of %d tokens exceeds the %d-token window for model %s even after compression",
			count, cfg.ContextWindowTokens, cfg.ModelSlug)
	}
	return compressed, nil
}

func (e *ModelCallExecutor) announce(ctx context.Context, job *model.Job, ref notify.JobRef) {
	if err := e.notifier.ContributionGenerationStarted(ctx, job.UserID, ref); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "generation started notification failed", "job_id", job.ID, "error", err)
	}
	if err := e.notifier.DialecticContributionStarted(ctx, job.UserID, ref); err != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "contribution started notification failed", "job_id", job.ID, "error", err)
	}
}

// callModel invokes the provider and normalizes the three failure shapes
// (transport error, provider-reported error, empty content) into retryable
// errors.
func (e *ModelCallExecutor) callModel(ctx context.Context, cfg *core.ModelConfig, payload *model.ExecutePayload, prompt string) (*core.ModelCallResponse, error) {
	start := time.Now()
	resp, err := e.caller.Call(ctx, core.ModelCallRequest{
		ModelID:  payload.ModelID,
		WalletID: payload.WalletID,
		UserJWT:  payload.UserJWT,
		Prompt:   prompt,
	})
	e.metrics.Timing("model_call.duration", time.Since(start), map[string]string{
		"provider": cfg.ProviderName,
		"model":    cfg.ModelSlug,
	})
	if err != nil {
		e.metrics.Count("model_call.errors", 1, map[string]string{"provider": cfg.ProviderName})
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "call model %s", cfg.ModelSlug)
	}
	if resp.Error != "" {
		e.metrics.Count("model_call.errors", 1, map[string]string{"provider": cfg.ProviderName})
		return nil, apperrors.Internal("model provider reported: " + resp.Error)
	}
	if resp.Content == "" {
		return nil, apperrors.Internal("model returned empty content")
	}
	return resp, nil
}

// fullContent prefixes a continuation response with the content of the chunk
// it continues, so every stored chunk carries the complete document text up
// to its own position.
func (e *ModelCallExecutor) fullContent(ctx context.Context, payload *model.ExecutePayload, content string) (string, error) {
	if !payload.IsContinuation() {
		return content, nil
	}
	prev, err := e.contributions.GetByID(ctx, payload.TargetContributionID)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodePersistence, "load continued chunk %s", payload.TargetContributionID)
	}
	prevContent, err := e.files.Download(ctx, prev.StorageBucket, prev.StoragePath+"/"+prev.FileName)
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodePersistence, "download continued chunk %s", prev.ID)
	}
	return string(prevContent) + content, nil
}

// persistChunk uploads the chunk at its canonical path, inserts its row, and
// establishes the document identity on a fresh root chunk.
func (e *ModelCallExecutor) persistChunk(ctx context.Context, job *model.Job, payload *model.ExecutePayload, cfg *core.ModelConfig, resp *core.ModelCallResponse, content string) (*model.Contribution, error) {
	pc := pathContextFor(payload, cfg, job.AttemptCount)

	var target *string
	if payload.IsContinuation() {
		id := payload.TargetContributionID
		target = &id
	}

	elapsed := int64(0)
	if job.StartedAt != nil {
		elapsed = time.Since(*job.StartedAt).Milliseconds()
	}

	chunk, err := e.registrar.RegisterContribution(ctx, core.ContributionUpload{
		PathContext: pc,
		Metadata: model.Contribution{
			SessionID:             job.SessionID,
			UserID:                job.UserID,
			Stage:                 job.StageSlug,
			IterationNumber:       job.IterationNumber,
			ModelID:               payload.ModelID,
			ModelName:             cfg.APIIdentifier,
			DocumentRelationships: payload.DocumentRelationships,
			TargetContributionID:  target,
			ContributionType:      pc.ContributionType,
			TokensUsedInput:       resp.InputTokens,
			TokensUsedOutput:      resp.OutputTokens,
			ProcessingTimeMs:      elapsed,
		},
		Content: []byte(content),
	})
	if err != nil {
		return nil, err
	}

	// A fresh root chunk becomes its own document identity only after
	// insert, once its id exists.
	if chunk.IsRoot() && chunk.DocumentIdentity(job.StageSlug) == "" {
		relationships := make(map[string]string, len(chunk.DocumentRelationships)+1)
		for k, v := range chunk.DocumentRelationships {
			relationships[k] = v
		}
		relationships[job.StageSlug] = chunk.ID
		if err := e.contributions.SetDocumentRelationships(ctx, chunk.ID, relationships); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodePersistence, "set document relationships for chunk %s", chunk.ID)
		}
		chunk.DocumentRelationships = relationships
	}
	return chunk, nil
}

// pathContextFor maps an execute payload onto the path codec's semantic
// identity, honoring critique lineage for the antithesis stage.
func pathContextFor(payload *model.ExecutePayload, cfg *core.ModelConfig, attempt int) pathcodec.PathContext {
	pc := pathcodec.PathContext{
		FileType:          pathcodec.FileTypeRawJSON,
		ProjectID:         payload.ProjectID,
		SessionID:         payload.SessionID,
		Iteration:         payload.IterationNumber,
		StageSlug:         payload.StageSlug,
		ModelSlug:         cfg.ModelSlug,
		AttemptCount:      attempt,
		DocumentKey:       documentKeyFor(payload),
		ContinuationCount: payload.ContinuationCount,
		ContributionType:  payload.OutputType,
	}
	if params := payload.CanonicalPathParams; params != nil {
		pc.SourceGroupID = params.SourceGroupID
		pc.SourceAnchorModelSlug = params.SourceAnchorModelSlug
		pc.SourceAnchorType = params.SourceAnchorType
		if params.SourceAttemptCount != nil {
			pc.SourceAttemptCount = *params.SourceAttemptCount
		}
		if params.ContributionType != "" {
			pc.ContributionType = params.ContributionType
		}
	}
	return pc
}

func documentKeyFor(payload *model.ExecutePayload) string {
	if payload.DocumentKey != "" {
		return payload.DocumentKey
	}
	return payload.OutputType
}

// maybeContinue delegates the continuation decision; a failure to construct
// or enqueue the follow-up is logged and swallowed so it cannot reverse the
// successful chunk persistence.
func (e *ModelCallExecutor) maybeContinue(ctx context.Context, job *model.Job, payload *model.ExecutePayload, resp *core.ModelCallResponse, chunk *model.Contribution) *model.Job {
	contJob, err := e.continuations.MaybeContinue(ctx, ContinuationRequest{
		Job:          job,
		Payload:      payload,
		FinishReason: resp.FinishReason,
		Chunk:        chunk,
	})
	if err != nil {
		if e.logger != nil {
			e.logger.WarnContext(ctx, "continuation not scheduled", "job_id", job.ID, "error", err)
		}
		return nil
	}
	if contJob != nil {
		e.metrics.Count("continuation.scheduled", 1, nil)
	}
	return contJob
}

// finalizeDocument materializes the finished document exactly one way:
// markdown output types get a render job, JSON-only types are assembled
// synchronously.
func (e *ModelCallExecutor) finalizeDocument(ctx context.Context, job *model.Job, payload *model.ExecutePayload, chunk *model.Contribution) error {
	identity := chunk.DocumentIdentity(job.StageSlug)
	if identity == "" {
		return apperrors.Internal("completed chunk carries no document identity")
	}

	if !e.policy.RendersMarkdown(payload.OutputType) {
		_, err := e.assembler.Assemble(ctx, AssembleRequest{
			SessionID:        job.SessionID,
			Iteration:        job.IterationNumber,
			Stage:            job.StageSlug,
			DocumentIdentity: identity,
		})
		return err
	}

	// Template resolution is exact-match only; a payload that names no
	// template cannot render, and guessing a filename would bypass that.
	if payload.PromptTemplateName == "" {
		return apperrors.Validation("execute payload names no document template for rendered output")
	}
	renderPayload, err := json.Marshal(model.RenderPayload{
		ProjectID:            payload.ProjectID,
		SessionID:            payload.SessionID,
		IterationNumber:      payload.IterationNumber,
		StageSlug:            payload.StageSlug,
		DocumentIdentity:     identity,
		DocumentKey:          documentKeyFor(payload),
		SourceContributionID: chunk.ID,
		TemplateFilename:     payload.PromptTemplateName,
		ModelID:              payload.ModelID,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal render payload")
	}

	renderJob, err := e.jobs.Create(ctx, &model.CreateJobRequest{
		SessionID:       job.SessionID,
		UserID:          job.UserID,
		StageSlug:       job.StageSlug,
		IterationNumber: job.IterationNumber,
		JobType:         model.JobTypeRender,
		Payload:         renderPayload,
		Status:          model.JobStatusPending,
		ParentJobID:     &job.ID,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePersistence, "enqueue render job")
	}
	if e.logger != nil {
		e.logger.InfoContext(ctx, "render job enqueued",
			"job_id", job.ID, "render_job_id", renderJob.ID, "document_identity", identity)
	}
	return nil
}

func (e *ModelCallExecutor) complete(ctx context.Context, job *model.Job, payload *model.ExecutePayload, chunk *model.Contribution) error {
	results, err := json.Marshal(model.JobResult{
		ModelID:        payload.ModelID,
		Status:         string(model.JobStatusCompleted),
		AttemptCount:   job.AttemptCount,
		ContributionID: chunk.ID,
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal job result")
	}
	if err := e.jobs.MarkCompleted(ctx, job.ID, results); err != nil {
		return err
	}
	e.metrics.Count("jobs.completed", 1, map[string]string{"job_type": string(job.JobType)})
	if e.logger != nil {
		e.logger.InfoContext(ctx, "execute job completed",
			"job_id", job.ID, "contribution_id", chunk.ID, "attempt_count", job.AttemptCount)
	}
	return nil
}

// handleFailure routes one failed attempt: retryable failures inside the
// retry budget mark the job retrying, everything else is terminal. The
// original error is always returned for the dispatch loop's logging.
func (e *ModelCallExecutor) handleFailure(ctx context.Context, job *model.Job, ref notify.JobRef, modelID, apiIdentifier string, cause error) error {
	// The failure record must land even when the per-job deadline has
	// already expired, or the row stays processing forever.
	ctx = context.WithoutCancel(ctx)

	attempt := model.FailedAttempt{
		ModelID:       modelID,
		APIIdentifier: apiIdentifier,
		Error:         cause.Error(),
	}

	if apperrors.IsRetryable(cause) && job.AttemptCount < job.MaxRetries {
		if err := e.retries.MarkRetrying(ctx, job, cause, attempt); err != nil && e.logger != nil {
			e.logger.ErrorContext(ctx, "mark job retrying errored", "job_id", job.ID, "error", err)
		}
		return cause
	}

	details, err := json.Marshal(model.ErrorDetails{
		Message:        cause.Error(),
		Code:           string(apperrors.GetCode(cause)),
		FailedAttempts: append(priorAttempts(job), attempt),
	})
	if err != nil {
		details = nil
	}
	if markErr := e.jobs.MarkFailed(ctx, job.ID, details); markErr != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "mark job failed errored", "job_id", job.ID, "error", markErr)
	}
	e.metrics.Count("jobs.failed", 1, map[string]string{"job_type": string(job.JobType)})

	if notifyErr := e.notifier.ContributionGenerationFailed(ctx, job.UserID, ref, cause.Error()); notifyErr != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "generation failed notification errored", "job_id", job.ID, "error", notifyErr)
	}
	if notifyErr := e.notifier.JobFailed(ctx, job.UserID, ref, cause.Error()); notifyErr != nil && e.logger != nil {
		e.logger.WarnContext(ctx, "job failed notification errored", "job_id", job.ID, "error", notifyErr)
	}
	if e.logger != nil {
		e.logger.ErrorContext(ctx, "execute job failed",
			"job_id", job.ID, "attempt_count", job.AttemptCount, "error", cause)
	}
	return cause
}
