// Package worker runs the claim-and-dispatch loop: a fixed pool of
// goroutines claims dispatchable jobs with FOR UPDATE SKIP LOCKED and routes
// each to its processor by job type.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/statsd"
	"github.com/dialecticlabs/dialectic-worker/internal/service"
)

// DispatcherOptions groups dependencies for Dispatcher.
type DispatcherOptions struct {
	Jobs         core.JobRepository          // Required: job claiming
	Executor     *service.ModelCallExecutor  // Required: execute job processing
	Renderer     *service.RenderJobProcessor // Required: render job processing
	Concurrency  int                         // Optional: defaults to 1
	PollInterval time.Duration               // Optional: defaults to 2s
	JobTimeout   time.Duration               // Optional: defaults to 10m
	Metrics      statsd.Sink                 // Optional: defaults to a no-op
	Logger       *slog.Logger                // Optional: structured logger
}

// Dispatcher owns the worker pool. It stays thin: claiming, routing, and the
// per-job timeout live here; every outcome decision lives in the processors.
type Dispatcher struct {
	jobs         core.JobRepository
	executor     *service.ModelCallExecutor
	renderer     *service.RenderJobProcessor
	concurrency  int
	pollInterval time.Duration
	jobTimeout   time.Duration
	metrics      statsd.Sink
	logger       *slog.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("ModelCallExecutor is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("RenderJobProcessor is required")
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Minute
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.NopSink{}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "dispatcher")
	}
	return &Dispatcher{
		jobs:         opts.Jobs,
		executor:     opts.Executor,
		renderer:     opts.Renderer,
		concurrency:  opts.Concurrency,
		pollInterval: opts.PollInterval,
		jobTimeout:   opts.JobTimeout,
		metrics:      metrics,
		logger:       logger,
	}, nil
}

// Run blocks until the context is canceled, processing jobs with the
// configured concurrency. In-flight jobs finish before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.concurrency; i++ {
		g.Go(func() error {
			d.loop(gctx)
			return nil
		})
	}
	if d.logger != nil {
		d.logger.InfoContext(ctx, "dispatcher started", "concurrency", d.concurrency)
	}
	return g.Wait()
}

func (d *Dispatcher) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := d.jobs.ClaimNext(ctx)
		if err != nil {
			if errors.Is(err, model.ErrNoJobsAvailable) {
				d.sleep(ctx)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			if d.logger != nil {
				d.logger.ErrorContext(ctx, "claim next job failed", "error", err)
			}
			d.sleep(ctx)
			continue
		}
		d.dispatch(ctx, job)
	}
}

func (d *Dispatcher) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(d.pollInterval):
	}
}

// dispatch routes one claimed job to its processor under the per-job
// timeout. Processor errors are already recorded on the job row; they are
// logged here for the operator, not re-handled.
func (d *Dispatcher) dispatch(ctx context.Context, job *model.Job) {
	jobCtx, cancel := context.WithTimeout(ctx, d.jobTimeout)
	defer cancel()

	start := time.Now()
	var err error
	switch job.JobType {
	case model.JobTypeExecute:
		err = d.executor.Process(jobCtx, job)
	case model.JobTypeRender:
		err = d.renderer.Process(jobCtx, job)
	default:
		err = d.failUnknownType(jobCtx, job)
	}
	d.metrics.Timing("job.duration", time.Since(start), map[string]string{"job_type": string(job.JobType)})

	if err != nil && d.logger != nil {
		d.logger.WarnContext(ctx, "job did not complete",
			"job_id", job.ID, "job_type", job.JobType, "error", err)
	}
}

// failUnknownType terminates a job whose type this worker cannot route. The
// row is bad data, so no retry can help it.
func (d *Dispatcher) failUnknownType(ctx context.Context, job *model.Job) error {
	// Terminal writes never ride the per-job deadline; a dead context here
	// would strand the row in processing.
	ctx = context.WithoutCancel(ctx)

	cause := apperrors.Validationf("unknown job type %q", job.JobType)
	details, err := json.Marshal(model.ErrorDetails{
		Message: cause.Error(),
		Code:    string(apperrors.ErrCodeValidation),
	})
	if err != nil {
		details = nil
	}
	if markErr := d.jobs.MarkFailed(ctx, job.ID, details); markErr != nil {
		return markErr
	}
	return cause
}
