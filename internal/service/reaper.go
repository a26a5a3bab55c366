package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/statsd"
)

// JobReaperOptions groups dependencies for JobReaper.
type JobReaperOptions struct {
	Repo      core.ReaperRepository // Required: stale-row reclamation
	Interval  time.Duration         // Optional: defaults to 1m
	Staleness time.Duration         // Optional: defaults to 15m
	BatchSize int                   // Optional: defaults to 100
	Metrics   statsd.Sink           // Optional: defaults to a no-op
	Logger    *slog.Logger          // Optional: structured logger
}

// JobReaper reclaims jobs stranded in processing. The dispatcher's per-job
// timeout bounds a live worker, but a crashed worker or a write lost to a
// dead connection leaves the row in processing with nothing to touch it
// again; the reaper sweeps those rows back to the queue, or to failed once
// their retry budget is spent.
type JobReaper struct {
	repo      core.ReaperRepository
	interval  time.Duration
	staleness time.Duration
	batchSize int
	metrics   statsd.Sink
	logger    *slog.Logger
}

// NewJobReaper constructs a JobReaper.
func NewJobReaper(opts JobReaperOptions) (*JobReaper, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Staleness <= 0 {
		opts.Staleness = 15 * time.Minute
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 100
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = statsd.NopSink{}
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "job_reaper")
	}
	return &JobReaper{
		repo:      opts.Repo,
		interval:  opts.Interval,
		staleness: opts.Staleness,
		batchSize: opts.BatchSize,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Run sweeps immediately and then at the configured interval until the
// context is canceled. Returns nil on graceful shutdown.
func (s *JobReaper) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting job reaper",
			"interval", s.interval, "staleness", s.staleness)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep reclaims stale processing rows once: jobs with retry budget left go
// back to the queue, exhausted ones are marked failed. Errors are logged and
// left for the next sweep.
func (s *JobReaper) Sweep(ctx context.Context) {
	requeued := s.drain(ctx, s.repo.RequeueStaleProcessing, "requeue stale processing jobs")
	failed := s.drain(ctx, s.repo.FailStaleProcessing, "fail exhausted processing jobs")

	if requeued > 0 {
		s.metrics.Count("reaper.requeued", requeued, nil)
	}
	if failed > 0 {
		s.metrics.Count("reaper.failed", failed, nil)
	}
}

// drain repeats one reclamation statement until it affects no more rows, so
// a large backlog is worked through in bounded batches.
func (s *JobReaper) drain(ctx context.Context, op func(context.Context, time.Duration, int) (int64, error), label string) int64 {
	var total int64
	for {
		if ctx.Err() != nil {
			return total
		}
		count, err := op(ctx, s.staleness, s.batchSize)
		total += count
		if err != nil {
			if s.logger != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx, label+" failed", "error", err)
			}
			return total
		}
		if count == 0 {
			return total
		}
	}
}
