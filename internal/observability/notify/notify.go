// Package notify defines the lifecycle notification boundary. The core
// depends only on this interface, never on a concrete transport; deliveries
// are fire-and-forget and a delivery failure must never mask or reverse an
// otherwise successful job outcome.
package notify

import (
	"context"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
)

// Event names on the wire.
const (
	EventContributionGenerationStarted   = "contribution_generation_started"
	EventDialecticContributionStarted    = "dialectic_contribution_started"
	EventContributionGenerationRetrying  = "contribution_generation_retrying"
	EventDialecticContributionReceived   = "dialectic_contribution_received"
	EventContributionGenerationFailed    = "contribution_generation_failed"
	EventContributionGenerationContinued = "contribution_generation_continued"
	EventContributionGenerationComplete  = "contribution_generation_complete"
	EventDialecticProgressUpdate         = "dialectic_progress_update"
	EventRenderStarted                   = "render_started"
	EventRenderChunkCompleted            = "render_chunk_completed"
	EventJobFailed                       = "job_failed"
)

// JobRef identifies the job a notification is about.
type JobRef struct {
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
	StageSlug string `json:"stage_slug"`
	Iteration int    `json:"iteration_number"`
}

// LifecycleNotifier delivers pipeline lifecycle events to the project
// owner, one method per event type.
type LifecycleNotifier interface {
	ContributionGenerationStarted(ctx context.Context, userID string, ref JobRef) error
	DialecticContributionStarted(ctx context.Context, userID string, ref JobRef) error
	ContributionGenerationRetrying(ctx context.Context, userID string, ref JobRef, errMsg string) error
	DialecticContributionReceived(ctx context.Context, userID string, ref JobRef, contribution *model.Contribution, isContinuing bool) error
	ContributionGenerationFailed(ctx context.Context, userID string, ref JobRef, errMsg string) error
	ContributionGenerationContinued(ctx context.Context, userID string, ref JobRef, continuationNumber int) error
	ContributionGenerationComplete(ctx context.Context, userID string, ref JobRef) error
	DialecticProgressUpdate(ctx context.Context, userID string, ref JobRef, documentIdentity string) error
	RenderStarted(ctx context.Context, userID string, ref JobRef) error
	RenderChunkCompleted(ctx context.Context, userID string, ref JobRef, storagePath string) error
	JobFailed(ctx context.Context, userID string, ref JobRef, errMsg string) error
}

// NopNotifier discards every event. Useful as a default and in tests.
type NopNotifier struct{}

var _ LifecycleNotifier = NopNotifier{}

func (NopNotifier) ContributionGenerationStarted(context.Context, string, JobRef) error {
	return nil
}

func (NopNotifier) DialecticContributionStarted(context.Context, string, JobRef) error {
	return nil
}

func (NopNotifier) ContributionGenerationRetrying(context.Context, string, JobRef, string) error {
	return nil
}

func (NopNotifier) DialecticContributionReceived(context.Context, string, JobRef, *model.Contribution, bool) error {
	return nil
}

func (NopNotifier) ContributionGenerationFailed(context.Context, string, JobRef, string) error {
	return nil
}

func (NopNotifier) ContributionGenerationContinued(context.Context, string, JobRef, int) error {
	return nil
}

func (NopNotifier) ContributionGenerationComplete(context.Context, string, JobRef) error {
	return nil
}

func (NopNotifier) DialecticProgressUpdate(context.Context, string, JobRef, string) error {
	return nil
}

func (NopNotifier) RenderStarted(context.Context, string, JobRef) error {
	return nil
}

func (NopNotifier) RenderChunkCompleted(context.Context, string, JobRef, string) error {
	return nil
}

func (NopNotifier) JobFailed(context.Context, string, JobRef, string) error {
	return nil
}
