// Package redisnotify delivers lifecycle notifications over Redis pub/sub.
// Each project owner gets their own channel; the UI layer subscribing to it
// is outside this worker.
package redisnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/notify"
)

// channelPrefix namespaces the per-user notification channels.
const channelPrefix = "notifications:"

// envelope is the wire shape of one notification.
type envelope struct {
	Event     string         `json:"event"`
	UserID    string         `json:"user_id"`
	Job       notify.JobRef  `json:"job"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Notifier publishes lifecycle events to Redis. It implements
// notify.LifecycleNotifier; callers treat delivery as fire-and-forget and
// never let a returned error reverse a job outcome.
type Notifier struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ notify.LifecycleNotifier = (*Notifier)(nil)

// NewNotifier constructs a Notifier. The logger is optional.
func NewNotifier(client redis.UniversalClient, logger *slog.Logger) (*Notifier, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if logger != nil {
		logger = logger.With("component", "redis_notifier")
	}
	return &Notifier{client: client, logger: logger}, nil
}

// Channel returns the pub/sub channel for a user.
func Channel(userID string) string {
	return channelPrefix + userID
}

func (n *Notifier) publish(ctx context.Context, event, userID string, ref notify.JobRef, data map[string]any) error {
	if userID == "" {
		return errors.New("notification has no recipient")
	}
	payload, err := json.Marshal(envelope{
		Event:     event,
		UserID:    userID,
		Job:       ref,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal %s notification: %w", event, err)
	}
	if err := n.client.Publish(ctx, Channel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s notification: %w", event, err)
	}
	if n.logger != nil {
		n.logger.DebugContext(ctx, "notification published", "event", event, "job_id", ref.JobID)
	}
	return nil
}

func (n *Notifier) ContributionGenerationStarted(ctx context.Context, userID string, ref notify.JobRef) error {
	return n.publish(ctx, notify.EventContributionGenerationStarted, userID, ref, nil)
}

func (n *Notifier) DialecticContributionStarted(ctx context.Context, userID string, ref notify.JobRef) error {
	return n.publish(ctx, notify.EventDialecticContributionStarted, userID, ref, nil)
}

func (n *Notifier) ContributionGenerationRetrying(ctx context.Context, userID string, ref notify.JobRef, errMsg string) error {
	return n.publish(ctx, notify.EventContributionGenerationRetrying, userID, ref, map[string]any{"error": errMsg})
}

func (n *Notifier) DialecticContributionReceived(ctx context.Context, userID string, ref notify.JobRef, contribution *model.Contribution, isContinuing bool) error {
	data := map[string]any{"is_continuing": isContinuing}
	if contribution != nil {
		data["contribution_id"] = contribution.ID
		data["storage_path"] = contribution.StoragePath + "/" + contribution.FileName
	}
	return n.publish(ctx, notify.EventDialecticContributionReceived, userID, ref, data)
}

func (n *Notifier) ContributionGenerationFailed(ctx context.Context, userID string, ref notify.JobRef, errMsg string) error {
	return n.publish(ctx, notify.EventContributionGenerationFailed, userID, ref, map[string]any{"error": errMsg})
}

func (n *Notifier) ContributionGenerationContinued(ctx context.Context, userID string, ref notify.JobRef, continuationNumber int) error {
	return n.publish(ctx, notify.EventContributionGenerationContinued, userID, ref, map[string]any{"continuation_number": continuationNumber})
}

func (n *Notifier) ContributionGenerationComplete(ctx context.Context, userID string, ref notify.JobRef) error {
	return n.publish(ctx, notify.EventContributionGenerationComplete, userID, ref, nil)
}

func (n *Notifier) DialecticProgressUpdate(ctx context.Context, userID string, ref notify.JobRef, documentIdentity string) error {
	return n.publish(ctx, notify.EventDialecticProgressUpdate, userID, ref, map[string]any{"document_identity": documentIdentity})
}

func (n *Notifier) RenderStarted(ctx context.Context, userID string, ref notify.JobRef) error {
	return n.publish(ctx, notify.EventRenderStarted, userID, ref, nil)
}

func (n *Notifier) RenderChunkCompleted(ctx context.Context, userID string, ref notify.JobRef, storagePath string) error {
	return n.publish(ctx, notify.EventRenderChunkCompleted, userID, ref, map[string]any{"storage_path": storagePath})
}

func (n *Notifier) JobFailed(ctx context.Context, userID string, ref notify.JobRef, errMsg string) error {
	return n.publish(ctx, notify.EventJobFailed, userID, ref, map[string]any{"error": errMsg})
}
