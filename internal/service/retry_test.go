package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/mocks"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/notify"
	"github.com/dialecticlabs/dialectic-worker/internal/testutil"
)

type captureNotifier struct {
	notify.NopNotifier
	retrying []string
	err      error
}

func (n *captureNotifier) ContributionGenerationRetrying(_ context.Context, _ string, _ notify.JobRef, message string) error {
	n.retrying = append(n.retrying, message)
	return n.err
}

func newRetryController(t *testing.T, jobs *mocks.MockJobRepository, notifier notify.LifecycleNotifier) *RetryController {
	t.Helper()
	r, err := NewRetryController(RetryControllerOptions{
		Jobs:     jobs,
		Notifier: notifier,
		Logger:   slog.Default(),
	})
	require.NoError(t, err)
	return r
}

func TestMarkRetryingRecordsAttemptHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	notifier := &captureNotifier{}
	r := newRetryController(t, jobs, notifier)

	prior := model.ErrorDetails{
		Message: "first attempt failed",
		FailedAttempts: []model.FailedAttempt{
			{ModelID: "model-1", APIIdentifier: "gpt-test", Error: "timeout"},
		},
	}
	rawPrior, err := json.Marshal(prior)
	require.NoError(t, err)

	job := testutil.NewJobBuilder().
		WithAttempts(2, 3).
		WithErrorDetails(rawPrior).
		Build()

	var recorded json.RawMessage
	jobs.EXPECT().
		MarkRetrying(gomock.Any(), job.ID, 2, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ int, raw json.RawMessage) error {
			recorded = raw
			return nil
		})

	attemptErr := apperrors.Persistence("upload failed")
	err = r.MarkRetrying(context.Background(), job, attemptErr, model.FailedAttempt{
		ModelID:       "model-1",
		APIIdentifier: "gpt-test",
		Error:         "upload failed",
	})
	require.NoError(t, err)

	var details model.ErrorDetails
	require.NoError(t, json.Unmarshal(recorded, &details))
	assert.Equal(t, "upload failed", details.Message)
	assert.Equal(t, string(apperrors.ErrCodePersistence), details.Code)
	require.Len(t, details.FailedAttempts, 2, "prior attempts accumulate")
	assert.Equal(t, "timeout", details.FailedAttempts[0].Error)
	assert.Equal(t, "upload failed", details.FailedAttempts[1].Error)

	assert.Equal(t, []string{"upload failed"}, notifier.retrying)
}

func TestMarkRetryingSwallowsNotificationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	notifier := &captureNotifier{err: errors.New("redis down")}
	r := newRetryController(t, jobs, notifier)

	job := testutil.NewJobBuilder().Build()
	jobs.EXPECT().MarkRetrying(gomock.Any(), job.ID, job.AttemptCount, gomock.Any()).Return(nil)

	err := r.MarkRetrying(context.Background(), job, apperrors.Internal("boom"), model.FailedAttempt{})
	assert.NoError(t, err, "notification delivery never fails the retry")
}

func TestMarkRetryingDropsUndecodableHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	r := newRetryController(t, jobs, nil)

	job := testutil.NewJobBuilder().
		WithErrorDetails(json.RawMessage(`not json`)).
		Build()

	var recorded json.RawMessage
	jobs.EXPECT().
		MarkRetrying(gomock.Any(), job.ID, job.AttemptCount, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ int, raw json.RawMessage) error {
			recorded = raw
			return nil
		})

	err := r.MarkRetrying(context.Background(), job, apperrors.Internal("boom"), model.FailedAttempt{Error: "boom"})
	require.NoError(t, err)

	var details model.ErrorDetails
	require.NoError(t, json.Unmarshal(recorded, &details))
	require.Len(t, details.FailedAttempts, 1)
}

func TestMarkRetryingPersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	r := newRetryController(t, jobs, nil)

	job := testutil.NewJobBuilder().Build()
	jobs.EXPECT().MarkRetrying(gomock.Any(), job.ID, job.AttemptCount, gomock.Any()).Return(errors.New("db down"))

	err := r.MarkRetrying(context.Background(), job, apperrors.Internal("boom"), model.FailedAttempt{})
	assert.True(t, apperrors.IsPersistence(err))
}

func TestMarkRetryingRequiresJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := newRetryController(t, mocks.NewMockJobRepository(ctrl), nil)

	err := r.MarkRetrying(context.Background(), nil, apperrors.Internal("boom"), model.FailedAttempt{})
	assert.True(t, apperrors.IsValidation(err))
}
