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
	"github.com/dialecticlabs/dialectic-worker/internal/testutil"
)

func TestContinuationPolicyShouldContinue(t *testing.T) {
	policy := NewContinuationPolicy(5)

	optedIn := func(count int) *model.ExecutePayload {
		return testutil.NewExecutePayload(func(p *model.ExecutePayload) {
			p.ContinueUntilComplete = true
			p.ContinuationCount = count
		})
	}

	t.Run("truncation within depth continues", func(t *testing.T) {
		assert.True(t, policy.ShouldContinue(optedIn(0), model.FinishReasonLength))
		assert.True(t, policy.ShouldContinue(optedIn(4), model.FinishReasonMaxTokens))
	})

	t.Run("depth bound is strict", func(t *testing.T) {
		assert.False(t, policy.ShouldContinue(optedIn(5), model.FinishReasonLength))
		assert.False(t, policy.ShouldContinue(optedIn(6), model.FinishReasonLength))
	})

	t.Run("non-truncation reasons never continue", func(t *testing.T) {
		for _, reason := range []model.FinishReason{
			model.FinishReasonStop,
			model.FinishReasonToolCalls,
			model.FinishReasonContentFilter,
			model.FinishReasonError,
			model.FinishReasonUnknown,
			model.FinishReason(""),
		} {
			assert.False(t, policy.ShouldContinue(optedIn(0), reason), "reason %q", reason)
		}
	})

	t.Run("payload must opt in", func(t *testing.T) {
		assert.False(t, policy.ShouldContinue(testutil.NewExecutePayload(), model.FinishReasonLength))
		assert.False(t, policy.ShouldContinue(nil, model.FinishReasonLength))
	})
}

func TestNewContinuationPolicyDefaultsDepth(t *testing.T) {
	assert.Equal(t, DefaultMaxContinuationDepth, NewContinuationPolicy(0).MaxDepth())
	assert.Equal(t, DefaultMaxContinuationDepth, NewContinuationPolicy(-3).MaxDepth())
	assert.Equal(t, 8, NewContinuationPolicy(8).MaxDepth())
}

func newContinuationController(t *testing.T, jobs *mocks.MockJobRepository) *ContinuationController {
	t.Helper()
	c, err := NewContinuationController(ContinuationControllerOptions{
		Jobs:   jobs,
		Policy: NewContinuationPolicy(5),
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	return c
}

func continuationRequest(t *testing.T) ContinuationRequest {
	t.Helper()
	payload := testutil.NewExecutePayload(func(p *model.ExecutePayload) {
		p.ContinueUntilComplete = true
		p.ContinuationCount = 1
		p.DocumentRelationships = map[string]string{"thesis": "root-1"}
	})
	parent := "exec-root"
	job := testutil.NewJobBuilder().WithPayload(t, payload).Build()
	job.ParentJobID = &parent
	chunk := testutil.NewContributionBuilder("chunk-2").
		ContinuationOf("chunk-1", "root-1").
		Build()
	return ContinuationRequest{
		Job:          job,
		Payload:      payload,
		FinishReason: model.FinishReasonLength,
		Chunk:        chunk,
	}
}

func TestMaybeContinueEnqueuesContinuationJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	c := newContinuationController(t, jobs)
	req := continuationRequest(t)

	var created *model.CreateJobRequest
	jobs.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *model.CreateJobRequest) (*model.Job, error) {
			created = r
			return &model.Job{ID: "job-cont"}, nil
		})

	job, err := c.MaybeContinue(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-cont", job.ID)

	require.NotNil(t, created)
	assert.Equal(t, model.JobTypeExecute, created.JobType)
	assert.Equal(t, model.JobStatusPendingContinuation, created.Status)
	assert.Equal(t, req.Job.SessionID, created.SessionID)
	assert.Equal(t, req.Job.UserID, created.UserID)
	assert.Equal(t, req.Job.MaxRetries, created.MaxRetries)
	assert.Equal(t, req.Job.ParentJobID, created.ParentJobID, "parent lineage is copied, not re-derived")
	require.NotNil(t, created.TargetContributionID)
	assert.Equal(t, req.Chunk.ID, *created.TargetContributionID)

	next, err := model.ParseExecutePayload(created.Payload)
	require.NoError(t, err)
	assert.Equal(t, req.Chunk.ID, next.TargetContributionID)
	assert.Equal(t, 2, next.ContinuationCount)
	assert.Equal(t, req.Payload.UserJWT, next.UserJWT)
	assert.Equal(t, req.Payload.WalletID, next.WalletID)
	require.NotNil(t, next.CanonicalPathParams)
	assert.Equal(t, req.Payload.OutputType, next.CanonicalPathParams.ContributionType)
	assert.Equal(t, "thesis", next.CanonicalPathParams.StageSlug)
}

func TestMaybeContinueNoOpWhenPolicyDeclines(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	c := newContinuationController(t, jobs)

	req := continuationRequest(t)
	req.FinishReason = model.FinishReasonStop

	job, err := c.MaybeContinue(context.Background(), req)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestMaybeContinueFallsBackToChunkRelationships(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	c := newContinuationController(t, jobs)

	req := continuationRequest(t)
	req.Payload.DocumentRelationships = nil

	var raw json.RawMessage
	jobs.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *model.CreateJobRequest) (*model.Job, error) {
			raw = r.Payload
			return &model.Job{ID: "job-cont"}, nil
		})

	_, err := c.MaybeContinue(context.Background(), req)
	require.NoError(t, err)

	next, err := model.ParseExecutePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, req.Chunk.DocumentRelationships, next.DocumentRelationships)
}

func TestMaybeContinueRefusesToFabricateContext(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ContinuationRequest)
	}{
		{"missing jwt", func(r *ContinuationRequest) { r.Payload.UserJWT = "" }},
		{"missing wallet", func(r *ContinuationRequest) { r.Payload.WalletID = "" }},
		{"missing output type", func(r *ContinuationRequest) { r.Payload.OutputType = "" }},
		{"no relationships anywhere", func(r *ContinuationRequest) {
			r.Payload.DocumentRelationships = nil
			r.Chunk.DocumentRelationships = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			jobs := mocks.NewMockJobRepository(ctrl)
			c := newContinuationController(t, jobs)

			req := continuationRequest(t)
			tt.mutate(&req)

			job, err := c.MaybeContinue(context.Background(), req)
			assert.Nil(t, job)
			assert.True(t, apperrors.IsContinuation(err), "got %v", err)
		})
	}
}

func TestMaybeContinueWrapsInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	c := newContinuationController(t, jobs)

	jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed"))

	_, err := c.MaybeContinue(context.Background(), continuationRequest(t))
	assert.True(t, apperrors.IsContinuation(err))
}
