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
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/mocks"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/notify"
	"github.com/dialecticlabs/dialectic-worker/internal/testutil"
)

type renderJobNotifier struct {
	notify.NopNotifier
	started   int
	completed []string
	failed    []string
}

func (n *renderJobNotifier) RenderStarted(context.Context, string, notify.JobRef) error {
	n.started++
	return nil
}

func (n *renderJobNotifier) RenderChunkCompleted(_ context.Context, _ string, _ notify.JobRef, storagePath string) error {
	n.completed = append(n.completed, storagePath)
	return nil
}

func (n *renderJobNotifier) JobFailed(_ context.Context, _ string, _ notify.JobRef, errMsg string) error {
	n.failed = append(n.failed, errMsg)
	return nil
}

type renderJobFixture struct {
	*rendererFixture
	processor *RenderJobProcessor
	jobs      *mocks.MockJobRepository
	notifier  *renderJobNotifier
}

func newRenderJobFixture(t *testing.T) *renderJobFixture {
	t.Helper()
	rf := newRendererFixture(t)
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	notifier := &renderJobNotifier{}

	processor, err := NewRenderJobProcessor(RenderJobProcessorOptions{
		Jobs:     jobs,
		Renderer: rf.renderer,
		Notifier: notifier,
		Logger:   slog.Default(),
	})
	require.NoError(t, err)

	return &renderJobFixture{
		rendererFixture: rf,
		processor:       processor,
		jobs:            jobs,
		notifier:        notifier,
	}
}

func TestRenderJobCompletes(t *testing.T) {
	f := newRenderJobFixture(t)
	f.registerTemplate("{{content}}")

	root := testutil.NewContributionBuilder("root-1").Build()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root}, nil)
	f.stubChunk(root, `{"content": "Body."}`)
	f.registrar.EXPECT().
		RegisterRenderedDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pathcodec.PathParts{StoragePath: "dir", FileName: "doc.md"}, nil)

	job := testutil.NewJobBuilder().
		WithType(model.JobTypeRender).
		WithPayload(t, testutil.NewRenderPayload()).
		Build()

	var results json.RawMessage
	f.jobs.EXPECT().
		MarkCompleted(gomock.Any(), job.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, raw json.RawMessage) error {
			results = raw
			return nil
		})

	require.NoError(t, f.processor.Process(context.Background(), job))

	var result model.JobResult
	require.NoError(t, json.Unmarshal(results, &result))
	assert.Equal(t, "model-1", result.ModelID)
	assert.Equal(t, string(model.JobStatusCompleted), result.Status)
	assert.Equal(t, "root-1", result.ContributionID, "result references the source contribution")

	assert.Equal(t, 1, f.notifier.started)
	assert.Equal(t, []string{"dir/doc.md"}, f.notifier.completed)
	assert.Empty(t, f.notifier.failed)
}

func TestRenderJobInvalidPayloadFailsOutright(t *testing.T) {
	f := newRenderJobFixture(t)

	job := testutil.NewJobBuilder().
		WithType(model.JobTypeRender).
		WithPayload(t, map[string]string{"projectId": "proj-1"}).
		Build()

	var details json.RawMessage
	f.jobs.EXPECT().
		MarkFailed(gomock.Any(), job.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, raw json.RawMessage) error {
			details = raw
			return nil
		})

	err := f.processor.Process(context.Background(), job)
	assert.True(t, apperrors.IsValidation(err))

	var recorded model.ErrorDetails
	require.NoError(t, json.Unmarshal(details, &recorded))
	assert.Equal(t, string(apperrors.ErrCodeValidation), recorded.Code)

	require.Len(t, f.notifier.failed, 1)
	assert.Equal(t, 0, f.notifier.started, "no start event for an unparseable job")
}

// The terminal write must land even when the per-job context is already
// dead, or the row strands in processing.
func TestRenderJobFailureRecordedAfterContextCanceled(t *testing.T) {
	f := newRenderJobFixture(t)

	job := testutil.NewJobBuilder().
		WithType(model.JobTypeRender).
		WithPayload(t, map[string]string{"projectId": "proj-1"}).
		Build()

	markCtxErr := errors.New("MarkFailed was never called")
	f.jobs.EXPECT().
		MarkFailed(gomock.Any(), job.ID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ json.RawMessage) error {
			markCtxErr = ctx.Err()
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.processor.Process(ctx, job)
	assert.True(t, apperrors.IsValidation(err))
	assert.NoError(t, markCtxErr, "the status write must not ride the dead job context")
}

func TestRenderJobRenderFailureIsTerminal(t *testing.T) {
	f := newRenderJobFixture(t)
	// No template registered, so the render itself fails with NotFound.

	job := testutil.NewJobBuilder().
		WithType(model.JobTypeRender).
		WithPayload(t, testutil.NewRenderPayload()).
		Build()

	// Render jobs are never retried: the only job mutation is MarkFailed.
	f.jobs.EXPECT().MarkFailed(gomock.Any(), job.ID, gomock.Any()).Return(nil)

	err := f.processor.Process(context.Background(), job)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 1, f.notifier.started)
	require.Len(t, f.notifier.failed, 1)
}
