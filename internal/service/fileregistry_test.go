package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/mocks"
)

type registryFixture struct {
	registry      *FileRegistry
	files         *mocks.MockFileStore
	contributions *mocks.MockContributionRepository
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	files := mocks.NewMockFileStore(ctrl)
	contributions := mocks.NewMockContributionRepository(ctrl)

	registry, err := NewFileRegistry(FileRegistryOptions{
		Files:         files,
		Contributions: contributions,
		Bucket:        "dialectic-contributions",
		Logger:        slog.Default(),
	})
	require.NoError(t, err)

	return &registryFixture{registry: registry, files: files, contributions: contributions}
}

func rawPathContext() pathcodec.PathContext {
	return pathcodec.PathContext{
		// FileType left unset on purpose: the registry forces raw_json.
		ProjectID:    "proj-1",
		SessionID:    "session-1",
		Iteration:    1,
		StageSlug:    "thesis",
		ModelSlug:    "gpt_test",
		AttemptCount: 1,
		DocumentKey:  "business_case",
	}
}

func TestRegisterContribution(t *testing.T) {
	f := newRegistryFixture(t)

	wantPath := "projects/proj-1/sessions/session-1/iteration_1/thesis/raw_responses/gpt_test_1_business_case_raw.json"
	f.files.EXPECT().
		Upload(gomock.Any(), "dialectic-contributions", wantPath, []byte("content"), "").
		Return(nil)

	var inserted *model.Contribution
	f.contributions.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, row *model.Contribution) (*model.Contribution, error) {
			inserted = row
			out := *row
			out.ID = "chunk-1"
			return &out, nil
		})

	chunk, err := f.registry.RegisterContribution(context.Background(), core.ContributionUpload{
		PathContext: rawPathContext(),
		Metadata: model.Contribution{
			SessionID: "session-1",
			UserID:    "user-1",
			Stage:     "thesis",
		},
		Content: []byte("content"),
	})
	require.NoError(t, err)
	assert.Equal(t, "chunk-1", chunk.ID)

	require.NotNil(t, inserted)
	assert.Equal(t, "dialectic-contributions", inserted.StorageBucket)
	assert.Equal(t, "projects/proj-1/sessions/session-1/iteration_1/thesis/raw_responses", inserted.StoragePath)
	assert.Equal(t, "gpt_test_1_business_case_raw.json", inserted.FileName)
	assert.Equal(t, wantPath, inserted.RawResponseStoragePath)
	assert.Equal(t, "application/json", inserted.MimeType, "mime type defaults when unset")
}

func TestRegisterContributionContinuationPath(t *testing.T) {
	f := newRegistryFixture(t)

	pc := rawPathContext()
	pc.ContinuationCount = 2

	wantPath := "projects/proj-1/sessions/session-1/iteration_1/thesis/_work/raw_responses/gpt_test_1_business_case_raw_continuation_2.json"
	f.files.EXPECT().
		Upload(gomock.Any(), "dialectic-contributions", wantPath, gomock.Any(), gomock.Any()).
		Return(nil)
	f.contributions.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, row *model.Contribution) (*model.Contribution, error) {
			return row, nil
		})

	_, err := f.registry.RegisterContribution(context.Background(), core.ContributionUpload{
		PathContext: pc,
		Content:     []byte("content"),
	})
	require.NoError(t, err)
}

func TestRegisterContributionUploadFailure(t *testing.T) {
	f := newRegistryFixture(t)

	f.files.EXPECT().
		Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(apperrors.Internal("storage down"))

	_, err := f.registry.RegisterContribution(context.Background(), core.ContributionUpload{
		PathContext: rawPathContext(),
		Content:     []byte("content"),
	})
	assert.True(t, apperrors.IsPersistence(err))
}

func TestRegisterRenderedDocument(t *testing.T) {
	f := newRegistryFixture(t)

	pc := rawPathContext()
	pc.FileType = pathcodec.FileTypeRawJSON // overridden by the registrar

	wantPath := "projects/proj-1/sessions/session-1/iteration_1/thesis/documents/gpt_test_1_business_case.md"
	f.files.EXPECT().
		Upload(gomock.Any(), "dialectic-contributions", wantPath, []byte("# Doc"), "text/markdown").
		Return(nil)

	parts, err := f.registry.RegisterRenderedDocument(context.Background(), pc, []byte("# Doc"))
	require.NoError(t, err)
	assert.Equal(t, wantPath, parts.FullPath())
}

func TestRegisterAssembledDocument(t *testing.T) {
	f := newRegistryFixture(t)

	wantPath := "projects/proj-1/sessions/session-1/iteration_1/thesis/_work/assembled_json/gpt_test_1_business_case_assembled.json"
	f.files.EXPECT().
		Upload(gomock.Any(), "dialectic-contributions", wantPath, []byte(`{}`), "application/json").
		Return(nil)

	parts, err := f.registry.RegisterAssembledDocument(context.Background(), rawPathContext(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, wantPath, parts.FullPath())
}
