package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/chain"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/mocks"
	"github.com/dialecticlabs/dialectic-worker/internal/testutil"
)

type assemblerFixture struct {
	assembler     *DocumentAssembler
	contributions *mocks.MockContributionRepository
	files         *mocks.MockFileStore
	registrar     *mocks.MockFileRegistrar
}

func newAssemblerFixture(t *testing.T) *assemblerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	contributions := mocks.NewMockContributionRepository(ctrl)
	chains, err := chain.NewResolver(contributions, slog.Default())
	require.NoError(t, err)

	files := mocks.NewMockFileStore(ctrl)
	registrar := mocks.NewMockFileRegistrar(ctrl)

	assembler, err := NewDocumentAssembler(DocumentAssemblerOptions{
		Chains:    chains,
		Files:     files,
		Registrar: registrar,
		Logger:    slog.Default(),
	})
	require.NoError(t, err)

	return &assemblerFixture{
		assembler:     assembler,
		contributions: contributions,
		files:         files,
		registrar:     registrar,
	}
}

func assembleRequest() AssembleRequest {
	return AssembleRequest{
		SessionID:        "session-1",
		Iteration:        1,
		Stage:            "thesis",
		DocumentIdentity: "root-1",
	}
}

func TestAssembleOverridesAcrossChunks(t *testing.T) {
	f := newAssemblerFixture(t)

	root, cont := renderChain()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root, cont}, nil)

	f.files.EXPECT().
		Download(gomock.Any(), root.StorageBucket, root.StoragePath+"/"+root.FileName).
		Return([]byte(`{"status": "draft", "kept": true}`), nil)
	f.files.EXPECT().
		Download(gomock.Any(), cont.StorageBucket, cont.StoragePath+"/"+cont.FileName).
		Return([]byte(`{"status": "final"}`), nil)

	var registered pathcodec.PathContext
	var assembled []byte
	f.registrar.EXPECT().
		RegisterAssembledDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pc pathcodec.PathContext, content []byte) (pathcodec.PathParts, error) {
			registered = pc
			assembled = content
			return pathcodec.PathParts{StoragePath: "dir", FileName: "doc_assembled.json"}, nil
		})

	parts, err := f.assembler.Assemble(context.Background(), assembleRequest())
	require.NoError(t, err)
	assert.Equal(t, "dir/doc_assembled.json", parts.FullPath())

	var merged map[string]any
	require.NoError(t, json.Unmarshal(assembled, &merged))
	assert.Equal(t, "final", merged["status"], "later chunks overwrite, never concatenate")
	assert.Equal(t, true, merged["kept"])

	assert.Equal(t, "gpt_test", registered.ModelSlug)
	assert.Equal(t, "business_case", registered.DocumentKey)
	assert.Equal(t, 0, registered.ContinuationCount)
}

func TestAssembleNonObjectChunkFails(t *testing.T) {
	f := newAssemblerFixture(t)

	root := testutil.NewContributionBuilder("root-1").Build()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root}, nil)
	f.files.EXPECT().
		Download(gomock.Any(), root.StorageBucket, gomock.Any()).
		Return([]byte(`"just a string"`), nil)

	_, err := f.assembler.Assemble(context.Background(), assembleRequest())
	assert.True(t, apperrors.IsValidation(err))
}

func TestAssembleMissingChainFails(t *testing.T) {
	f := newAssemblerFixture(t)

	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return(nil, nil)

	_, err := f.assembler.Assemble(context.Background(), assembleRequest())
	assert.True(t, apperrors.IsNotFound(err))
}
