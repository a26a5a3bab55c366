package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/chain"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
	"github.com/dialecticlabs/dialectic-worker/internal/mocks"
	"github.com/dialecticlabs/dialectic-worker/internal/testutil"
)

type rendererFixture struct {
	renderer      *DocumentRenderer
	templates     *StaticTemplateRegistry
	contributions *mocks.MockContributionRepository
	files         *mocks.MockFileStore
	registrar     *mocks.MockFileRegistrar
}

func newRendererFixture(t *testing.T) *rendererFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	contributions := mocks.NewMockContributionRepository(ctrl)
	chains, err := chain.NewResolver(contributions, slog.Default())
	require.NoError(t, err)

	templates := NewStaticTemplateRegistry()
	files := mocks.NewMockFileStore(ctrl)
	registrar := mocks.NewMockFileRegistrar(ctrl)

	renderer, err := NewDocumentRenderer(DocumentRendererOptions{
		Templates: templates,
		Chains:    chains,
		Files:     files,
		Registrar: registrar,
		Logger:    slog.Default(),
	})
	require.NoError(t, err)

	return &rendererFixture{
		renderer:      renderer,
		templates:     templates,
		contributions: contributions,
		files:         files,
		registrar:     registrar,
	}
}

func (f *rendererFixture) registerTemplate(body string) {
	f.templates.Register("thesis", "business_case.md", "general", &core.Template{
		Name: "business_case.md",
		Body: []byte(body),
	})
}

// stubChunk wires one chunk's download alongside its row.
func (f *rendererFixture) stubChunk(c *model.Contribution, payload string) {
	f.files.EXPECT().
		Download(gomock.Any(), c.StorageBucket, c.StoragePath+"/"+c.FileName).
		Return([]byte(payload), nil)
}

func renderChain() (root, cont *model.Contribution) {
	root = testutil.NewContributionBuilder("root-1").Build()
	cont = testutil.NewContributionBuilder("cont-1").
		ContinuationOf("root-1", "root-1").
		WithFile(
			"projects/proj-1/sessions/session-1/iteration_1/thesis/_work/raw_responses",
			"gpt_test_1_business_case_raw_continuation_1.json").
		Build()
	return root, cont
}

func TestRenderMergesChainIntoTemplate(t *testing.T) {
	f := newRendererFixture(t)
	f.registerTemplate("# {{title}}\n\n{{content}}\n\nSummary: {{summary}}\n\n{{missing_field}}")

	root, cont := renderChain()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root, cont}, nil)

	f.stubChunk(root, `{"content": {"content": "First part.", "summary": "Short."}}`)
	f.stubChunk(cont, `{"content": "Second part."}`)

	var registered pathcodec.PathContext
	var rendered []byte
	f.registrar.EXPECT().
		RegisterRenderedDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, pc pathcodec.PathContext, content []byte) (pathcodec.PathParts, error) {
			registered = pc
			rendered = content
			return pathcodec.PathParts{StoragePath: "dir", FileName: "doc.md"}, nil
		})

	result, err := f.renderer.Render(context.Background(), testutil.NewRenderPayload())
	require.NoError(t, err)

	want := "# Business case\n\nFirst part.\n\nSecond part.\n\nSummary: Short.\n\n{{missing_field}}"
	assert.Equal(t, want, string(rendered), "continuation prose concatenates, unresolved placeholders stay intact")
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, "dir/doc.md", result.Parts.FullPath())

	// Path identity is inherited from the root chunk, not re-derived.
	assert.Equal(t, "gpt_test", registered.ModelSlug)
	assert.Equal(t, 1, registered.AttemptCount)
	assert.Equal(t, "business_case", registered.DocumentKey)
	assert.Equal(t, 0, registered.ContinuationCount)
}

func TestRenderNonJSONChunkBecomesExtraContent(t *testing.T) {
	f := newRendererFixture(t)
	f.registerTemplate("{{content}}\n\n{{_extra_content}}")

	root, cont := renderChain()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root, cont}, nil)

	f.stubChunk(root, `{"content": "Structured part."}`)
	f.stubChunk(cont, `plain prose, not JSON`)

	var rendered []byte
	f.registrar.EXPECT().
		RegisterRenderedDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pathcodec.PathContext, content []byte) (pathcodec.PathParts, error) {
			rendered = content
			return pathcodec.PathParts{}, nil
		})

	_, err := f.renderer.Render(context.Background(), testutil.NewRenderPayload())
	require.NoError(t, err)
	assert.Equal(t, "Structured part.\n\nplain prose, not JSON", string(rendered))
}

func TestRenderExistingTitleIsNotOverwritten(t *testing.T) {
	f := newRendererFixture(t)
	f.registerTemplate("# {{title}}")

	root := testutil.NewContributionBuilder("root-1").Build()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root}, nil)
	f.stubChunk(root, `{"content": {"title": "Custom Title", "content": "Body."}}`)

	var rendered []byte
	f.registrar.EXPECT().
		RegisterRenderedDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ pathcodec.PathContext, content []byte) (pathcodec.PathParts, error) {
			rendered = content
			return pathcodec.PathParts{}, nil
		})

	_, err := f.renderer.Render(context.Background(), testutil.NewRenderPayload())
	require.NoError(t, err)
	assert.Equal(t, "# Custom Title", string(rendered))
}

func TestRenderTemplateMissFailsBeforeResolving(t *testing.T) {
	f := newRendererFixture(t)

	_, err := f.renderer.Render(context.Background(), testutil.NewRenderPayload())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRenderMissingChainFails(t *testing.T) {
	f := newRendererFixture(t)
	f.registerTemplate("{{content}}")

	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return(nil, nil)

	_, err := f.renderer.Render(context.Background(), testutil.NewRenderPayload())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRenderDownloadFailureIsPersistence(t *testing.T) {
	f := newRendererFixture(t)
	f.registerTemplate("{{content}}")

	root := testutil.NewContributionBuilder("root-1").Build()
	f.contributions.EXPECT().
		ListByDocumentIdentity(gomock.Any(), "session-1", 1, "thesis", "root-1").
		Return([]*model.Contribution{root}, nil)
	f.files.EXPECT().
		Download(gomock.Any(), root.StorageBucket, gomock.Any()).
		Return(nil, apperrors.Internal("storage down"))

	_, err := f.renderer.Render(context.Background(), testutil.NewRenderPayload())
	assert.True(t, apperrors.IsPersistence(err))
}

func TestSubstituteNonStringValues(t *testing.T) {
	out := substitute([]byte("count: {{count}}"), map[string]any{"count": float64(3)})
	assert.Equal(t, "count: 3", string(out))
}
