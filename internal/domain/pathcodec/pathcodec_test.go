package pathcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

func baseContext(ft FileType) PathContext {
	return PathContext{
		FileType:     ft,
		ProjectID:    "proj-1",
		SessionID:    "session-1",
		Iteration:    2,
		StageSlug:    "thesis",
		ModelSlug:    "claude_sonnet",
		AttemptCount: 1,
		DocumentKey:  "business_case",
	}
}

func TestConstructPathSimpleForms(t *testing.T) {
	dir := "projects/proj-1/sessions/session-1/iteration_2/thesis"
	tests := []struct {
		name     string
		fileType FileType
		wantDir  string
		wantName string
	}{
		{"header context", FileTypeHeaderContext, dir, "claude_sonnet_1_header_context.json"},
		{"turn prompt", FileTypeTurnPrompt, dir, "claude_sonnet_1_business_case_prompt.md"},
		{"raw json", FileTypeRawJSON, dir + "/raw_responses", "claude_sonnet_1_business_case_raw.json"},
		{"assembled json", FileTypeAssembledJSON, dir + "/_work/assembled_json", "claude_sonnet_1_business_case_assembled.json"},
		{"rendered document", FileTypeRenderedDocument, dir + "/documents", "claude_sonnet_1_business_case.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := ConstructPath(baseContext(tt.fileType))
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, parts.StoragePath)
			assert.Equal(t, tt.wantName, parts.FileName)
			assert.Equal(t, tt.wantDir+"/"+tt.wantName, parts.FullPath())
		})
	}
}

func TestConstructPathWithFragment(t *testing.T) {
	ctx := baseContext(FileTypeRawJSON)
	ctx.SourceGroupID = "A1B2C3D4-e5f6-7890-abcd-ef1234567890"

	parts, err := ConstructPath(ctx)
	require.NoError(t, err)
	assert.Equal(t, "claude_sonnet_1_business_case_a1b2c3d4_raw.json", parts.FileName)
}

func TestConstructPathRenderedWithFragmentHasTrailingJoiner(t *testing.T) {
	ctx := baseContext(FileTypeRenderedDocument)
	ctx.SourceGroupID = "a1b2c3d4"

	parts, err := ConstructPath(ctx)
	require.NoError(t, err)
	assert.Equal(t, "claude_sonnet_1_business_case_a1b2c3d4_.md", parts.FileName)
}

func TestConstructPathContinuationChunk(t *testing.T) {
	ctx := baseContext(FileTypeRawJSON)
	ctx.ContinuationCount = 2

	parts, err := ConstructPath(ctx)
	require.NoError(t, err)
	assert.Equal(t,
		"projects/proj-1/sessions/session-1/iteration_2/thesis/_work/raw_responses",
		parts.StoragePath)
	assert.Equal(t, "claude_sonnet_1_business_case_raw_continuation_2.json", parts.FileName)
}

func TestConstructPathCritiqueForms(t *testing.T) {
	critique := func(ft FileType) PathContext {
		ctx := baseContext(ft)
		ctx.StageSlug = StageAntithesis
		ctx.SourceAnchorModelSlug = "gpt_4o"
		ctx.SourceAnchorType = "business_case"
		ctx.SourceAttemptCount = 1
		return ctx
	}

	t.Run("raw uses the paren anchor", func(t *testing.T) {
		parts, err := ConstructPath(critique(FileTypeRawJSON))
		require.NoError(t, err)
		assert.Equal(t,
			"claude_sonnet_critiquing_(gpt_4o's_business_case_1)_1_business_case_raw.json",
			parts.FileName)
	})

	t.Run("prompt uses the plain anchor", func(t *testing.T) {
		parts, err := ConstructPath(critique(FileTypeTurnPrompt))
		require.NoError(t, err)
		assert.Equal(t, "claude_sonnet_critiquing_gpt_4o_1_business_case_prompt.md", parts.FileName)
	})

	t.Run("fragment sits between anchor and attempt", func(t *testing.T) {
		ctx := critique(FileTypeRawJSON)
		ctx.SourceGroupID = "deadbeef"
		parts, err := ConstructPath(ctx)
		require.NoError(t, err)
		assert.Equal(t,
			"claude_sonnet_critiquing_(gpt_4o's_business_case_1)_deadbeef_1_business_case_raw.json",
			parts.FileName)
	})
}

func TestConstructPathValidation(t *testing.T) {
	t.Run("missing session", func(t *testing.T) {
		ctx := baseContext(FileTypeRawJSON)
		ctx.SessionID = ""
		_, err := ConstructPath(ctx)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing model slug", func(t *testing.T) {
		ctx := baseContext(FileTypeRawJSON)
		ctx.ModelSlug = ""
		_, err := ConstructPath(ctx)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing document key", func(t *testing.T) {
		ctx := baseContext(FileTypeRawJSON)
		ctx.DocumentKey = ""
		_, err := ConstructPath(ctx)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("header context needs no document key", func(t *testing.T) {
		ctx := baseContext(FileTypeHeaderContext)
		ctx.DocumentKey = ""
		_, err := ConstructPath(ctx)
		assert.NoError(t, err)
	})
}

func TestDeconstructPathRoundTrips(t *testing.T) {
	contexts := []PathContext{
		baseContext(FileTypeHeaderContext),
		baseContext(FileTypeTurnPrompt),
		baseContext(FileTypeRawJSON),
		baseContext(FileTypeAssembledJSON),
		baseContext(FileTypeRenderedDocument),
	}

	withFragment := baseContext(FileTypeRawJSON)
	withFragment.SourceGroupID = "a1b2c3d4"
	contexts = append(contexts, withFragment)

	renderedFragment := baseContext(FileTypeRenderedDocument)
	renderedFragment.SourceGroupID = "a1b2c3d4"
	contexts = append(contexts, renderedFragment)

	continuation := baseContext(FileTypeRawJSON)
	continuation.ContinuationCount = 3
	contexts = append(contexts, continuation)

	plainCritique := baseContext(FileTypeTurnPrompt)
	plainCritique.StageSlug = StageAntithesis
	plainCritique.SourceAnchorModelSlug = "gpt_4o"
	contexts = append(contexts, plainCritique)

	rawCritique := baseContext(FileTypeRawJSON)
	rawCritique.StageSlug = StageAntithesis
	rawCritique.SourceAnchorModelSlug = "gpt_4o"
	rawCritique.SourceAnchorType = "thesis"
	rawCritique.SourceAttemptCount = 2
	rawCritique.SourceGroupID = "deadbeef"
	contexts = append(contexts, rawCritique)

	for _, ctx := range contexts {
		parts, err := ConstructPath(ctx)
		require.NoError(t, err)

		got, err := DeconstructPath(parts.StoragePath, parts.FileName)
		require.NoError(t, err, "path %s", parts.FullPath())

		assert.Equal(t, ctx.FileType, got.FileType, "path %s", parts.FullPath())
		assert.Equal(t, ctx.ProjectID, got.ProjectID)
		assert.Equal(t, ctx.SessionID, got.SessionID)
		assert.Equal(t, ctx.Iteration, got.Iteration)
		assert.Equal(t, ctx.StageSlug, got.StageSlug)
		assert.Equal(t, ctx.ModelSlug, got.ModelSlug, "path %s", parts.FullPath())
		assert.Equal(t, ctx.AttemptCount, got.AttemptCount)
		if ctx.FileType != FileTypeHeaderContext {
			assert.Equal(t, ctx.DocumentKey, got.DocumentKey, "path %s", parts.FullPath())
		}
		assert.Equal(t, ctx.SourceGroupID, got.SourceGroupID, "path %s", parts.FullPath())
		assert.Equal(t, ctx.ContinuationCount, got.ContinuationCount)
		assert.Equal(t, ctx.SourceAnchorModelSlug, got.SourceAnchorModelSlug, "path %s", parts.FullPath())
		if ctx.FileType == FileTypeRawJSON {
			assert.Equal(t, ctx.SourceAnchorType, got.SourceAnchorType)
			assert.Equal(t, ctx.SourceAttemptCount, got.SourceAttemptCount)
		}
	}
}

func TestDeconstructPathMultiTokenSlugAndKey(t *testing.T) {
	ctx := baseContext(FileTypeRawJSON)
	ctx.ModelSlug = "claude_3_5_sonnet"

	parts, err := ConstructPath(ctx)
	require.NoError(t, err)

	got, err := DeconstructPath(parts.StoragePath, parts.FileName)
	require.NoError(t, err)
	// The first all-digit token after the slug is the attempt counter, so a
	// digit inside the slug must not be mistaken for it.
	assert.Equal(t, "claude", got.ModelSlug)
	assert.Equal(t, 3, got.AttemptCount)
}

func TestDeconstructPathRejectsMalformed(t *testing.T) {
	tests := []struct {
		name        string
		storagePath string
		fileName    string
	}{
		{"bad root", "prj/proj-1/sessions/s/iteration_1/thesis", "m_1_doc_raw.json"},
		{"bad iteration", "projects/proj-1/sessions/s/iter_1/thesis", "m_1_doc_raw.json"},
		{"missing stage", "projects/proj-1/sessions/s/iteration_1", "m_1_doc_raw.json"},
		{"unknown extension", "projects/proj-1/sessions/s/iteration_1/thesis", "m_1_doc_raw.txt"},
		{"no attempt counter", "projects/proj-1/sessions/s/iteration_1/thesis/raw_responses", "model_doc_raw.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeconstructPath(tt.storagePath, tt.fileName)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
}
