package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

func validExecuteJSON() json.RawMessage {
	return json.RawMessage(`{
		"sessionId": "session-1",
		"projectId": "proj-1",
		"stageSlug": "thesis",
		"iterationNumber": 2,
		"model_id": "model-1",
		"output_type": "business_case",
		"walletId": "wallet-1",
		"user_jwt": "jwt-token",
		"continueUntilComplete": true,
		"canonicalPathParams": {"contributionType": "thesis", "sourceGroupId": "a1b2c3d4"}
	}`)
}

func TestParseExecutePayload(t *testing.T) {
	p, err := ParseExecutePayload(validExecuteJSON())
	require.NoError(t, err)

	assert.Equal(t, "session-1", p.SessionID)
	assert.Equal(t, "proj-1", p.ProjectID)
	assert.Equal(t, 2, p.IterationNumber)
	assert.Equal(t, "model-1", p.ModelID)
	assert.Equal(t, "business_case", p.OutputType)
	assert.True(t, p.ContinueUntilComplete)
	require.NotNil(t, p.CanonicalPathParams)
	assert.Equal(t, "thesis", p.CanonicalPathParams.ContributionType)
	assert.Equal(t, "a1b2c3d4", p.CanonicalPathParams.SourceGroupID)
	assert.False(t, p.IsContinuation())
}

func TestParseExecutePayloadErrors(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		_, err := ParseExecutePayload(nil)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := ParseExecutePayload(json.RawMessage(`{"sessionId":`))
		assert.True(t, apperrors.IsValidation(err))
	})

	requiredFields := []struct {
		drop  string
		field string
	}{
		{"sessionId", "sessionId"},
		{"projectId", "projectId"},
		{"stageSlug", "stageSlug"},
		{"model_id", "model_id"},
		{"output_type", "output_type"},
	}
	for _, tt := range requiredFields {
		t.Run("missing "+tt.drop, func(t *testing.T) {
			var m map[string]any
			require.NoError(t, json.Unmarshal(validExecuteJSON(), &m))
			delete(m, tt.drop)
			raw, err := json.Marshal(m)
			require.NoError(t, err)

			_, err = ParseExecutePayload(raw)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestExecutePayloadIsContinuation(t *testing.T) {
	p := ExecutePayload{}
	assert.False(t, p.IsContinuation())
	p.TargetContributionID = "chunk-1"
	assert.True(t, p.IsContinuation())
}

func TestParseRenderPayload(t *testing.T) {
	raw := json.RawMessage(`{
		"projectId": "proj-1",
		"sessionId": "session-1",
		"iterationNumber": 1,
		"stageSlug": "thesis",
		"documentIdentity": "root-1",
		"documentKey": "business_case",
		"sourceContributionId": "root-1",
		"template_filename": "business_case.md",
		"model_id": "model-1"
	}`)

	p, err := ParseRenderPayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "root-1", p.DocumentIdentity)
	assert.Equal(t, "business_case.md", p.TemplateFilename)
}

func TestParseRenderPayloadErrors(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		_, err := ParseRenderPayload(nil)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing document identity", func(t *testing.T) {
		raw := json.RawMessage(`{
			"projectId": "proj-1",
			"sessionId": "session-1",
			"stageSlug": "thesis",
			"documentKey": "business_case",
			"sourceContributionId": "root-1",
			"template_filename": "business_case.md"
		}`)
		_, err := ParseRenderPayload(raw)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "documentIdentity", apperrors.GetField(err))
	})
}
