package model

import (
	"encoding/json"

	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// CanonicalPathParams carries the semantic path fields a job wants encoded
// into its storage paths. Critique (antithesis) lineage fields are optional
// and only honored for the antithesis stage.
type CanonicalPathParams struct {
	ContributionType      string `json:"contributionType"`
	StageSlug             string `json:"stageSlug,omitempty"`
	SourceModelSlugs      string `json:"sourceModelSlugs,omitempty"`
	SourceAnchorType      string `json:"sourceAnchorType,omitempty"`
	SourceAnchorModelSlug string `json:"sourceAnchorModelSlug,omitempty"`
	SourceAttemptCount    *int   `json:"sourceAttemptCount,omitempty"`
	SourceGroupID         string `json:"sourceGroupId,omitempty"`
}

// ExecutePayload is the payload variant carried by execute jobs. Field
// naming mirrors the wire contract, which mixes camel and snake case.
type ExecutePayload struct {
	SessionID             string               `json:"sessionId"`
	ProjectID             string               `json:"projectId"`
	StageSlug             string               `json:"stageSlug"`
	IterationNumber       int                  `json:"iterationNumber"`
	ModelID               string               `json:"model_id"`
	OutputType            string               `json:"output_type"`
	DocumentKey           string               `json:"document_key,omitempty"`
	WalletID              string               `json:"walletId"`
	UserJWT               string               `json:"user_jwt"`
	CanonicalPathParams   *CanonicalPathParams `json:"canonicalPathParams,omitempty"`
	ContinueUntilComplete bool                 `json:"continueUntilComplete,omitempty"`
	ContinuationCount     int                  `json:"continuation_count,omitempty"`
	TargetContributionID  string               `json:"target_contribution_id,omitempty"`
	DocumentRelationships map[string]string    `json:"document_relationships,omitempty"`
	PromptTemplateName    string               `json:"prompt_template_name,omitempty"`
	SourceDocumentIDs     []string             `json:"source_document_ids,omitempty"`
}

// Validate checks the fields an execute job cannot run without.
func (p *ExecutePayload) Validate() error {
	if p.SessionID == "" {
		return apperrors.ValidationField("sessionId", "session id is required")
	}
	if p.ProjectID == "" {
		return apperrors.ValidationField("projectId", "project id is required")
	}
	if p.StageSlug == "" {
		return apperrors.ValidationField("stageSlug", "stage slug is required")
	}
	if p.ModelID == "" {
		return apperrors.ValidationField("model_id", "model id is required")
	}
	if p.OutputType == "" {
		return apperrors.ValidationField("output_type", "output type is required")
	}
	return nil
}

// IsContinuation reports whether the payload targets an earlier chunk.
func (p *ExecutePayload) IsContinuation() bool {
	return p.TargetContributionID != ""
}

// RenderPayload is the payload variant carried by render jobs.
type RenderPayload struct {
	ProjectID            string `json:"projectId"`
	SessionID            string `json:"sessionId"`
	IterationNumber      int    `json:"iterationNumber"`
	StageSlug            string `json:"stageSlug"`
	DocumentIdentity     string `json:"documentIdentity"`
	DocumentKey          string `json:"documentKey"`
	SourceContributionID string `json:"sourceContributionId"`
	TemplateFilename     string `json:"template_filename"`
	ModelID              string `json:"model_id"`
}

// Validate checks the fields a render job cannot run without.
func (p *RenderPayload) Validate() error {
	switch {
	case p.ProjectID == "":
		return apperrors.ValidationField("projectId", "project id is required")
	case p.SessionID == "":
		return apperrors.ValidationField("sessionId", "session id is required")
	case p.StageSlug == "":
		return apperrors.ValidationField("stageSlug", "stage slug is required")
	case p.DocumentIdentity == "":
		return apperrors.ValidationField("documentIdentity", "document identity is required")
	case p.DocumentKey == "":
		return apperrors.ValidationField("documentKey", "document key is required")
	case p.SourceContributionID == "":
		return apperrors.ValidationField("sourceContributionId", "source contribution id is required")
	case p.TemplateFilename == "":
		return apperrors.ValidationField("template_filename", "template filename is required")
	}
	return nil
}

// ParseExecutePayload decodes and validates an execute payload. It is the
// only sanctioned way to read an execute job's payload; components never
// reach into the raw map optimistically.
func ParseExecutePayload(raw json.RawMessage) (*ExecutePayload, error) {
	if len(raw) == 0 {
		return nil, apperrors.Validation("execute payload is empty")
	}
	var p ExecutePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "execute payload is not valid JSON")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseRenderPayload decodes and validates a render payload.
func ParseRenderPayload(raw json.RawMessage) (*RenderPayload, error) {
	if len(raw) == 0 {
		return nil, apperrors.Validation("render payload is empty")
	}
	var p RenderPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "render payload is not valid JSON")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
