// Package testutil provides test fixtures and builders for the dialectic
// job system's domain types.
package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
)

// JobBuilder builds model.Job fixtures with sensible defaults.
type JobBuilder struct {
	job model.Job
}

// NewJobBuilder returns a builder seeded with a claimable execute job.
func NewJobBuilder() *JobBuilder {
	now := time.Now().UTC()
	return &JobBuilder{job: model.Job{
		ID:              "job-1",
		SessionID:       "session-1",
		UserID:          "user-1",
		StageSlug:       "thesis",
		IterationNumber: 1,
		JobType:         model.JobTypeExecute,
		Status:          model.JobStatusProcessing,
		AttemptCount:    1,
		MaxRetries:      3,
		CreatedAt:       now,
		StartedAt:       &now,
	}}
}

func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

func (b *JobBuilder) WithType(t model.JobType) *JobBuilder {
	b.job.JobType = t
	return b
}

func (b *JobBuilder) WithStatus(s model.JobStatus) *JobBuilder {
	b.job.Status = s
	return b
}

func (b *JobBuilder) WithStage(stage string) *JobBuilder {
	b.job.StageSlug = stage
	return b
}

func (b *JobBuilder) WithAttempts(attempt, maxRetries int) *JobBuilder {
	b.job.AttemptCount = attempt
	b.job.MaxRetries = maxRetries
	return b
}

func (b *JobBuilder) WithErrorDetails(raw json.RawMessage) *JobBuilder {
	b.job.ErrorDetails = raw
	return b
}

// WithPayload marshals v into the job payload, failing the test on error.
func (b *JobBuilder) WithPayload(t *testing.T, v any) *JobBuilder {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	b.job.Payload = raw
	return b
}

func (b *JobBuilder) Build() *model.Job {
	job := b.job
	return &job
}

// ContributionBuilder builds model.Contribution fixtures.
type ContributionBuilder struct {
	c model.Contribution
}

// NewContributionBuilder returns a builder seeded with a root thesis chunk
// whose document identity is its own id.
func NewContributionBuilder(id string) *ContributionBuilder {
	now := time.Now().UTC()
	return &ContributionBuilder{c: model.Contribution{
		ID:                    id,
		SessionID:             "session-1",
		UserID:                "user-1",
		Stage:                 "thesis",
		IterationNumber:       1,
		ModelID:               "model-1",
		ModelName:             "gpt-test",
		StorageBucket:         "dialectic-contributions",
		StoragePath:           "projects/proj-1/sessions/session-1/iteration_1/thesis/raw_responses",
		FileName:              "gpt_test_1_business_case_raw.json",
		MimeType:              "application/json",
		DocumentRelationships: map[string]string{"thesis": id},
		CreatedAt:             now,
		UpdatedAt:             now,
	}}
}

func (b *ContributionBuilder) WithStage(stage string) *ContributionBuilder {
	b.c.Stage = stage
	return b
}

// ContinuationOf points the chunk backward at its predecessor and carries
// the chain's document identity.
func (b *ContributionBuilder) ContinuationOf(targetID, identity string) *ContributionBuilder {
	b.c.TargetContributionID = &targetID
	b.c.DocumentRelationships = map[string]string{b.c.Stage: identity}
	return b
}

func (b *ContributionBuilder) WithRelationships(rel map[string]string) *ContributionBuilder {
	b.c.DocumentRelationships = rel
	return b
}

func (b *ContributionBuilder) WithFile(storagePath, fileName string) *ContributionBuilder {
	b.c.StoragePath = storagePath
	b.c.FileName = fileName
	return b
}

// AsEditOf marks the chunk as a user edit of a model contribution.
func (b *ContributionBuilder) AsEditOf(originalID string, editVersion int) *ContributionBuilder {
	b.c.OriginalModelContributionID = &originalID
	b.c.EditVersion = editVersion
	b.c.IsLatestEdit = true
	return b
}

func (b *ContributionBuilder) Build() *model.Contribution {
	c := b.c
	return &c
}

// NewExecutePayload returns a valid execute payload with the given overrides
// applied.
func NewExecutePayload(overrides ...func(*model.ExecutePayload)) *model.ExecutePayload {
	p := &model.ExecutePayload{
		SessionID:          "session-1",
		ProjectID:          "proj-1",
		StageSlug:          "thesis",
		IterationNumber:    1,
		ModelID:            "model-1",
		OutputType:         "business_case",
		DocumentKey:        "business_case",
		WalletID:           "wallet-1",
		UserJWT:            "jwt-token",
		PromptTemplateName: "business_case.md",
	}
	for _, o := range overrides {
		o(p)
	}
	return p
}

// NewRenderPayload returns a valid render payload with the given overrides
// applied.
func NewRenderPayload(overrides ...func(*model.RenderPayload)) *model.RenderPayload {
	p := &model.RenderPayload{
		ProjectID:            "proj-1",
		SessionID:            "session-1",
		IterationNumber:      1,
		StageSlug:            "thesis",
		DocumentIdentity:     "root-1",
		DocumentKey:          "business_case",
		SourceContributionID: "root-1",
		TemplateFilename:     "business_case.md",
		ModelID:              "model-1",
	}
	for _, o := range overrides {
		o(p)
	}
	return p
}
