package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContributionIsRoot(t *testing.T) {
	root := Contribution{ID: "c1"}
	assert.True(t, root.IsRoot())

	empty := ""
	rootEmptyTarget := Contribution{ID: "c1", TargetContributionID: &empty}
	assert.True(t, rootEmptyTarget.IsRoot())

	target := "c1"
	cont := Contribution{ID: "c2", TargetContributionID: &target}
	assert.False(t, cont.IsRoot())
}

func TestContributionIsEdit(t *testing.T) {
	plain := Contribution{ID: "c1"}
	assert.False(t, plain.IsEdit())

	original := "c1"
	edit := Contribution{ID: "c2", OriginalModelContributionID: &original}
	assert.True(t, edit.IsEdit())
}

func TestContributionDocumentIdentity(t *testing.T) {
	c := Contribution{DocumentRelationships: map[string]string{"thesis": "root-1"}}
	assert.Equal(t, "root-1", c.DocumentIdentity("thesis"))
	assert.Equal(t, "", c.DocumentIdentity("antithesis"))

	bare := Contribution{}
	assert.Equal(t, "", bare.DocumentIdentity("thesis"))
}

func TestJobTypeUnmarshalText(t *testing.T) {
	var jt JobType
	assert.NoError(t, jt.UnmarshalText([]byte(" Execute ")))
	assert.Equal(t, JobTypeExecute, jt)
	assert.Error(t, jt.UnmarshalText([]byte("transcode")))
}

func TestJobStatusTerminal(t *testing.T) {
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusRetrying, JobStatusPendingContinuation} {
		assert.False(t, s.Terminal(), "status %s", s)
	}
}

func TestCreateJobRequestValidate(t *testing.T) {
	valid := CreateJobRequest{
		SessionID:  "session-1",
		UserID:     "user-1",
		StageSlug:  "thesis",
		JobType:    JobTypeExecute,
		Payload:    []byte(`{}`),
		Status:     JobStatusPending,
		MaxRetries: 3,
	}
	assert.NoError(t, valid.Validate())

	broken := valid
	broken.JobType = "transcode"
	assert.Error(t, broken.Validate())

	broken = valid
	broken.Payload = nil
	assert.Error(t, broken.Validate())

	broken = valid
	broken.MaxRetries = -1
	assert.Error(t, broken.Validate())
}
