// Package model defines the core data types used throughout the dialectic
// job-processing pipeline: jobs, contributions (chunks), and the closed set
// of job payload variants.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType represents the type of job to be executed.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeExecute represents a model-call execution job.
	JobTypeExecute JobType = "execute"
	// JobTypeRender represents a document rendering job.
	JobTypeRender JobType = "render"

	// JobStatusPending indicates a job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a job is currently being processed.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusRetrying indicates a job failed an attempt and is waiting to be retried.
	JobStatusRetrying JobStatus = "retrying"
	// JobStatusPendingContinuation indicates a continuation job waiting for dispatch.
	JobStatusPendingContinuation JobStatus = "pending_continuation"
	// JobStatusCompleted indicates a job has finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job has failed to complete.
	JobStatusFailed JobStatus = "failed"
)

// ErrNoJobsAvailable is returned when no jobs are available for claiming.
var ErrNoJobsAvailable = errors.New("no jobs available")

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is valid.
func (t JobType) Valid() bool {
	return t == JobTypeExecute || t == JobTypeRender
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusRetrying,
		JobStatusPendingContinuation, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true once a job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one unit of schedulable work. A render job's ParentJobID
// always references the execute job whose output it renders.
type Job struct {
	ID                   string          `json:"id"                               db:"id"`
	SessionID            string          `json:"session_id"                       db:"session_id"`
	UserID               string          `json:"user_id"                          db:"user_id"`
	StageSlug            string          `json:"stage_slug"                       db:"stage_slug"`
	IterationNumber      int             `json:"iteration_number"                 db:"iteration_number"`
	JobType              JobType         `json:"job_type"                         db:"job_type"`
	Payload              json.RawMessage `json:"payload"                          db:"payload"`
	Status               JobStatus       `json:"status"                           db:"status"`
	AttemptCount         int             `json:"attempt_count"                    db:"attempt_count"`
	MaxRetries           int             `json:"max_retries"                      db:"max_retries"`
	ParentJobID          *string         `json:"parent_job_id,omitempty"          db:"parent_job_id"`
	TargetContributionID *string         `json:"target_contribution_id,omitempty" db:"target_contribution_id"`
	Results              json.RawMessage `json:"results,omitempty"                db:"results"`
	ErrorDetails         json.RawMessage `json:"error_details,omitempty"          db:"error_details"`
	CreatedAt            time.Time       `json:"created_at"                       db:"created_at"`
	StartedAt            *time.Time      `json:"started_at,omitempty"             db:"started_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"           db:"completed_at"`
}

// CreateJobRequest represents a request to insert a new job row.
type CreateJobRequest struct {
	SessionID            string          `json:"session_id"`
	UserID               string          `json:"user_id"`
	StageSlug            string          `json:"stage_slug"`
	IterationNumber      int             `json:"iteration_number"`
	JobType              JobType         `json:"job_type"`
	Payload              json.RawMessage `json:"payload"`
	Status               JobStatus       `json:"status"`
	MaxRetries           int             `json:"max_retries"`
	ParentJobID          *string         `json:"parent_job_id,omitempty"`
	TargetContributionID *string         `json:"target_contribution_id,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.JobType.Valid() {
		return errors.New("invalid job type")
	}
	if r.SessionID == "" {
		return errors.New("session id is required")
	}
	if r.UserID == "" {
		return errors.New("user id is required")
	}
	if r.StageSlug == "" {
		return errors.New("stage slug is required")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	if !r.Status.Valid() {
		return errors.New("invalid job status")
	}
	if r.MaxRetries < 0 {
		return errors.New("max retries must be >= 0")
	}
	return nil
}

// JobResult is the structured result payload written to a completed job row.
type JobResult struct {
	ModelID        string `json:"modelId"`
	Status         string `json:"status"`
	AttemptCount   int    `json:"attemptCount"`
	ContributionID string `json:"contributionId,omitempty"`
}

// FailedAttempt records one failed model-call attempt for diagnostics.
type FailedAttempt struct {
	ModelID       string `json:"modelId"`
	APIIdentifier string `json:"api_identifier"`
	Error         string `json:"error"`
}

// ErrorDetails is the structured error payload written on retry or failure.
type ErrorDetails struct {
	Message        string          `json:"message"`
	Code           string          `json:"code,omitempty"`
	FailedAttempts []FailedAttempt `json:"failed_attempts,omitempty"`
}
