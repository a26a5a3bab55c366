package model

import "time"

// Contribution is one persisted slice of model output, a "chunk". A root
// chunk has TargetContributionID == nil and DocumentRelationships[stage] ==
// its own id; that value is the document identity shared by every chunk in
// the chain. A continuation chunk points backward at the chunk it continues
// and carries the chain's document identity, not its own id.
type Contribution struct {
	ID                           string            `json:"id"                                        db:"id"`
	SessionID                    string            `json:"session_id"                                db:"session_id"`
	UserID                       string            `json:"user_id"                                   db:"user_id"`
	Stage                        string            `json:"stage"                                     db:"stage"`
	IterationNumber              int               `json:"iteration_number"                          db:"iteration_number"`
	ModelID                      string            `json:"model_id"                                  db:"model_id"`
	ModelName                    string            `json:"model_name"                                db:"model_name"`
	StorageBucket                string            `json:"storage_bucket"                            db:"storage_bucket"`
	StoragePath                  string            `json:"storage_path"                              db:"storage_path"`
	FileName                     string            `json:"file_name"                                 db:"file_name"`
	MimeType                     string            `json:"mime_type"                                 db:"mime_type"`
	DocumentRelationships        map[string]string `json:"document_relationships,omitempty"          db:"document_relationships"`
	TargetContributionID         *string           `json:"target_contribution_id,omitempty"          db:"target_contribution_id"`
	EditVersion                  int               `json:"edit_version"                              db:"edit_version"`
	IsLatestEdit                 bool              `json:"is_latest_edit"                            db:"is_latest_edit"`
	OriginalModelContributionID  *string           `json:"original_model_contribution_id,omitempty"  db:"original_model_contribution_id"`
	RawResponseStoragePath       string            `json:"raw_response_storage_path,omitempty"       db:"raw_response_storage_path"`
	SeedPromptURL                *string           `json:"seed_prompt_url,omitempty"                 db:"seed_prompt_url"`
	ContributionType             string            `json:"contribution_type,omitempty"               db:"contribution_type"`
	TokensUsedInput              int               `json:"tokens_used_input"                         db:"tokens_used_input"`
	TokensUsedOutput             int               `json:"tokens_used_output"                        db:"tokens_used_output"`
	ProcessingTimeMs             int64             `json:"processing_time_ms"                        db:"processing_time_ms"`
	CreatedAt                    time.Time         `json:"created_at"                                db:"created_at"`
	UpdatedAt                    time.Time         `json:"updated_at"                                db:"updated_at"`
}

// IsRoot reports whether the contribution is the root chunk of its chain.
func (c *Contribution) IsRoot() bool {
	return c.TargetContributionID == nil || *c.TargetContributionID == ""
}

// IsEdit reports whether the contribution is a user edit of a model chunk.
// Edits are preferred over plain model chunks during chain dedupe.
func (c *Contribution) IsEdit() bool {
	return c.OriginalModelContributionID != nil && *c.OriginalModelContributionID != ""
}

// DocumentIdentity returns the chain identity recorded for the given stage,
// or empty string when the contribution carries no relationship for it.
func (c *Contribution) DocumentIdentity(stage string) string {
	if c.DocumentRelationships == nil {
		return ""
	}
	return c.DocumentRelationships[stage]
}
