package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// ContributionRepo provides database operations for contribution (chunk) rows.
type ContributionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// ContributionRepoConfig holds optional dependencies for ContributionRepo.
type ContributionRepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// NewContributionRepo creates a new ContributionRepo with the given database connection.
func NewContributionRepo(db *sql.DB, cfg ContributionRepoConfig) *ContributionRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &ContributionRepo{DB: db, timeProvider: tp, logger: cfg.Logger}
}

const contributionColumns = `
  id,
  session_id,
  user_id,
  stage,
  iteration_number,
  model_id,
  model_name,
  storage_bucket,
  storage_path,
  file_name,
  mime_type,
  document_relationships,
  target_contribution_id,
  edit_version,
  is_latest_edit,
  original_model_contribution_id,
  raw_response_storage_path,
  seed_prompt_url,
  contribution_type,
  tokens_used_input,
  tokens_used_output,
  processing_time_ms,
  created_at,
  updated_at
`

func scanContribution(row rowScanner) (*model.Contribution, error) {
	var (
		c             model.Contribution
		relationships []byte
		targetID      sql.NullString
		originalID    sql.NullString
		rawPath       sql.NullString
		seedPrompt    sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.SessionID,
		&c.UserID,
		&c.Stage,
		&c.IterationNumber,
		&c.ModelID,
		&c.ModelName,
		&c.StorageBucket,
		&c.StoragePath,
		&c.FileName,
		&c.MimeType,
		&relationships,
		&targetID,
		&c.EditVersion,
		&c.IsLatestEdit,
		&originalID,
		&rawPath,
		&seedPrompt,
		&c.ContributionType,
		&c.TokensUsedInput,
		&c.TokensUsedOutput,
		&c.ProcessingTimeMs,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(relationships) > 0 {
		if err := json.Unmarshal(relationships, &c.DocumentRelationships); err != nil {
			return nil, err
		}
	}
	if targetID.Valid {
		c.TargetContributionID = &targetID.String
	}
	if originalID.Valid {
		c.OriginalModelContributionID = &originalID.String
	}
	if rawPath.Valid {
		c.RawResponseStoragePath = rawPath.String
	}
	if seedPrompt.Valid {
		c.SeedPromptURL = &seedPrompt.String
	}
	return &c, nil
}

// GetByID loads one contribution row.
func (r *ContributionRepo) GetByID(ctx context.Context, id string) (*model.Contribution, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM dialectic_contributions WHERE id = $1`, id)
	c, err := scanContribution(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return c, nil
}

// Insert creates a contribution row, generating the id when absent.
func (r *ContributionRepo) Insert(ctx context.Context, c *model.Contribution) (*model.Contribution, error) {
	if c == nil {
		return nil, apperrors.Validation("contribution is required")
	}
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}

	var relationships any
	if len(c.DocumentRelationships) > 0 {
		data, err := json.Marshal(c.DocumentRelationships)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "marshal document relationships")
		}
		relationships = data
	}

	now := r.timeProvider.Now().UTC()
	query := `
  INSERT INTO dialectic_contributions (
    id, session_id, user_id, stage, iteration_number, model_id, model_name,
    storage_bucket, storage_path, file_name, mime_type,
    document_relationships, target_contribution_id, edit_version,
    is_latest_edit, original_model_contribution_id,
    raw_response_storage_path, seed_prompt_url, contribution_type,
    tokens_used_input, tokens_used_output, processing_time_ms,
    created_at, updated_at
  ) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
    $15, $16, $17, $18, $19, $20, $21, $22, $23, $23
  )
  RETURNING ` + contributionColumns

	row := r.DB.QueryRowContext(ctx, query,
		id,
		c.SessionID,
		c.UserID,
		c.Stage,
		c.IterationNumber,
		c.ModelID,
		c.ModelName,
		c.StorageBucket,
		c.StoragePath,
		c.FileName,
		c.MimeType,
		relationships,
		c.TargetContributionID,
		c.EditVersion,
		c.IsLatestEdit,
		c.OriginalModelContributionID,
		nullableString(c.RawResponseStoragePath),
		c.SeedPromptURL,
		c.ContributionType,
		c.TokensUsedInput,
		c.TokensUsedOutput,
		c.ProcessingTimeMs,
		now,
	)
	inserted, err := scanContribution(row)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if r.logger != nil {
		r.logger.DebugContext(ctx, "contribution inserted",
			"id", inserted.ID, "stage", inserted.Stage, "file_name", inserted.FileName)
	}
	return inserted, nil
}

// ListByDocumentIdentity loads every chunk whose relationship entry for the
// stage equals the document identity, ordered by edit_version then
// created_at so dedupe and tie-breaking stay deterministic.
func (r *ContributionRepo) ListByDocumentIdentity(ctx context.Context, sessionID string, iteration int, stage, identity string) ([]*model.Contribution, error) {
	query := `
  SELECT ` + contributionColumns + `
  FROM dialectic_contributions
  WHERE session_id = $1
    AND iteration_number = $2
    AND stage = $3
    AND document_relationships ->> $3 = $4
  ORDER BY edit_version, created_at`

	rows, err := r.DB.QueryContext(ctx, query, sessionID, iteration, stage, identity)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var out []*model.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, apperrors.MapDBError(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// SetDocumentRelationships establishes a chain identity after insert.
func (r *ContributionRepo) SetDocumentRelationships(ctx context.Context, id string, relationships map[string]string) error {
	data, err := json.Marshal(relationships)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "marshal document relationships")
	}
	res, err := r.DB.ExecContext(ctx, `
  UPDATE dialectic_contributions
  SET document_relationships = $2, updated_at = $3
  WHERE id = $1`, id, data, r.timeProvider.Now().UTC())
	if err != nil {
		return apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if affected == 0 {
		return apperrors.NotFoundf("contribution %s not found", id)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
