package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// continuationDirective is appended to a continuation prompt so the model
// resumes the truncated document instead of restarting it.
const continuationDirective = "Continue the document exactly where it left off. Do not repeat earlier content."

// StagePromptAssemblerOptions groups dependencies for StagePromptAssembler.
type StagePromptAssemblerOptions struct {
	Contributions core.ContributionRepository // Required: source document rows
	Files         core.FileStore              // Required: blob storage reads
	Bucket        string                      // Required: storage bucket
	Models        core.ModelConfigProvider    // Required: model slug for prompt paths
	Logger        *slog.Logger                // Optional: structured logger
}

// StagePromptAssembler builds the prompt for an execute job: the gathered
// source documents when the payload names any, else the stage's rendered
// turn prompt at its canonical path.
type StagePromptAssembler struct {
	contributions core.ContributionRepository
	files         core.FileStore
	bucket        string
	models        core.ModelConfigProvider
	logger        *slog.Logger
}

var _ core.PromptAssembler = (*StagePromptAssembler)(nil)

// NewStagePromptAssembler constructs a StagePromptAssembler.
func NewStagePromptAssembler(opts StagePromptAssemblerOptions) (*StagePromptAssembler, error) {
	if opts.Contributions == nil {
		return nil, errors.New("ContributionRepository is required")
	}
	if opts.Files == nil {
		return nil, errors.New("FileStore is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if opts.Models == nil {
		return nil, errors.New("ModelConfigProvider is required")
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "prompt_assembler")
	}
	return &StagePromptAssembler{
		contributions: opts.Contributions,
		files:         opts.Files,
		bucket:        opts.Bucket,
		models:        opts.Models,
		logger:        logger,
	}, nil
}

// AssemblePrompt produces the model prompt for the payload. A continuation
// payload gets the resume directive appended so the model picks up where the
// truncated chunk stopped.
func (a *StagePromptAssembler) AssemblePrompt(ctx context.Context, payload *model.ExecutePayload) (string, error) {
	var prompt string
	var err error
	if len(payload.SourceDocumentIDs) > 0 {
		prompt, err = a.gatherSourceDocuments(ctx, payload)
	} else {
		prompt, err = a.stagePrompt(ctx, payload)
	}
	if err != nil {
		return "", err
	}

	if payload.IsContinuation() {
		prompt = prompt + "\n\n" + continuationDirective
	}
	return prompt, nil
}

// gatherSourceDocuments downloads each named source document and joins them
// in payload order.
func (a *StagePromptAssembler) gatherSourceDocuments(ctx context.Context, payload *model.ExecutePayload) (string, error) {
	docs := make([]string, 0, len(payload.SourceDocumentIDs))
	for _, id := range payload.SourceDocumentIDs {
		row, err := a.contributions.GetByID(ctx, id)
		if err != nil {
			return "", apperrors.Wrapf(err, apperrors.ErrCodePersistence, "load source document %s", id)
		}
		content, err := a.files.Download(ctx, row.StorageBucket, row.StoragePath+"/"+row.FileName)
		if err != nil {
			return "", apperrors.Wrapf(err, apperrors.ErrCodePersistence, "download source document %s", id)
		}
		docs = append(docs, string(content))
	}
	return strings.Join(docs, "\n\n"), nil
}

// stagePrompt downloads the rendered turn prompt at its canonical path.
func (a *StagePromptAssembler) stagePrompt(ctx context.Context, payload *model.ExecutePayload) (string, error) {
	cfg, err := a.models.GetModelConfig(ctx, payload.ModelID)
	if err != nil {
		return "", err
	}

	pc := pathContextFor(payload, cfg, 0)
	pc.FileType = pathcodec.FileTypeTurnPrompt
	pc.ContinuationCount = 0
	parts, err := pathcodec.ConstructPath(pc)
	if err != nil {
		return "", err
	}

	content, err := a.files.Download(ctx, a.bucket, parts.FullPath())
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodePersistence, "download stage prompt %s", parts.FullPath())
	}
	return string(content), nil
}
