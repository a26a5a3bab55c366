// Package service implements the per-job procedures of the dialectic
// pipeline: model-call execution, continuation, retry bookkeeping, document
// rendering and assembly.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// FileRegistryOptions groups dependencies for FileRegistry.
type FileRegistryOptions struct {
	Files         core.FileStore              // Required: blob storage
	Contributions core.ContributionRepository // Required: contribution rows
	Bucket        string                      // Required: storage bucket
	Logger        *slog.Logger                // Optional: structured logger
}

// FileRegistry persists artifacts under their canonical paths and registers
// the matching contribution rows. It is the single writer of chunk files:
// every path it produces comes from the path codec, which keeps raw chunks,
// assembled artifacts, and rendered documents collision-free.
type FileRegistry struct {
	files         core.FileStore
	contributions core.ContributionRepository
	bucket        string
	logger        *slog.Logger
}

var _ core.FileRegistrar = (*FileRegistry)(nil)

// NewFileRegistry constructs a FileRegistry.
func NewFileRegistry(opts FileRegistryOptions) (*FileRegistry, error) {
	if opts.Files == nil {
		return nil, errors.New("FileStore is required")
	}
	if opts.Contributions == nil {
		return nil, errors.New("ContributionRepository is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "file_registry")
	}
	return &FileRegistry{
		files:         opts.Files,
		contributions: opts.Contributions,
		bucket:        opts.Bucket,
		logger:        logger,
	}, nil
}

// RegisterContribution uploads one chunk at its canonical raw-response path
// and inserts the contribution row describing it.
func (f *FileRegistry) RegisterContribution(ctx context.Context, up core.ContributionUpload) (*model.Contribution, error) {
	pc := up.PathContext
	pc.FileType = pathcodec.FileTypeRawJSON

	parts, err := pathcodec.ConstructPath(pc)
	if err != nil {
		return nil, err
	}

	if err := f.files.Upload(ctx, f.bucket, parts.FullPath(), up.Content, up.Metadata.MimeType); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePersistence, "upload contribution content")
	}

	row := up.Metadata
	row.StorageBucket = f.bucket
	row.StoragePath = parts.StoragePath
	row.FileName = parts.FileName
	row.RawResponseStoragePath = parts.FullPath()
	if row.MimeType == "" {
		row.MimeType = "application/json"
	}

	inserted, err := f.contributions.Insert(ctx, &row)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePersistence, "insert contribution row")
	}

	if f.logger != nil {
		f.logger.DebugContext(ctx, "contribution registered",
			"id", inserted.ID,
			"path", parts.FullPath(),
			"continuation_count", pc.ContinuationCount)
	}
	return inserted, nil
}

// RegisterRenderedDocument uploads rendered markdown at its canonical path.
func (f *FileRegistry) RegisterRenderedDocument(ctx context.Context, pc pathcodec.PathContext, rendered []byte) (pathcodec.PathParts, error) {
	pc.FileType = pathcodec.FileTypeRenderedDocument
	parts, err := pathcodec.ConstructPath(pc)
	if err != nil {
		return pathcodec.PathParts{}, err
	}
	if err := f.files.Upload(ctx, f.bucket, parts.FullPath(), rendered, "text/markdown"); err != nil {
		return pathcodec.PathParts{}, apperrors.Wrap(err, apperrors.ErrCodePersistence, "upload rendered document")
	}
	return parts, nil
}

// RegisterAssembledDocument uploads a merged JSON artifact under
// _work/assembled_json, guaranteed distinct from every raw chunk path.
func (f *FileRegistry) RegisterAssembledDocument(ctx context.Context, pc pathcodec.PathContext, assembled []byte) (pathcodec.PathParts, error) {
	pc.FileType = pathcodec.FileTypeAssembledJSON
	parts, err := pathcodec.ConstructPath(pc)
	if err != nil {
		return pathcodec.PathParts{}, err
	}
	if err := f.files.Upload(ctx, f.bucket, parts.FullPath(), assembled, "application/json"); err != nil {
		return pathcodec.PathParts{}, apperrors.Wrap(err, apperrors.ErrCodePersistence, "upload assembled document")
	}
	return parts, nil
}

// Bucket returns the storage bucket the registry writes into.
func (f *FileRegistry) Bucket() string {
	return f.bucket
}
