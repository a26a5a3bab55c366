package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/chain"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/document"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// DocumentAssemblerOptions groups dependencies for DocumentAssembler.
type DocumentAssemblerOptions struct {
	Chains    *chain.Resolver    // Required: chunk chain resolution
	Files     core.FileStore     // Required: blob storage reads
	Registrar core.FileRegistrar // Required: assembled artifact writes
	Logger    *slog.Logger       // Optional: structured logger
}

// DocumentAssembler merges a document's chunk chain into one JSON artifact
// with override-on-collision semantics and persists it under
// _work/assembled_json. Assembly runs synchronously inside the execute job;
// it never spawns a follow-up job.
type DocumentAssembler struct {
	chains    *chain.Resolver
	files     core.FileStore
	registrar core.FileRegistrar
	logger    *slog.Logger
}

// NewDocumentAssembler constructs a DocumentAssembler.
func NewDocumentAssembler(opts DocumentAssemblerOptions) (*DocumentAssembler, error) {
	if opts.Chains == nil {
		return nil, errors.New("chain resolver is required")
	}
	if opts.Files == nil {
		return nil, errors.New("FileStore is required")
	}
	if opts.Registrar == nil {
		return nil, errors.New("FileRegistrar is required")
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "document_assembler")
	}
	return &DocumentAssembler{
		chains:    opts.Chains,
		files:     opts.Files,
		registrar: opts.Registrar,
		logger:    logger,
	}, nil
}

// AssembleRequest identifies the document to assemble.
type AssembleRequest struct {
	SessionID        string
	Iteration        int
	Stage            string
	DocumentIdentity string
}

// Assemble resolves the chunk chain, downloads each chunk's raw payload in
// chain order, shallow-merges the JSON objects (later chunks overwrite), and
// persists the merged artifact. The artifact's path identity is recovered
// from the root chunk's own path so model slug, attempt, fragment, and
// critique lineage carry over unchanged.
func (a *DocumentAssembler) Assemble(ctx context.Context, req AssembleRequest) (pathcodec.PathParts, error) {
	chunks, err := a.chains.Resolve(ctx, chain.Query{
		SessionID:        req.SessionID,
		Iteration:        req.Iteration,
		Stage:            req.Stage,
		DocumentIdentity: req.DocumentIdentity,
	})
	if err != nil {
		return pathcodec.PathParts{}, err
	}

	acc := make(map[string]any)
	for _, chunk := range chunks {
		fields, err := a.chunkObject(ctx, chunk)
		if err != nil {
			return pathcodec.PathParts{}, err
		}
		document.MergeAssembly(acc, fields)
	}

	merged, err := json.Marshal(acc)
	if err != nil {
		return pathcodec.PathParts{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "marshal assembled document")
	}

	pc, err := pathcodec.DeconstructPath(chunks[0].StoragePath, chunks[0].FileName)
	if err != nil {
		return pathcodec.PathParts{}, apperrors.Wrap(err, apperrors.ErrCodeInternal, "recover path context from root chunk")
	}
	pc.ContinuationCount = 0

	parts, err := a.registrar.RegisterAssembledDocument(ctx, pc, merged)
	if err != nil {
		return pathcodec.PathParts{}, err
	}

	if a.logger != nil {
		a.logger.InfoContext(ctx, "document assembled",
			"document_identity", req.DocumentIdentity,
			"chunks", len(chunks),
			"path", parts.FullPath())
	}
	return parts, nil
}

// chunkObject downloads one chunk and decodes it as a JSON object. Assembly
// only applies to JSON-typed documents, so a non-object chunk is corrupt
// input, not a soft case.
func (a *DocumentAssembler) chunkObject(ctx context.Context, chunk *model.Contribution) (map[string]any, error) {
	raw, err := a.files.Download(ctx, chunk.StorageBucket, chunk.StoragePath+"/"+chunk.FileName)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodePersistence, "download chunk %s", chunk.ID)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeValidation, "chunk %s is not a JSON object", chunk.ID)
	}
	return fields, nil
}
