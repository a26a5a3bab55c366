package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/sync/errgroup"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/chain"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/document"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// defaultContentExpression locates the structured content object inside a
// raw chunk payload when the template does not override it.
const defaultContentExpression = "content"

// downloadConcurrency bounds parallel chunk downloads per render.
const downloadConcurrency = 4

// rePlaceholder matches {{field_name}} substitution slots in a template
// body. Unresolved placeholders are left intact in the output.
var rePlaceholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// DocumentRendererOptions groups dependencies for DocumentRenderer.
type DocumentRendererOptions struct {
	Templates core.TemplateRegistry // Required: exact template lookup
	Chains    *chain.Resolver       // Required: chunk chain resolution
	Files     core.FileStore        // Required: blob storage reads
	Registrar core.FileRegistrar    // Required: rendered document writes
	Domain    string                // Optional: template domain, defaults to "general"
	Logger    *slog.Logger          // Optional: structured logger
}

// DocumentRenderer turns a chunk chain into one rendered markdown document:
// template lookup, chain resolution, concurrent chunk downloads, field
// merging with concatenation-on-collision, array flattening, title
// injection, and placeholder substitution.
type DocumentRenderer struct {
	templates core.TemplateRegistry
	chains    *chain.Resolver
	files     core.FileStore
	registrar core.FileRegistrar
	domain    string
	logger    *slog.Logger
}

// NewDocumentRenderer constructs a DocumentRenderer.
func NewDocumentRenderer(opts DocumentRendererOptions) (*DocumentRenderer, error) {
	if opts.Templates == nil {
		return nil, errors.New("TemplateRegistry is required")
	}
	if opts.Chains == nil {
		return nil, errors.New("chain resolver is required")
	}
	if opts.Files == nil {
		return nil, errors.New("FileStore is required")
	}
	if opts.Registrar == nil {
		return nil, errors.New("FileRegistrar is required")
	}
	domain := opts.Domain
	if domain == "" {
		domain = "general"
	}
	logger := opts.Logger
	if logger != nil {
		logger = logger.With("component", "document_renderer")
	}
	return &DocumentRenderer{
		templates: opts.Templates,
		chains:    opts.Chains,
		files:     opts.Files,
		registrar: opts.Registrar,
		domain:    domain,
		logger:    logger,
	}, nil
}

// RenderResult is the outcome of one render.
type RenderResult struct {
	Content    []byte
	Parts      pathcodec.PathParts
	ChunkCount int
}

// Render produces and persists the rendered markdown document for a render
// payload. Template misses and missing chains fail with NotFound; a chunk
// whose payload is not structured JSON degrades into the extra-content
// accumulator instead of failing the render.
func (r *DocumentRenderer) Render(ctx context.Context, payload *model.RenderPayload) (*RenderResult, error) {
	tpl, err := r.templates.Lookup(ctx, payload.StageSlug, payload.TemplateFilename, r.domain)
	if err != nil {
		return nil, err
	}

	chunks, err := r.chains.Resolve(ctx, chain.Query{
		SessionID:        payload.SessionID,
		Iteration:        payload.IterationNumber,
		Stage:            payload.StageSlug,
		DocumentIdentity: payload.DocumentIdentity,
	})
	if err != nil {
		return nil, err
	}

	payloads, err := r.downloadAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	expr := tpl.ContentExpression
	if expr == "" {
		expr = defaultContentExpression
	}

	acc := make(map[string]any)
	for i, raw := range payloads {
		r.mergeChunk(ctx, acc, chunks[i], raw, expr)
	}
	document.FlattenArrays(acc)
	if _, ok := acc[document.TitleKey]; !ok {
		acc[document.TitleKey] = document.TitleFromDocumentKey(payload.DocumentKey)
	}

	rendered := substitute(tpl.Body, acc)

	pc, err := pathcodec.DeconstructPath(chunks[0].StoragePath, chunks[0].FileName)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "recover path context from root chunk")
	}
	pc.ContinuationCount = 0

	parts, err := r.registrar.RegisterRenderedDocument(ctx, pc, rendered)
	if err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "document rendered",
			"document_identity", payload.DocumentIdentity,
			"chunks", len(chunks),
			"path", parts.FullPath())
	}
	return &RenderResult{Content: rendered, Parts: parts, ChunkCount: len(chunks)}, nil
}

// downloadAll fetches every chunk payload with bounded concurrency,
// preserving chain order in the result.
func (r *DocumentRenderer) downloadAll(ctx context.Context, chunks []*model.Contribution) ([][]byte, error) {
	payloads := make([][]byte, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			raw, err := r.files.Download(gctx, chunk.StorageBucket, chunk.StoragePath+"/"+chunk.FileName)
			if err != nil {
				return apperrors.Wrapf(err, apperrors.ErrCodePersistence, "download chunk %s", chunk.ID)
			}
			payloads[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// mergeChunk folds one chunk payload into the accumulator. Structured
// content found by the JMESPath expression merges field-by-field; a plain
// string result merges under "content"; a payload that is not JSON at all
// lands on the extra-content accumulator.
func (r *DocumentRenderer) mergeChunk(ctx context.Context, acc map[string]any, chunk *model.Contribution, raw []byte, expr string) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		document.AppendExtraContent(acc, string(raw))
		return
	}

	found, err := jmespath.Search(expr, decoded)
	if err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "content expression failed",
			"chunk_id", chunk.ID, "expression", expr, "error", err)
	}

	switch v := found.(type) {
	case map[string]any:
		document.MergeRenderFields(acc, v)
	case string:
		document.MergeRenderFields(acc, map[string]any{"content": v})
	default:
		// No content object at the expression; fall back to the chunk's
		// top-level object, else preserve the payload verbatim.
		if top, ok := decoded.(map[string]any); ok {
			document.MergeRenderFields(acc, top)
			return
		}
		document.AppendExtraContent(acc, string(raw))
	}
}

// substitute replaces {{field}} placeholders with accumulator values.
// Fields missing from the accumulator stay as-is so a partial render is
// visible rather than silently blank.
func substitute(body []byte, acc map[string]any) []byte {
	return rePlaceholder.ReplaceAllFunc(body, func(match []byte) []byte {
		name := rePlaceholder.FindSubmatch(match)[1]
		value, ok := acc[string(name)]
		if !ok {
			return match
		}
		if s, isString := value.(string); isString {
			return []byte(s)
		}
		return []byte(strings.TrimSpace(fmt.Sprintf("%v", value)))
	})
}
