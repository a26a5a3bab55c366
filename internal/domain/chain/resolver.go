// Package chain resolves the ordered chunk chain behind a document
// identity. Chunks point backward at their predecessor, so forward
// traversal works over an id index built once per resolution rather than by
// chasing pointers.
package chain

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// Loader loads every contribution row whose document_relationships entry for
// the stage equals the document identity, ordered by edit_version then
// created_at.
type Loader interface {
	ListByDocumentIdentity(ctx context.Context, sessionID string, iteration int, stage, identity string) ([]*model.Contribution, error)
}

// Query identifies one document chain.
type Query struct {
	SessionID        string
	Iteration        int
	Stage            string
	DocumentIdentity string
}

// Resolver turns a document identity into its ordered chunk chain.
type Resolver struct {
	loader Loader
	logger *slog.Logger
}

// NewResolver constructs a Resolver. The logger is optional.
func NewResolver(loader Loader, logger *slog.Logger) (*Resolver, error) {
	if loader == nil {
		return nil, errors.New("chunk loader is required")
	}
	if logger != nil {
		logger = logger.With("component", "chain_resolver")
	}
	return &Resolver{loader: loader, logger: logger}, nil
}

// Resolve returns the chunk chain for the query, root first. It fails with
// NotFound when no chunks match the identity or no root chunk exists. A
// dangling backward pointer truncates traversal rather than failing; the
// unreachable remainder is logged so data corruption stays observable.
func (r *Resolver) Resolve(ctx context.Context, q Query) ([]*model.Contribution, error) {
	if q.DocumentIdentity == "" {
		return nil, apperrors.Validation("document identity is required")
	}

	rows, err := r.loader.ListByDocumentIdentity(ctx, q.SessionID, q.Iteration, q.Stage, q.DocumentIdentity)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePersistence, "load document chunks")
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFoundf("no chunks found for document %s", q.DocumentIdentity)
	}

	deduped := dedupeByFileName(rows)

	root := findRoot(deduped, q.Stage, q.DocumentIdentity)
	if root == nil {
		return nil, apperrors.NotFoundf("no root chunk found for document %s", q.DocumentIdentity)
	}

	ordered := traverse(root, deduped)

	if r.logger != nil && len(ordered) < len(deduped) {
		r.logger.WarnContext(ctx, "chunk chain truncated by dangling backward pointer",
			"document_identity", q.DocumentIdentity,
			"resolved", len(ordered),
			"loaded", len(deduped))
	}
	return ordered, nil
}

// dedupeByFileName collapses duplicate file names, preferring user edits and
// latest-edit chunks over plain model chunks. Input order (edit_version,
// created_at ascending) breaks remaining ties in favor of the later row.
func dedupeByFileName(rows []*model.Contribution) []*model.Contribution {
	byName := make(map[string]int, len(rows))
	out := make([]*model.Contribution, 0, len(rows))

	for _, c := range rows {
		idx, seen := byName[c.FileName]
		if !seen {
			byName[c.FileName] = len(out)
			out = append(out, c)
			continue
		}
		if preferred(c) || !preferred(out[idx]) {
			out[idx] = c
		}
	}
	return out
}

func preferred(c *model.Contribution) bool {
	return c.IsEdit() || c.IsLatestEdit
}

// findRoot locates the unique chunk whose relationship entry for the stage
// is the document identity and whose backward pointer is null.
func findRoot(chunks []*model.Contribution, stage, identity string) *model.Contribution {
	for _, c := range chunks {
		if c.IsRoot() && c.DocumentIdentity(stage) == identity {
			return c
		}
	}
	return nil
}

// traverse walks forward from the root: the successor of chunk X is the
// chunk whose target_contribution_id equals X.id.
func traverse(root *model.Contribution, chunks []*model.Contribution) []*model.Contribution {
	successors := make(map[string]*model.Contribution, len(chunks))
	for _, c := range chunks {
		if c.TargetContributionID != nil && *c.TargetContributionID != "" {
			successors[*c.TargetContributionID] = c
		}
	}

	ordered := make([]*model.Contribution, 0, len(chunks))
	visited := make(map[string]bool, len(chunks))
	for cur := root; cur != nil && !visited[cur.ID]; cur = successors[cur.ID] {
		visited[cur.ID] = true
		ordered = append(ordered, cur)
	}
	return ordered
}
