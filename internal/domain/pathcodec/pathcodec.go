// Package pathcodec implements the canonical, collision-free storage path
// grammar for dialectic artifacts. It is the single bidirectional mapping
// between a semantic path context (project, session, iteration, stage,
// model, attempt, document key, optional source-group fragment, optional
// critique lineage) and a bucket path. Pure functions, no I/O.
//
// Continuation chunks live under a _work/raw_responses subdirectory with a
// _continuation_{n} filename suffix; root chunks live directly under
// raw_responses with no suffix. Assembled JSON artifacts always live under
// _work/assembled_json, guaranteed distinct from every raw chunk path.
package pathcodec

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// FileType identifies the artifact category a path encodes.
type FileType string

const (
	// FileTypeHeaderContext is the per-turn header context JSON.
	FileTypeHeaderContext FileType = "header_context"
	// FileTypeTurnPrompt is the rendered turn prompt markdown.
	FileTypeTurnPrompt FileType = "turn_prompt"
	// FileTypeRawJSON is one raw model response chunk.
	FileTypeRawJSON FileType = "raw_json"
	// FileTypeAssembledJSON is the merged JSON artifact for JSON-only documents.
	FileTypeAssembledJSON FileType = "assembled_json"
	// FileTypeRenderedDocument is the final rendered markdown document.
	FileTypeRenderedDocument FileType = "rendered_document"
)

// StageAntithesis is the critique stage; only there do paths encode the
// critiqued source anchor.
const StageAntithesis = "antithesis"

const (
	dirRawResponses  = "raw_responses"
	dirWorkRaw       = "_work/raw_responses"
	dirWorkAssembled = "_work/assembled_json"
	dirDocuments     = "documents"

	tokenCritiquing = "critiquing"
)

var reContinuationSuffix = regexp.MustCompile(`_continuation_(\d+)$`)

// PathContext is the semantic identity a storage path encodes.
type PathContext struct {
	FileType        FileType
	ProjectID       string
	SessionID       string
	Iteration       int
	StageSlug       string
	ModelSlug       string
	AttemptCount    int
	DocumentKey     string
	// SourceGroupID may be a full UUID or an already-sanitized fragment;
	// construction sanitizes it either way. Empty means no fragment.
	SourceGroupID     string
	ContinuationCount int
	ContributionType  string

	// Critique lineage, honored only when StageSlug is antithesis.
	SourceAnchorModelSlug string
	SourceAnchorType      string
	SourceAttemptCount    int
}

// PathParts is the result of constructing a path: the directory under the
// bucket and the file name within it.
type PathParts struct {
	StoragePath string
	FileName    string
}

// FullPath joins the directory and file name.
func (p PathParts) FullPath() string {
	return p.StoragePath + "/" + p.FileName
}

// isCritique reports whether the context uses the critique filename grammar:
// antithesis stage anchored on a source model.
func (c *PathContext) isCritique() bool {
	return c.StageSlug == StageAntithesis && c.SourceAnchorModelSlug != ""
}

// ConstructPath encodes a path context into its canonical storage location.
// It fails only on malformed input (missing required identity fields).
func ConstructPath(ctx PathContext) (PathParts, error) {
	if ctx.ProjectID == "" || ctx.SessionID == "" || ctx.StageSlug == "" {
		return PathParts{}, apperrors.Validation("path context requires project, session, and stage")
	}
	if ctx.ModelSlug == "" {
		return PathParts{}, apperrors.Validation("path context requires a model slug")
	}
	needsDocKey := ctx.FileType != FileTypeHeaderContext
	if needsDocKey && ctx.DocumentKey == "" {
		return PathParts{}, apperrors.Validationf("path context for %s requires a document key", ctx.FileType)
	}

	name, err := constructFileName(ctx)
	if err != nil {
		return PathParts{}, err
	}

	return PathParts{StoragePath: constructDir(ctx), FileName: name}, nil
}

func constructDir(ctx PathContext) string {
	base := fmt.Sprintf("projects/%s/sessions/%s/iteration_%d/%s",
		ctx.ProjectID, ctx.SessionID, ctx.Iteration, ctx.StageSlug)

	switch ctx.FileType {
	case FileTypeRawJSON:
		if ctx.ContinuationCount > 0 {
			return base + "/" + dirWorkRaw
		}
		return base + "/" + dirRawResponses
	case FileTypeAssembledJSON:
		return base + "/" + dirWorkAssembled
	case FileTypeRenderedDocument:
		return base + "/" + dirDocuments
	default:
		return base
	}
}

func constructFileName(ctx PathContext) (string, error) {
	frag := ExtractSourceGroupFragment(ctx.SourceGroupID)
	attempt := strconv.Itoa(ctx.AttemptCount)

	var parts []string
	var ext string

	if ctx.isCritique() {
		anchor := ctx.SourceAnchorModelSlug
		if ctx.FileType == FileTypeRawJSON {
			// The raw critique form spells out the full anchor lineage:
			// ({sourceModel}'s_{anchorType}_{anchorAttempt})
			anchor = fmt.Sprintf("(%s's_%s_%d)",
				ctx.SourceAnchorModelSlug, ctx.SourceAnchorType, ctx.SourceAttemptCount)
		}
		parts = []string{ctx.ModelSlug, tokenCritiquing, anchor}
		if frag != "" {
			parts = append(parts, frag)
		}
		parts = append(parts, attempt)

		switch ctx.FileType {
		case FileTypeHeaderContext:
			parts, ext = append(parts, "header_context"), ".json"
		case FileTypeTurnPrompt:
			parts, ext = append(parts, ctx.DocumentKey, "prompt"), ".md"
		case FileTypeRawJSON:
			parts, ext = append(parts, ctx.DocumentKey, "raw"), ".json"
		case FileTypeAssembledJSON:
			parts, ext = append(parts, ctx.DocumentKey, "assembled"), ".json"
		case FileTypeRenderedDocument:
			parts, ext = append(parts, ctx.DocumentKey), ".md"
		default:
			return "", apperrors.Validationf("unknown file type %q", ctx.FileType)
		}
		return finishFileName(strings.Join(parts, "_"), ext, ctx), nil
	}

	switch ctx.FileType {
	case FileTypeHeaderContext:
		parts = []string{ctx.ModelSlug, attempt}
		if frag != "" {
			parts = append(parts, frag)
		}
		parts, ext = append(parts, "header_context"), ".json"
	case FileTypeTurnPrompt:
		parts = []string{ctx.ModelSlug, attempt, ctx.DocumentKey}
		if frag != "" {
			parts = append(parts, frag)
		}
		parts, ext = append(parts, "prompt"), ".md"
	case FileTypeRawJSON:
		parts = []string{ctx.ModelSlug, attempt, ctx.DocumentKey}
		if frag != "" {
			parts = append(parts, frag)
		}
		parts, ext = append(parts, "raw"), ".json"
	case FileTypeAssembledJSON:
		parts = []string{ctx.ModelSlug, attempt, ctx.DocumentKey}
		if frag != "" {
			parts = append(parts, frag)
		}
		parts, ext = append(parts, "assembled"), ".json"
	case FileTypeRenderedDocument:
		// The rendered simple form has no category token, so a fragment
		// leaves a trailing joiner before the extension.
		stem := strings.Join([]string{ctx.ModelSlug, attempt, ctx.DocumentKey}, "_")
		if frag != "" {
			stem += "_" + frag + "_"
		}
		return finishFileName(stem, ".md", ctx), nil
	default:
		return "", apperrors.Validationf("unknown file type %q", ctx.FileType)
	}
	return finishFileName(strings.Join(parts, "_"), ext, ctx), nil
}

func finishFileName(stem, ext string, ctx PathContext) string {
	if ctx.FileType == FileTypeRawJSON && ctx.ContinuationCount > 0 {
		stem += "_continuation_" + strconv.Itoa(ctx.ContinuationCount)
	}
	return stem + ext
}

// DeconstructPath decodes a storage directory and file name back into the
// path context that produced them. SourceGroupID on the result holds the
// sanitized fragment, which round-trips through ConstructPath unchanged.
func DeconstructPath(storagePath, fileName string) (PathContext, error) {
	ctx, err := parseDir(storagePath)
	if err != nil {
		return PathContext{}, err
	}

	ext := path.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)

	if m := reContinuationSuffix.FindStringSubmatch(stem); m != nil {
		n, _ := strconv.Atoi(m[1])
		ctx.ContinuationCount = n
		stem = strings.TrimSuffix(stem, m[0])
	}

	ctx.FileType, err = classifyFileName(stem, ext)
	if err != nil {
		return PathContext{}, err
	}

	if err := parseFileName(&ctx, stem); err != nil {
		return PathContext{}, err
	}
	return ctx, nil
}

func parseDir(storagePath string) (PathContext, error) {
	parts := strings.Split(strings.Trim(storagePath, "/"), "/")
	if len(parts) < 5 || parts[0] != "projects" || parts[2] != "sessions" {
		return PathContext{}, apperrors.Validationf("unrecognized storage path %q", storagePath)
	}
	iter, ok := strings.CutPrefix(parts[4], "iteration_")
	if !ok {
		return PathContext{}, apperrors.Validationf("unrecognized iteration segment in %q", storagePath)
	}
	n, err := strconv.Atoi(iter)
	if err != nil {
		return PathContext{}, apperrors.Validationf("unrecognized iteration segment in %q", storagePath)
	}
	if len(parts) < 6 {
		return PathContext{}, apperrors.Validationf("storage path %q is missing a stage segment", storagePath)
	}
	return PathContext{
		ProjectID: parts[1],
		SessionID: parts[3],
		Iteration: n,
		StageSlug: parts[5],
	}, nil
}

func classifyFileName(stem, ext string) (FileType, error) {
	switch {
	case ext == ".json" && strings.HasSuffix(stem, "_header_context"):
		return FileTypeHeaderContext, nil
	case ext == ".md" && strings.HasSuffix(stem, "_prompt"):
		return FileTypeTurnPrompt, nil
	case ext == ".json" && strings.HasSuffix(stem, "_raw"):
		return FileTypeRawJSON, nil
	case ext == ".json" && strings.HasSuffix(stem, "_assembled"):
		return FileTypeAssembledJSON, nil
	case ext == ".md":
		return FileTypeRenderedDocument, nil
	default:
		return "", apperrors.Validationf("unrecognized file name %q", stem+ext)
	}
}

func parseFileName(ctx *PathContext, stem string) error {
	tokens := strings.Split(stem, "_")

	if idx := indexOfCritiquing(tokens); idx > 0 {
		return parseCritiqueFileName(ctx, tokens, idx)
	}
	return parseSimpleFileName(ctx, tokens)
}

func indexOfCritiquing(tokens []string) int {
	for i, tok := range tokens {
		if tok == tokenCritiquing {
			return i
		}
	}
	return -1
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseSimpleFileName(ctx *PathContext, tokens []string) error {
	// The attempt counter is the first all-digit token; everything before
	// it is the model slug.
	attemptIdx := -1
	for i, tok := range tokens {
		if allDigits(tok) {
			attemptIdx = i
			break
		}
	}
	if attemptIdx <= 0 || attemptIdx == len(tokens)-1 {
		return apperrors.Validationf("file name %q has no attempt counter", strings.Join(tokens, "_"))
	}
	ctx.ModelSlug = strings.Join(tokens[:attemptIdx], "_")
	ctx.AttemptCount, _ = strconv.Atoi(tokens[attemptIdx])
	rest := tokens[attemptIdx+1:]

	switch ctx.FileType {
	case FileTypeHeaderContext:
		rest = rest[:len(rest)-2] // header, context
		if len(rest) == 1 && isFragment(rest[0]) {
			ctx.SourceGroupID = rest[0]
		}
		return nil
	case FileTypeTurnPrompt, FileTypeRawJSON, FileTypeAssembledJSON:
		rest = rest[:len(rest)-1] // prompt / raw / assembled
		rest = takeFragment(ctx, rest)
		ctx.DocumentKey = strings.Join(rest, "_")
		return nil
	case FileTypeRenderedDocument:
		if len(rest) >= 2 && rest[len(rest)-1] == "" {
			// Trailing joiner: the token before it is the fragment.
			ctx.SourceGroupID = rest[len(rest)-2]
			rest = rest[:len(rest)-2]
		}
		ctx.DocumentKey = strings.Join(rest, "_")
		return nil
	default:
		return apperrors.Validationf("unknown file type %q", ctx.FileType)
	}
}

// takeFragment strips a trailing fragment token, if present, recording it
// on the context. A document key is never allowed to be consumed whole.
func takeFragment(ctx *PathContext, rest []string) []string {
	if n := len(rest); n >= 2 && isFragment(rest[n-1]) {
		ctx.SourceGroupID = rest[n-1]
		return rest[:n-1]
	}
	return rest
}

func parseCritiqueFileName(ctx *PathContext, tokens []string, critIdx int) error {
	ctx.ModelSlug = strings.Join(tokens[:critIdx], "_")
	after := tokens[critIdx+1:]
	if len(after) == 0 {
		return apperrors.Validation("critique file name is truncated after 'critiquing'")
	}

	var err error
	if strings.HasPrefix(after[0], "(") {
		after, err = parseParenAnchor(ctx, after)
	} else {
		after, err = parsePlainAnchor(ctx, after)
	}
	if err != nil {
		return err
	}

	// Optional fragment sits between the anchor and the attempt counter.
	if len(after) >= 2 && isFragment(after[0]) && allDigits(after[1]) {
		ctx.SourceGroupID = after[0]
		after = after[1:]
	}
	if len(after) == 0 || !allDigits(after[0]) {
		return apperrors.Validation("critique file name has no attempt counter")
	}
	ctx.AttemptCount, _ = strconv.Atoi(after[0])
	after = after[1:]

	switch ctx.FileType {
	case FileTypeHeaderContext:
		return nil // remaining tokens are the header_context suffix
	case FileTypeTurnPrompt, FileTypeRawJSON, FileTypeAssembledJSON:
		if len(after) < 2 {
			return apperrors.Validation("critique file name is missing its document key")
		}
		ctx.DocumentKey = strings.Join(after[:len(after)-1], "_")
		return nil
	case FileTypeRenderedDocument:
		ctx.DocumentKey = strings.Join(after, "_")
		return nil
	default:
		return apperrors.Validationf("unknown file type %q", ctx.FileType)
	}
}

// parsePlainAnchor consumes anchor tokens up to the optional fragment or the
// attempt counter.
func parsePlainAnchor(ctx *PathContext, after []string) ([]string, error) {
	end := -1
	for i, tok := range after {
		if allDigits(tok) {
			end = i
			break
		}
	}
	if end <= 0 {
		return nil, apperrors.Validation("critique file name has no attempt counter")
	}
	if end >= 2 && isFragment(after[end-1]) {
		end--
	}
	ctx.SourceAnchorModelSlug = strings.Join(after[:end], "_")
	return after[end:], nil
}

// parseParenAnchor consumes the raw-critique anchor form
// ({sourceModel}'s_{anchorType}_{anchorAttempt}).
func parseParenAnchor(ctx *PathContext, after []string) ([]string, error) {
	end := -1
	for i, tok := range after {
		if strings.HasSuffix(tok, ")") {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, apperrors.Validation("critique anchor is missing its closing parenthesis")
	}
	anchor := after[:end+1]
	if len(anchor) < 3 {
		return nil, apperrors.Validationf("critique anchor %q is malformed", strings.Join(anchor, "_"))
	}

	src := strings.TrimPrefix(strings.Join(anchor[:len(anchor)-2], "_"), "(")
	ctx.SourceAnchorModelSlug = strings.TrimSuffix(src, "'s")
	ctx.SourceAnchorType = anchor[len(anchor)-2]
	attempt := strings.TrimSuffix(anchor[len(anchor)-1], ")")
	if !allDigits(attempt) {
		return nil, apperrors.Validationf("critique anchor attempt %q is not numeric", attempt)
	}
	ctx.SourceAttemptCount, _ = strconv.Atoi(attempt)
	return after[end+1:], nil
}
