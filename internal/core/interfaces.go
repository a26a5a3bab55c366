// Package core defines the narrow capability interfaces the job-processing
// services depend on. Concrete implementations live in internal/data,
// internal/service, and internal/adapters; external collaborators (the AI
// providers, token counting, compression, blob storage) stay behind these
// boundaries.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dialecticlabs/dialectic-worker/internal/domain/model"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/pathcodec"
)

// JobRepository persists and mutates job rows. Jobs are mutated in place and
// never deleted by the core.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, results json.RawMessage) error
	MarkFailed(ctx context.Context, id string, errorDetails json.RawMessage) error
	MarkRetrying(ctx context.Context, id string, attemptCount int, errorDetails json.RawMessage) error
	// ClaimNext reserves the next pending job for a worker, or returns
	// model.ErrNoJobsAvailable when the queue is empty.
	ClaimNext(ctx context.Context) (*model.Job, error)
}

// ReaperRepository reclaims job rows stranded in processing by a crashed or
// timed-out worker.
type ReaperRepository interface {
	// RequeueStaleProcessing returns processing jobs older than staleness
	// that still have retry budget to the queue, up to batchSize rows. It
	// reports how many rows it touched.
	RequeueStaleProcessing(ctx context.Context, staleness time.Duration, batchSize int) (int64, error)
	// FailStaleProcessing marks processing jobs older than staleness whose
	// retry budget is spent as failed, up to batchSize rows.
	FailStaleProcessing(ctx context.Context, staleness time.Duration, batchSize int) (int64, error)
}

// ContributionRepository persists contribution (chunk) rows.
type ContributionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Contribution, error)
	Insert(ctx context.Context, c *model.Contribution) (*model.Contribution, error)
	ListByDocumentIdentity(ctx context.Context, sessionID string, iteration int, stage, identity string) ([]*model.Contribution, error)
	// SetDocumentRelationships establishes a chain identity after insert,
	// used when a root thesis chunk learns its own id.
	SetDocumentRelationships(ctx context.Context, id string, relationships map[string]string) error
}

// FileStore is the blob storage boundary.
type FileStore interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
	Upload(ctx context.Context, bucket, path string, data []byte, mimeType string) error
}

// ContributionUpload carries everything the file registrar needs to persist
// one model-output chunk: the semantic path identity, the row metadata, and
// the (possibly continuation-concatenated) content to store.
type ContributionUpload struct {
	PathContext pathcodec.PathContext
	Metadata    model.Contribution
	Content     []byte
}

// FileRegistrar persists artifacts under their canonical paths and registers
// the matching contribution rows.
type FileRegistrar interface {
	RegisterContribution(ctx context.Context, up ContributionUpload) (*model.Contribution, error)
	RegisterRenderedDocument(ctx context.Context, pc pathcodec.PathContext, rendered []byte) (pathcodec.PathParts, error)
	RegisterAssembledDocument(ctx context.Context, pc pathcodec.PathContext, assembled []byte) (pathcodec.PathParts, error)
}

// ModelCallRequest is one model invocation.
type ModelCallRequest struct {
	ModelID  string
	WalletID string
	UserJWT  string
	Prompt   string
}

// ModelCallResponse is the provider-normalized result of a model call.
type ModelCallResponse struct {
	Content      string
	FinishReason model.FinishReason
	InputTokens  int
	OutputTokens int
	// Error carries a provider-reported failure; content alongside it is
	// not trustworthy.
	Error string
}

// ModelCaller invokes an AI model through its provider adapter.
type ModelCaller interface {
	Call(ctx context.Context, req ModelCallRequest) (*ModelCallResponse, error)
}

// ModelConfig is the provider/model configuration a job executes against.
type ModelConfig struct {
	ModelID             string
	APIIdentifier       string
	ModelSlug           string
	ProviderName        string
	ContextWindowTokens int
	MaxOutputTokens     int
}

// ModelConfigProvider loads full provider/model configuration.
type ModelConfigProvider interface {
	GetModelConfig(ctx context.Context, modelID string) (*ModelConfig, error)
}

// TokenCounter counts prompt tokens for a model. Internals are external to
// this core.
type TokenCounter interface {
	CountTokens(ctx context.Context, modelID, text string) (int, error)
}

// ContextCompressor reduces a prompt that exceeds the model's context
// window. Implementations may return the input unchanged when nothing can
// be compressed further.
type ContextCompressor interface {
	Compress(ctx context.Context, modelID, content string, limitTokens int) (string, error)
}

// PromptAssembler produces the candidate prompt for an execute job: the
// gathered source documents when present, else the rendered stage prompt.
type PromptAssembler interface {
	AssemblePrompt(ctx context.Context, payload *model.ExecutePayload) (string, error)
}

// Template is one registered document template.
type Template struct {
	Name string
	Body []byte
	// ContentExpression optionally overrides the JMESPath expression used
	// to locate the structured content object in a raw chunk payload.
	ContentExpression string
}

// TemplateRegistry resolves templates by exact (stage, document type,
// domain) lookup. No fuzzy or derived-name fallback exists: a missing
// template is a NotFound failure.
type TemplateRegistry interface {
	Lookup(ctx context.Context, stage, documentType, domain string) (*Template, error)
}

// RenderPolicy decides how a finished document materializes: markdown
// rendering through a RENDER job, or synchronous JSON assembly. Exactly one
// applies per output type.
type RenderPolicy interface {
	RendersMarkdown(outputType string) bool
}
