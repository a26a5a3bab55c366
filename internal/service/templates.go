package service

import (
	"context"
	"sync"

	"github.com/dialecticlabs/dialectic-worker/internal/core"
	apperrors "github.com/dialecticlabs/dialectic-worker/internal/errors"
)

// templateKey is the exact lookup key for the template registry. There is
// deliberately no fuzzy or derived-name fallback: a missing template fails.
type templateKey struct {
	Stage        string
	DocumentType string
	Domain       string
}

// StaticTemplateRegistry is an in-memory template registry, loaded at
// startup from the authoritative template set.
type StaticTemplateRegistry struct {
	mu        sync.RWMutex
	templates map[templateKey]*core.Template
}

var _ core.TemplateRegistry = (*StaticTemplateRegistry)(nil)

// NewStaticTemplateRegistry constructs an empty registry.
func NewStaticTemplateRegistry() *StaticTemplateRegistry {
	return &StaticTemplateRegistry{templates: make(map[templateKey]*core.Template)}
}

// Register installs a template under its exact (stage, document type,
// domain) key, replacing any previous entry.
func (r *StaticTemplateRegistry) Register(stage, documentType, domain string, tpl *core.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[templateKey{Stage: stage, DocumentType: documentType, Domain: domain}] = tpl
}

// Lookup resolves a template by exact key match.
func (r *StaticTemplateRegistry) Lookup(_ context.Context, stage, documentType, domain string) (*core.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[templateKey{Stage: stage, DocumentType: documentType, Domain: domain}]
	if !ok {
		return nil, apperrors.NotFoundf("no template registered for stage=%s type=%s domain=%s", stage, documentType, domain)
	}
	return tpl, nil
}

// OutputTypePolicy decides document materialization by output type: types in
// the JSON-only set are assembled synchronously, everything else renders to
// markdown through a RENDER job. Exactly one of the two applies per type.
type OutputTypePolicy struct {
	jsonOnly map[string]bool
}

var _ core.RenderPolicy = (*OutputTypePolicy)(nil)

// NewOutputTypePolicy constructs a policy from the JSON-only output types.
func NewOutputTypePolicy(jsonOnlyTypes []string) *OutputTypePolicy {
	set := make(map[string]bool, len(jsonOnlyTypes))
	for _, t := range jsonOnlyTypes {
		set[t] = true
	}
	return &OutputTypePolicy{jsonOnly: set}
}

// RendersMarkdown reports whether the output type produces a rendered
// markdown document.
func (p *OutputTypePolicy) RendersMarkdown(outputType string) bool {
	return !p.jsonOnly[outputType]
}
