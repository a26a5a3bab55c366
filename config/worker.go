package config

import (
	"strings"
	"time"
)

// WorkerConfig controls the claim-and-dispatch loop.
type WorkerConfig struct {
	// Concurrency is the number of jobs processed in parallel.
	Concurrency int `env:"CONCURRENCY" envDefault:"4"`
	// PollInterval is how long an idle worker sleeps between claim attempts.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"2s"`
	// JobTimeout bounds one job's processing, model call included.
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"10m"`
	// MaxContinuationDepth bounds how many continuation chunks one document
	// may accumulate.
	MaxContinuationDepth int `env:"MAX_CONTINUATION_DEPTH" envDefault:"5"`
	// TemplateDomain selects which template domain render jobs resolve
	// against.
	TemplateDomain string `env:"TEMPLATE_DOMAIN" envDefault:"general"`
	// TemplateDir is the directory holding document templates, one
	// subdirectory per stage.
	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"templates"`
	// JSONOnlyOutputTypes lists the output types that assemble to JSON
	// instead of rendering to markdown.
	JSONOnlyOutputTypes []string `env:"JSON_ONLY_OUTPUT_TYPES" envDefault:"header_context"`
}

// Sanitize enforces safe bounds on the dispatch loop settings.
func (c *WorkerConfig) Sanitize() {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
	if c.MaxContinuationDepth < 1 {
		c.MaxContinuationDepth = 5
	}
	if c.TemplateDomain = strings.TrimSpace(c.TemplateDomain); c.TemplateDomain == "" {
		c.TemplateDomain = "general"
	}
	c.TemplateDir = strings.TrimSpace(c.TemplateDir)
}
