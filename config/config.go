// Package config defines the worker's environment-driven configuration,
// loaded with github.com/caarlos0/env. See the individual domain files:
//   - database.go: PostgreSQL and Redis configuration
//   - worker.go: dispatch loop, retry, and continuation configuration
//   - reaper.go: stale-job reclamation configuration
//   - storage.go: blob storage configuration
//   - services.go: model gateway configuration
//   - observability.go: metrics configuration
package config

import (
	"os"
	"strings"
)

// AppConfig composes the worker configuration from its domain sections.
type AppConfig struct {
	// IsDev controls development mode behavior (text log handler, debug level).
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	Worker        WorkerConfig        `envPrefix:"WORKER_"`
	Reaper        ReaperConfig        `envPrefix:"REAPER_"`
	Storage       StorageConfig       `envPrefix:"STORAGE_"`
	Gateway       GatewayConfig       `envPrefix:"GATEWAY_"`
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to values loaded from the environment. Call it
// after env parsing, before wiring.
func (c *AppConfig) Sanitize() {
	c.Worker.Sanitize()
	c.Reaper.Sanitize()
	c.Storage.Sanitize()
	c.Gateway.Sanitize()
	c.Observability.Sanitize()
	c.detectDevMode()
}

// detectDevMode honors NODE_ENV as a fallback for DEV, matching the
// deployment tooling this worker shares with the web stack.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
