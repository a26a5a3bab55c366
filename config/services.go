package config

import (
	"strings"
	"time"
)

// GatewayConfig contains model gateway configuration.
type GatewayConfig struct {
	// BaseURL is the model gateway's API base URL.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8090"`
	// ServiceKey authorizes gateway calls that carry no user JWT.
	ServiceKey string `env:"SERVICE_KEY"`
	// Timeout bounds one gateway HTTP call, model inference included.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5m"`
}

// Sanitize trims surrounding whitespace and enforces a sane timeout.
func (c *GatewayConfig) Sanitize() {
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.ServiceKey = strings.TrimSpace(c.ServiceKey)
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
}
