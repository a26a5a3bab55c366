package config

import "strings"

// StorageConfig contains blob storage configuration.
type StorageConfig struct {
	// Bucket is the storage bucket every artifact path lives under.
	Bucket string `env:"BUCKET" envDefault:"dialectic-contributions"`
	// Endpoint is the storage API endpoint.
	Endpoint string `env:"ENDPOINT"`
	// ServiceKey authorizes the worker's storage writes.
	ServiceKey string `env:"SERVICE_KEY"`
}

// Sanitize trims surrounding whitespace from storage settings.
func (c *StorageConfig) Sanitize() {
	c.Bucket = strings.TrimSpace(c.Bucket)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.ServiceKey = strings.TrimSpace(c.ServiceKey)
}
