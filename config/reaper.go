package config

import "time"

// ReaperConfig controls reclamation of jobs stranded in processing after a
// worker crash or a lost status write.
type ReaperConfig struct {
	// Interval is how often stale processing rows are swept.
	Interval time.Duration `env:"INTERVAL" envDefault:"1m"`
	// Staleness is how long a job may sit in processing before it counts as
	// abandoned. Keep it above WORKER_JOB_TIMEOUT so the reaper never races
	// a live worker.
	Staleness time.Duration `env:"STALENESS" envDefault:"15m"`
	// BatchSize bounds how many rows one sweep statement touches.
	BatchSize int `env:"BATCH_SIZE" envDefault:"100"`
}

// Sanitize enforces safe bounds on the reaper settings.
func (c *ReaperConfig) Sanitize() {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Staleness <= 0 {
		c.Staleness = 15 * time.Minute
	}
	if c.BatchSize < 1 {
		c.BatchSize = 100
	}
}
