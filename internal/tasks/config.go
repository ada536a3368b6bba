package tasks

import "time"

// Config tunes the backlite workers behind Client.
type Config struct {
	Workers           int           // concurrent workers
	MaxRetries        int           // attempts per task before it fails
	RetryDelay        time.Duration // backoff between attempts
	TaskTimeout       time.Duration // upper bound for one attempt
	ReleaseAfter      time.Duration // claimed tasks are released after this long
	CleanupInterval   time.Duration // how often finished tasks are purged
	RetentionDuration time.Duration // how long finished tasks are kept
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = def.TaskTimeout
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = def.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	if c.RetentionDuration <= 0 {
		c.RetentionDuration = def.RetentionDuration
	}
	return c
}
