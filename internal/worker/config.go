package worker

import (
	"errors"
	"fmt"
	"time"
)

// Config tunes the certificate render queue.
type Config struct {
	// Concurrency is the number of polling goroutines, and so the number of
	// certificates that can render at once.
	Concurrency int

	// PollInterval is how often an idle goroutine looks for a job.
	PollInterval time.Duration

	// JobTimeout bounds a single render, photo fetches and upload included.
	JobTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for running renders.
	ShutdownTimeout time.Duration

	// StaleJobThreshold is the age at which a 'running' job is assumed to
	// belong to a dead process and is requeued on Start. It must exceed
	// JobTimeout so a live render is never picked up twice.
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        5 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 || c.Concurrency > 100 {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and 100, got %d", c.Concurrency))
	}
	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("poll interval must be at least 1s, got %v", c.PollInterval))
	}
	if c.JobTimeout < time.Second {
		errs = append(errs, fmt.Errorf("job timeout must be at least 1s, got %v", c.JobTimeout))
	}
	if c.ShutdownTimeout < time.Second {
		errs = append(errs, fmt.Errorf("shutdown timeout must be at least 1s, got %v", c.ShutdownTimeout))
	}
	if c.StaleJobThreshold < time.Minute {
		errs = append(errs, fmt.Errorf("stale job threshold must be at least 1m, got %v", c.StaleJobThreshold))
	}
	if c.StaleJobThreshold <= c.JobTimeout {
		errs = append(errs, fmt.Errorf("stale job threshold (%v) must exceed job timeout (%v)", c.StaleJobThreshold, c.JobTimeout))
	}
	return errors.Join(errs...)
}
