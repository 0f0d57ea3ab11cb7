package loadgate

import (
	"fmt"
	"time"

	"github.com/hostlabs/loadgate/internal/domain"
)

// Config holds the configuration for a Gate.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// MemoryGB overrides detected installed memory for tier selection.
	// Zero means autodetect via the prober; detection failure falls back
	// to the most conservative tier.
	MemoryGB float64

	// MaxCPUPercent overrides the tier's CPU ceiling (0-100).
	// Zero keeps the tier default.
	MaxCPUPercent float64

	// MemoryPercentMax is the host memory utilization (percent) above
	// which admission is delayed. Default: 80.
	MemoryPercentMax float64

	// MaxConcurrent overrides the tier's concurrency bound.
	// Zero keeps the tier default.
	MaxConcurrent int

	// PollInterval is the delay between resource samples. Default: 1s.
	PollInterval time.Duration

	// CPUSampleInterval is the CPU utilization averaging window passed to
	// the probe. Default: 1s. The probe blocks for this long per sample.
	CPUSampleInterval time.Duration

	// WatchdogInterval is how often a running task's watchdog checks the
	// latest snapshot. Default: 5s.
	WatchdogInterval time.Duration

	// MaxWait bounds how long an Acquire or Execute call may wait for a
	// slot before failing with ErrResourceUnavailable. Zero waits forever,
	// which matches the historical behavior of this component.
	MaxWait time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MemoryPercentMax:  80.0,
		PollInterval:      time.Second,
		CPUSampleInterval: time.Second,
		WatchdogInterval:  5 * time.Second,
	}
}

// SetDefaults fills zero-valued fields with defaults.
func (c *Config) SetDefaults() {
	if c.MemoryPercentMax <= 0 {
		c.MemoryPercentMax = 80.0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.CPUSampleInterval <= 0 {
		c.CPUSampleInterval = time.Second
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = 5 * time.Second
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxCPUPercent < 0 || c.MaxCPUPercent > 100 {
		return fmt.Errorf("%w: MaxCPUPercent %v outside (0, 100]", domain.ErrInvalidConfig, c.MaxCPUPercent)
	}
	if c.MemoryPercentMax <= 0 || c.MemoryPercentMax > 100 {
		return fmt.Errorf("%w: MemoryPercentMax %v outside (0, 100]", domain.ErrInvalidConfig, c.MemoryPercentMax)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("%w: MaxConcurrent %d negative", domain.ErrInvalidConfig, c.MaxConcurrent)
	}
	if c.MemoryGB < 0 {
		return fmt.Errorf("%w: MemoryGB %v negative", domain.ErrInvalidConfig, c.MemoryGB)
	}
	if c.MaxWait < 0 {
		return fmt.Errorf("%w: MaxWait %v negative", domain.ErrInvalidConfig, c.MaxWait)
	}
	return nil
}
