// Package cliconfig holds configuration for the loadgate CLI, loaded with
// flag > environment > TOML file precedence.
package cliconfig

import (
	"fmt"
	"strconv"
	"time"
)

// Config holds CLI configuration for loadgate.
type Config struct {
	// MemoryGB overrides detected installed memory for tier selection.
	// Zero means autodetect.
	MemoryGB float64

	// MaxCPUPercent overrides the tier's CPU ceiling (0-100). Zero keeps
	// the tier default.
	MaxCPUPercent float64

	// MemoryPercentMax is the memory ceiling for admission.
	MemoryPercentMax float64

	// MaxConcurrent overrides the tier's concurrency bound. Zero keeps
	// the tier default.
	MaxConcurrent int

	PollInterval      time.Duration
	CPUSampleInterval time.Duration
	WatchdogInterval  time.Duration

	// MaxWait bounds how long a job may wait for a slot. Zero waits forever.
	MaxWait time.Duration

	// StatusFile, when set, receives periodic status.json writes.
	StatusFile     string
	StatusInterval time.Duration

	// JobsFile names a file of shell commands, one per line.
	JobsFile string

	// Nice lowers process priority for long-running operation.
	Nice bool

	// Verbose enables debug logging.
	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MemoryPercentMax:  80.0,
		PollInterval:      time.Second,
		CPUSampleInterval: time.Second,
		WatchdogInterval:  5 * time.Second,
		StatusInterval:    5 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxCPUPercent < 0 || c.MaxCPUPercent > 100 {
		return fmt.Errorf("cpu-max must be between 0 and 100, got %v", c.MaxCPUPercent)
	}
	if c.MemoryPercentMax <= 0 || c.MemoryPercentMax > 100 {
		return fmt.Errorf("memory-max must be between 0 and 100, got %v", c.MemoryPercentMax)
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max-concurrent must not be negative, got %d", c.MaxConcurrent)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.WatchdogInterval <= 0 {
		return fmt.Errorf("watchdog interval must be positive")
	}
	if c.StatusFile != "" && c.StatusInterval <= 0 {
		return fmt.Errorf("status interval must be positive")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int for environment variables.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 for environment variables.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool for environment variables.
// Accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
