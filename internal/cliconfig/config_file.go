package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	MemoryGB          float64 `toml:"memory_gb"`
	MaxCPUPercent     float64 `toml:"max_cpu_percent"`
	MemoryPercentMax  float64 `toml:"memory_percent_max"`
	MaxConcurrent     int     `toml:"max_concurrent"`
	PollInterval      string  `toml:"poll_interval"`
	CPUSampleInterval string  `toml:"cpu_sample_interval"`
	WatchdogInterval  string  `toml:"watchdog_interval"`
	MaxWait           string  `toml:"max_wait"`
	StatusFile        string  `toml:"status_file"`
	StatusInterval    string  `toml:"status_interval"`
	JobsFile          string  `toml:"jobs_file"`
	Nice              *bool   `toml:"nice"`
	Verbose           *bool   `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.loadgate/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".loadgate", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setFloat("memory-gb", fc.MemoryGB, &cfg.MemoryGB)
	s.setFloat("cpu-max", fc.MaxCPUPercent, &cfg.MaxCPUPercent)
	s.setFloat("memory-max", fc.MemoryPercentMax, &cfg.MemoryPercentMax)
	s.setInt("max-concurrent", fc.MaxConcurrent, &cfg.MaxConcurrent)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("cpu-sample", fc.CPUSampleInterval, &cfg.CPUSampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("watchdog-interval", fc.WatchdogInterval, &cfg.WatchdogInterval); err != nil {
		return err
	}
	if err := s.setDuration("max-wait", fc.MaxWait, &cfg.MaxWait); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", fc.StatusInterval, &cfg.StatusInterval); err != nil {
		return err
	}

	s.setString("status-file", fc.StatusFile, &cfg.StatusFile)
	s.setString("jobs", fc.JobsFile, &cfg.JobsFile)

	s.setBool("nice", fc.Nice, &cfg.Nice)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
