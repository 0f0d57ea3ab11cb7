package cliconfig

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"cpu max over 100", func(c *Config) { c.MaxCPUPercent = 120 }, "cpu-max"},
		{"cpu max negative", func(c *Config) { c.MaxCPUPercent = -1 }, "cpu-max"},
		{"memory max zero", func(c *Config) { c.MemoryPercentMax = 0 }, "memory-max"},
		{"memory max over 100", func(c *Config) { c.MemoryPercentMax = 101 }, "memory-max"},
		{"negative concurrency", func(c *Config) { c.MaxConcurrent = -1 }, "max-concurrent"},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "poll interval"},
		{"zero watchdog interval", func(c *Config) { c.WatchdogInterval = 0 }, "watchdog interval"},
		{"status file without interval", func(c *Config) { c.StatusFile = "/tmp/s.json"; c.StatusInterval = 0 }, "status interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAllowsZeroOverrides(t *testing.T) {
	// Zero MaxCPUPercent and MaxConcurrent mean "use tier default" and must
	// pass validation.
	cfg := DefaultConfig()
	cfg.MaxCPUPercent = 0
	cfg.MaxConcurrent = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero overrides rejected: %v", err)
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("LOADGATE_MEMORY_GB", "32")
	t.Setenv("LOADGATE_MAX_CPU_PERCENT", "75.5")
	t.Setenv("LOADGATE_MAX_CONCURRENT", "4")
	t.Setenv("LOADGATE_MAX_WAIT", "90s")
	t.Setenv("LOADGATE_STATUS_FILE", "/var/run/loadgate/status.json")
	t.Setenv("LOADGATE_NICE", "true")
	t.Setenv("LOADGATE_VERBOSE", "0")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}

	if cfg.MemoryGB != 32 {
		t.Errorf("MemoryGB = %v, want 32", cfg.MemoryGB)
	}
	if cfg.MaxCPUPercent != 75.5 {
		t.Errorf("MaxCPUPercent = %v, want 75.5", cfg.MaxCPUPercent)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.MaxConcurrent)
	}
	if cfg.MaxWait != 90*time.Second {
		t.Errorf("MaxWait = %v, want 90s", cfg.MaxWait)
	}
	if cfg.StatusFile != "/var/run/loadgate/status.json" {
		t.Errorf("StatusFile = %q", cfg.StatusFile)
	}
	if !cfg.Nice {
		t.Error("Nice = false, want true")
	}
	if cfg.Verbose {
		t.Error("Verbose = true, want false")
	}
}

func TestApplyEnvConfigRespectsChangedFlags(t *testing.T) {
	t.Setenv("LOADGATE_MAX_CPU_PERCENT", "75")
	t.Setenv("LOADGATE_MAX_CONCURRENT", "4")

	cfg := DefaultConfig()
	cfg.MaxCPUPercent = 60
	cfg.MaxConcurrent = 2
	changed := map[string]bool{"cpu-max": true}

	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}

	if cfg.MaxCPUPercent != 60 {
		t.Errorf("MaxCPUPercent = %v, want flag value 60 kept", cfg.MaxCPUPercent)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want env value 4 applied", cfg.MaxConcurrent)
	}
}

func TestApplyEnvConfigRejectsBadValues(t *testing.T) {
	t.Setenv("LOADGATE_MAX_WAIT", "not-a-duration")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
		t.Fatal("expected parse error for bad duration, got nil")
	}
}
