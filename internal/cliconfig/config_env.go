package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LOADGATE_*).
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if err := s.setFloatFromString("memory-gb", os.Getenv("LOADGATE_MEMORY_GB"), &cfg.MemoryGB); err != nil {
		return err
	}
	if err := s.setFloatFromString("cpu-max", os.Getenv("LOADGATE_MAX_CPU_PERCENT"), &cfg.MaxCPUPercent); err != nil {
		return err
	}
	if err := s.setFloatFromString("memory-max", os.Getenv("LOADGATE_MEMORY_PERCENT_MAX"), &cfg.MemoryPercentMax); err != nil {
		return err
	}
	if err := s.setIntFromString("max-concurrent", os.Getenv("LOADGATE_MAX_CONCURRENT"), &cfg.MaxConcurrent); err != nil {
		return err
	}

	if err := s.setDuration("poll", os.Getenv("LOADGATE_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("cpu-sample", os.Getenv("LOADGATE_CPU_SAMPLE_INTERVAL"), &cfg.CPUSampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("watchdog-interval", os.Getenv("LOADGATE_WATCHDOG_INTERVAL"), &cfg.WatchdogInterval); err != nil {
		return err
	}
	if err := s.setDuration("max-wait", os.Getenv("LOADGATE_MAX_WAIT"), &cfg.MaxWait); err != nil {
		return err
	}
	if err := s.setDuration("status-interval", os.Getenv("LOADGATE_STATUS_INTERVAL"), &cfg.StatusInterval); err != nil {
		return err
	}

	s.setString("status-file", os.Getenv("LOADGATE_STATUS_FILE"), &cfg.StatusFile)
	s.setString("jobs", os.Getenv("LOADGATE_JOBS_FILE"), &cfg.JobsFile)

	s.setBoolFromString("nice", os.Getenv("LOADGATE_NICE"), &cfg.Nice)
	s.setBoolFromString("verbose", os.Getenv("LOADGATE_VERBOSE"), &cfg.Verbose)

	return nil
}
