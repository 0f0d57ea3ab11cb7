package domain

// Tier identifies one of the static resource-limit profiles selected from
// total host memory.
type Tier int

const (
	TierConservative Tier = iota
	TierBalanced
	TierPerformance
)

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierConservative:
		return "conservative"
	case TierBalanced:
		return "balanced"
	case TierPerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so tiers render as their
// names in JSON output.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// round-trip to TierConservative, the most restrictive profile.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "balanced":
		*t = TierBalanced
	case "performance":
		*t = TierPerformance
	default:
		*t = TierConservative
	}
	return nil
}

// ResourceLimits bounds what the admission gate will allow to run at once.
// Constructed once at gate initialization and never mutated; threshold
// overrides produce a new value.
type ResourceLimits struct {
	// MaxCPUPercent is the host CPU utilization (0-100) above which
	// admission is delayed.
	MaxCPUPercent float64 `json:"max_cpu_percent"`

	// MaxMemoryGB is the memory budget tasks are expected to stay within.
	// Informational; the gate enforces MemoryPercentMax, not this.
	MaxMemoryGB float64 `json:"max_memory_gb"`

	// MaxConcurrentTasks is the hard ceiling on admitted tasks.
	MaxConcurrentTasks int `json:"max_concurrent_tasks"`

	// Tier names the profile these limits were derived from.
	Tier Tier `json:"tier"`
}

// WithThresholds returns a copy with the CPU ceiling replaced.
// Zero or negative values leave the original threshold in place.
func (r ResourceLimits) WithThresholds(maxCPUPercent float64) ResourceLimits {
	if maxCPUPercent > 0 {
		r.MaxCPUPercent = maxCPUPercent
	}
	return r
}
