// Package policy maps host capacity and load onto admission limits and
// tuning hints. Everything here is a pure function: no probing, no clocks,
// no side effects.
package policy

import (
	"time"

	"github.com/hostlabs/loadgate/internal/domain"
)

// DefaultMemoryGB is assumed when the host's installed memory cannot be
// resolved. Deliberately small so an unknown host lands in the most
// conservative tier.
const DefaultMemoryGB = 4

// Health classification thresholds, shared by Status reporting and the
// watchdog's memory warning.
const (
	OverloadedPercent = 85.0
	BusyPercent       = 70.0
)

// LimitsFor returns the admission limits for a host with the given total
// physical memory in GB. Non-positive input falls back to DefaultMemoryGB.
func LimitsFor(memoryGB float64) domain.ResourceLimits {
	if memoryGB <= 0 {
		memoryGB = DefaultMemoryGB
	}
	switch {
	case memoryGB < 8:
		return domain.ResourceLimits{
			MaxCPUPercent:      50.0,
			MaxMemoryGB:        4.0,
			MaxConcurrentTasks: 1,
			Tier:               domain.TierConservative,
		}
	case memoryGB < 16:
		return domain.ResourceLimits{
			MaxCPUPercent:      70.0,
			MaxMemoryGB:        8.0,
			MaxConcurrentTasks: 2,
			Tier:               domain.TierBalanced,
		}
	default:
		return domain.ResourceLimits{
			MaxCPUPercent:      85.0,
			MaxMemoryGB:        12.0,
			MaxConcurrentTasks: 3,
			Tier:               domain.TierPerformance,
		}
	}
}

// HealthFor classifies a snapshot: overloaded above 85% CPU or memory,
// busy above 70%, healthy otherwise.
func HealthFor(snap domain.Snapshot) domain.Health {
	switch {
	case snap.CPUPercent > OverloadedPercent || snap.MemoryPercent > OverloadedPercent:
		return domain.HealthOverloaded
	case snap.CPUPercent > BusyPercent || snap.MemoryPercent > BusyPercent:
		return domain.HealthBusy
	default:
		return domain.HealthHealthy
	}
}

// Recommendation suggests how much parallelism a batch caller should use
// given current load. Purely advisory; the gate does not enforce it.
type Recommendation struct {
	Workers    int `json:"workers"`
	CPUThreads int `json:"cpu_threads"`
}

// Recommend maps current load onto a worker count and per-worker CPU thread
// cap, clamped to the installed core count.
func Recommend(snap domain.Snapshot, cpuCount int) Recommendation {
	if cpuCount < 1 {
		cpuCount = 1
	}
	switch {
	case snap.CPUPercent > 80 || snap.MemoryPercent > 80:
		return Recommendation{Workers: 1, CPUThreads: min(2, cpuCount)}
	case snap.CPUPercent > 60 || snap.MemoryPercent > 60:
		return Recommendation{Workers: 2, CPUThreads: min(4, cpuCount)}
	default:
		return Recommendation{Workers: 3, CPUThreads: min(6, cpuCount)}
	}
}

// Estimate is a rough prediction of how long a task will take on this host.
type Estimate struct {
	Duration   time.Duration `json:"duration"`
	Confidence string        `json:"confidence"`
}

// tierSlowdown scales a baseline duration by how constrained the host is.
func tierSlowdown(t domain.Tier) float64 {
	switch t {
	case domain.TierConservative:
		return 2.0
	case domain.TierBalanced:
		return 1.5
	default:
		return 1.0
	}
}

// EstimateDuration scales a task's baseline duration by the host tier and
// the size of the input (relative to a nominal size of 500 units, capped at
// 3x). Confidence is high on hosts with more than 8 GB of memory.
func EstimateDuration(limits domain.ResourceLimits, memoryGB float64, base time.Duration, size int) Estimate {
	sizeFactor := float64(size) / 500.0
	if sizeFactor > 3.0 {
		sizeFactor = 3.0
	}
	if sizeFactor <= 0 {
		sizeFactor = 1.0
	}

	d := time.Duration(float64(base) * tierSlowdown(limits.Tier) * sizeFactor)

	confidence := "medium"
	if memoryGB > 8 {
		confidence = "high"
	}
	return Estimate{Duration: d, Confidence: confidence}
}
