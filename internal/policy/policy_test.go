package policy

import (
	"testing"
	"time"

	"github.com/hostlabs/loadgate/internal/domain"
)

func TestLimitsFor(t *testing.T) {
	tests := []struct {
		name          string
		memoryGB      float64
		wantTier      domain.Tier
		wantMaxCPU    float64
		wantMaxTasks  int
		wantMaxMemory float64
	}{
		{"tiny host", 2, domain.TierConservative, 50.0, 1, 4.0},
		{"just under 8", 7.9, domain.TierConservative, 50.0, 1, 4.0},
		{"exactly 8", 8, domain.TierBalanced, 70.0, 2, 8.0},
		{"mid range", 12, domain.TierBalanced, 70.0, 2, 8.0},
		{"just under 16", 15.9, domain.TierBalanced, 70.0, 2, 8.0},
		{"exactly 16", 16, domain.TierPerformance, 85.0, 3, 12.0},
		{"big host", 64, domain.TierPerformance, 85.0, 3, 12.0},
		{"zero falls back to default", 0, domain.TierConservative, 50.0, 1, 4.0},
		{"negative falls back to default", -1, domain.TierConservative, 50.0, 1, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LimitsFor(tt.memoryGB)
			if got.Tier != tt.wantTier {
				t.Errorf("Tier = %v, want %v", got.Tier, tt.wantTier)
			}
			if got.MaxCPUPercent != tt.wantMaxCPU {
				t.Errorf("MaxCPUPercent = %v, want %v", got.MaxCPUPercent, tt.wantMaxCPU)
			}
			if got.MaxConcurrentTasks != tt.wantMaxTasks {
				t.Errorf("MaxConcurrentTasks = %v, want %v", got.MaxConcurrentTasks, tt.wantMaxTasks)
			}
			if got.MaxMemoryGB != tt.wantMaxMemory {
				t.Errorf("MaxMemoryGB = %v, want %v", got.MaxMemoryGB, tt.wantMaxMemory)
			}
		})
	}
}

func TestHealthFor(t *testing.T) {
	tests := []struct {
		name string
		cpu  float64
		mem  float64
		want domain.Health
	}{
		{"idle", 5, 20, domain.HealthHealthy},
		{"at busy boundary", 70, 70, domain.HealthHealthy},
		{"busy cpu", 75, 20, domain.HealthBusy},
		{"busy memory", 20, 75, domain.HealthBusy},
		{"at overloaded boundary", 85, 85, domain.HealthBusy},
		{"overloaded cpu", 95, 20, domain.HealthOverloaded},
		{"overloaded memory", 20, 95, domain.HealthOverloaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.Snapshot{CPUPercent: tt.cpu, MemoryPercent: tt.mem}
			if got := HealthFor(snap); got != tt.want {
				t.Errorf("HealthFor(cpu=%v, mem=%v) = %v, want %v", tt.cpu, tt.mem, got, tt.want)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name        string
		cpu         float64
		mem         float64
		cpuCount    int
		wantWorkers int
		wantThreads int
	}{
		{"high load", 90, 20, 8, 1, 2},
		{"high memory", 20, 90, 8, 1, 2},
		{"medium load", 70, 20, 8, 2, 4},
		{"low load", 20, 20, 8, 3, 6},
		{"low load small host", 20, 20, 2, 3, 2},
		{"zero cores clamps to one", 20, 20, 0, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.Snapshot{CPUPercent: tt.cpu, MemoryPercent: tt.mem}
			got := Recommend(snap, tt.cpuCount)
			if got.Workers != tt.wantWorkers {
				t.Errorf("Workers = %d, want %d", got.Workers, tt.wantWorkers)
			}
			if got.CPUThreads != tt.wantThreads {
				t.Errorf("CPUThreads = %d, want %d", got.CPUThreads, tt.wantThreads)
			}
		})
	}
}

func TestEstimateDuration(t *testing.T) {
	base := 2 * time.Minute

	tests := []struct {
		name           string
		memoryGB       float64
		size           int
		wantDuration   time.Duration
		wantConfidence string
	}{
		{"conservative doubles", 4, 500, 4 * time.Minute, "medium"},
		{"balanced scales 1.5x", 12, 500, 3 * time.Minute, "high"},
		{"performance unchanged", 32, 500, 2 * time.Minute, "high"},
		{"size factor capped at 3x", 32, 10000, 6 * time.Minute, "high"},
		{"zero size treated as nominal", 32, 0, 2 * time.Minute, "high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := LimitsFor(tt.memoryGB)
			got := EstimateDuration(limits, tt.memoryGB, base, tt.size)
			if got.Duration != tt.wantDuration {
				t.Errorf("Duration = %v, want %v", got.Duration, tt.wantDuration)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
		})
	}
}
