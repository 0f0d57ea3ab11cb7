// Package sysprobe implements ports.Prober with gopsutil.
package sysprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hostlabs/loadgate/internal/domain"
	"github.com/hostlabs/loadgate/internal/ports"
)

const bytesPerGB = 1 << 30

// DefaultCPUInterval is the CPU utilization averaging window. One second is
// a deliberate cost: shorter windows give noisier readings.
const DefaultCPUInterval = time.Second

// Probe reads host CPU, memory, and disk figures via gopsutil.
type Probe struct {
	cpuInterval time.Duration
	diskPath    string
}

// New creates a probe averaging CPU over cpuInterval and measuring free
// space on the root filesystem. Non-positive intervals use the default.
func New(cpuInterval time.Duration) *Probe {
	if cpuInterval <= 0 {
		cpuInterval = DefaultCPUInterval
	}
	return &Probe{cpuInterval: cpuInterval, diskPath: "/"}
}

// Sample returns a fresh snapshot. Blocks for the CPU averaging interval.
func (p *Probe) Sample(ctx context.Context) (domain.Snapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, p.cpuInterval, false)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("cpu percent: %w", err)
	}
	if len(percents) == 0 {
		return domain.Snapshot{}, fmt.Errorf("cpu percent: no samples")
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("virtual memory: %w", err)
	}

	du, err := disk.UsageWithContext(ctx, p.diskPath)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("disk usage %s: %w", p.diskPath, err)
	}

	return domain.Snapshot{
		CPUPercent:        percents[0],
		MemoryPercent:     vm.UsedPercent,
		MemoryAvailableGB: float64(vm.Available) / bytesPerGB,
		DiskFreeGB:        float64(du.Free) / bytesPerGB,
		TakenAt:           time.Now(),
	}, nil
}

// TotalMemoryGB returns the host's installed physical memory in GB.
func (p *Probe) TotalMemoryGB(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return float64(vm.Total) / bytesPerGB, nil
}

// Ensure Probe implements ports.Prober.
var _ ports.Prober = (*Probe)(nil)
