package app

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/hostlabs/loadgate/internal/policy"
	"github.com/hostlabs/loadgate/internal/ports"
)

// watch runs for the lifetime of one admitted task. It reads the sampler's
// latest snapshot on each tick and logs warnings when the host is over its
// thresholds. Purely observational: it never touches admission or the task.
//
// Reading the shared snapshot instead of probing the OS keeps N concurrent
// watchdogs from multiplying probe cost. Cancellation is the normal exit.
func (g *Gate) watch(ctx context.Context, name string) {
	ticker := time.NewTicker(g.cfg.WatchdogInterval)
	defer ticker.Stop()

	// One breach warning per WarnInterval per task.
	warn := rate.NewLimiter(rate.Every(g.cfg.WarnInterval), 1)
	lastUsage := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := g.Latest()
			if !ok {
				continue
			}
			limits := g.Limits()

			breach := snap.CPUPercent > limits.MaxCPUPercent ||
				snap.MemoryPercent > policy.OverloadedPercent
			if breach && warn.Allow() {
				g.logger.Warn("task running under host pressure",
					ports.String("task", name),
					ports.Float64("cpu_percent", snap.CPUPercent),
					ports.Float64("memory_percent", snap.MemoryPercent),
				)
				if g.emitter != nil {
					g.emitter.OnBreach(name, snap)
				}
			}

			if time.Since(lastUsage) >= g.cfg.UsageLogInterval {
				g.logger.Info("resource usage",
					ports.String("task", name),
					ports.Float64("cpu_percent", snap.CPUPercent),
					ports.Float64("memory_percent", snap.MemoryPercent),
				)
				lastUsage = time.Now()
			}
		}
	}
}
