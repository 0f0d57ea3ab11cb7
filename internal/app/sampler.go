package app

import (
	"context"
	"time"

	"github.com/hostlabs/loadgate/internal/ports"
)

// Default sampler retry bounds when the probe fails.
const (
	DefaultProbeRetryBase = time.Second
	DefaultProbeRetryMax  = 30 * time.Second
)

// Sampler owns the Prober and feeds snapshots into the gate on a fixed
// cadence. Probe failures are absorbed: the gate keeps its last known good
// snapshot and the sampler retries with exponential backoff.
type Sampler struct {
	prober   ports.Prober
	gate     *Gate
	interval time.Duration
	logger   ports.Logger
}

// NewSampler creates a sampler feeding gate every interval.
func NewSampler(prober ports.Prober, gate *Gate, interval time.Duration, logger ports.Logger) *Sampler {
	return &Sampler{
		prober:   prober,
		gate:     gate,
		interval: interval,
		logger:   logger,
	}
}

// Run samples until the context is cancelled. The probe's own CPU averaging
// may block for up to its sampling interval per iteration; that cost is the
// point, shorter intervals give noisier readings.
func (s *Sampler) Run(ctx context.Context) {
	retry := newBackoff(DefaultProbeRetryBase, DefaultProbeRetryMax)

	for {
		snap, err := s.prober.Sample(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("probe failed, keeping last snapshot", ports.Err(err))
			if !sleepCtx(ctx, retry.Next()) {
				return
			}
			continue
		}
		retry.Reset()
		s.gate.Observe(snap)

		if !sleepCtx(ctx, s.interval) {
			return
		}
	}
}

// sleepCtx waits for d or until ctx ends; returns false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
