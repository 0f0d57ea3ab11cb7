package loadgate

import (
	"context"
	"runtime"
	"sync"
	"time"

	logAdapter "github.com/hostlabs/loadgate/internal/adapters/log"
	"github.com/hostlabs/loadgate/internal/adapters/sysprobe"
	"github.com/hostlabs/loadgate/internal/app"
	"github.com/hostlabs/loadgate/internal/domain"
	"github.com/hostlabs/loadgate/internal/policy"
	"github.com/hostlabs/loadgate/internal/ports"
)

// ShutdownTimeout is the maximum time Stop waits for admitted tasks to
// release their slots.
const ShutdownTimeout = 30 * time.Second

// Re-exported domain types for embedders.
type (
	// Snapshot is one point-in-time reading of host CPU/memory/disk.
	Snapshot = domain.Snapshot

	// Status is the observable gate state for monitoring.
	Status = domain.Status

	// ResourceLimits bounds concurrency and resource thresholds.
	ResourceLimits = domain.ResourceLimits

	// Tier names a static resource-limit profile.
	Tier = domain.Tier

	// Health classifies a snapshot.
	Health = domain.Health

	// Task is a unit of work run under the gate.
	Task = app.Task

	// State is the lifecycle state of a gate.
	State = app.State

	// Recommendation suggests parallelism for the current load.
	Recommendation = policy.Recommendation

	// Estimate predicts task duration on this host.
	Estimate = policy.Estimate
)

// Lifecycle states.
const (
	StateStopped  = app.StateStopped
	StateStarting = app.StateStarting
	StateRunning  = app.StateRunning
	StateStopping = app.StateStopping
)

// Sentinel errors, checkable with errors.Is.
var (
	ErrGateClosed          = domain.ErrGateClosed
	ErrResourceUnavailable = domain.ErrResourceUnavailable
	ErrAlreadyRunning      = domain.ErrAlreadyRunning
	ErrNotRunning          = domain.ErrNotRunning
	ErrShutdownTimeout     = domain.ErrShutdownTimeout
	ErrInvalidConfig       = domain.ErrInvalidConfig
)

// Gate is a host-resource-aware admission gate that can be embedded in
// other applications. Use New() to create an instance, Start() to begin
// sampling, then Execute() or Acquire() to run work under it.
type Gate struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	inner     *app.Gate
	sampler   *app.Sampler
	prober    ports.Prober
	logger    ports.Logger
	memoryGB  float64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new Gate with the given configuration.
// The instance is created in StateStopped; call Start() to begin sampling.
// Returns an error wrapping ErrInvalidConfig if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Gate, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var logger ports.Logger
	if o.logger != nil {
		logger = o.logger
	} else {
		logger = logAdapter.NewNoopLogger()
	}

	prober := o.prober
	if prober == nil {
		prober = sysprobe.New(cfg.CPUSampleInterval)
	}

	// Resolve installed memory once; the limit tier is fixed for the
	// process lifetime.
	memGB := cfg.MemoryGB
	if memGB <= 0 {
		m, err := prober.TotalMemoryGB(context.Background())
		if err != nil {
			logger.Warn("memory detection failed, assuming smallest tier", ports.Err(err))
		} else {
			memGB = m
		}
	}

	limits := policy.LimitsFor(memGB)
	limits = limits.WithThresholds(cfg.MaxCPUPercent)
	if cfg.MaxConcurrent > 0 {
		limits.MaxConcurrentTasks = cfg.MaxConcurrent
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	var gateEmitter app.GateEventEmitter
	if o.eventHandler != nil {
		gateEmitter = emitter
	}

	inner := app.NewGate(app.GateConfig{
		Limits:           limits,
		MemoryPercentMax: cfg.MemoryPercentMax,
		MaxWait:          cfg.MaxWait,
		WatchdogInterval: cfg.WatchdogInterval,
	}, logger, gateEmitter)

	g := &Gate{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(logger, emitter),
		inner:     inner,
		sampler:   app.NewSampler(prober, inner, cfg.PollInterval, logger),
		prober:    prober,
		logger:    logger,
		memoryGB:  memGB,
	}

	logger.Info("gate configured",
		ports.Float64("memory_gb", memGB),
		ports.String("tier", limits.Tier.String()),
		ports.Int("max_concurrent", limits.MaxConcurrentTasks),
		ports.Float64("max_cpu_percent", limits.MaxCPUPercent),
	)
	return g, nil
}

// Start begins resource sampling in the background.
// Returns ErrAlreadyRunning if the gate is not stopped.
// The provided context bounds the lifetime of the sampling loop.
func (g *Gate) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := g.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	g.inner.Reopen()

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.lifecycle.SetCancel(cancel)

	g.lifecycle.AddWorker()
	go func() {
		defer g.lifecycle.WorkerDone()
		g.sampler.Run(runCtx)
	}()

	return g.lifecycle.TransitionTo(app.StateRunning, "sampler started")
}

// Stop gracefully shuts the gate down: new admissions fail with
// ErrGateClosed, queued waiters are woken, and Stop waits up to
// ShutdownTimeout for running tasks to finish.
// Returns ErrShutdownTimeout if tasks are still running after the wait.
func (g *Gate) Stop() error {
	g.mu.Lock()
	if !g.lifecycle.CanStop() {
		g.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := g.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		g.mu.Unlock()
		return err
	}
	g.mu.Unlock()

	g.inner.Close()
	g.lifecycle.Cancel()
	g.lifecycle.WaitWorkers()

	err := g.inner.Drain(ShutdownTimeout)

	_ = g.lifecycle.TransitionTo(app.StateStopped, "shutdown complete")
	return err
}

// Execute runs task under the gate and returns its result unmodified.
// Blocks until admitted (subject to MaxWait and ctx); task errors propagate
// unchanged after the slot is released.
// Returns ErrNotRunning if the gate has not been started.
func (g *Gate) Execute(ctx context.Context, name string, task Task) (interface{}, error) {
	if g.lifecycle.State() != app.StateRunning {
		return nil, domain.ErrNotRunning
	}
	return g.inner.Execute(ctx, name, task)
}

// Acquire reserves a slot without running anything. The returned release
// function must be called exactly once. Prefer Execute unless the work
// cannot be expressed as a single function.
func (g *Gate) Acquire(ctx context.Context, name string) (release func(), err error) {
	if g.lifecycle.State() != app.StateRunning {
		return nil, domain.ErrNotRunning
	}
	return g.inner.Acquire(ctx, name)
}

// Status returns the gate's observable state.
// Safe to call concurrently from any goroutine, in any lifecycle state.
func (g *Gate) Status() Status {
	return g.inner.Status()
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	return g.lifecycle.State()
}

// Limits returns the current admission limits.
func (g *Gate) Limits() ResourceLimits {
	return g.inner.Limits()
}

// SetThresholds replaces the CPU and memory ceilings at runtime.
// Non-positive values leave the corresponding threshold unchanged.
func (g *Gate) SetThresholds(maxCPUPercent, memoryPercentMax float64) {
	g.inner.SetThresholds(maxCPUPercent, memoryPercentMax)
}

// Recommend suggests how much parallelism a batch caller should use given
// the latest snapshot. Advisory only.
func (g *Gate) Recommend() Recommendation {
	snap, _ := g.inner.Latest()
	return policy.Recommend(snap, runtime.NumCPU())
}

// EstimateDuration predicts how long a task with the given baseline
// duration and input size will take on this host.
func (g *Gate) EstimateDuration(base time.Duration, size int) Estimate {
	return policy.EstimateDuration(g.inner.Limits(), g.memoryGB, base, size)
}
