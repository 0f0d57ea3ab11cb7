package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hostlabs/loadgate/internal/domain"
	"github.com/hostlabs/loadgate/internal/policy"
	"github.com/hostlabs/loadgate/internal/ports"
)

// Default timing knobs for the gate. Callers normally leave these alone.
const (
	DefaultMemoryPercentMax = 80.0
	DefaultWatchdogInterval = 5 * time.Second
	DefaultUsageLogInterval = 30 * time.Second
	DefaultWarnInterval     = 30 * time.Second
)

// GateConfig contains configuration for the admission gate.
type GateConfig struct {
	Limits           domain.ResourceLimits
	MemoryPercentMax float64 // admission memory ceiling in percent

	// MaxWait bounds how long Acquire blocks for a slot. Zero means wait
	// forever.
	MaxWait time.Duration

	WatchdogInterval time.Duration
	UsageLogInterval time.Duration
	WarnInterval     time.Duration
}

// setDefaults fills zero-valued knobs.
func (c *GateConfig) setDefaults() {
	if c.MemoryPercentMax <= 0 {
		c.MemoryPercentMax = DefaultMemoryPercentMax
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = DefaultWatchdogInterval
	}
	if c.UsageLogInterval <= 0 {
		c.UsageLogInterval = DefaultUsageLogInterval
	}
	if c.WarnInterval <= 0 {
		c.WarnInterval = DefaultWarnInterval
	}
}

// GateEventEmitter is called on admission lifecycle events.
// Callbacks run outside the gate's mutex, so handlers may call back into
// the gate, but they run synchronously and must not block.
type GateEventEmitter interface {
	OnAdmit(name string, active, max int, waited time.Duration)
	OnRelease(name string, duration time.Duration, err error)
	OnBreach(name string, snap domain.Snapshot)
}

// Task is a unit of work run under the gate. The context passed to Execute
// is forwarded unchanged; the result is returned to the caller unmodified.
type Task func(ctx context.Context) (interface{}, error)

// waiter is one queued Acquire call. admitted is written under the gate
// mutex before ready is closed, and read under the same mutex on the
// cancellation path, so the two wakeup sources cannot race.
type waiter struct {
	name     string
	ready    chan struct{}
	enqueued time.Time
	admitted bool
}

// admission records one slot grant for logging/events after the mutex is
// released.
type admission struct {
	name   string
	slot   int
	max    int
	waited time.Duration
}

// Gate admits units of work when a concurrency slot is free and the host is
// under its CPU/memory thresholds.
//
// Admission is event-driven: queued waiters are woken by slot releases and
// by sampler observations, in FIFO order. A waiter that arrived first is
// always admitted first, so sustained demand cannot starve an old request.
type Gate struct {
	cfg     GateConfig
	logger  ports.Logger
	emitter GateEventEmitter

	// warnLimiter throttles "delaying admission" warnings so a saturated
	// host does not flood the log on every sample.
	warnLimiter *rate.Limiter

	mu      sync.Mutex
	limits  domain.ResourceLimits
	memMax  float64
	active  []string
	queue   []*waiter
	snap    domain.Snapshot
	hasSnap bool
	closed  bool

	running sync.WaitGroup
}

// NewGate creates an admission gate with the given limits.
// logger must be non-nil; emitter may be nil.
func NewGate(cfg GateConfig, logger ports.Logger, emitter GateEventEmitter) *Gate {
	cfg.setDefaults()
	return &Gate{
		cfg:         cfg,
		logger:      logger,
		emitter:     emitter,
		warnLimiter: rate.NewLimiter(rate.Every(cfg.WarnInterval), 1),
		limits:      cfg.Limits,
		memMax:      cfg.MemoryPercentMax,
	}
}

// Acquire blocks until a slot is free and resources are under thresholds,
// then reserves the slot and returns a release function. The release
// function must be called exactly once; Execute handles this for callers
// that just want to run a function.
//
// Duplicate names are legal and tracked by count. Returns
// ErrResourceUnavailable when MaxWait expires, ErrGateClosed when the gate
// is draining, or ctx.Err() when the caller's context ends first.
func (g *Gate) Acquire(ctx context.Context, name string) (func(), error) {
	waitCtx := ctx
	if g.cfg.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, g.cfg.MaxWait)
		defer cancel()
	}
	start := time.Now()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, domain.ErrGateClosed
	}
	// Fast path: nobody queued ahead of us and the host has room.
	if len(g.queue) == 0 && g.canAdmitLocked() {
		a := g.admitLocked(name)
		g.mu.Unlock()
		g.notifyAdmissions([]admission{a})
		return g.releaser(name), nil
	}
	w := &waiter{name: name, ready: make(chan struct{}), enqueued: start}
	g.queue = append(g.queue, w)
	pos := len(g.queue)
	g.mu.Unlock()

	g.logger.Debug("waiting for slot",
		ports.String("task", name),
		ports.Int("position", pos),
	)

	select {
	case <-w.ready:
		if !w.admitted {
			return nil, domain.ErrGateClosed
		}
		return g.releaser(name), nil

	case <-waitCtx.Done():
		g.mu.Lock()
		if w.admitted {
			// Admission raced the deadline; the slot is ours, keep it.
			g.mu.Unlock()
			return g.releaser(name), nil
		}
		g.removeWaiterLocked(w)
		g.mu.Unlock()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %q waited %s", domain.ErrResourceUnavailable, name, time.Since(start).Round(time.Millisecond))
	}
}

// Execute runs task under the gate: acquire a slot, start the watchdog, run,
// release. The task's result and error are returned unmodified; the gate
// adds no retry or timeout of its own.
func (g *Gate) Execute(ctx context.Context, name string, task Task) (interface{}, error) {
	release, err := g.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	watchCtx, stopWatch := context.WithCancel(ctx)
	go g.watch(watchCtx, name)

	defer func() {
		stopWatch()
		release()
	}()

	result, taskErr := task(ctx)
	duration := time.Since(start)

	if g.emitter != nil {
		g.emitter.OnRelease(name, duration, taskErr)
	}

	if taskErr != nil {
		g.logger.Error("task failed",
			ports.String("task", name),
			ports.Duration("duration", duration),
			ports.Err(taskErr),
		)
		return nil, taskErr
	}

	g.logger.Info("task completed",
		ports.String("task", name),
		ports.Duration("duration", duration),
	)
	return result, nil
}

// Observe feeds a fresh snapshot into the gate and wakes any waiters the
// new reading unblocks. Called by the sampler loop.
func (g *Gate) Observe(snap domain.Snapshot) {
	g.mu.Lock()
	g.snap = snap
	g.hasSnap = true
	blocked := len(g.queue) > 0 &&
		len(g.active) < g.limits.MaxConcurrentTasks &&
		!g.resourcesOKLocked()
	admitted := g.dispatchLocked()
	g.mu.Unlock()

	g.notifyAdmissions(admitted)

	if blocked && g.warnLimiter.Allow() {
		g.logger.Warn("host under pressure, delaying admission",
			ports.Float64("cpu_percent", snap.CPUPercent),
			ports.Float64("memory_percent", snap.MemoryPercent),
		)
	}
}

// Latest returns the most recent snapshot and whether one exists yet.
func (g *Gate) Latest() (domain.Snapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap, g.hasSnap
}

// Limits returns the current admission limits.
func (g *Gate) Limits() domain.ResourceLimits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limits
}

// SetThresholds replaces the CPU and memory ceilings at runtime, waking
// waiters the looser thresholds may unblock. Used by config reload.
// Non-positive values leave the corresponding threshold unchanged.
func (g *Gate) SetThresholds(maxCPUPercent, memoryPercentMax float64) {
	g.mu.Lock()
	g.limits = g.limits.WithThresholds(maxCPUPercent)
	if memoryPercentMax > 0 {
		g.memMax = memoryPercentMax
	}
	cpu, mem := g.limits.MaxCPUPercent, g.memMax
	admitted := g.dispatchLocked()
	g.mu.Unlock()

	g.notifyAdmissions(admitted)

	g.logger.Info("thresholds updated",
		ports.Float64("max_cpu_percent", cpu),
		ports.Float64("memory_percent_max", mem),
	)
}

// Status reports the gate's observable state for monitoring.
func (g *Gate) Status() domain.Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	health := domain.HealthUnknown
	if g.hasSnap {
		health = policy.HealthFor(g.snap)
	}
	active := make([]string, len(g.active))
	copy(active, g.active)

	return domain.Status{
		Health:      health,
		Snapshot:    g.snap,
		HasSnapshot: g.hasSnap,
		ActiveTasks: active,
		QueuedTasks: len(g.queue),
		Limits:      g.limits,
	}
}

// Close stops admitting work. Queued waiters are woken with ErrGateClosed;
// already-admitted tasks keep running until they release their slots.
func (g *Gate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	queue := g.queue
	g.queue = nil
	g.mu.Unlock()

	for _, w := range queue {
		close(w.ready)
	}
}

// Reopen admits work again after Close. Used when a stopped gate is
// restarted.
func (g *Gate) Reopen() {
	g.mu.Lock()
	g.closed = false
	g.mu.Unlock()
}

// Drain waits for all admitted tasks to release their slots.
// Returns ErrShutdownTimeout if the timeout expires first.
func (g *Gate) Drain(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		g.running.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		g.logger.Warn("drain timeout, tasks still running",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}

// canAdmitLocked reports whether a new task may start right now.
func (g *Gate) canAdmitLocked() bool {
	if len(g.active) >= g.limits.MaxConcurrentTasks {
		return false
	}
	return g.resourcesOKLocked()
}

// resourcesOKLocked checks the latest snapshot against thresholds. With no
// snapshot yet the gate fails open on resources: a broken probe must not
// wedge admission, the concurrency bound still holds.
func (g *Gate) resourcesOKLocked() bool {
	if !g.hasSnap {
		return true
	}
	if g.snap.CPUPercent > g.limits.MaxCPUPercent {
		return false
	}
	if g.snap.MemoryPercent > g.memMax {
		return false
	}
	return true
}

// admitLocked reserves a slot for name.
func (g *Gate) admitLocked(name string) admission {
	g.active = append(g.active, name)
	g.running.Add(1)
	return admission{name: name, slot: len(g.active), max: g.limits.MaxConcurrentTasks}
}

// dispatchLocked admits queued waiters in arrival order while room remains,
// returning the grants for notification outside the lock.
func (g *Gate) dispatchLocked() []admission {
	var admitted []admission
	for len(g.queue) > 0 && g.canAdmitLocked() {
		w := g.queue[0]
		g.queue = g.queue[1:]
		w.admitted = true
		a := g.admitLocked(w.name)
		a.waited = time.Since(w.enqueued)
		close(w.ready)
		admitted = append(admitted, a)
	}
	return admitted
}

// notifyAdmissions logs and emits slot grants. Must be called without the
// gate mutex held.
func (g *Gate) notifyAdmissions(admitted []admission) {
	for _, a := range admitted {
		g.logger.Info("task admitted",
			ports.String("task", a.name),
			ports.Int("slot", a.slot),
			ports.Int("max_slots", a.max),
			ports.Duration("waited", a.waited),
		)
		if g.emitter != nil {
			g.emitter.OnAdmit(a.name, a.slot, a.max, a.waited)
		}
	}
}

// removeWaiterLocked drops a cancelled waiter from the queue.
func (g *Gate) removeWaiterLocked(target *waiter) {
	for i, w := range g.queue {
		if w == target {
			g.queue = append(g.queue[:i], g.queue[i+1:]...)
			return
		}
	}
}

// releaser returns the one-shot release function for an admitted task.
func (g *Gate) releaser(name string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			for i, n := range g.active {
				if n == name {
					g.active = append(g.active[:i], g.active[i+1:]...)
					break
				}
			}
			admitted := g.dispatchLocked()
			g.mu.Unlock()
			g.running.Done()

			g.notifyAdmissions(admitted)
			g.logger.Debug("slot released", ports.String("task", name))
		})
	}
}
