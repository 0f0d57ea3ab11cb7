package ports

import (
	"context"

	"github.com/hostlabs/loadgate/internal/domain"
)

// Prober samples host resource figures on demand.
//
// Sample may block for the length of the CPU averaging interval; callers
// that need a responsive loop should run it from a dedicated goroutine.
// Implementations must honor context cancellation during the blocking
// interval where the underlying OS query supports it.
type Prober interface {
	// Sample returns a fresh reading of CPU, memory, and disk figures.
	Sample(ctx context.Context) (domain.Snapshot, error)

	// TotalMemoryGB returns the host's installed physical memory in GB.
	// Used once at startup to select a limit tier.
	TotalMemoryGB(ctx context.Context) (float64, error)
}

// StatusRecorder publishes the gate's observable state somewhere external
// monitors can read it (a file, a metrics sink). Best effort; errors are
// logged by the caller, never fatal.
type StatusRecorder interface {
	Record(ctx context.Context, status domain.Status) error
}
