package domain

import "time"

// Snapshot is one point-in-time reading of host resources.
// Recomputed on every probe; never cached beyond the sampler's last value.
type Snapshot struct {
	CPUPercent        float64   `json:"cpu_percent"`
	MemoryPercent     float64   `json:"memory_percent"`
	MemoryAvailableGB float64   `json:"memory_available_gb"`
	DiskFreeGB        float64   `json:"disk_free_gb"`
	TakenAt           time.Time `json:"taken_at"`
}

// Health classifies a snapshot for monitoring purposes.
type Health int

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthBusy
	HealthOverloaded
)

// String returns a human-readable representation of the health state.
func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthBusy:
		return "busy"
	case HealthOverloaded:
		return "overloaded"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so health states render as
// their names in JSON output.
func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Health) UnmarshalText(b []byte) error {
	switch string(b) {
	case "healthy":
		*h = HealthHealthy
	case "busy":
		*h = HealthBusy
	case "overloaded":
		*h = HealthOverloaded
	default:
		*h = HealthUnknown
	}
	return nil
}

// Status is the observable state of the gate at one instant.
// Built on demand; nothing in it is persisted by the gate itself.
type Status struct {
	Health      Health         `json:"status"`
	Snapshot    Snapshot       `json:"snapshot"`
	HasSnapshot bool           `json:"has_snapshot"`
	ActiveTasks []string       `json:"active_tasks"`
	QueuedTasks int            `json:"queued_tasks"`
	Limits      ResourceLimits `json:"limits"`
}
