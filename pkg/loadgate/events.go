package loadgate

import (
	"time"

	"github.com/hostlabs/loadgate/internal/app"
	"github.com/hostlabs/loadgate/internal/domain"
)

// StateChangeEvent is emitted when the gate's lifecycle state changes.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// AdmitEvent is emitted when a task is admitted.
type AdmitEvent struct {
	Name   string
	Active int
	Max    int
	Waited time.Duration
}

// ReleaseEvent is emitted when a task finishes, successfully or not.
type ReleaseEvent struct {
	Name     string
	Duration time.Duration
	Err      error
}

// BreachEvent is emitted when the watchdog observes a running task under
// host pressure.
type BreachEvent struct {
	Name     string
	Snapshot Snapshot
}

// EventHandler receives gate events. Callbacks run synchronously from gate
// goroutines; implementations must not block.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnAdmit(AdmitEvent)
	OnRelease(ReleaseEvent)
	OnBreach(BreachEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnAdmit(name string, active, max int, waited time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnAdmit(AdmitEvent{Name: name, Active: active, Max: max, Waited: waited})
}

func (e *eventEmitterWrapper) OnRelease(name string, duration time.Duration, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnRelease(ReleaseEvent{Name: name, Duration: duration, Err: err})
}

func (e *eventEmitterWrapper) OnBreach(name string, snap domain.Snapshot) {
	if e.handler == nil {
		return
	}
	e.handler.OnBreach(BreachEvent{Name: name, Snapshot: snap})
}
