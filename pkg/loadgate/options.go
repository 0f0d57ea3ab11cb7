package loadgate

import (
	"github.com/hostlabs/loadgate/internal/ports"
)

// Logger is the structured logging interface used by the gate.
// See internal adapters for zerolog and no-op implementations.
type Logger = ports.Logger

// Field is a key-value pair for structured logging.
type Field = ports.Field

// Prober samples host resources. Inject a fake for deterministic tests.
type Prober = ports.Prober

// Option configures optional behavior of a Gate.
type Option func(*options)

// options holds the optional configuration for a Gate instance.
type options struct {
	logger       ports.Logger
	prober       ports.Prober
	eventHandler EventHandler
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithProber sets a custom resource prober. If not provided, the gopsutil
// probe is used. Tests inject fixed-value probers here to drive admission
// deterministically.
func WithProber(prober Prober) Option {
	return func(o *options) {
		o.prober = prober
	}
}

// WithEventHandler sets a handler for gate events.
// Events are called synchronously from gate goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
