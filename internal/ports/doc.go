// Package ports defines the interfaces that connect the admission gate to
// infrastructure adapters.
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with concrete implementations
// (gopsutil, zerolog, the file system). This keeps the gate testable with
// fake probers and loggers, which the admission tests rely on heavily.
//
// # Port Interfaces
//
//   - [Prober]: Samples host CPU/memory/disk figures
//   - [Logger]: Structured logging abstraction
//   - [StatusRecorder]: Publishes gate status for external monitors
package ports
