// Package domain contains the core value objects for loadgate.
//
// This package represents the innermost layer. It has no dependencies on
// infrastructure concerns (OS probing, logging, file systems) and contains
// only pure data and business rules.
//
// # Entities
//
//   - [ResourceLimits]: Admission limits derived from installed host memory
//   - [Snapshot]: One point-in-time reading of host CPU/memory/disk
//   - [Status]: Observable gate state for monitoring (health, active tasks)
//
// Value objects are immutable after construction and testable without mocks.
package domain
