//go:build unix

// Package proc adjusts the current process's scheduling priority so
// long-running batch work stays out of the way of interactive load.
package proc

import "golang.org/x/sys/unix"

// BackgroundNice is the niceness applied for long-running operation.
const BackgroundNice = 10

// Background lowers the current process's scheduling priority.
// Best effort: callers log the error and continue.
func Background() error {
	return unix.Setpriority(unix.PRIO_PROCESS, 0, BackgroundNice)
}
