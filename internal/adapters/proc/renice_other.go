//go:build !unix

package proc

import (
	"fmt"
	"runtime"
)

// BackgroundNice is the niceness applied for long-running operation.
const BackgroundNice = 10

// Background lowers the current process's scheduling priority.
// Not supported on this platform.
func Background() error {
	return fmt.Errorf("process priority not supported on %s", runtime.GOOS)
}
