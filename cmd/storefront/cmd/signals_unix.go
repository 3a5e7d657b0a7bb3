//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// interruptSignals returns the OS signals that end a command.
// On Unix: SIGINT (Ctrl+C) and SIGTERM (kill).
func interruptSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
