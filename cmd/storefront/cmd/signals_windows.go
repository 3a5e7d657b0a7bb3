//go:build windows

package cmd

import "os"

// interruptSignals returns the OS signals that end a command.
// On Windows only os.Interrupt (Ctrl+C) is reliably delivered.
func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
