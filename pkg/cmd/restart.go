package cmd

import (
	"fmt"
	"os"
	"syscall"

	ui "github.com/gizak/termui/v3"
)

// restartProcess replaces the running process with a fresh copy of itself.
// Credential material cached at process scope (SDK singletons, SSO token
// files read at startup) cannot always be invalidated in place; re-exec is
// the remediation of last resort after a credential rotation.
func restartProcess() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	// Restore the terminal before the image is replaced.
	ui.Close()

	return syscall.Exec(exe, os.Args, os.Environ())
}
