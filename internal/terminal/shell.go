// shell provides the platform policy for picking the session shell.
package terminal

import (
	"os"
	"os/exec"
	"runtime"
)

// resolveShell returns the shell command for a new session. An explicit
// override (from configuration) wins, then $SHELL, then the platform
// default.
func resolveShell(override string) string {
	if override != "" {
		return override
	}
	return defaultShell()
}

// defaultShell returns the default shell command for the current OS.
func defaultShell() string {
	shell := os.Getenv("SHELL")
	if shell != "" {
		return shell
	}

	if runtime.GOOS == "windows" {
		// COMSPEC usually points to cmd.exe, but PowerShell is preferred
		// when available.
		if psPath, err := exec.LookPath("powershell.exe"); err == nil {
			return psPath
		}
		comspec := os.Getenv("COMSPEC")
		if comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}

	return "/bin/sh"
}
