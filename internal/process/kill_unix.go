//go:build !windows

// Package process cleans up Chrome processes left behind by the browser.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, so that
// Chrome renderer and GPU helpers go down with the browser process.
// Errors are ignored: launcher.Kill runs afterwards as a fallback.
func KillProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
