//go:build windows

// Package process cleans up Chrome processes left behind by the browser.
package process

import (
	"os/exec"
	"strconv"
)

// KillProcessGroup terminates pid and its child tree with taskkill.
// Errors are ignored: launcher.Kill runs afterwards as a fallback.
func KillProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
