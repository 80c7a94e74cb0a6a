// Package hints provides actionable hints for common edition failures.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-epaper/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use a specific Chrome")
	}
	hints = append(hints, "run 'epaper doctor' to check the setup")

	return formatHints(hints)
}

// ForTimeout returns a hint about raising the page load timeout.
func ForTimeout() string {
	return format("editions with many images load slowly; use --timeout or EPAPER_TIMEOUT")
}

// ForConfigNotFound suggests where a config file is looked up.
func ForConfigNotFound() string {
	return format("use --config /path/to/file.yaml or create ~/.config/go-epaper/<name>.yaml")
}

// ForEmptySelection suggests widening the selection.
func ForEmptySelection(filtered bool) string {
	if filtered {
		return format("no published article matches the categories; drop --category or pick another --date")
	}
	return format("no article was published that day; try --date yesterday")
}

// ForDuplicateEdition explains the duplicate policies.
func ForDuplicateEdition() string {
	return format("set archive.onDuplicate to version or overwrite to publish again")
}

// ForDatabase returns hints for a database that cannot be opened.
func ForDatabase() string {
	return format("check database.path (or EPAPER_DB) is writable; run 'epaper migrate version'")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
