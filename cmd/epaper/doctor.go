package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/config"
	"github.com/alnah/go-epaper/internal/hints"
	"github.com/alnah/go-epaper/internal/store"
)

// Doctor statuses.
const (
	doctorReady    = "ready"
	doctorWarnings = "warnings"
	doctorErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string       `json:"status"`
	Chrome   chromeInfo   `json:"chrome"`
	Database databaseInfo `json:"database"`
	Archive  archiveInfo  `json:"archive"`
	Env      envInfo      `json:"environment"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type databaseInfo struct {
	Path          string `json:"path"`
	Reachable     bool   `json:"reachable"`
	SchemaVersion uint   `json:"schema_version"`
	Dirty         bool   `json:"dirty,omitempty"`
}

type archiveInfo struct {
	Dir      string `json:"dir"`
	Writable bool   `json:"writable"`
}

type envInfo struct {
	OS         string `json:"os"`
	Arch       string `json:"arch"`
	Container  bool   `json:"container"`
	NoSandbox  string `json:"rod_no_sandbox"`
	BrowserBin string `json:"rod_browser_bin"`
}

// runDoctor checks the runtime prerequisites of edition generation.
// Exit codes: 0 = ready (including warnings), 1 = errors found.
func runDoctor(args []string, env *Environment) int {
	jsonOutput := false
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
			continue
		}
		rest = append(rest, arg)
	}
	flags, err := parseCommonFlags("doctor", rest, env.Stderr, printDoctorUsage)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	cfg, err := loadSettings(flags, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := diagnose(cfg)
	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == doctorErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// diagnose performs all checks against cfg.
func diagnose(cfg *config.Config) *doctorResult {
	result := &doctorResult{
		Status: doctorReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  os.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkContainer(result)
	checkDatabase(result, cfg.Database.Path)
	checkArchiveDir(result, cfg.Archive.Dir)

	if len(result.Errors) > 0 {
		result.Status = doctorErrors
	} else if len(result.Warnings) > 0 {
		result.Status = doctorWarnings
	}
	return result
}

func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path from rod launcher or operator env
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

func checkContainer(result *doctorResult) {
	result.Env.Container = hints.IsInContainer() ||
		os.Getenv("container") != "" ||
		os.Getenv("KUBERNETES_SERVICE_HOST") != ""
	if result.Env.Container && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// checkDatabase opens the database without migrating it.
func checkDatabase(result *doctorResult, path string) {
	result.Database.Path = path
	st, err := store.Connect(path, zerolog.Nop())
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Database: %v", err))
		return
	}
	defer func() { _ = st.Close() }()

	version, dirty, err := st.SchemaVersion()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Database: %v", err))
		return
	}
	result.Database.Reachable = true
	result.Database.SchemaVersion = version
	result.Database.Dirty = dirty
	switch {
	case dirty:
		result.Errors = append(result.Errors, "Database schema is dirty. Fix it, then run 'epaper migrate'")
	case version == 0:
		result.Warnings = append(result.Warnings, "Database has no schema yet. Run 'epaper migrate'")
	}
}

func checkArchiveDir(result *doctorResult, dir string) {
	result.Archive.Dir = dir
	if err := os.MkdirAll(dir, 0o750); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Archive directory not usable: %v", err))
		return
	}
	probe := filepath.Join(dir, ".epaper-doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Archive directory not writable: %s", dir))
		return
	}
	_ = os.Remove(probe)
	result.Archive.Writable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "epaper doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Storage")
	if r.Database.Reachable {
		fmt.Fprintf(w, "  [OK] Database: %s (schema %d)\n", r.Database.Path, r.Database.SchemaVersion)
	} else {
		fmt.Fprintf(w, "  [ERROR] Database: %s\n", r.Database.Path)
	}
	if r.Archive.Writable {
		fmt.Fprintf(w, "  [OK] Archive: %s\n", r.Archive.Dir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Archive: %s\n", r.Archive.Dir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", e)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case doctorReady:
		fmt.Fprintln(w, "Status: Ready to generate editions")
	case doctorWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case doctorErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
