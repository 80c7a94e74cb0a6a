package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-epaper/internal/config"
)

// envConfig holds configuration from environment variables, including those
// loaded from a .env file.
type envConfig struct {
	// Files and storage
	ConfigPath string // EPAPER_CONFIG: config file name or path
	DBPath     string // EPAPER_DB: SQLite database path
	ArchiveDir string // EPAPER_ARCHIVE_DIR: edition files directory
	PublicURL  string // EPAPER_PUBLIC_URL: URL prefix for archive references

	// Edition
	SiteName string        // EPAPER_SITE_NAME: masthead fallback
	Timezone string        // EPAPER_TIMEZONE: IANA zone for edition dates
	Limit    int           // EPAPER_LIMIT: default article limit
	Timeout  time.Duration // EPAPER_TIMEOUT: browser page load timeout

	// Operations
	Addr      string // EPAPER_ADDR: HTTP listen address
	LogLevel  string // EPAPER_LOG_LEVEL: debug, info, warn, error
	LogFormat string // EPAPER_LOG_FORMAT: json, console
}

// knownEnvVars lists valid EPAPER_* environment variables.
var knownEnvVars = map[string]bool{
	"EPAPER_CONFIG":      true,
	"EPAPER_DB":          true,
	"EPAPER_ARCHIVE_DIR": true,
	"EPAPER_PUBLIC_URL":  true,
	"EPAPER_SITE_NAME":   true,
	"EPAPER_TIMEZONE":    true,
	"EPAPER_LIMIT":       true,
	"EPAPER_TIMEOUT":     true,
	"EPAPER_ADDR":        true,
	"EPAPER_LOG_LEVEL":   true,
	"EPAPER_LOG_FORMAT":  true,
}

// loadEnvConfig reads the EPAPER_* variables. Unparseable numbers and
// durations are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("EPAPER_CONFIG"),
		DBPath:     os.Getenv("EPAPER_DB"),
		ArchiveDir: os.Getenv("EPAPER_ARCHIVE_DIR"),
		PublicURL:  os.Getenv("EPAPER_PUBLIC_URL"),
		SiteName:   os.Getenv("EPAPER_SITE_NAME"),
		Timezone:   os.Getenv("EPAPER_TIMEZONE"),
		Addr:       os.Getenv("EPAPER_ADDR"),
		LogLevel:   os.Getenv("EPAPER_LOG_LEVEL"),
		LogFormat:  os.Getenv("EPAPER_LOG_FORMAT"),
	}

	if timeout := os.Getenv("EPAPER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if limit := os.Getenv("EPAPER_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			cfg.Limit = n
		}
	}

	return cfg
}

// warnUnknownEnvVars reports EPAPER_* variables that are not recognized,
// which usually means a typo.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "EPAPER_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overlays set environment values on cfg.
// Precedence: CLI flags > environment > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.DBPath != "" {
		cfg.Database.Path = env.DBPath
	}
	if env.ArchiveDir != "" {
		cfg.Archive.Dir = env.ArchiveDir
	}
	if env.PublicURL != "" {
		cfg.Archive.PublicURL = env.PublicURL
	}

	if env.SiteName != "" {
		cfg.Site.Name = env.SiteName
	}
	if env.Timezone != "" {
		cfg.Site.Timezone = env.Timezone
	}
	if env.Limit > 0 {
		cfg.Edition.Limit = env.Limit
	}
	if env.Timeout > 0 {
		cfg.Render.Timeout = env.Timeout.String()
	}

	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
}
