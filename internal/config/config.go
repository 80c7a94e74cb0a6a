// Package config loads the YAML configuration of the edition engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/content"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/fileutil"
	"github.com/alnah/go-epaper/internal/logger"
	"github.com/alnah/go-epaper/internal/raster"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxNameLength = 100
	MaxURLLength  = 2048
	MaxPathLength = 4096
)

// Bounds for numeric settings.
const (
	MaxCategoryPages = 12
	MaxOversample    = 4
	MaxThumbWidth    = 2000
)

// Defaults.
const (
	DefaultDatabasePath = "data/epaper.db"
	DefaultArchiveDir   = "data/editions"
	DefaultServerAddr   = ":8080"
	DefaultTimeout      = "60s"
)

// Config holds all configuration for edition generation.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Edition  EditionConfig  `yaml:"edition"`
	Database DatabaseConfig `yaml:"database"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Render   RenderConfig   `yaml:"render"`
	Assets   AssetsConfig   `yaml:"assets"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// SiteConfig holds print identity settings. Branding stored in the
// database wins over Name.
type SiteConfig struct {
	Name       string `yaml:"name"`       // used when the store has no site name
	DateFormat string `yaml:"dateFormat"` // dateutil tokens or preset name
	Timezone   string `yaml:"timezone"`   // IANA name; empty = local
}

// EditionConfig holds selection defaults.
type EditionConfig struct {
	Limit            int      `yaml:"limit"`                // 0 = content.DefaultLimit
	Categories       []string `yaml:"categories,omitempty"` // empty = all
	MaxCategoryPages int      `yaml:"maxCategoryPages"`     // 0 = layout default
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ArchiveConfig controls where published editions go.
type ArchiveConfig struct {
	Dir            string `yaml:"dir"`
	PublicURL      string `yaml:"publicURL"`      // prefix for stored references
	OnDuplicate    string `yaml:"onDuplicate"`    // version, reject or overwrite
	ThumbnailWidth int    `yaml:"thumbnailWidth"` // 0 = no thumbnail
}

// RenderConfig tunes rasterization and printing.
type RenderConfig struct {
	Style      string `yaml:"style"`      // CSS name in the assets
	Oversample int    `yaml:"oversample"` // device pixels per CSS pixel
	Timeout    string `yaml:"timeout"`    // Go duration, per page load
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// ServerConfig holds the HTTP admin listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a working configuration for a local install.
func DefaultConfig() *Config {
	return &Config{
		Site:     SiteConfig{DateFormat: dateutil.DefaultDateFormat},
		Edition:  EditionConfig{Limit: content.DefaultLimit, MaxCategoryPages: 4},
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Archive: ArchiveConfig{
			Dir:            DefaultArchiveDir,
			OnDuplicate:    string(archive.PolicyVersion),
			ThumbnailWidth: archive.DefaultThumbnailWidth,
		},
		Render: RenderConfig{Oversample: raster.MinOversample, Timeout: DefaultTimeout},
		Server: ServerConfig{Addr: DefaultServerAddr},
		Log:    LogConfig{Level: "info", Format: logger.FormatJSON},
	}
}

// Validate checks every field. Called by LoadConfig, and again by callers
// after applying environment and flag overrides.
func (c *Config) Validate() error {
	if err := validateFieldLength("site.name", c.Site.Name, MaxNameLength); err != nil {
		return err
	}
	if c.Site.DateFormat != "" {
		if _, err := dateutil.ParseDateFormat(c.Site.DateFormat); err != nil {
			return fmt.Errorf("site.dateFormat: %w", err)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := content.NormalizeLimit(c.Edition.Limit); err != nil {
		return fmt.Errorf("edition.limit: %w", err)
	}
	if c.Edition.MaxCategoryPages < 0 || c.Edition.MaxCategoryPages > MaxCategoryPages {
		return fmt.Errorf("%w: edition.maxCategoryPages must be between 0 and %d, got %d",
			ErrInvalidValue, MaxCategoryPages, c.Edition.MaxCategoryPages)
	}

	if err := validateFieldLength("database.path", c.Database.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("archive.dir", c.Archive.Dir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("archive.publicURL", c.Archive.PublicURL, MaxURLLength); err != nil {
		return err
	}
	if c.Archive.PublicURL != "" && !fileutil.IsURL(c.Archive.PublicURL) {
		return fmt.Errorf("%w: archive.publicURL must be an http(s) URL, got %q", ErrInvalidValue, c.Archive.PublicURL)
	}
	if _, err := archive.ParsePolicy(c.Archive.OnDuplicate); err != nil {
		return fmt.Errorf("archive.onDuplicate: %w", err)
	}
	if c.Archive.ThumbnailWidth < 0 || c.Archive.ThumbnailWidth > MaxThumbWidth {
		return fmt.Errorf("%w: archive.thumbnailWidth must be between 0 and %d, got %d",
			ErrInvalidValue, MaxThumbWidth, c.Archive.ThumbnailWidth)
	}

	if c.Render.Oversample != 0 && (c.Render.Oversample < raster.MinOversample || c.Render.Oversample > MaxOversample) {
		return fmt.Errorf("%w: render.oversample must be between %d and %d, got %d",
			ErrInvalidValue, raster.MinOversample, MaxOversample, c.Render.Oversample)
	}
	if _, err := c.Render.TimeoutDuration(); err != nil {
		return err
	}

	if err := logger.ValidateFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Location resolves site.timezone. Empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Site.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: site.timezone %q: %v", ErrInvalidValue, c.Site.Timezone, err)
	}
	return loc, nil
}

// TimeoutDuration parses render.timeout. Empty means zero (use the default).
func (r RenderConfig) TimeoutDuration() (time.Duration, error) {
	if r.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: render.timeout must be a positive duration, got %q", ErrInvalidValue, r.Timeout)
	}
	return d, nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig reads a config file by path or by name. A name without a path
// separator is searched as <name>.yaml or <name>.yml in the current directory,
// then in the user config directory. Fields missing from the file keep
// their DefaultConfig values. A missing file is an error.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		p := name + ext
		if fileutil.FileExists(p) {
			return p, nil
		}
		tried = append(tried, p)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			p := filepath.Join(dir, "go-epaper", name+ext)
			if fileutil.FileExists(p) {
				return p, nil
			}
			tried = append(tried, p)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
