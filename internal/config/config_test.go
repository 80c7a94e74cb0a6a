package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/content"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/logger"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Edition.Limit != content.DefaultLimit {
		t.Errorf("Edition.Limit = %d, want %d", cfg.Edition.Limit, content.DefaultLimit)
	}
	if cfg.Archive.OnDuplicate != string(archive.PolicyVersion) {
		t.Errorf("Archive.OnDuplicate = %q", cfg.Archive.OnDuplicate)
	}
	if cfg.Site.DateFormat != dateutil.DefaultDateFormat {
		t.Errorf("Site.DateFormat = %q", cfg.Site.DateFormat)
	}
	if d, _ := cfg.Render.TimeoutDuration(); d != time.Minute {
		t.Errorf("Render timeout = %v, want 1m", d)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	if err := validateFieldLength("f", "1234567890", 10); err != nil {
		t.Errorf("value at limit: %v", err)
	}
	if err := validateFieldLength("f", "12345678901", 10); !errors.Is(err, ErrFieldTooLong) {
		t.Errorf("value over limit error = %v, want ErrFieldTooLong", err)
	}
}

// ---------------------------------------------------------------------------
// TestConfig_Validate
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "zero value is valid", mutate: func(c *Config) { *c = Config{} }},
		{name: "limit below range", mutate: func(c *Config) { c.Edition.Limit = 2 }, wantErr: content.ErrInvalidLimit},
		{name: "limit above range", mutate: func(c *Config) { c.Edition.Limit = 101 }, wantErr: content.ErrInvalidLimit},
		{name: "negative category pages", mutate: func(c *Config) { c.Edition.MaxCategoryPages = -1 }, wantErr: ErrInvalidValue},
		{name: "bad date format", mutate: func(c *Config) { c.Site.DateFormat = "[D MMMM" }, wantErr: dateutil.ErrInvalidDateFormat},
		{name: "unknown timezone", mutate: func(c *Config) { c.Site.Timezone = "Mars/Olympus" }, wantErr: ErrInvalidValue},
		{name: "known timezone", mutate: func(c *Config) { c.Site.Timezone = "Europe/Paris" }},
		{name: "site name too long", mutate: func(c *Config) { c.Site.Name = strings.Repeat("x", MaxNameLength+1) }, wantErr: ErrFieldTooLong},
		{name: "public URL not http", mutate: func(c *Config) { c.Archive.PublicURL = "ftp://x" }, wantErr: ErrInvalidValue},
		{name: "public URL https", mutate: func(c *Config) { c.Archive.PublicURL = "https://cdn.example.com/e/" }},
		{name: "unknown duplicate policy", mutate: func(c *Config) { c.Archive.OnDuplicate = "merge" }, wantErr: archive.ErrInvalidPolicy},
		{name: "thumbnail disabled", mutate: func(c *Config) { c.Archive.ThumbnailWidth = 0 }},
		{name: "oversample too low", mutate: func(c *Config) { c.Render.Oversample = 1 }, wantErr: ErrInvalidValue},
		{name: "oversample too high", mutate: func(c *Config) { c.Render.Oversample = 8 }, wantErr: ErrInvalidValue},
		{name: "bad timeout", mutate: func(c *Config) { c.Render.Timeout = "soon" }, wantErr: ErrInvalidValue},
		{name: "negative timeout", mutate: func(c *Config) { c.Render.Timeout = "-5s" }, wantErr: ErrInvalidValue},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "chatty" }, wantErr: logger.ErrInvalidLevel},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: logger.ErrInvalidFormat},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()
		p := writeConfig(t, t.TempDir(), "epaper.yaml", `site:
  name: "The Courier"
  timezone: "UTC"
edition:
  limit: 12
  categories: ["politics", "sport"]
archive:
  onDuplicate: reject
`)
		cfg, err := LoadConfig(p)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		want := DefaultConfig()
		want.Site.Name = "The Courier"
		want.Site.Timezone = "UTC"
		want.Edition.Limit = 12
		want.Edition.Categories = []string{"politics", "sport"}
		want.Archive.OnDuplicate = "reject"
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown key is a parse error", func(t *testing.T) {
		t.Parallel()
		p := writeConfig(t, t.TempDir(), "typo.yaml", "edition:\n  limmit: 10\n")
		if _, err := LoadConfig(p); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("empty file is a parse error", func(t *testing.T) {
		t.Parallel()
		p := writeConfig(t, t.TempDir(), "empty.yaml", "")
		if _, err := LoadConfig(p); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()
		p := writeConfig(t, t.TempDir(), "bad.yaml", "render:\n  oversample: 1\n")
		if _, err := LoadConfig(p); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), "nope.yaml")
		if _, err := LoadConfig(p); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig("epaper-no-such-config-name")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("error = %v, want ErrConfigNotFound", err)
		}
		if !strings.Contains(err.Error(), "epaper-no-such-config-name.yaml") {
			t.Errorf("error should list tried paths: %v", err)
		}
	})
}

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Site.Name = "The Courier"
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	p := writeConfig(t, t.TempDir(), "roundtrip.yaml", string(data))
	got, err := LoadConfig(p)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v\n%s", err, data)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
