package epaper

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/layout"
	"github.com/alnah/go-epaper/internal/raster"
)

// Option configures a Generator.
type Option func(*Generator)

type generatorConfig struct {
	timeout    time.Duration
	style      string
	assetPath  string
	oversample int
	geometry   raster.Geometry
	layout     layout.Options
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithTimeout bounds each browser page load.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.cfg.timeout = d
		}
	}
}

// WithStyle selects the stylesheet by name.
func WithStyle(name string) Option {
	return func(g *Generator) {
		g.cfg.style = name
	}
}

// WithAssetPath adds a directory of templates and styles that takes
// precedence over the embedded ones.
func WithAssetPath(path string) Option {
	return func(g *Generator) {
		g.cfg.assetPath = path
	}
}

// WithOversample sets device pixels per CSS pixel for page captures.
func WithOversample(n int) Option {
	return func(g *Generator) {
		g.cfg.oversample = n
	}
}

// WithLayout sets composition options such as the date format.
func WithLayout(opts layout.Options) Option {
	return func(g *Generator) {
		g.cfg.layout = opts
	}
}

// WithPublisher enables ModePublish. Without it, publishing fails with
// ErrArchiveDisabled.
func WithPublisher(p *archive.Publisher) Option {
	return func(g *Generator) {
		if p != nil {
			g.publisher = p
		}
	}
}
