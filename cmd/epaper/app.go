package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper"
	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/config"
	"github.com/alnah/go-epaper/internal/layout"
	"github.com/alnah/go-epaper/internal/logger"
	"github.com/alnah/go-epaper/internal/store"
)

// Sentinel errors for CLI I/O.
var (
	ErrOpenStore   = errors.New("failed to open store")
	ErrWriteOutput = errors.New("failed to write output")
)

// loadSettings resolves the configuration.
// Precedence: CLI flags > EPAPER_* environment > config file > defaults.
func loadSettings(f *commonFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	configPath := f.config
	if configPath == "" {
		configPath = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to w, keeping stdout free
// for command output.
func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	return logger.New(w, cfg.Log.Level, cfg.Log.Format)
}

// openStore opens and migrates the database.
func openStore(cfg *config.Config, log zerolog.Logger) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	return st, nil
}

// newPublisher wires the archive directory and the store's archive table.
func newPublisher(cfg *config.Config, st *store.Store, log zerolog.Logger) (*archive.Publisher, error) {
	objects, err := archive.NewFilesystemStore(cfg.Archive.Dir, cfg.Archive.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	policy, err := archive.ParsePolicy(cfg.Archive.OnDuplicate)
	if err != nil {
		return nil, err
	}
	return archive.NewPublisher(objects, st,
		archive.WithPolicy(policy),
		archive.WithThumbnailWidth(cfg.Archive.ThumbnailWidth),
		archive.WithLogger(log.With().Str("component", "publisher").Logger()),
	), nil
}

// newGenerator builds the edition generator over st. The browser is not
// started until a page is rendered.
func newGenerator(cfg *config.Config, st *store.Store, log zerolog.Logger) (*epaper.Generator, error) {
	pub, err := newPublisher(cfg, st, log)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Render.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return epaper.NewGenerator(st,
		epaper.WithLogger(log),
		epaper.WithTimeout(timeout),
		epaper.WithStyle(cfg.Render.Style),
		epaper.WithAssetPath(cfg.Assets.BasePath),
		epaper.WithOversample(cfg.Render.Oversample),
		epaper.WithLayout(layout.Options{
			DateFormat:       cfg.Site.DateFormat,
			SiteFallback:     cfg.Site.Name,
			MaxCategoryPages: cfg.Edition.MaxCategoryPages,
		}),
		epaper.WithPublisher(pub),
	)
}

// session bundles what most commands need.
type session struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *store.Store
	gen   *epaper.Generator
}

// openSession builds the logger, the store and the generator for cfg.
func openSession(cfg *config.Config, env *Environment) (*session, error) {
	log, err := newLogger(cfg, env.Stderr)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	gen, err := newGenerator(cfg, st, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, store: st, gen: gen}, nil
}

// Close releases the browser and the database.
func (s *session) Close() {
	if err := s.gen.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing browser")
	}
	if err := s.store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("closing store")
	}
}
