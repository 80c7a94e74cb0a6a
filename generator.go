package epaper

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/assemble"
	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/browser"
	"github.com/alnah/go-epaper/internal/content"
	"github.com/alnah/go-epaper/internal/layout"
	"github.com/alnah/go-epaper/internal/raster"
)

// Mode selects what Generate does with the composed edition.
type Mode string

// Generation modes.
const (
	// ModePreview composes the edition and returns its HTML. No browser.
	ModePreview Mode = "preview"
	// ModeDownload renders the PDF and hands it back without storing it.
	ModeDownload Mode = "download"
	// ModePublish renders the PDF, stores it and records an archive entry.
	ModePublish Mode = "publish"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePreview, ModeDownload, ModePublish:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (must be preview, download or publish)", ErrInvalidMode, s)
}

// Request selects the content of one edition.
type Request struct {
	Date        time.Time // calendar day in the site's time zone
	CategoryIDs []string  // empty means all categories
	Limit       int       // 0 means the default limit
}

// Result describes a finished generation. On a publish failure the PDF is
// still set so the operator can download it.
type Result struct {
	Mode     Mode
	Date     time.Time
	Title    string
	Pages    int
	Markup   []byte         // composed edition HTML
	PDF      []byte         // empty in preview mode
	Filename string         // download file name
	Entry    *archive.Entry // set after a successful publish
}

// pageSurface is a rendering surface bound to one edition's markup.
type pageSurface interface {
	raster.PageRenderer
	Close() error
}

type surfaceOpener interface {
	OpenSurface(ctx context.Context, markup []byte) (pageSurface, error)
}

type pdfAssembler interface {
	Assemble(ctx context.Context, images []raster.Image, title string) ([]byte, error)
}

type editionPublisher interface {
	CheckDuplicate(ctx context.Context, day time.Time) error
	PersistAndPublish(ctx context.Context, pdf []byte, meta archive.Metadata) (*archive.Entry, error)
	DownloadOnly(pdf []byte, filename string) (*archive.Download, error)
	List(ctx context.Context, limit int) ([]archive.Entry, error)
}

type articleSource interface {
	Article(ctx context.Context, id string) (*content.Article, error)
}

// Compile-time interface checks.
var (
	_ surfaceOpener    = (*rodSurfaces)(nil)
	_ pdfAssembler     = (*assemble.Assembler)(nil)
	_ editionPublisher = (*archive.Publisher)(nil)
)

// rodSurfaces opens surfaces as tabs of a shared headless Chrome.
type rodSurfaces struct {
	browser    *browser.Browser
	geometry   raster.Geometry
	oversample int
}

func (r *rodSurfaces) OpenSurface(ctx context.Context, markup []byte) (pageSurface, error) {
	s, err := raster.OpenSurface(ctx, r.browser, markup, r.geometry, r.oversample)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Generator runs the edition pipeline: aggregate, compose, rasterize,
// assemble and publish. Only one generation runs at a time.
type Generator struct {
	cfg        generatorConfig
	source     content.Source
	aggregator *content.Aggregator
	renderer   *layout.Renderer
	rasterizer *raster.Rasterizer
	surfaces   surfaceOpener
	assembler  pdfAssembler
	publisher  editionPublisher
	browser    *browser.Browser // nil when surfaces and assembler are injected
	log        zerolog.Logger
	inFlight   atomic.Bool
}

// NewGenerator creates a Generator reading content from source.
// Call Close to release the browser.
func NewGenerator(source content.Source, opts ...Option) (*Generator, error) {
	g := &Generator{
		cfg: generatorConfig{
			timeout:    browser.DefaultTimeout,
			oversample: raster.MinOversample,
			geometry:   raster.A4,
			layout:     layout.DefaultOptions(),
		},
		source: source,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	loader, err := assets.NewAssetResolver(g.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	if g.renderer, err = layout.NewRenderer(loader, g.cfg.style); err != nil {
		return nil, err
	}

	g.aggregator = content.NewAggregator(source)
	g.rasterizer = raster.New(
		raster.WithGeometry(g.cfg.geometry),
		raster.WithOversample(g.cfg.oversample),
		raster.WithLogger(g.log.With().Str("component", "raster").Logger()),
	)

	// Chrome is launched lazily on first use.
	if g.surfaces == nil || g.assembler == nil {
		g.browser = browser.New(g.cfg.timeout)
	}
	if g.surfaces == nil {
		g.surfaces = &rodSurfaces{browser: g.browser, geometry: g.cfg.geometry, oversample: g.rasterizer.Oversample()}
	}
	if g.assembler == nil {
		a, err := assemble.New(assemble.NewRodPrinter(g.browser), loader, g.log.With().Str("component", "assembler").Logger())
		if err != nil {
			_ = g.browser.Close()
			return nil, err
		}
		g.assembler = a
	}
	return g, nil
}

// Close releases the browser, if one was started.
func (g *Generator) Close() error {
	if g.browser != nil {
		return g.browser.Close()
	}
	return nil
}

// Edition is a composed edition. It owns the rendering surface, which is
// opened on first Render and detached by Close.
type Edition struct {
	Date      time.Time
	Selection *content.Selection
	Document  *layout.Document
	Markup    []byte

	mu      sync.Mutex
	surface pageSurface
	closed  bool
}

func (e *Edition) attach(ctx context.Context, opener surfaceOpener) (pageSurface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrSurfaceDetached
	}
	if e.surface == nil {
		s, err := opener.OpenSurface(ctx, e.Markup)
		if err != nil {
			return nil, err
		}
		e.surface = s
	}
	return e.surface, nil
}

// Close detaches the surface. Later Render calls fail with
// ErrSurfaceDetached. It is safe to call more than once.
func (e *Edition) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if e.surface == nil {
		return nil
	}
	return e.surface.Close()
}

// Prepare selects and composes the edition for req and renders its markup.
// No browser is involved.
func (g *Generator) Prepare(ctx context.Context, req Request) (*Edition, error) {
	sel, err := g.aggregator.Aggregate(ctx, content.Query{
		Date:        req.Date,
		CategoryIDs: req.CategoryIDs,
		Limit:       req.Limit,
	})
	if err != nil {
		return nil, err
	}

	categories, err := g.source.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	branding, err := g.source.Branding(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading branding: %w", err)
	}

	doc, err := layout.Compose(sel, categories, branding, g.cfg.layout)
	if err != nil {
		return nil, err
	}
	markup, err := g.renderer.Edition(doc)
	if err != nil {
		return nil, err
	}

	g.log.Debug().
		Str("component", "composer").
		Int("articles", len(sel.Articles)).
		Int("pages", len(doc.Pages)).
		Msg("edition composed")

	return &Edition{Date: sel.Date, Selection: sel, Document: doc, Markup: markup}, nil
}

// Render rasterizes every page of e in order and assembles the PDF.
// It returns the PDF and the front page image.
func (g *Generator) Render(ctx context.Context, e *Edition) ([]byte, image.Image, error) {
	surface, err := e.attach(ctx, g.surfaces)
	if err != nil {
		return nil, nil, err
	}

	images, err := g.rasterizer.Rasterize(ctx, surface, e.Document.PageNumbers())
	if err != nil {
		return nil, nil, err
	}
	pdf, err := g.assembler.Assemble(ctx, images, e.Document.Title())
	if err != nil {
		return nil, nil, err
	}
	return pdf, images[0].Pixels, nil
}

// Generate runs one generation in the given mode. A call made while another
// is running fails with ErrGenerationInFlight.
func (g *Generator) Generate(ctx context.Context, req Request, mode Mode) (*Result, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if mode == ModePublish && g.publisher == nil {
		return nil, ErrArchiveDisabled
	}
	if !g.inFlight.CompareAndSwap(false, true) {
		return nil, ErrGenerationInFlight
	}
	defer g.inFlight.Store(false)

	start := time.Now()
	log := g.log.With().Str("component", "generator").Str("mode", string(mode)).Logger()

	e, err := g.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = e.Close() }()

	res := &Result{
		Mode:   mode,
		Date:   e.Date,
		Title:  e.Document.Title(),
		Pages:  len(e.Document.Pages),
		Markup: e.Markup,
	}
	if mode == ModePreview {
		return res, nil
	}
	if mode == ModePublish {
		if err := g.publisher.CheckDuplicate(ctx, e.Date); err != nil {
			log.Warn().Err(err).Msg("edition publish refused")
			return nil, err
		}
	}

	pdf, cover, err := g.Render(ctx, e)
	if err != nil {
		log.Error().Err(err).Msg("edition render failed")
		return nil, err
	}
	res.PDF = pdf
	res.Filename = archive.ObjectKey(e.Date, 1)

	if mode == ModePublish {
		entry, err := g.publisher.PersistAndPublish(ctx, pdf, archive.Metadata{Date: e.Date, Title: res.Title, Cover: cover})
		if err != nil {
			log.Error().Err(err).
				Str("filename", res.Filename).
				Int("bytes", len(pdf)).
				Msg("edition publish failed; PDF returned to caller")
			return res, err
		}
		res.Entry = entry
	} else {
		d, err := g.downloads().DownloadOnly(pdf, res.Filename)
		if err != nil {
			return nil, err
		}
		res.Filename = d.Filename
	}

	log.Info().
		Int("pages", res.Pages).
		Int("bytes", len(pdf)).
		Dur("elapsed", time.Since(start)).
		Msg("edition generated")
	return res, nil
}

func (g *Generator) downloads() editionPublisher {
	if g.publisher != nil {
		return g.publisher
	}
	return archive.NewPublisher(nil, nil)
}

// Preview composes the edition for req and returns its HTML.
func (g *Generator) Preview(ctx context.Context, req Request) (*Result, error) {
	return g.Generate(ctx, req, ModePreview)
}

// Download renders the edition for req without storing it.
func (g *Generator) Download(ctx context.Context, req Request) (*Result, error) {
	return g.Generate(ctx, req, ModeDownload)
}

// Publish renders, stores and records the edition for req.
func (g *Generator) Publish(ctx context.Context, req Request) (*Result, error) {
	return g.Generate(ctx, req, ModePublish)
}

// Archive lists the most recent published editions.
func (g *Generator) Archive(ctx context.Context, limit int) ([]archive.Entry, error) {
	if g.publisher == nil {
		return nil, ErrArchiveDisabled
	}
	return g.publisher.List(ctx, limit)
}

// ArticleView renders the reading view of one article. The content source
// must be able to load single articles.
func (g *Generator) ArticleView(ctx context.Context, id string) ([]byte, error) {
	src, ok := g.source.(articleSource)
	if !ok {
		return nil, ErrArticleViewing
	}
	a, err := src.Article(ctx, id)
	if err != nil {
		return nil, err
	}
	categories, err := g.source.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading categories: %w", err)
	}
	branding, err := g.source.Branding(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading branding: %w", err)
	}
	return g.renderer.Article(layout.ComposeArticle(*a, categories, branding, g.cfg.layout))
}

// withSurfaces, withAssembler and withGeometry replace the browser-backed
// stages and the page size.
func withSurfaces(s surfaceOpener) Option {
	return func(g *Generator) { g.surfaces = s }
}

func withAssembler(a pdfAssembler) Option {
	return func(g *Generator) { g.assembler = a }
}

func withEditionPublisher(p editionPublisher) Option {
	return func(g *Generator) { g.publisher = p }
}

func withGeometry(geo raster.Geometry) Option {
	return func(g *Generator) { g.cfg.geometry = geo }
}
