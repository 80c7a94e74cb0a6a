// Package raster captures composed pages as bitmaps, one page at a time.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

// Sentinel errors for rasterization.
var (
	ErrSurfaceDetached = errors.New("rendering surface detached")
	ErrRasterization   = errors.New("page rasterization failed")
)

// Geometry is a page size in CSS pixels.
type Geometry struct {
	Width  int
	Height int
}

// A4 is 210x297mm at 96 CSS pixels per inch.
var A4 = Geometry{Width: 794, Height: 1123}

// MinOversample is the lowest device scale factor used for captures.
const MinOversample = 2

// PageRenderer paints one page of a loaded document and returns it as PNG.
// Implementations must fail with ErrSurfaceDetached once the surface is gone
// rather than block.
type PageRenderer interface {
	RenderToBitmap(ctx context.Context, pageNumber int) ([]byte, error)
}

// Image is one rasterized page.
type Image struct {
	Index  int // page number
	Width  int
	Height int
	Pixels *image.RGBA
}

// Rasterizer drives a PageRenderer over a document's pages.
type Rasterizer struct {
	geometry   Geometry
	oversample int
	log        zerolog.Logger
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithGeometry sets the expected page size in CSS pixels.
func WithGeometry(g Geometry) Option {
	return func(r *Rasterizer) { r.geometry = g }
}

// WithOversample sets the device scale factor. Values below MinOversample are raised.
func WithOversample(n int) Option {
	return func(r *Rasterizer) { r.oversample = n }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Rasterizer) { r.log = log }
}

// New creates a Rasterizer for A4 pages at MinOversample.
func New(opts ...Option) *Rasterizer {
	r := &Rasterizer{geometry: A4, oversample: MinOversample, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.oversample < MinOversample {
		r.oversample = MinOversample
	}
	return r
}

// Oversample returns the effective device scale factor.
func (r *Rasterizer) Oversample() int { return r.oversample }

// Rasterize renders pages one after another in increasing page order.
// Any failure aborts the run and no partial result is returned.
func (r *Rasterizer) Rasterize(ctx context.Context, renderer PageRenderer, pages []int) ([]Image, error) {
	order := append([]int(nil), pages...)
	sort.Ints(order)

	out := make([]Image, 0, len(order))
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := renderer.RenderToBitmap(ctx, n)
		if err != nil {
			r.log.Error().Err(err).Int("page", n).Msg("page render failed")
			if errors.Is(err, ErrSurfaceDetached) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("page %d: %w", n, err)
			}
			return nil, fmt.Errorf("%w: page %d: %v", ErrRasterization, n, err)
		}

		img, err := r.flatten(data)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrRasterization, n, err)
		}
		out = append(out, Image{Index: n, Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), Pixels: img})
		r.log.Debug().Int("page", n).Int("width", img.Bounds().Dx()).Msg("page rasterized")
	}
	return out, nil
}

// flatten decodes a PNG capture, checks its size and composites it onto an
// opaque white canvas.
func (r *Rasterizer) flatten(data []byte) (*image.RGBA, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding capture: %v", err)
	}
	b := src.Bounds()
	if err := r.checkSize(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst, nil
}

// checkSize accepts captures within one CSS pixel of the expected geometry;
// millimetre page sizes do not map to whole pixels.
func (r *Rasterizer) checkSize(w, h int) error {
	wantW, wantH := r.geometry.Width*r.oversample, r.geometry.Height*r.oversample
	if abs(w-wantW) > r.oversample || abs(h-wantH) > r.oversample {
		return fmt.Errorf("capture is %dx%d, want %dx%d", w, h, wantW, wantH)
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
