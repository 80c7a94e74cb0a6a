package raster

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-epaper/internal/browser"
)

// Surface is a browser tab holding one edition's markup. It is owned by a
// single generation; calls are serialized.
type Surface struct {
	mu   sync.Mutex
	page *browser.Page
}

// Compile-time interface check.
var _ PageRenderer = (*Surface)(nil)

// OpenSurface loads markup into a new tab of b with a viewport of g CSS
// pixels at the given device scale factor.
func OpenSurface(ctx context.Context, b *browser.Browser, markup []byte, g Geometry, oversample int) (*Surface, error) {
	if oversample < MinOversample {
		oversample = MinOversample
	}
	page, err := b.Open(ctx, markup)
	if err != nil {
		return nil, err
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             g.Width,
		Height:            g.Height,
		DeviceScaleFactor: float64(oversample),
	})
	if err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrRasterization, err)
	}
	return &Surface{page: page}, nil
}

// RenderToBitmap captures the element with id "page-N" as PNG.
// After Close, or when the page node is missing, it fails with
// ErrSurfaceDetached without waiting.
func (s *Surface) RenderToBitmap(ctx context.Context, pageNumber int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		return nil, ErrSurfaceDetached
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selector := fmt.Sprintf("#page-%d", pageNumber)
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterization, err)
	}
	if !has {
		return nil, fmt.Errorf("%w: no node %s", ErrSurfaceDetached, selector)
	}

	data, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterization, err)
	}
	return data, nil
}

// Close detaches the surface. It is safe to call more than once.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page == nil {
		return nil
	}
	err := s.page.Close()
	s.page = nil
	return err
}
