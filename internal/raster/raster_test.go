package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testGeometry = Geometry{Width: 10, Height: 14}

// mockRenderer serves generated PNG captures and records call order.
type mockRenderer struct {
	width, height int
	failAt        int
	failErr       error
	calls         []int
}

func (m *mockRenderer) RenderToBitmap(_ context.Context, n int) ([]byte, error) {
	m.calls = append(m.calls, n)
	if n == m.failAt {
		return nil, m.failErr
	}
	return encodePNG(m.width, m.height, color.NRGBA{R: uint8(n), A: 0}), nil
}

func encodePNG(w, h int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func newMock() *mockRenderer {
	return &mockRenderer{width: 20, height: 28}
}

func TestRasterize_SequentialIncreasingOrder(t *testing.T) {
	t.Parallel()

	m := newMock()
	r := New(WithGeometry(testGeometry))

	images, err := r.Rasterize(context.Background(), m, []int{3, 1, 2})
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, m.calls); diff != "" {
		t.Errorf("render order mismatch (-want +got):\n%s", diff)
	}
	for i, img := range images {
		if img.Index != i+1 {
			t.Errorf("image %d has index %d", i, img.Index)
		}
		if img.Width != 20 || img.Height != 28 {
			t.Errorf("image %d is %dx%d", i, img.Width, img.Height)
		}
	}
}

func TestRasterize_FlattensOntoWhite(t *testing.T) {
	t.Parallel()

	images, err := New(WithGeometry(testGeometry)).Rasterize(context.Background(), newMock(), []int{1})
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	got := images[0].Pixels.RGBAAt(5, 5)
	if got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("transparent capture must flatten to white, got %v", got)
	}
}

func TestRasterize_FailsFastWithoutPartialResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		failErr error
		wantErr error
	}{
		{name: "detached surface", failErr: ErrSurfaceDetached, wantErr: ErrSurfaceDetached},
		{name: "renderer failure", failErr: errors.New("tab crashed"), wantErr: ErrRasterization},
		{name: "cancelled", failErr: context.Canceled, wantErr: context.Canceled},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newMock()
			m.failAt = 2
			m.failErr = tt.failErr

			images, err := New(WithGeometry(testGeometry)).Rasterize(context.Background(), m, []int{1, 2, 3, 4})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Rasterize() error = %v, want %v", err, tt.wantErr)
			}
			if images != nil {
				t.Errorf("expected no partial result, got %d images", len(images))
			}
			if diff := cmp.Diff([]int{1, 2}, m.calls); diff != "" {
				t.Errorf("pages after the failure were rendered (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRasterize_RejectsWrongSizeAndGarbage(t *testing.T) {
	t.Parallel()

	m := newMock()
	m.width = 40
	if _, err := New(WithGeometry(testGeometry)).Rasterize(context.Background(), m, []int{1}); !errors.Is(err, ErrRasterization) {
		t.Errorf("oversized capture: got %v", err)
	}

	garbage := rendererFunc(func(context.Context, int) ([]byte, error) { return []byte("not a png"), nil })
	if _, err := New(WithGeometry(testGeometry)).Rasterize(context.Background(), garbage, []int{1}); !errors.Is(err, ErrRasterization) {
		t.Errorf("undecodable capture: got %v", err)
	}
}

func TestRasterize_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newMock()
	if _, err := New(WithGeometry(testGeometry)).Rasterize(ctx, m, []int{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if len(m.calls) != 0 {
		t.Errorf("renderer called %d times after cancel", len(m.calls))
	}
}

func TestNew_OversampleFloor(t *testing.T) {
	t.Parallel()

	if got := New(WithOversample(1)).Oversample(); got != MinOversample {
		t.Errorf("Oversample() = %d, want %d", got, MinOversample)
	}
	if got := New(WithOversample(3)).Oversample(); got != 3 {
		t.Errorf("Oversample() = %d, want 3", got)
	}
}

func TestSurface_ClosedFailsFast(t *testing.T) {
	t.Parallel()

	s := &Surface{}
	if _, err := s.RenderToBitmap(context.Background(), 1); !errors.Is(err, ErrSurfaceDetached) {
		t.Errorf("RenderToBitmap on closed surface = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on closed surface = %v", err)
	}
}

type rendererFunc func(context.Context, int) ([]byte, error)

func (f rendererFunc) RenderToBitmap(ctx context.Context, n int) ([]byte, error) { return f(ctx, n) }
