//go:build integration

package raster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alnah/go-epaper/internal/browser"
)

const twoSheets = `<!DOCTYPE html><html><head><style>
html, body { margin: 0; }
.sheet { width: 210mm; height: 297mm; overflow: hidden; }
#page-1 { background: #fff; }
#page-2 { background: #000; }
</style></head><body>
<section class="sheet" id="page-1">one</section>
<section class="sheet" id="page-2">two</section>
</body></html>`

func TestSurface_RendersSheetsThenDetaches(t *testing.T) {
	b := browser.New(30 * time.Second)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s, err := OpenSurface(ctx, b, []byte(twoSheets), A4, MinOversample)
	if err != nil {
		t.Fatalf("OpenSurface() error = %v", err)
	}

	images, err := New().Rasterize(ctx, s, []int{1, 2})
	if err != nil {
		t.Fatalf("Rasterize() error = %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	if c := images[1].Pixels.RGBAAt(10, 10); c.R > 10 {
		t.Errorf("page 2 should be dark, got %v", c)
	}

	if _, err := s.RenderToBitmap(ctx, 3); !errors.Is(err, ErrSurfaceDetached) {
		t.Errorf("missing page = %v, want ErrSurfaceDetached", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	start := time.Now()
	if _, err := s.RenderToBitmap(ctx, 1); !errors.Is(err, ErrSurfaceDetached) {
		t.Errorf("after Close = %v, want ErrSurfaceDetached", err)
	}
	if time.Since(start) > time.Second {
		t.Error("detached surface did not fail fast")
	}
}
