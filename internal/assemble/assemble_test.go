package assemble

import (
	"context"
	"errors"
	"image"
	"image/color"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/raster"
)

// mockPrinter records the markup it was asked to print.
type mockPrinter struct {
	markup []byte
	out    []byte
	err    error
	calls  int
}

func (m *mockPrinter) PrintPDF(_ context.Context, markup []byte) ([]byte, error) {
	m.calls++
	m.markup = markup
	return m.out, m.err
}

func pages(n int) []raster.Image {
	out := make([]raster.Image, n)
	for i := range out {
		img := image.NewRGBA(image.Rect(0, 0, 4, 6))
		img.SetRGBA(0, 0, color.RGBA{R: uint8(i * 40), A: 255})
		out[i] = raster.Image{Index: i + 1, Width: 4, Height: 6, Pixels: img}
	}
	return out
}

func newAssembler(t *testing.T, p Printer) *Assembler {
	t.Helper()
	a, err := New(p, assets.NewEmbeddedLoader(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

var sheetRe = regexp.MustCompile(`data-sheet="(\d+)"`)

func TestPrintDocument_OneSheetPerImageInOrder(t *testing.T) {
	t.Parallel()

	a := newAssembler(t, &mockPrinter{})
	images := pages(5)
	images[1], images[3] = images[3], images[1]

	doc, err := a.PrintDocument(images, "The Courier")
	if err != nil {
		t.Fatalf("PrintDocument() error = %v", err)
	}
	html := string(doc)

	matches := sheetRe.FindAllStringSubmatch(html, -1)
	if len(matches) != len(images) {
		t.Fatalf("sheets = %d, want %d", len(matches), len(images))
	}
	for i, m := range matches {
		if want := strconv.Itoa(images[i].Index); m[1] != want {
			t.Errorf("sheet %d is page %s, want %s (input order)", i, m[1], want)
		}
	}

	if n := strings.Count(html, `src="data:image/png;base64,`); n != len(images) {
		t.Errorf("embedded images = %d, want %d", n, len(images))
	}
	for _, w := range []string{"size: 210mm 297mm", "margin: 0", ".sheet:first-child", "page-break-before: always"} {
		if !strings.Contains(html, w) {
			t.Errorf("print document missing %q", w)
		}
	}
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		images    []raster.Image
		printer   *mockPrinter
		wantErr   error
		wantCalls int
	}{
		{
			name:      "success",
			images:    pages(3),
			printer:   &mockPrinter{out: []byte("%PDF-1.4\n...")},
			wantCalls: 1,
		},
		{
			name:    "no pages",
			printer: &mockPrinter{out: []byte("%PDF-1.4")},
			wantErr: ErrNoPages,
		},
		{
			name:      "printer failure",
			images:    pages(2),
			printer:   &mockPrinter{err: errors.New("tab crashed")},
			wantErr:   ErrAssembly,
			wantCalls: 1,
		},
		{
			name:      "printer returns garbage",
			images:    pages(2),
			printer:   &mockPrinter{out: []byte("<html>")},
			wantErr:   ErrAssembly,
			wantCalls: 1,
		},
		{
			name:    "image without pixels",
			images:  []raster.Image{{Index: 1}},
			printer: &mockPrinter{out: []byte("%PDF-1.4")},
			wantErr: ErrAssembly,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pdf, err := newAssembler(t, tt.printer).Assemble(context.Background(), tt.images, "t")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Assemble() error = %v, want %v", err, tt.wantErr)
				}
				if pdf != nil {
					t.Error("expected no partial output on error")
				}
			} else if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			if tt.printer.calls != tt.wantCalls {
				t.Errorf("printer calls = %d, want %d", tt.printer.calls, tt.wantCalls)
			}
		})
	}
}

func TestNew_MissingTemplate(t *testing.T) {
	t.Parallel()

	if _, err := New(&mockPrinter{}, emptyLoader{}, zerolog.Nop()); !errors.Is(err, ErrAssembly) {
		t.Errorf("New() error = %v, want ErrAssembly", err)
	}
}

type emptyLoader struct{}

func (emptyLoader) LoadStyle(string) (string, error)    { return "", assets.ErrStyleNotFound }
func (emptyLoader) LoadTemplate(string) (string, error) { return "", assets.ErrTemplateNotFound }
