//go:build integration

package assemble

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/browser"
	"github.com/alnah/go-epaper/internal/raster"
)

// pageObject matches page objects but not the /Pages tree node.
var pageObject = regexp.MustCompile(`/Type\s*/Page\b[^s]`)

func newRodAssembler(t *testing.T) *Assembler {
	t.Helper()
	b := browser.New(30 * time.Second)
	t.Cleanup(func() { _ = b.Close() })

	a, err := New(NewRodPrinter(b), assets.NewEmbeddedLoader(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestAssemble_PageCountMatchesImages(t *testing.T) {
	a := newRodAssembler(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, n := range []int{1, 3, 6} {
		pdf, err := a.Assemble(ctx, pages(n), "count")
		if err != nil {
			t.Fatalf("Assemble(%d) error = %v", n, err)
		}
		if got := len(pageObject.FindAll(pdf, -1)); got != n {
			t.Errorf("PDF has %d pages, want %d", got, n)
		}
	}
}

// ---------------------------------------------------------------------------
// TestAssemble_PageOrder - each sheet carries its own colour
// ---------------------------------------------------------------------------

var sheetColors = []color.RGBA{
	{R: 220, G: 20, B: 20, A: 255},
	{R: 20, G: 180, B: 20, A: 255},
	{R: 20, G: 20, B: 220, A: 255},
	{R: 230, G: 200, B: 20, A: 255},
}

func solidPages(colors []color.RGBA) []raster.Image {
	out := make([]raster.Image, len(colors))
	for i, c := range colors {
		img := image.NewRGBA(image.Rect(0, 0, 42, 59))
		for y := 0; y < 59; y++ {
			for x := 0; x < 42; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		out[i] = raster.Image{Index: i + 1, Width: 42, Height: 59, Pixels: img}
	}
	return out
}

func TestAssemble_PageOrder(t *testing.T) {
	a := newRodAssembler(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pdf, err := a.Assemble(ctx, solidPages(sheetColors), "order")
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	got, err := pageColors(pdf)
	if err != nil {
		t.Fatalf("reading page images: %v", err)
	}
	if len(got) != len(sheetColors) {
		t.Fatalf("PDF has %d pages, want %d", len(got), len(sheetColors))
	}
	for i, want := range sheetColors {
		if !closeColor(got[i], want) {
			t.Errorf("page %d colour = %v, want %v", i+1, got[i], want)
		}
	}
}

func closeColor(a, b color.RGBA) bool {
	near := func(x, y uint8) bool { return int(x)-int(y) <= 24 && int(y)-int(x) <= 24 }
	return near(a.R, b.R) && near(a.G, b.G) && near(a.B, b.B)
}

// ---------------------------------------------------------------------------
// Minimal PDF reading: page tree walk and first image per page
// ---------------------------------------------------------------------------

var (
	objHeader = regexp.MustCompile(`(\d+) 0 obj`)
	refRe     = regexp.MustCompile(`(\d+) 0 R`)
	parentRe  = regexp.MustCompile(`/Parent\s+\d+ 0 R`)
	catalogRe = regexp.MustCompile(`/Type\s*/Catalog`)
	rootPages = regexp.MustCompile(`/Pages\s+(\d+) 0 R`)
	kidsRe    = regexp.MustCompile(`/Kids\s*\[([^\]]*)\]`)
	pagesNode = regexp.MustCompile(`/Type\s*/Pages\b`)
	imageRe   = regexp.MustCompile(`/Subtype\s*/Image`)
	lengthRe  = regexp.MustCompile(`/Length\s+(\d+)(\s+0\s+R)?`)
)

type pdfObjects map[int][]byte

func parseObjects(pdf []byte) pdfObjects {
	objs := pdfObjects{}
	for _, m := range objHeader.FindAllSubmatchIndex(pdf, -1) {
		num, _ := strconv.Atoi(string(pdf[m[2]:m[3]]))
		body := pdf[m[1]:]
		if end := bytes.Index(body, []byte("endobj")); end >= 0 {
			body = body[:end]
		}
		objs[num] = body
	}
	return objs
}

// dict returns the object text before any stream data.
func (o pdfObjects) dict(num int) []byte {
	body := o[num]
	if i := bytes.Index(body, []byte("stream")); i >= 0 {
		return body[:i]
	}
	return body
}

func refs(b []byte) []int {
	var out []int
	for _, m := range refRe.FindAllSubmatch(b, -1) {
		n, _ := strconv.Atoi(string(m[1]))
		out = append(out, n)
	}
	return out
}

// pageColors returns the colour at the centre of the first image drawn on
// each page, in page tree order.
func pageColors(pdf []byte) ([]color.RGBA, error) {
	objs := parseObjects(pdf)

	root := -1
	for num := range objs {
		d := objs.dict(num)
		if catalogRe.Match(d) {
			if m := rootPages.FindSubmatch(d); m != nil {
				root, _ = strconv.Atoi(string(m[1]))
			}
		}
	}
	if root < 0 {
		return nil, fmt.Errorf("no page tree")
	}

	var leaves []int
	var walk func(int)
	walk = func(num int) {
		d := objs.dict(num)
		if !pagesNode.Match(d) {
			leaves = append(leaves, num)
			return
		}
		if m := kidsRe.FindSubmatch(d); m != nil {
			for _, kid := range refs(m[1]) {
				walk(kid)
			}
		}
	}
	walk(root)

	out := make([]color.RGBA, 0, len(leaves))
	for i, page := range leaves {
		img := objs.firstImage(page)
		if img < 0 {
			return nil, fmt.Errorf("page %d draws no image", i+1)
		}
		c, err := objs.imageColor(img)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// firstImage searches the objects reachable from page, breadth first, for
// an image XObject.
func (o pdfObjects) firstImage(page int) int {
	seen := map[int]bool{page: true}
	queue := []int{page}
	for len(queue) > 0 {
		num := queue[0]
		queue = queue[1:]
		d := parentRe.ReplaceAll(o.dict(num), nil)
		if num != page && imageRe.Match(d) {
			return num
		}
		for _, r := range refs(d) {
			if !seen[r] {
				seen[r] = true
				queue = append(queue, r)
			}
		}
	}
	return -1
}

func (o pdfObjects) streamData(num int) ([]byte, error) {
	d := o.dict(num)
	m := lengthRe.FindSubmatch(d)
	if m == nil {
		return nil, fmt.Errorf("object %d has no /Length", num)
	}
	n, _ := strconv.Atoi(string(m[1]))
	if len(m[2]) > 0 {
		n, _ = strconv.Atoi(string(bytes.TrimSpace(o[n])))
	}

	body := o[num][len(d)+len("stream"):]
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))
	if n > len(body) {
		return nil, fmt.Errorf("object %d stream is truncated", num)
	}
	return body[:n], nil
}

func (o pdfObjects) imageColor(num int) (color.RGBA, error) {
	d := o.dict(num)
	data, err := o.streamData(num)
	if err != nil {
		return color.RGBA{}, err
	}

	switch {
	case bytes.Contains(d, []byte("/DCTDecode")):
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return color.RGBA{}, err
		}
		b := img.Bounds()
		r, g, bl, _ := img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).RGBA()
		return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 255}, nil
	case bytes.Contains(d, []byte("/FlateDecode")):
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return color.RGBA{}, err
		}
		defer zr.Close()
		// PNG predictors prefix each row with a filter byte; the first
		// pixel of a row is stored unchanged by every filter type.
		skip := 0
		if bytes.Contains(d, []byte("/Predictor")) {
			skip = 1
		}
		px := make([]byte, skip+3)
		if _, err := io.ReadFull(zr, px); err != nil {
			return color.RGBA{}, err
		}
		return color.RGBA{R: px[skip], G: px[skip+1], B: px[skip+2], A: 255}, nil
	}
	return color.RGBA{}, fmt.Errorf("object %d uses an unsupported image filter", num)
}
