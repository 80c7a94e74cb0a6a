// Package assemble binds rasterized pages into one fixed-page-size PDF.
//
// Pages are laid out as full-bleed A4 sheets in a print document, one image
// per sheet in input order, and the document is printed by a Printer.
package assemble

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"image/png"

	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/raster"
)

// Sentinel errors for assembly.
var (
	ErrNoPages  = errors.New("no pages to assemble")
	ErrAssembly = errors.New("PDF assembly failed")
)

// A4 sheet size.
const (
	SheetWidthMM  = 210
	SheetHeightMM = 297
)

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF-")

// Printer prints a print document to PDF.
type Printer interface {
	PrintPDF(ctx context.Context, markup []byte) ([]byte, error)
}

// Assembler turns page images into a PDF.
type Assembler struct {
	printer Printer
	tmpl    *template.Template
	log     zerolog.Logger
}

// New creates an Assembler that prints with printer, using the print
// template from loader.
func New(printer Printer, loader assets.AssetLoader, log zerolog.Logger) (*Assembler, error) {
	src, err := loader.LoadTemplate(assets.PrintTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}
	tmpl, err := template.New(assets.PrintTemplateName).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing print template: %v", ErrAssembly, err)
	}
	return &Assembler{printer: printer, tmpl: tmpl, log: log}, nil
}

// Assemble returns a PDF with exactly one page per image, in input order.
// It either returns the whole document or an error.
func (a *Assembler) Assemble(ctx context.Context, images []raster.Image, title string) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoPages
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := a.PrintDocument(images, title)
	if err != nil {
		return nil, err
	}

	pdf, err := a.printer.PrintPDF(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, fmt.Errorf("%w: printer output is not a PDF", ErrAssembly)
	}

	a.log.Info().Int("pages", len(images)).Int("bytes", len(pdf)).Msg("PDF assembled")
	return pdf, nil
}

type sheet struct {
	Index int
	Src   template.URL
}

type printData struct {
	Title    string
	WidthMM  int
	HeightMM int
	Sheets   []sheet
}

// PrintDocument builds the print markup: one sheet per image, the first
// without a page break before it and every later one on a new page.
func (a *Assembler) PrintDocument(images []raster.Image, title string) ([]byte, error) {
	if len(images) == 0 {
		return nil, ErrNoPages
	}

	data := printData{Title: title, WidthMM: SheetWidthMM, HeightMM: SheetHeightMM}
	for _, img := range images {
		if img.Pixels == nil {
			return nil, fmt.Errorf("%w: page %d has no pixels", ErrAssembly, img.Index)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img.Pixels); err != nil {
			return nil, fmt.Errorf("%w: encoding page %d: %v", ErrAssembly, img.Index, err)
		}
		// Data URIs built here from our own encoder output.
		src := template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
		data.Sheets = append(data.Sheets, sheet{Index: img.Index, Src: src})
	}

	var out bytes.Buffer
	if err := a.tmpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}
	return out.Bytes(), nil
}
