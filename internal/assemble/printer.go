package assemble

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-epaper/internal/browser"
)

// A4 paper in inches, as Chrome expects it.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// RodPrinter prints through headless Chrome.
type RodPrinter struct {
	browser *browser.Browser
}

// Compile-time interface check.
var _ Printer = (*RodPrinter)(nil)

// NewRodPrinter creates a printer sharing b.
func NewRodPrinter(b *browser.Browser) *RodPrinter {
	return &RodPrinter{browser: b}
}

// PrintPDF loads markup in a fresh tab and prints it edge to edge.
func (p *RodPrinter) PrintPDF(ctx context.Context, markup []byte) ([]byte, error) {
	page, err := p.browser.Open(ctx, markup)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	reader, err := page.Context(ctx).PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(paperWidthInches),
		PaperHeight:       floatPtr(paperHeightInches),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("printing: %v", err)
	}

	pdf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %v", err)
	}
	return pdf, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
