// Package layout composes a day's selection into a fixed-format, multi-page
// document model and renders that model to printable markup.
//
// Composition is pure: the same selection, categories, branding and options
// always yield the same Document. Rendering only reads embedded or custom
// assets. Neither step touches the network or the content store.
package layout

import (
	"errors"
	"time"

	"github.com/alnah/go-epaper/internal/content"
)

// ErrCompositionDefect indicates the selection cannot be laid out.
var ErrCompositionDefect = errors.New("composition defect")

// ErrRender indicates the document markup could not be produced.
var ErrRender = errors.New("rendering edition markup failed")

// PageKind identifies the role of a page.
type PageKind string

// Page kinds.
const (
	PageFront    PageKind = "front"
	PageCategory PageKind = "category"
)

// BlockKind identifies a block inside a page. The values are the names the
// edition template switches on.
type BlockKind string

// Block kinds.
const (
	BlockMasthead       BlockKind = "masthead"
	BlockHeadlines      BlockKind = "headlines"
	BlockLead           BlockKind = "lead"
	BlockSecondary      BlockKind = "secondary"
	BlockSidebar        BlockKind = "sidebar"
	BlockCategoryHeader BlockKind = "category-header"
	BlockCategoryGrid   BlockKind = "category-grid"
)

// Figure is an image with optional caption and credit.
type Figure struct {
	URL     string
	Credit  string
	Caption string
}

// Segment is one unit of flowing article text: a paragraph or a figure.
type Segment struct {
	Text  string
	Media *Figure
}

// Item is one article as shown inside a block.
type Item struct {
	ArticleID   string
	Title       string
	Category    string
	Text        string    // truncated excerpt or snippet
	Image       *Figure   // lead image, nil when absent
	Placeholder bool      // lead slot without an image
	Body        []Segment // lead body with interleaved media
}

// Block is a region of a page.
type Block struct {
	Kind     BlockKind
	Title    string
	Subtitle string
	LogoURL  string
	Date     string
	Items    []Item
}

// Footer repeats on every page.
type Footer struct {
	SiteName   string
	Date       string
	PageNumber int
}

// Page is one fixed-size sheet of the edition.
type Page struct {
	Kind   PageKind
	Number int
	Blocks []Block
	Footer Footer
}

// Document is the composed edition. It lives for one generation request.
type Document struct {
	Date      time.Time
	DateLabel string
	Branding  content.Branding
	Pages     []Page
}

// PageNumbers returns the page numbers in document order.
func (d *Document) PageNumbers() []int {
	out := make([]int, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Number
	}
	return out
}

// Title is the document title used by the markup and the PDF.
func (d *Document) Title() string {
	return d.Branding.SiteName + " · " + d.DateLabel
}
