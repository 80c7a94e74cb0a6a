package layout

import (
	"fmt"
	"strings"

	"github.com/alnah/go-epaper/internal/content"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/interleave"
	"github.com/alnah/go-epaper/internal/richtext"
)

// Character budgets per slot.
const (
	HeadlineBudget      = 70
	FrontLeadBudget     = 800
	SecondaryBudget     = 150
	SidebarBudget       = 80
	CategoryLeadBudget  = 600
	CategoryGridBudget  = 100
	headlineCount       = 4
	secondaryCount      = 3
	sidebarCount        = 5
	categoryGridCount   = 7
	frontLeadMedia      = 2
	categoryLeadMedia   = 1
	defaultCategoryPage = 4
)

// Fallback text for missing optional fields.
const (
	DefaultSiteName   = "Daily Edition"
	UntitledText      = "Untitled"
	UncategorizedName = "Uncategorized"
	SidebarTitle      = "More news"
)

// Options tune composition. The zero value is usable.
type Options struct {
	// DateFormat is a dateutil format or preset for masthead and footers.
	DateFormat string
	// SiteFallback replaces an empty site name.
	SiteFallback string
	// MaxCategoryPages caps the number of category pages.
	MaxCategoryPages int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DateFormat:       dateutil.DefaultDateFormat,
		SiteFallback:     DefaultSiteName,
		MaxCategoryPages: defaultCategoryPage,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DateFormat == "" {
		o.DateFormat = d.DateFormat
	}
	if o.SiteFallback == "" {
		o.SiteFallback = d.SiteFallback
	}
	if o.MaxCategoryPages <= 0 {
		o.MaxCategoryPages = d.MaxCategoryPages
	}
	return o
}

// Compose lays out sel as a front page followed by one page per category
// group, in group order, up to MaxCategoryPages.
func Compose(sel *content.Selection, categories []content.Category, branding content.Branding, opts Options) (*Document, error) {
	if err := checkSelection(sel); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	label, err := dateutil.Format(sel.Date, opts.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompositionDefect, err)
	}
	if strings.TrimSpace(branding.SiteName) == "" {
		branding.SiteName = opts.SiteFallback
	}

	c := composer{
		names:    categoryNames(categories),
		branding: branding,
		label:    label,
	}

	doc := &Document{
		Date:      sel.Date,
		DateLabel: label,
		Branding:  branding,
	}
	doc.Pages = append(doc.Pages, c.front(sel.Articles))

	for _, g := range sel.Groups {
		if len(doc.Pages)-1 == opts.MaxCategoryPages {
			break
		}
		if len(g.Articles) == 0 {
			continue
		}
		doc.Pages = append(doc.Pages, c.category(g, len(doc.Pages)+1))
	}
	return doc, nil
}

func checkSelection(sel *content.Selection) error {
	if sel == nil || len(sel.Articles) == 0 {
		return fmt.Errorf("%w: empty selection", ErrCompositionDefect)
	}
	if sel.Date.IsZero() {
		return fmt.Errorf("%w: selection has no date", ErrCompositionDefect)
	}
	for i, a := range sel.Articles {
		if a.ID == "" {
			return fmt.Errorf("%w: article %d has no id", ErrCompositionDefect, i)
		}
		if a.PublishedAt.IsZero() {
			return fmt.Errorf("%w: article %s has no publish time", ErrCompositionDefect, a.ID)
		}
	}
	return nil
}

func categoryNames(categories []content.Category) map[string]string {
	m := make(map[string]string, len(categories))
	for _, c := range categories {
		if c.Name != "" {
			m[c.ID] = c.Name
		}
	}
	return m
}

type composer struct {
	names    map[string]string
	branding content.Branding
	label    string
}

func (c *composer) categoryName(id string) string {
	if name, ok := c.names[id]; ok {
		return name
	}
	if id == content.UncategorizedID || id == "" {
		return UncategorizedName
	}
	return id
}

func (c *composer) footer(n int) Footer {
	return Footer{SiteName: c.branding.SiteName, Date: c.label, PageNumber: n}
}

func (c *composer) front(articles []content.Article) Page {
	page := Page{Kind: PageFront, Number: 1, Footer: c.footer(1)}

	page.Blocks = append(page.Blocks, Block{
		Kind:     BlockMasthead,
		Title:    c.branding.SiteName,
		Subtitle: c.branding.Description,
		LogoURL:  c.branding.LogoURL,
		Date:     c.label,
	})

	headlines := Block{Kind: BlockHeadlines}
	for _, a := range window(articles, 0, headlineCount) {
		headlines.Items = append(headlines.Items, Item{
			ArticleID: a.ID,
			Title:     richtext.Truncate(title(a), HeadlineBudget),
			Category:  c.categoryName(a.PrimaryCategory()),
		})
	}
	page.Blocks = append(page.Blocks, headlines)

	page.Blocks = append(page.Blocks, Block{
		Kind:  BlockLead,
		Items: []Item{c.lead(articles[0], FrontLeadBudget, frontLeadMedia)},
	})

	if rest := window(articles, 1, secondaryCount); len(rest) > 0 {
		b := Block{Kind: BlockSecondary}
		for _, a := range rest {
			b.Items = append(b.Items, c.brief(a, SecondaryBudget))
		}
		page.Blocks = append(page.Blocks, b)
	}

	if rest := window(articles, 1+secondaryCount, sidebarCount); len(rest) > 0 {
		b := Block{Kind: BlockSidebar, Title: SidebarTitle}
		for _, a := range rest {
			b.Items = append(b.Items, c.brief(a, SidebarBudget))
		}
		page.Blocks = append(page.Blocks, b)
	}
	return page
}

func (c *composer) category(g content.Group, number int) Page {
	page := Page{Kind: PageCategory, Number: number, Footer: c.footer(number)}
	page.Blocks = append(page.Blocks,
		Block{Kind: BlockCategoryHeader, Title: c.categoryName(g.CategoryID)},
		Block{Kind: BlockLead, Items: []Item{c.lead(g.Articles[0], CategoryLeadBudget, categoryLeadMedia)}},
	)

	if rest := window(g.Articles, 1, categoryGridCount); len(rest) > 0 {
		b := Block{Kind: BlockCategoryGrid}
		for _, a := range rest {
			b.Items = append(b.Items, c.brief(a, CategoryGridBudget))
		}
		page.Blocks = append(page.Blocks, b)
	}
	return page
}

// lead builds the full-detail item: lead image or placeholder, and a body
// cut to budget with up to maxMedia secondary images interleaved.
func (c *composer) lead(a content.Article, budget, maxMedia int) Item {
	it := Item{
		ArticleID: a.ID,
		Title:     title(a),
		Category:  c.categoryName(a.PrimaryCategory()),
	}
	if a.Image != nil && a.Image.URL != "" {
		it.Image = figure(*a.Image)
	} else {
		it.Placeholder = true
	}

	paragraphs := richtext.Paragraphs(richtext.BodyHTML(a.Body, a.BodyFormat))
	if len(paragraphs) == 0 && a.Excerpt != "" {
		paragraphs = []string{richtext.Strip(a.Excerpt)}
	}
	blocks := interleave.TextBlocks(fitParagraphs(paragraphs, budget))

	images := a.Images
	if len(images) > maxMedia {
		images = images[:maxMedia]
	}
	it.Body = segments(interleave.Interleave(blocks, media(images)))
	return it
}

// brief builds an abbreviated item with a snippet of at most budget runes.
func (c *composer) brief(a content.Article, budget int) Item {
	return Item{
		ArticleID: a.ID,
		Title:     title(a),
		Category:  c.categoryName(a.PrimaryCategory()),
		Text:      richtext.Truncate(snippetSource(a), budget),
	}
}

// snippetSource prefers the excerpt and falls back to the body.
func snippetSource(a content.Article) string {
	if s := richtext.Strip(a.Excerpt); s != "" {
		return s
	}
	return richtext.Strip(richtext.BodyHTML(a.Body, a.BodyFormat))
}

// fitParagraphs keeps whole paragraphs while they fit in budget and cuts the
// first one that does not. Paragraph separators are not counted.
func fitParagraphs(paragraphs []string, budget int) []string {
	var out []string
	left := budget
	for _, p := range paragraphs {
		if left <= 0 {
			break
		}
		cut := richtext.Truncate(p, left)
		if cut == "" {
			break
		}
		out = append(out, cut)
		if cut != p {
			break
		}
		left -= len([]rune(cut))
	}
	return out
}

func title(a content.Article) string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return UntitledText
}

func window(articles []content.Article, from, n int) []content.Article {
	if from >= len(articles) {
		return nil
	}
	to := from + n
	if to > len(articles) {
		to = len(articles)
	}
	return articles[from:to]
}

func figure(img content.Image) *Figure {
	return &Figure{URL: img.URL, Credit: img.Credit, Caption: img.Caption}
}

func media(images []content.Image) []interleave.Media {
	out := make([]interleave.Media, 0, len(images))
	for _, img := range images {
		if img.URL == "" {
			continue
		}
		out = append(out, interleave.Media{URL: img.URL, Credit: img.Credit, Caption: img.Caption})
	}
	return out
}

func segments(blocks []interleave.Block) []Segment {
	out := make([]Segment, 0, len(blocks))
	for _, b := range blocks {
		switch b.Kind {
		case interleave.KindMedia:
			out = append(out, Segment{Media: &Figure{URL: b.Media.URL, Credit: b.Media.Credit, Caption: b.Media.Caption}})
		default:
			out = append(out, Segment{Text: b.Text})
		}
	}
	return out
}
