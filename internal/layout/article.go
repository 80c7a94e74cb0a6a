package layout

import (
	"github.com/alnah/go-epaper/internal/content"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/interleave"
	"github.com/alnah/go-epaper/internal/richtext"
)

// ArticleView is the single-article reading view. Unlike edition slots the
// body is not truncated and every secondary image is interleaved.
type ArticleView struct {
	ArticleID string
	Title     string
	SiteName  string
	Category  string
	Published string
	Excerpt   string
	Image     *Figure
	Body      []Segment
	Tags      []string
}

// ComposeArticle builds the reading view for a. It is pure.
func ComposeArticle(a content.Article, categories []content.Category, branding content.Branding, opts Options) ArticleView {
	opts = opts.withDefaults()
	c := composer{names: categoryNames(categories)}

	site := branding.SiteName
	if site == "" {
		site = opts.SiteFallback
	}

	v := ArticleView{
		ArticleID: a.ID,
		Title:     title(a),
		SiteName:  site,
		Category:  c.categoryName(a.PrimaryCategory()),
		Excerpt:   richtext.Strip(a.Excerpt),
		Tags:      a.Tags,
	}
	if !a.PublishedAt.IsZero() {
		// An invalid format only loses the date line.
		v.Published, _ = dateutil.Format(a.PublishedAt, opts.DateFormat)
	}
	if a.Image != nil && a.Image.URL != "" {
		v.Image = figure(*a.Image)
	}

	paragraphs := richtext.Paragraphs(richtext.BodyHTML(a.Body, a.BodyFormat))
	v.Body = segments(interleave.Interleave(interleave.TextBlocks(paragraphs), media(a.Images)))
	return v
}
