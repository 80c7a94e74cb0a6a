package layout

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/alnah/go-epaper/internal/assets"
)

// Renderer turns documents and reading views into standalone HTML.
// Templates and the stylesheet are loaded once and reused.
type Renderer struct {
	edition *template.Template
	article *template.Template
	css     template.CSS
}

// NewRenderer loads the edition and article templates and the named
// stylesheet from loader. An empty style uses assets.DefaultStyleName.
func NewRenderer(loader assets.AssetLoader, style string) (*Renderer, error) {
	if style == "" {
		style = assets.DefaultStyleName
	}
	css, err := loader.LoadStyle(style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	edition, err := parse(loader, assets.EditionTemplateName)
	if err != nil {
		return nil, err
	}
	article, err := parse(loader, assets.ArticleTemplateName)
	if err != nil {
		return nil, err
	}
	// Stylesheets are trusted: embedded or from the operator's asset directory.
	return &Renderer{edition: edition, article: article, css: template.CSS(css)}, nil
}

func parse(loader assets.AssetLoader, name string) (*template.Template, error) {
	src, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s template: %v", ErrRender, name, err)
	}
	return tmpl, nil
}

type editionData struct {
	Title string
	CSS   template.CSS
	Pages []Page
}

// Edition renders doc as one HTML document with a section per page.
// Page N is addressable as the element with id "page-N".
func (r *Renderer) Edition(doc *Document) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrRender)
	}
	var buf bytes.Buffer
	err := r.edition.Execute(&buf, editionData{Title: doc.Title(), CSS: r.css, Pages: doc.Pages})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

type articleData struct {
	ArticleView
	CSS template.CSS
}

// Article renders the single-article reading view.
func (r *Renderer) Article(v ArticleView) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.article.Execute(&buf, articleData{ArticleView: v, CSS: r.css}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}
