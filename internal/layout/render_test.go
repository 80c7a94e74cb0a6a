package layout

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/content"
)

// mockLoader serves fixed assets and records nothing.
type mockLoader struct {
	styles    map[string]string
	templates map[string]string
}

func (m *mockLoader) LoadStyle(name string) (string, error) {
	if s, ok := m.styles[name]; ok {
		return s, nil
	}
	return "", assets.ErrStyleNotFound
}

func (m *mockLoader) LoadTemplate(name string) (string, error) {
	if s, ok := m.templates[name]; ok {
		return s, nil
	}
	return "", assets.ErrTemplateNotFound
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(assets.NewEmbeddedLoader(), "")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderer_Edition(t *testing.T) {
	t.Parallel()

	sel := selection(t, 12, "sport", "politics", "culture")
	sel.Articles[0].Title = `Rates <rise> & markets fall`
	sel.Articles[0].Image = &content.Image{URL: "https://cdn.example.com/lead.jpg", Credit: "Reuters"}
	sel.Groups[0].Articles[0] = sel.Articles[0]

	doc, err := Compose(sel, nil, content.Branding{SiteName: "The Courier"}, Options{})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	out, err := newTestRenderer(t).Edition(doc)
	if err != nil {
		t.Fatalf("Edition: %v", err)
	}
	html := string(out)

	for _, n := range doc.PageNumbers() {
		marker := `id="page-` + strconv.Itoa(n) + `"`
		if strings.Count(html, marker) != 1 {
			t.Errorf("expected exactly one %s", marker)
		}
	}
	if strings.Count(html, `class="sheet `) != len(doc.Pages) {
		t.Errorf("expected %d sheets", len(doc.Pages))
	}

	wants := []string{
		"<title>The Courier · Friday, October 16, 2026</title>",
		"Rates &lt;rise&gt; &amp; markets fall",
		`src="https://cdn.example.com/lead.jpg"`,
		"Reuters",
		"No image",
		"Page 4",
		"@page",
	}
	for _, w := range wants {
		if !strings.Contains(html, w) {
			t.Errorf("edition markup missing %q", w)
		}
	}
	if strings.Contains(html, "<rise>") {
		t.Error("article text must be escaped")
	}
}

func TestRenderer_EditionRejectsEmptyDocument(t *testing.T) {
	t.Parallel()

	r := newTestRenderer(t)
	if _, err := r.Edition(nil); !errors.Is(err, ErrRender) {
		t.Errorf("nil document: got %v", err)
	}
	if _, err := r.Edition(&Document{}); !errors.Is(err, ErrRender) {
		t.Errorf("empty document: got %v", err)
	}
}

func TestNewRenderer_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		loader *mockLoader
	}{
		{
			name:   "missing style",
			loader: &mockLoader{},
		},
		{
			name: "missing article template",
			loader: &mockLoader{
				styles:    map[string]string{"newspaper": "body{}"},
				templates: map[string]string{"edition": "<p></p>"},
			},
		},
		{
			name: "broken template",
			loader: &mockLoader{
				styles:    map[string]string{"newspaper": "body{}"},
				templates: map[string]string{"edition": "{{.Title", "article": ""},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRenderer(tt.loader, ""); !errors.Is(err, ErrRender) {
				t.Errorf("expected ErrRender, got %v", err)
			}
		})
	}
}

func TestComposeArticle(t *testing.T) {
	t.Parallel()

	a := content.Article{
		ID:          "a1",
		Title:       "Harbour reopens",
		Body:        "<p>One.</p><p>Two.</p><p>Three.</p><p>Four.</p><p>Five.</p>",
		Excerpt:     "<em>Short</em> summary",
		Image:       &content.Image{URL: "lead.jpg"},
		Images:      []content.Image{{URL: "1.jpg"}, {URL: "2.jpg"}, {URL: "3.jpg", Caption: "Dock"}},
		Tags:        []string{"port", "economy"},
		CategoryIDs: []string{"local"},
		PublishedAt: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
	v := ComposeArticle(a, []content.Category{{ID: "local", Name: "Local"}}, content.Branding{}, Options{DateFormat: "iso"})

	if v.Category != "Local" || v.Published != "2026-10-16" || v.SiteName != DefaultSiteName {
		t.Errorf("view header = %+v", v)
	}
	if v.Excerpt != "Short summary" {
		t.Errorf("excerpt = %q", v.Excerpt)
	}

	var shape strings.Builder
	for _, s := range v.Body {
		if s.Media != nil {
			shape.WriteByte('M')
		} else {
			shape.WriteByte('T')
		}
	}
	// T=5, M=3: stride 2, media after the 2nd and 4th paragraph, one appended.
	if got := shape.String(); got != "TTMTTMTM" {
		t.Errorf("body shape = %s, want TTMTTMTM", got)
	}

	out, err := newTestRenderer(t).Article(v)
	if err != nil {
		t.Fatalf("Article: %v", err)
	}
	for _, w := range []string{"Harbour reopens", "#port, #economy", "Dock", `src="3.jpg"`} {
		if !strings.Contains(string(out), w) {
			t.Errorf("article markup missing %q", w)
		}
	}
}
