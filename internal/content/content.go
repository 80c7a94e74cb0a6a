// Package content selects and groups the articles that make up one edition.
//
// The package owns no storage. Articles, categories and branding are read
// through a Source and are never retained beyond a single Aggregate call.
package content

import (
	"context"
	"time"
)

// Article statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Body formats.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// UncategorizedID is the bucket for articles that carry no category id.
const UncategorizedID = "uncategorized"

// Image is a picture attached to an article.
type Image struct {
	URL     string
	Credit  string // optional
	Caption string // optional
}

// Article is a read-only view of a stored article.
// Body is pre-sanitized rich text and is never re-validated here.
type Article struct {
	ID          string
	Title       string
	Body        string
	BodyFormat  string // "html" (default) or "markdown"
	Excerpt     string
	Image       *Image  // lead image, optional
	Images      []Image // secondary images in display order
	Tags        []string
	CategoryIDs []string // first id is the primary category
	Status      string
	PublishedAt time.Time
	ViewCount   int
}

// PrimaryCategory returns the first category id, or UncategorizedID.
func (a *Article) PrimaryCategory() string {
	if len(a.CategoryIDs) == 0 || a.CategoryIDs[0] == "" {
		return UncategorizedID
	}
	return a.CategoryIDs[0]
}

// Category labels a group of articles. No hierarchy is consulted.
type Category struct {
	ID   string
	Name string
	Slug string
}

// Branding holds the site identity printed in headers and footers.
type Branding struct {
	SiteName    string
	LogoURL     string // optional
	Description string // optional
}

// Source is the read side of the content store.
type Source interface {
	// ArticlesForDay returns candidate articles published on day.
	// An empty categoryIDs means all categories. Implementations may
	// over-select; Aggregate re-applies every rule.
	ArticlesForDay(ctx context.Context, day time.Time, categoryIDs []string) ([]Article, error)
	Categories(ctx context.Context) ([]Category, error)
	Branding(ctx context.Context) (Branding, error)
}
