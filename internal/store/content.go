package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alnah/go-epaper/internal/content"
)

// timeLayout is fixed-width UTC so that stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Settings keys for branding.
const (
	SettingSiteName        = "site_name"
	SettingLogoURL         = "logo_url"
	SettingSiteDescription = "site_description"
)

// Compile-time interface check.
var _ content.Source = (*Store)(nil)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// joinList stores an ordered list as ",a,b," so single items match with instr.
func joinList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "," + strings.Join(items, ",") + ","
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const articleColumns = `id, title, body, body_format, excerpt, image_url, image_credit, image_caption, tags, category_ids, status, published_at, view_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (content.Article, error) {
	var (
		a                            content.Article
		imgURL, imgCredit, imgCap    string
		tags, categoryIDs, published string
	)
	err := row.Scan(&a.ID, &a.Title, &a.Body, &a.BodyFormat, &a.Excerpt,
		&imgURL, &imgCredit, &imgCap, &tags, &categoryIDs, &a.Status, &published, &a.ViewCount)
	if err != nil {
		return a, err
	}
	if imgURL != "" {
		a.Image = &content.Image{URL: imgURL, Credit: imgCredit, Caption: imgCap}
	}
	a.Tags = splitList(tags)
	a.CategoryIDs = splitList(categoryIDs)
	if a.PublishedAt, err = parseTime(published); err != nil {
		return a, fmt.Errorf("article %s: bad published_at %q: %w", a.ID, published, err)
	}
	return a, nil
}

// ArticlesForDay returns published articles whose publish time falls in the
// calendar day of day, most recent first. Category ids are matched against
// any of the article's categories.
func (s *Store) ArticlesForDay(ctx context.Context, day time.Time, categoryIDs []string) ([]content.Article, error) {
	start, end := content.DayBounds(day)

	query := `SELECT ` + articleColumns + ` FROM articles
		WHERE status = ? AND published_at >= ? AND published_at < ?`
	args := []any{content.StatusPublished, formatTime(start), formatTime(end)}

	if len(categoryIDs) > 0 {
		clauses := make([]string, len(categoryIDs))
		for i, id := range categoryIDs {
			clauses[i] = `instr(category_ids, ?) > 0`
			args = append(args, ","+id+",")
		}
		query += ` AND (` + strings.Join(clauses, " OR ") + `)`
	}
	query += ` ORDER BY published_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []content.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachImages(ctx, articles); err != nil {
		return nil, err
	}
	s.log.Debug().Time("day", start).Int("articles", len(articles)).Msg("articles loaded")
	return articles, nil
}

// attachImages loads secondary images for articles in display order.
func (s *Store) attachImages(ctx context.Context, articles []content.Article) error {
	if len(articles) == 0 {
		return nil
	}
	index := make(map[string]int, len(articles))
	placeholders := make([]string, len(articles))
	args := make([]any, len(articles))
	for i, a := range articles {
		index[a.ID] = i
		placeholders[i] = "?"
		args[i] = a.ID
	}

	rows, err := s.db.QueryContext(ctx, `SELECT article_id, url, credit, caption FROM article_images
		WHERE article_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY article_id, position`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var img content.Image
		if err := rows.Scan(&id, &img.URL, &img.Credit, &img.Caption); err != nil {
			return err
		}
		i := index[id]
		articles[i].Images = append(articles[i].Images, img)
	}
	return rows.Err()
}

// Article returns one article with its images.
func (s *Store) Article(ctx context.Context, id string) (*content.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	list := []content.Article{a}
	if err := s.attachImages(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// SaveArticle inserts or replaces an article and its images.
func (s *Store) SaveArticle(ctx context.Context, a content.Article) error {
	if a.ID == "" {
		return errors.New("article id is required")
	}
	format := a.BodyFormat
	if format == "" {
		format = content.FormatHTML
	}
	var img content.Image
	if a.Image != nil {
		img = *a.Image
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO articles (`+articleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, body=excluded.body, body_format=excluded.body_format,
			excerpt=excluded.excerpt, image_url=excluded.image_url, image_credit=excluded.image_credit,
			image_caption=excluded.image_caption, tags=excluded.tags, category_ids=excluded.category_ids,
			status=excluded.status, published_at=excluded.published_at, view_count=excluded.view_count`,
		a.ID, a.Title, a.Body, format, a.Excerpt, img.URL, img.Credit, img.Caption,
		joinList(a.Tags), joinList(a.CategoryIDs), a.Status, formatTime(a.PublishedAt), a.ViewCount)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM article_images WHERE article_id = ?`, a.ID); err != nil {
		return err
	}
	for i, im := range a.Images {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_images (article_id, position, url, credit, caption) VALUES (?, ?, ?, ?, ?)`,
			a.ID, i, im.URL, im.Credit, im.Caption); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Categories returns all categories ordered by name.
func (s *Store) Categories(ctx context.Context) ([]content.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []content.Category
	for rows.Next() {
		var c content.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCategory inserts or replaces a category.
func (s *Store) SaveCategory(ctx context.Context, c content.Category) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name, slug) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, slug=excluded.slug`, c.ID, c.Name, c.Slug)
	return err
}

// Branding reads the site identity from settings. Missing keys are empty.
func (s *Store) Branding(ctx context.Context) (content.Branding, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings WHERE key IN (?, ?, ?)`,
		SettingSiteName, SettingLogoURL, SettingSiteDescription)
	if err != nil {
		return content.Branding{}, err
	}
	defer rows.Close()

	var b content.Branding
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return content.Branding{}, err
		}
		switch key {
		case SettingSiteName:
			b.SiteName = value
		case SettingLogoURL:
			b.LogoURL = value
		case SettingSiteDescription:
			b.Description = value
		}
	}
	return b, rows.Err()
}

// SetSetting stores a settings value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}
