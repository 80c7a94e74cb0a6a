package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Limit bounds for the number of articles in one edition.
const (
	DefaultLimit = 30
	MinLimit     = 5
	MaxLimit     = 100
)

// Sentinel errors for aggregation.
var (
	ErrEmptySelection = errors.New("no qualifying articles for the selected date")
	ErrInvalidLimit   = errors.New("invalid article limit")
	ErrInvalidDate    = errors.New("invalid edition date")
)

// Query selects the content of one edition.
type Query struct {
	Date        time.Time // calendar day; time of day is ignored
	CategoryIDs []string  // empty means all
	Limit       int       // 0 means DefaultLimit
}

// Group is the articles filed under one category, most recent first.
type Group struct {
	CategoryID string
	Articles   []Article
}

// Selection is the result of aggregation.
// Groups are ordered by the first appearance of their category in Articles.
type Selection struct {
	Date     time.Time
	Articles []Article
	Groups   []Group
}

// ByCategory returns the grouping as a map keyed by category id.
func (s *Selection) ByCategory() map[string][]Article {
	m := make(map[string][]Article, len(s.Groups))
	for _, g := range s.Groups {
		m[g.CategoryID] = g.Articles
	}
	return m
}

// NormalizeLimit resolves a zero limit to DefaultLimit and rejects values
// outside [MinLimit, MaxLimit].
func NormalizeLimit(n int) (int, error) {
	if n == 0 {
		return DefaultLimit, nil
	}
	if n < MinLimit || n > MaxLimit {
		return 0, fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidLimit, n, MinLimit, MaxLimit)
	}
	return n, nil
}

// DayBounds returns [start, end) of the calendar day containing t, in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// Aggregate filters candidates down to the published articles of q.Date,
// orders them most recent first, applies the limit and groups them by
// primary category. It has no side effects.
func Aggregate(candidates []Article, q Query) (*Selection, error) {
	if q.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	limit, err := NormalizeLimit(q.Limit)
	if err != nil {
		return nil, err
	}

	start, end := DayBounds(q.Date)
	filter := make(map[string]struct{}, len(q.CategoryIDs))
	for _, id := range q.CategoryIDs {
		filter[id] = struct{}{}
	}

	var picked []Article
	for _, a := range candidates {
		if a.Status != StatusPublished {
			continue
		}
		if a.PublishedAt.Before(start) || !a.PublishedAt.Before(end) {
			continue
		}
		if len(filter) > 0 && !intersects(a.CategoryIDs, filter) {
			continue
		}
		picked = append(picked, a)
	}

	if len(picked) == 0 {
		return nil, ErrEmptySelection
	}

	sort.SliceStable(picked, func(i, j int) bool {
		ti, tj := picked[i].PublishedAt, picked[j].PublishedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return picked[i].ID < picked[j].ID
	})
	if len(picked) > limit {
		picked = picked[:limit]
	}

	return &Selection{
		Date:     start,
		Articles: picked,
		Groups:   group(picked),
	}, nil
}

// group files each article under its primary category, keeping the
// first-seen order of categories.
func group(articles []Article) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, a := range articles {
		id := a.PrimaryCategory()
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{CategoryID: id})
		}
		groups[i].Articles = append(groups[i].Articles, a)
	}
	return groups
}

func intersects(ids []string, set map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// Aggregator reads candidates from a Source and applies Aggregate.
type Aggregator struct {
	source Source
}

// NewAggregator creates an Aggregator over source.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Aggregate runs the selection for q against the source.
func (a *Aggregator) Aggregate(ctx context.Context, q Query) (*Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Date.IsZero() {
		return nil, ErrInvalidDate
	}
	if _, err := NormalizeLimit(q.Limit); err != nil {
		return nil, err
	}

	day, _ := DayBounds(q.Date)
	candidates, err := a.source.ArticlesForDay(ctx, day, q.CategoryIDs)
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}
	return Aggregate(candidates, q)
}
