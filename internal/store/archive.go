package store

import (
	"context"
	"fmt"
	"time"

	"github.com/alnah/go-epaper/internal/archive"
)

// Compile-time interface check.
var _ archive.RecordStore = (*Store)(nil)

// DefaultListLimit caps ListEntries when no limit is given.
const DefaultListLimit = 50

const entryColumns = `id, title, publish_date, pdf_ref, thumbnail_ref, status, created_at`

// InsertEntry records one archive entry.
func (s *Store) InsertEntry(ctx context.Context, e archive.Entry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO archive_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.PublishDate.Format(archive.DateLayout), e.PDFRef, e.ThumbnailRef,
		string(e.Status), formatTime(e.CreatedAt))
	return err
}

// EntriesForDate returns the entries published for the calendar day of day.
func (s *Store) EntriesForDate(ctx context.Context, day time.Time) ([]archive.Entry, error) {
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM archive_entries
		WHERE publish_date = ? ORDER BY created_at`, archive.Day(day).Format(archive.DateLayout))
}

// ListEntries returns the most recent entries first.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]archive.Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.queryEntries(ctx, `SELECT `+entryColumns+` FROM archive_entries
		ORDER BY publish_date DESC, created_at DESC LIMIT ?`, limit)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]archive.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []archive.Entry
	for rows.Next() {
		var (
			e                 archive.Entry
			date, created, st string
		)
		if err := rows.Scan(&e.ID, &e.Title, &date, &e.PDFRef, &e.ThumbnailRef, &st, &created); err != nil {
			return nil, err
		}
		if e.PublishDate, err = time.Parse(archive.DateLayout, date); err != nil {
			return nil, fmt.Errorf("entry %s: bad publish_date %q: %w", e.ID, date, err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("entry %s: bad created_at %q: %w", e.ID, created, err)
		}
		e.Status = archive.Status(st)
		out = append(out, e)
	}
	return out, rows.Err()
}
