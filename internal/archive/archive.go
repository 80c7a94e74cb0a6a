// Package archive persists finished editions and hands them out for download.
//
// Publishing writes the PDF to an object store and then records exactly one
// archive entry. The two stores are not transactional: when the record write
// fails after a successful upload the object is left behind and logged.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for publishing.
var (
	ErrUpload           = errors.New("uploading edition failed")
	ErrRecordWrite      = errors.New("writing archive record failed")
	ErrDuplicateEdition = errors.New("an edition already exists for this date")
	ErrInvalidPolicy    = errors.New("invalid duplicate policy")
	ErrEmptyDocument    = errors.New("edition PDF is empty")
	ErrObjectNotFound   = errors.New("archive object not found")
	ErrInvalidKey       = errors.New("invalid object key")
)

// Status of an archive entry.
type Status string

// Entry statuses.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// DateLayout formats publish dates in keys and records.
const DateLayout = "2006-01-02"

// Entry is the durable record of one published edition.
type Entry struct {
	ID           string
	Title        string
	PublishDate  time.Time // calendar day, UTC midnight
	PDFRef       string
	ThumbnailRef string // empty when no thumbnail was stored
	Status       Status
	CreatedAt    time.Time
}

// ObjectStore holds edition files.
type ObjectStore interface {
	// Put stores data under key, replacing any existing object, and returns
	// a reference that readers can resolve.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// RecordStore holds archive entries.
type RecordStore interface {
	InsertEntry(ctx context.Context, e Entry) error
	EntriesForDate(ctx context.Context, day time.Time) ([]Entry, error)
	ListEntries(ctx context.Context, limit int) ([]Entry, error)
}

// DuplicatePolicy decides what happens when an edition for the same date
// has already been published.
type DuplicatePolicy string

// Duplicate policies.
const (
	// PolicyVersion stores the new edition under a suffixed key (-v2, -v3...).
	PolicyVersion DuplicatePolicy = "version"
	// PolicyReject refuses to publish a second edition for a date.
	PolicyReject DuplicatePolicy = "reject"
	// PolicyOverwrite replaces the stored object and adds a new record.
	PolicyOverwrite DuplicatePolicy = "overwrite"
)

// ParsePolicy validates a policy name. Empty means PolicyVersion.
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyVersion, nil
	case PolicyVersion, PolicyReject, PolicyOverwrite:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (use version, reject or overwrite)", ErrInvalidPolicy, s)
	}
}

// ObjectKey is the storage key of an edition PDF. Version 1 has no suffix.
func ObjectKey(day time.Time, version int) string {
	return "epaper-" + day.Format(DateLayout) + suffix(version) + ".pdf"
}

// ThumbnailKey is the storage key of an edition's cover thumbnail.
func ThumbnailKey(day time.Time, version int) string {
	return "epaper-" + day.Format(DateLayout) + suffix(version) + "-thumb.jpg"
}

func suffix(version int) string {
	if version <= 1 {
		return ""
	}
	return fmt.Sprintf("-v%d", version)
}

// Day truncates t to its calendar day, keeping the date as seen in t's
// location and expressing it as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
