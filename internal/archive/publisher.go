package archive

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-epaper/internal/fileutil"
)

// Content types of stored objects.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
)

// maxVersions bounds the search for a free versioned key.
const maxVersions = 100

// Metadata describes the edition being published.
type Metadata struct {
	Date  time.Time
	Title string
	// Cover is the first rasterized page; a thumbnail is stored when set.
	Cover image.Image
}

// Download is an edition handed to the operator without persisting it.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Publisher writes editions to the object and record stores.
type Publisher struct {
	objects ObjectStore
	records RecordStore
	policy  DuplicatePolicy
	thumbW  int
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithPolicy sets the duplicate policy.
func WithPolicy(p DuplicatePolicy) Option {
	return func(pub *Publisher) { pub.policy = p }
}

// WithThumbnailWidth sets the thumbnail width in pixels. Zero disables thumbnails.
func WithThumbnailWidth(w int) Option {
	return func(pub *Publisher) { pub.thumbW = w }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(pub *Publisher) { pub.log = log }
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(pub *Publisher) { pub.now = now }
}

// NewPublisher creates a Publisher with the version policy and 300px thumbnails.
func NewPublisher(objects ObjectStore, records RecordStore, opts ...Option) *Publisher {
	p := &Publisher{
		objects: objects,
		records: records,
		policy:  PolicyVersion,
		thumbW:  DefaultThumbnailWidth,
		log:     zerolog.Nop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PersistAndPublish uploads pdf and then inserts one published archive entry.
//
// An upload failure leaves no record. A record failure after a successful
// upload returns ErrRecordWrite and leaves the uploaded object in place.
func (p *Publisher) PersistAndPublish(ctx context.Context, pdf []byte, meta Metadata) (*Entry, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}
	day := Day(meta.Date)
	log := p.log.With().Str("date", day.Format(DateLayout)).Logger()

	version, err := p.resolveVersion(ctx, day)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(day, version)
	pdfRef, err := p.objects.Put(ctx, key, pdf, ContentTypePDF)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("edition upload failed")
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	entry := Entry{
		ID:          p.newID(),
		Title:       meta.Title,
		PublishDate: day,
		PDFRef:      pdfRef,
		Status:      StatusPublished,
		CreatedAt:   p.now().UTC(),
	}
	if entry.Title == "" {
		entry.Title = "Edition of " + day.Format(DateLayout)
	}
	entry.ThumbnailRef = p.storeThumbnail(ctx, log, meta.Cover, ThumbnailKey(day, version))

	if err := p.records.InsertEntry(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("orphan", pdfRef).
			Str("orphan_thumbnail", entry.ThumbnailRef).
			Msg("archive record write failed; stored objects left behind")
		return nil, fmt.Errorf("%w: %v", ErrRecordWrite, err)
	}

	log.Info().Str("id", entry.ID).Str("ref", pdfRef).Int("version", version).Msg("edition published")
	return &entry, nil
}

// CheckDuplicate reports whether an edition for day may be published under
// the current policy. It returns ErrDuplicateEdition when the reject policy
// forbids it, so callers can refuse before rendering. PersistAndPublish
// applies the same check again when storing.
func (p *Publisher) CheckDuplicate(ctx context.Context, day time.Time) error {
	if p.policy != PolicyReject {
		return nil
	}
	day = Day(day)
	existing, err := p.records.EntriesForDate(ctx, day)
	if err != nil {
		return fmt.Errorf("%w: checking existing editions: %v", ErrRecordWrite, err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateEdition, day.Format(DateLayout))
	}
	return nil
}

// resolveVersion applies the duplicate policy and returns the key version.
func (p *Publisher) resolveVersion(ctx context.Context, day time.Time) (int, error) {
	switch p.policy {
	case PolicyReject:
		if err := p.CheckDuplicate(ctx, day); err != nil {
			return 0, err
		}
		return 1, nil
	case PolicyOverwrite:
		return 1, nil
	}

	existing, err := p.records.EntriesForDate(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("%w: checking existing editions: %v", ErrRecordWrite, err)
	}

	// Orphaned uploads without a record also occupy a key.
	for v := len(existing) + 1; v <= maxVersions; v++ {
		taken, err := p.objects.Exists(ctx, ObjectKey(day, v))
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUpload, err)
		}
		if !taken {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: more than %d versions for %s", ErrDuplicateEdition, maxVersions, day.Format(DateLayout))
}

// storeThumbnail uploads a cover thumbnail. Failures only cost the thumbnail.
func (p *Publisher) storeThumbnail(ctx context.Context, log zerolog.Logger, cover image.Image, key string) string {
	if cover == nil || p.thumbW <= 0 {
		return ""
	}
	data, err := Thumbnail(cover, p.thumbW)
	if err != nil {
		log.Warn().Err(err).Msg("thumbnail encoding failed")
		return ""
	}
	ref, err := p.objects.Put(ctx, key, data, ContentTypeJPEG)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("thumbnail upload failed")
		return ""
	}
	return ref
}

// DownloadOnly hands pdf back under a safe file name. Nothing is stored.
func (p *Publisher) DownloadOnly(pdf []byte, filename string) (*Download, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}
	return &Download{
		Filename:    fileutil.SanitizeFilename(filename, "epaper.pdf"),
		ContentType: ContentTypePDF,
		Data:        pdf,
	}, nil
}

// List returns the most recent archive entries.
func (p *Publisher) List(ctx context.Context, limit int) ([]Entry, error) {
	return p.records.ListEntries(ctx, limit)
}
