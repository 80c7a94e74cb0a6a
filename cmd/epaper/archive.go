package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/alnah/go-epaper/internal/archive"
)

// archiveEntry is the JSON shape printed by "archive --json".
type archiveEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PublishDate string `json:"publish_date"`
	PDF         string `json:"pdf"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Status      string `json:"status"`
}

// runArchive lists the most recent archive entries.
func runArchive(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseArchiveFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, env.Stderr)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	pub, err := newPublisher(cfg, st, log)
	if err != nil {
		return err
	}
	entries, err := pub.List(ctx, flags.limit)
	if err != nil {
		return err
	}

	if flags.json {
		out := make([]archiveEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, archiveEntry{
				ID:          e.ID,
				Title:       e.Title,
				PublishDate: e.PublishDate.Format(archive.DateLayout),
				PDF:         e.PDFRef,
				Thumbnail:   e.ThumbnailRef,
				Status:      string(e.Status),
			})
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(entries) == 0 {
		fmt.Fprintln(env.Stdout, "no published editions")
		return nil
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tPDF\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.PublishDate.Format(archive.DateLayout), e.Title, e.PDFRef, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
