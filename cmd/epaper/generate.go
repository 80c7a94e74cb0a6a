package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alnah/go-epaper"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/fileutil"
	"github.com/alnah/go-epaper/internal/hints"
)

// runGenerate composes one edition and delivers it according to --mode.
func runGenerate(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseGenerateFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	mode, err := epaper.ParseMode(flags.mode)
	if err != nil {
		return err
	}
	cfg, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	if flags.timeout != "" {
		cfg.Render.Timeout = flags.timeout
		if _, err := cfg.Render.TimeoutDuration(); err != nil {
			return err
		}
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	day, err := dateutil.ParseEditionDate(flags.date, env.Now(), loc)
	if err != nil {
		return err
	}

	req := epaper.Request{
		Date:        day,
		CategoryIDs: flags.categories,
		Limit:       flags.limit,
	}
	if len(req.CategoryIDs) == 0 {
		req.CategoryIDs = cfg.Edition.Categories
	}
	if req.Limit == 0 {
		req.Limit = cfg.Edition.Limit
	}

	sess, err := openSession(cfg, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	res, genErr := sess.gen.Generate(ctx, req, mode)
	if genErr != nil {
		if res != nil && len(res.PDF) > 0 && !errors.Is(genErr, epaper.ErrDuplicateEdition) {
			// Publishing failed after rendering: keep the PDF for the operator.
			path := outputPath(flags.output, res.Filename)
			if err := writeOutput(path, res.PDF, env.Stdout); err == nil && path != "-" {
				fmt.Fprintf(env.Stderr, "publish failed; PDF saved to %s\n", path)
			}
		}
		if errors.Is(genErr, epaper.ErrEmptySelection) {
			return fmt.Errorf("%w%s", genErr, hints.ForEmptySelection(len(req.CategoryIDs) > 0))
		}
		return genErr
	}

	switch mode {
	case epaper.ModePreview:
		path := flags.output
		if path == "" {
			path = "-"
		}
		return writeOutput(path, res.Markup, env.Stdout)
	case epaper.ModeDownload:
		path := outputPath(flags.output, res.Filename)
		if err := writeOutput(path, res.PDF, env.Stdout); err != nil {
			return err
		}
		if path != "-" {
			fmt.Fprintf(env.Stdout, "%s (%d pages)\n", path, res.Pages)
		}
	case epaper.ModePublish:
		if flags.output != "" {
			if err := writeOutput(flags.output, res.PDF, env.Stdout); err != nil {
				return err
			}
		}
		if flags.output != "-" {
			fmt.Fprintf(env.Stdout, "published %s %s (%d pages)\n",
				res.Entry.PublishDate.Format(dateutil.ISOLayout), res.Entry.PDFRef, res.Pages)
		}
	}
	return nil
}

// outputPath picks the explicit output or the suggested file name.
func outputPath(explicit, suggested string) string {
	if explicit != "" {
		return explicit
	}
	return fileutil.SanitizeFilename(suggested, "epaper.pdf")
}

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
		return nil
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	return nil
}
