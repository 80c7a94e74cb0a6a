package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	logLevel  string
	logFormat string
}

// generateFlags holds flags for the generate command.
type generateFlags struct {
	common     commonFlags
	date       string
	categories []string
	limit      int
	mode       string
	output     string
	timeout    string
}

// archiveFlags holds flags for the archive command.
type archiveFlags struct {
	common commonFlags
	limit  int
	json   bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common commonFlags
	addr   string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: json, console")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, stderr io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parse runs fs.Parse and wraps failures with ErrUsage. On --help pflag
// prints the usage itself and flag.ErrHelp stays in the chain.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return nil
}

func parseGenerateFlags(args []string, stderr io.Writer) (*generateFlags, error) {
	f := &generateFlags{}
	fs := newFlagSet("generate", stderr, printGenerateUsage)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.date, "date", "d", "today", "edition date: YYYY-MM-DD, today, yesterday")
	fs.StringSliceVar(&f.categories, "category", nil, "category id filter (repeatable or comma-separated)")
	fs.IntVarP(&f.limit, "limit", "n", 0, "maximum number of articles (0 = config default)")
	fs.StringVarP(&f.mode, "mode", "m", "download", "preview, download or publish")
	fs.StringVarP(&f.output, "output", "o", "", "output file (\"-\" = stdout)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "browser page load timeout (e.g. 90s)")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", ErrUsage, fs.Args())
	}
	return f, nil
}

func parseArchiveFlags(args []string, stderr io.Writer) (*archiveFlags, error) {
	f := &archiveFlags{}
	fs := newFlagSet("archive", stderr, printArchiveUsage)
	addCommonFlags(fs, &f.common)
	fs.IntVarP(&f.limit, "limit", "n", 0, "maximum number of entries (0 = default)")
	fs.BoolVar(&f.json, "json", false, "print entries as JSON")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}

func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", stderr, printServeUsage)
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default from config)")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}

// parseMigrateFlags returns the common flags and the migrate action.
func parseMigrateFlags(args []string, stderr io.Writer) (*commonFlags, string, error) {
	f := &commonFlags{}
	fs := newFlagSet("migrate", stderr, printMigrateUsage)
	addCommonFlags(fs, f)
	if err := parse(fs, args); err != nil {
		return nil, "", err
	}
	action := "up"
	switch fs.NArg() {
	case 0:
	case 1:
		action = fs.Arg(0)
	default:
		return nil, "", fmt.Errorf("%w: migrate takes one action", ErrUsage)
	}
	return f, action, nil
}

func parseCommonFlags(name string, args []string, stderr io.Writer, usage func(io.Writer)) (*commonFlags, error) {
	f := &commonFlags{}
	fs := newFlagSet(name, stderr, usage)
	addCommonFlags(fs, f)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}
