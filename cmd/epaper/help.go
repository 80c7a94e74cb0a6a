package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Compose an edition and preview, download or publish it")
	fmt.Fprintln(w, "  archive    List published editions")
	fmt.Fprintln(w, "  migrate    Apply or roll back database migrations")
	fmt.Fprintln(w, "  serve      Run the HTTP admin server")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check Chrome, database and archive setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'epaper help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      json, console")
}

// printGenerateUsage prints usage for the generate command.
func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper generate [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compose the edition of one day from published articles.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edition:")
	fmt.Fprintln(w, "  -d, --date <s>            YYYY-MM-DD, today or yesterday (default today)")
	fmt.Fprintln(w, "      --category <id>       Category filter, repeatable (default all)")
	fmt.Fprintln(w, "  -n, --limit <n>           Maximum articles, 1-100 (default from config)")
	fmt.Fprintln(w, "  -m, --mode <s>            preview, download or publish (default download)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file, \"-\" for stdout")
	fmt.Fprintln(w, "                            preview: HTML (default stdout)")
	fmt.Fprintln(w, "                            download: PDF (default epaper-YYYY-MM-DD.pdf)")
	fmt.Fprintln(w, "                            publish: optional local copy of the PDF")
	fmt.Fprintln(w, "  -t, --timeout <d>         Browser page load timeout (e.g. 90s)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printArchiveUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper archive [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List published editions, newest first.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -n, --limit <n>           Maximum entries (default 50)")
	fmt.Fprintln(w, "      --json                Print JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printMigrateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper migrate [up|down|version] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Apply pending migrations (up, the default), roll back the last one")
	fmt.Fprintln(w, "(down) or print the schema version (version).")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP admin server.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default from config, :8080)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after applying the config file and EPAPER_*")
	fmt.Fprintln(w, "environment variables.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: epaper doctor [--json] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome, the database and the archive directory are usable.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "generate":
		printGenerateUsage(env.Stdout)
	case "archive":
		printArchiveUsage(env.Stdout)
	case "migrate":
		printMigrateUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: epaper version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: epaper help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
