package main

import (
	"errors"
	"os"

	"github.com/alnah/go-epaper"
	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/assets"
	"github.com/alnah/go-epaper/internal/config"
	"github.com/alnah/go-epaper/internal/dateutil"
	"github.com/alnah/go-epaper/internal/logger"
	"github.com/alnah/go-epaper/internal/store"
)

// Exit codes for the epaper CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Database, archive or output file errors
	ExitBrowser = 4 // Browser/Chrome errors
	ExitEmpty   = 5 // No qualifying articles for the edition
)

// exitCodeFor returns the exit code for an error.
// It uses errors.Is, so callers must wrap with fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, epaper.ErrEmptySelection) {
		return ExitEmpty
	}

	// Browser errors (exit 4)
	if errors.Is(err, epaper.ErrBrowserConnect) ||
		errors.Is(err, epaper.ErrPageCreate) ||
		errors.Is(err, epaper.ErrPageLoad) ||
		errors.Is(err, epaper.ErrRasterization) ||
		errors.Is(err, epaper.ErrAssembly) {
		return ExitBrowser
	}

	// I/O and storage errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, epaper.ErrUpload) ||
		errors.Is(err, epaper.ErrRecordWrite) ||
		errors.Is(err, epaper.ErrDuplicateEdition) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrOpenStore) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, logger.ErrInvalidLevel) ||
		errors.Is(err, logger.ErrInvalidFormat) ||
		errors.Is(err, dateutil.ErrInvalidDate) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, archive.ErrInvalidPolicy) ||
		errors.Is(err, epaper.ErrInvalidMode) ||
		errors.Is(err, epaper.ErrInvalidLimit) ||
		errors.Is(err, epaper.ErrInvalidDate) ||
		errors.Is(err, epaper.ErrInvalidAssetPath) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, epaper.ErrArchiveDisabled) {
		return ExitUsage
	}

	return ExitGeneral
}
