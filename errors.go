package epaper

import (
	"errors"

	"github.com/alnah/go-epaper/internal/archive"
	"github.com/alnah/go-epaper/internal/assemble"
	"github.com/alnah/go-epaper/internal/browser"
	"github.com/alnah/go-epaper/internal/content"
	"github.com/alnah/go-epaper/internal/layout"
	"github.com/alnah/go-epaper/internal/raster"
)

// Sentinel errors for edition generation.
var (
	ErrGenerationInFlight = errors.New("an edition is already being generated")
	ErrInvalidMode        = errors.New("invalid generation mode")
	ErrArchiveDisabled    = errors.New("no archive configured for publishing")
	ErrInvalidAssetPath   = errors.New("invalid asset path")
	ErrArticleViewing     = errors.New("content source cannot serve single articles")
)

// Stage errors, re-exported so callers can classify failures with errors.Is
// without importing internal packages.
var (
	// Aggregation.
	ErrEmptySelection = content.ErrEmptySelection
	ErrInvalidLimit   = content.ErrInvalidLimit
	ErrInvalidDate    = content.ErrInvalidDate

	// Composition.
	ErrCompositionDefect = layout.ErrCompositionDefect
	ErrRender            = layout.ErrRender

	// Rasterization and assembly.
	ErrSurfaceDetached = raster.ErrSurfaceDetached
	ErrRasterization   = raster.ErrRasterization
	ErrAssembly        = assemble.ErrAssembly
	ErrNoPages         = assemble.ErrNoPages

	// Browser.
	ErrBrowserConnect = browser.ErrBrowserConnect
	ErrPageCreate     = browser.ErrPageCreate
	ErrPageLoad       = browser.ErrPageLoad

	// Publishing.
	ErrUpload           = archive.ErrUpload
	ErrRecordWrite      = archive.ErrRecordWrite
	ErrDuplicateEdition = archive.ErrDuplicateEdition
	ErrEmptyDocument    = archive.ErrEmptyDocument
)
