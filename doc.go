// Package epaper turns a day of published news articles into a print
// edition: a fixed-format, multi-page PDF that is either handed back for
// download or stored as a new archive entry.
//
// # Quick Start
//
// Open a content source, create a generator and close it when done:
//
//	st, err := store.Open("data/epaper.db", zerolog.Nop())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	gen, err := epaper.NewGenerator(st)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gen.Close()
//
//	res, err := gen.Download(ctx, epaper.Request{Date: time.Now()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(res.Filename, res.PDF, 0o644)
//
// # Pipeline
//
// Every generation runs the same stages, each depending only on the output
// of the previous one:
//
//  1. Aggregation: published articles of the day, filtered by category,
//     newest first, capped by the limit and grouped by primary category.
//  2. Composition: a front page and up to four category pages, with text
//     truncated to fixed budgets and secondary images interleaved between
//     paragraphs.
//  3. Rasterization: each page captured from headless Chrome at a fixed
//     A4 geometry, strictly in page order.
//  4. Assembly: one full-bleed PDF page per captured image.
//  5. Publishing: the PDF is stored and exactly one archive entry recorded.
//
// Preview mode stops after composition and returns the edition HTML.
//
// # Concurrency
//
// A Generator runs one generation at a time. A call made while another is
// in flight fails with ErrGenerationInFlight instead of queueing.
//
// # Errors
//
// Stage failures wrap the sentinels exported from this package, so callers
// classify them with errors.Is. When publishing fails after the PDF was
// produced, the Result still carries the PDF.
package epaper
