// Package folio reconstructs semantic documents from dumped page geometry.
//
// A page dump is the JSON interchange an upstream parser produces: raw text
// spans, images, vector paths and fill rectangles per page, with y growing
// downward from the top-left corner. folio assembles those primitives into
// sections, columns, paragraphs, tables and placed images, and renders the
// result as plain text, Markdown, HTML or a workbook.
//
// Basic usage:
//
//	text, warnings, err := folio.Open("report.pages.json").Text()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:\n" + folio.FormatWarnings(warnings))
//	}
//
// With options:
//
//	md, _, err := folio.Open("report.pages.json").
//	    Pages(1, 2, 3).
//	    Workers(4).
//	    Markdown()
//
// For advanced use cases the lower-level pipeline, layout and pagedump
// packages are also available.
package folio

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/tsawler/folio/export"
	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/pagedump"
	"github.com/tsawler/folio/pipeline"
)

// Open prepares a conversion of the named page dump. Reading is deferred
// until a terminal operation runs.
//
// Example:
//
//	text, warnings, err := folio.Open("report.pages.json").Text()
func Open(filename string) *Converter {
	return &Converter{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromSource creates a Converter over an already-built page source, such as
// a pagedump.Reader or any custom pipeline.Source implementation.
//
// Example:
//
//	r, err := pagedump.Open("report.pages.json")
//	if err != nil {
//	    // handle error
//	}
//	trees, warnings, err := folio.FromSource(r).Document()
func FromSource(src pipeline.Source) *Converter {
	return &Converter{
		source:  src,
		options: defaultOptions(),
	}
}

// FromBytes creates a Converter over an in-memory page dump.
func FromBytes(data []byte) *Converter {
	r, err := pagedump.FromBytes(data)
	return &Converter{
		source:  r,
		err:     err,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := folio.Must(folio.Open("report.pages.json").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustText is a helper that wraps a call to a terminal operation returning
// (T, []Warning, error) and panics if the error is non-nil. It discards
// warnings and returns just the value. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	text := folio.MustText(folio.Open("report.pages.json").Text())
func MustText[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// Converter provides a fluent interface for turning page dumps into
// documents. Each configuration method returns a new Converter instance,
// making it safe for concurrent use and allowing method chaining.
type Converter struct {
	// Source
	filename string
	source   pipeline.Source

	// Configuration
	options ConvertOptions

	// Logging (nil means discard)
	logger *zap.Logger

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Converter with a deep copy of options.
// This ensures immutability - each chain method returns a new instance.
func (c *Converter) clone() *Converter {
	return &Converter{
		filename: c.filename,
		source:   c.source,
		options:  c.options.clone(),
		logger:   c.logger,
		err:      c.err,
	}
}

// ensureSource opens the page dump if no source is attached yet.
func (c *Converter) ensureSource() error {
	if c.source != nil {
		return nil
	}
	if c.filename == "" {
		return fmt.Errorf("no input specified")
	}
	r, err := pagedump.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open page dump: %w", err)
	}
	c.source = r
	return nil
}

// ============================================================================
// Configuration Methods (return new Converter instance)
// ============================================================================

// Pages specifies which pages to convert (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	text, _, err := folio.Open("report.pages.json").Pages(1, 3, 5).Text()
func (c *Converter) Pages(pages ...int) *Converter {
	newConv := c.clone()
	for _, p := range pages {
		if p < 1 && newConv.err == nil {
			newConv.err = fmt.Errorf("page numbers are 1-indexed, got %d", p)
		}
	}
	newConv.options.pages = append(newConv.options.pages, pages...)
	return newConv
}

// PageRange specifies a range of pages to convert (1-indexed, inclusive).
//
// Example:
//
//	text, _, err := folio.Open("report.pages.json").PageRange(5, 10).Text()
func (c *Converter) PageRange(start, end int) *Converter {
	newConv := c.clone()
	if start < 1 || end < start {
		if newConv.err == nil {
			newConv.err = fmt.Errorf("invalid page range %d-%d", start, end)
		}
		return newConv
	}
	for i := start; i <= end; i++ {
		newConv.options.pages = append(newConv.options.pages, i)
	}
	return newConv
}

// Workers sets the size of the page worker pool. Zero or negative falls
// back to one worker per CPU.
//
// Example:
//
//	md, _, err := folio.Open("report.pages.json").Workers(4).Markdown()
func (c *Converter) Workers(n int) *Converter {
	newConv := c.clone()
	newConv.options.workers = n
	return newConv
}

// AbortOnPageError makes the first unreadable or unreconstructable page
// abort the whole conversion. The default policy records the failure,
// writes a placeholder page and continues.
//
// Example:
//
//	_, _, err := folio.Open("report.pages.json").AbortOnPageError().Text()
func (c *Converter) AbortOnPageError() *Converter {
	newConv := c.clone()
	newConv.options.abortOnPageError = true
	return newConv
}

// LayoutConfig replaces the per-page reconstruction tuning.
//
// Example:
//
//	config := layout.DefaultPageConfig()
//	config.Table.StreamEnabled = false
//	text, _, err := folio.Open("report.pages.json").LayoutConfig(config).Text()
func (c *Converter) LayoutConfig(config layout.PageConfig) *Converter {
	newConv := c.clone()
	newConv.options.layout = config
	return newConv
}

// Logger attaches a logger for conversion progress and failures. The
// default discards everything.
func (c *Converter) Logger(logger *zap.Logger) *Converter {
	newConv := c.clone()
	newConv.logger = logger
	return newConv
}

// ============================================================================
// Terminal Operations (execute the conversion and return results)
// ============================================================================

// Convert runs the conversion into sink and returns the pipeline's report.
// This is the most general terminal operation; the format-specific ones
// wrap it.
//
// Example:
//
//	sink := export.NewTextWriter(os.Stdout)
//	report, err := folio.Open("report.pages.json").Convert(sink)
func (c *Converter) Convert(sink pipeline.DocumentWriter) (*pipeline.Report, error) {
	if c.err != nil {
		return nil, c.err
	}
	if err := c.ensureSource(); err != nil {
		return nil, err
	}
	coord := pipeline.NewCoordinatorWithConfig(c.pipelineConfig())
	if c.logger != nil {
		coord = coord.WithLogger(c.logger)
	}
	return coord.Convert(c.source, sink)
}

// Text converts the configured pages and returns plain text with form
// feeds between pages.
//
// Example:
//
//	text, warnings, err := folio.Open("report.pages.json").Text()
func (c *Converter) Text() (string, []Warning, error) {
	var buf bytes.Buffer
	report, err := c.Convert(export.NewTextWriter(&buf))
	if err != nil {
		return "", reportWarnings(report), err
	}
	return buf.String(), reportWarnings(report), nil
}

// Markdown converts the configured pages to GitHub-flavored Markdown with
// thematic breaks between pages.
//
// Example:
//
//	md, warnings, err := folio.Open("report.pages.json").Markdown()
func (c *Converter) Markdown() (string, []Warning, error) {
	var buf bytes.Buffer
	report, err := c.Convert(export.NewMarkdownWriter(&buf))
	if err != nil {
		return "", reportWarnings(report), err
	}
	return buf.String(), reportWarnings(report), nil
}

// HTML converts the configured pages into one standalone HTML document.
//
// Example:
//
//	page, warnings, err := folio.Open("report.pages.json").HTML()
func (c *Converter) HTML() (string, []Warning, error) {
	var buf bytes.Buffer
	w := export.NewHTMLWriter(&buf)
	report, err := c.Convert(w)
	if err != nil {
		return "", reportWarnings(report), err
	}
	if err := w.Close(); err != nil {
		return "", reportWarnings(report), err
	}
	return buf.String(), reportWarnings(report), nil
}

// XLSX converts the configured pages into a workbook, one worksheet per
// page, and returns its serialized bytes.
//
// Example:
//
//	data, _, err := folio.Open("report.pages.json").XLSX()
//	if err == nil {
//	    err = os.WriteFile("report.xlsx", data, 0o644)
//	}
func (c *Converter) XLSX() ([]byte, []Warning, error) {
	w := export.NewXLSXWriter()
	defer w.Close()
	report, err := c.Convert(w)
	if err != nil {
		return nil, reportWarnings(report), err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, reportWarnings(report), err
	}
	return buf.Bytes(), reportWarnings(report), nil
}

// Document converts the configured pages and returns their layout trees in
// page order, placeholders included.
//
// Example:
//
//	trees, warnings, err := folio.Open("report.pages.json").Document()
func (c *Converter) Document() ([]*model.LayoutTree, []Warning, error) {
	var sink treeCollector
	report, err := c.Convert(&sink)
	if err != nil {
		return nil, reportWarnings(report), err
	}
	return sink.trees, reportWarnings(report), nil
}

// Tables converts the configured pages and returns every top-level table
// in reading order. Tables nested inside cells stay reachable through the
// owning tree's arena only.
//
// Example:
//
//	tables, _, err := folio.Open("report.pages.json").Tables()
//	for _, t := range tables {
//	    fmt.Println(t.ToCSV(nil))
//	}
func (c *Converter) Tables() ([]model.Table, []Warning, error) {
	trees, warnings, err := c.Document()
	if err != nil {
		return nil, warnings, err
	}
	var tables []model.Table
	for _, tree := range trees {
		tables = append(tables, tree.TopLevelTables()...)
	}
	return tables, warnings, nil
}

// PageCount returns the number of pages in the page dump.
//
// Example:
//
//	count := folio.Must(folio.Open("report.pages.json").PageCount())
func (c *Converter) PageCount() (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if err := c.ensureSource(); err != nil {
		return 0, err
	}
	return c.source.PageCount(), nil
}

// pipelineConfig translates the accumulated options into the pipeline's
// configuration. API pages are 1-indexed; the pipeline's are 0-indexed.
func (c *Converter) pipelineConfig() pipeline.Config {
	config := pipeline.DefaultConfig()
	if c.options.workers > 0 {
		config.Workers = c.options.workers
	}
	config.AbortOnPageError = c.options.abortOnPageError
	config.Layout = c.options.layout
	if len(c.options.pages) > 0 {
		zero := make([]int, len(c.options.pages))
		for i, p := range c.options.pages {
			zero[i] = p - 1
		}
		config.Selection = pipeline.Selection{Pages: zero}
	}
	return config
}

// reportWarnings folds per-page failures into the warning list. A policy
// that wrote placeholders and kept going has already judged them
// non-fatal, but callers still need to see them.
func reportWarnings(report *pipeline.Report) []Warning {
	if report == nil {
		return nil
	}
	warnings := append([]Warning(nil), report.Warnings...)
	for _, f := range report.Failures {
		warnings = append(warnings, Warning{
			Page:      f.Page,
			Component: "pipeline",
			Message:   f.Err.Error(),
		})
	}
	return warnings
}

// treeCollector buffers layout trees in page order.
type treeCollector struct {
	trees []*model.LayoutTree
}

func (t *treeCollector) AppendPage(tree *model.LayoutTree) error {
	t.trees = append(t.trees, tree)
	return nil
}
