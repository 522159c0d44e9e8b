// Package pipeline runs page reconstruction across a fixed pool of workers
// and streams the resulting layout trees to a document writer in strict
// page order.
//
// Pages are independent: each worker reads one page from the Source,
// reconstructs it with a layout.Assembler, and hands the tree back to the
// coordinator, which buffers out-of-order arrivals until every earlier page
// has been written. A failed page becomes a minimal placeholder tree or
// aborts the conversion, per policy; a failed write always aborts.
package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/tsawler/folio/layout"
	"github.com/tsawler/folio/model"
)

// Selection restricts a conversion to a subset of a document's pages. The
// zero value selects every page. An explicit index list takes precedence
// over the range; the range is half-open, with End <= 0 meaning the end of
// the document.
type Selection struct {
	Start int
	End   int
	Pages []int
}

// resolve returns the zero-based page indices the selection names for a
// document of n pages, ascending and deduplicated.
func (s Selection) resolve(n int) ([]int, error) {
	if len(s.Pages) > 0 {
		seen := make(map[int]bool)
		var indices []int
		for _, p := range s.Pages {
			if p < 0 || p >= n {
				return nil, fmt.Errorf("page %d out of range (0-%d)", p, n-1)
			}
			if !seen[p] {
				seen[p] = true
				indices = append(indices, p)
			}
		}
		sort.Ints(indices)
		return indices, nil
	}

	start, end := s.Start, s.End
	if end <= 0 {
		end = n
	}
	if start < 0 || end > n || start > end {
		return nil, fmt.Errorf("page range [%d, %d) invalid for %d pages", s.Start, s.End, n)
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return indices, nil
}

// Config holds the coordinator's pool and policy settings.
type Config struct {
	// Workers is the number of parallel page workers. Zero or negative
	// selects the machine's logical CPU count.
	Workers int

	// AbortOnPageError aborts the conversion at the first failed page.
	// When false, the failed page is written as a minimal placeholder
	// tree and the conversion continues.
	AbortOnPageError bool

	// Selection restricts the conversion to a subset of pages.
	Selection Selection

	// Layout configures the per-page reconstruction stages.
	Layout layout.PageConfig
}

// DefaultConfig returns sensible default configuration: one worker per
// CPU, placeholder policy, every page.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Layout:  layout.DefaultPageConfig(),
	}
}

// Report summarizes a finished conversion. It is valid even when Convert
// also returns an error, in which case PagesWritten counts the pages
// persisted before the failure.
type Report struct {
	// PagesWritten is the number of trees the document writer accepted.
	PagesWritten int

	// Failures lists the per-page failures. Under the placeholder policy
	// each failed page appears both here and as a placeholder tree in the
	// output; under the abort policy the first entry stopped the run.
	Failures []PageError

	// Warnings aggregates the non-fatal conditions of every page, in page
	// order.
	Warnings []model.Warning
}

// Coordinator fans pages out to the worker pool and feeds the results to
// the document writer in order. It holds no per-conversion state and is
// safe for concurrent use.
type Coordinator struct {
	config Config
	asm    *layout.Assembler
	logger *zap.Logger
}

// NewCoordinator creates a coordinator with default configuration.
func NewCoordinator() *Coordinator {
	return NewCoordinatorWithConfig(DefaultConfig())
}

// NewCoordinatorWithConfig creates a coordinator with custom configuration.
func NewCoordinatorWithConfig(config Config) *Coordinator {
	return &Coordinator{
		config: config,
		asm:    layout.NewAssemblerWithConfig(config.Layout),
		logger: zap.NewNop(),
	}
}

// WithLogger returns a coordinator that reports progress and failures to
// logger. The default coordinator is silent.
func (c *Coordinator) WithLogger(logger *zap.Logger) *Coordinator {
	clone := *c
	clone.logger = logger
	return &clone
}

// pageResult carries one worker's output back to the collector.
type pageResult struct {
	pos      int // position in the selected output sequence
	page     int
	box      model.BBox
	tree     *model.LayoutTree
	warnings []model.Warning
	err      error
}

// Convert reconstructs the selected pages of src and appends the resulting
// layout trees to sink in strict page order, regardless of worker
// completion order. The returned report is valid even on error.
func (c *Coordinator) Convert(src Source, sink DocumentWriter) (*Report, error) {
	report := &Report{}

	indices, err := c.config.Selection.resolve(src.PageCount())
	if err != nil {
		return report, err
	}
	if len(indices) == 0 {
		return report, nil
	}

	workers := c.config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(indices) {
		workers = len(indices)
	}
	c.logger.Info("conversion started",
		zap.Int("pages", len(indices)),
		zap.Int("workers", workers))

	// The results channel is buffered to the full page count so a worker
	// never blocks on send; done stops the feed once the conversion has
	// decided to abort.
	jobs := make(chan int)
	results := make(chan pageResult, len(indices))
	done := make(chan struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				results <- c.reconstruct(src, indices[pos], pos)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for pos := range indices {
			select {
			case jobs <- pos:
			case <-done:
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	// Out-of-order arrivals wait in pending until every earlier page has
	// been emitted.
	pending := make(map[int]pageResult)
	next := 0
	var convErr error
	for r := range results {
		pending[r.pos] = r
		for convErr == nil {
			res, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			convErr = c.emit(res, sink, report)
		}
		if convErr != nil {
			close(done)
			break
		}
	}
	if convErr != nil {
		return report, convErr
	}

	c.logger.Info("conversion finished",
		zap.Int("written", report.PagesWritten),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// reconstruct produces one page's result inside a worker goroutine.
func (c *Coordinator) reconstruct(src Source, page, pos int) pageResult {
	prims, err := src.Page(page)
	if err != nil {
		return pageResult{pos: pos, page: page, err: fmt.Errorf("source: %w", err)}
	}
	tree, warnings, err := c.asm.ReconstructPage(prims)
	if err != nil {
		return pageResult{pos: pos, page: page, box: prims.PageBox(), warnings: warnings, err: err}
	}
	return pageResult{pos: pos, page: page, box: prims.PageBox(), tree: tree, warnings: warnings}
}

// emit applies the failure policy to one in-order result and writes the
// surviving tree to the sink.
func (c *Coordinator) emit(r pageResult, sink DocumentWriter, report *Report) error {
	tree := r.tree
	if r.err != nil {
		perr := PageError{Page: r.page, Err: r.err}
		report.Failures = append(report.Failures, perr)
		if c.config.AbortOnPageError {
			c.logger.Error("page failed, aborting",
				zap.Int("page", r.page), zap.Error(r.err))
			return fmt.Errorf("%w: %w", ErrAborted, perr)
		}
		c.logger.Warn("page failed, writing placeholder",
			zap.Int("page", r.page), zap.Error(r.err))
		tree = &model.LayoutTree{
			PageIndex:   r.page,
			PageBox:     r.box,
			Placeholder: true,
		}
	}
	report.Warnings = append(report.Warnings, r.warnings...)
	if err := sink.AppendPage(tree); err != nil {
		c.logger.Error("document write failed",
			zap.Int("page", r.page), zap.Error(err))
		return fmt.Errorf("page %d: %w: %w", r.page, ErrSinkWrite, err)
	}
	c.logger.Debug("page written",
		zap.Int("page", r.page), zap.Int("warnings", len(r.warnings)))
	report.PagesWritten++
	return nil
}
