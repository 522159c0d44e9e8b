package folio

import (
	"github.com/tsawler/folio/layout"
)

// ConvertOptions holds configuration for a conversion run.
type ConvertOptions struct {
	// Page selection (1-indexed in API, stored as-is)
	pages []int

	// Worker pool size; 0 means one worker per CPU
	workers int

	// Failure policy
	abortOnPageError bool

	// Per-page reconstruction tuning
	layout layout.PageConfig
}

// defaultOptions returns the default conversion options.
func defaultOptions() ConvertOptions {
	return ConvertOptions{
		pages:   nil, // nil means all pages
		workers: 0,
		layout:  layout.DefaultPageConfig(),
	}
}

// clone creates a deep copy of ConvertOptions.
func (o ConvertOptions) clone() ConvertOptions {
	newOpts := o

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
