package pipeline

import (
	"errors"
	"fmt"

	"github.com/tsawler/folio/model"
)

// ErrPageUnreadable marks a page the primitive source could not deliver,
// for example corrupted or encrypted page content. Source implementations
// wrap it so the coordinator can classify the failure as page-local.
var ErrPageUnreadable = errors.New("page unreadable")

// ErrSinkWrite marks a document-writer failure. Write failures are fatal:
// the conversion stops at the page that failed to persist.
var ErrSinkWrite = errors.New("document write failed")

// ErrAborted marks a conversion stopped by the abort-on-page-error policy.
var ErrAborted = errors.New("conversion aborted")

// Source supplies the primitive sets of a document's pages. Page is called
// concurrently from the worker pool and must be safe for concurrent use.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// Page returns the primitive set of the page at the given zero-based
	// index, with its PageIndex field set to that index. A page that
	// cannot be delivered returns an error wrapping ErrPageUnreadable.
	Page(index int) (model.PagePrimitives, error)
}

// DocumentWriter consumes finished layout trees. AppendPage is called
// once per selected page, strictly in page order, always from a single
// goroutine. An error aborts the conversion.
type DocumentWriter interface {
	AppendPage(tree *model.LayoutTree) error
}

// PageError is a failure isolated to a single page: the source could not
// read it, or reconstruction broke a structural invariant.
type PageError struct {
	Page int
	Err  error
}

// Error formats the failure with its page index.
func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

// Unwrap returns the underlying cause.
func (e PageError) Unwrap() error {
	return e.Err
}
