// Package export provides reference document-writer sinks: plain text,
// Markdown, HTML and XLSX renderings of the layout trees a conversion
// produces. Every writer satisfies the pipeline's document-writer
// contract and consumes pages strictly in the order handed to it.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/folio/internal/textutil"
	"github.com/tsawler/folio/model"
)

// TextWriter renders pages as plain text in reading order. Pages are
// separated by form feeds; tables render as tab-separated rows; images
// contribute nothing. A placeholder page keeps its form feed so page
// numbering survives.
type TextWriter struct {
	w     io.Writer
	pages int
}

// NewTextWriter creates a text sink writing to w.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w}
}

// AppendPage writes one page's text.
func (t *TextWriter) AppendPage(tree *model.LayoutTree) error {
	var sb strings.Builder
	if t.pages > 0 {
		sb.WriteString("\f\n")
	}
	if text := tree.Text(); text != "" {
		sb.WriteString(textutil.Normalize(text))
		sb.WriteString("\n")
	}
	if _, err := io.WriteString(t.w, sb.String()); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	t.pages++
	return nil
}

// Close implements the sink lifecycle; a text writer holds no buffer.
func (t *TextWriter) Close() error {
	return nil
}
