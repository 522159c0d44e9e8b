package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/tsawler/folio/internal/textutil"
	"github.com/tsawler/folio/model"
)

// MarkdownWriter renders pages as GitHub-flavored Markdown. Bold, italic
// and strikethrough runs keep their markers, tables render as pipe tables
// padded to the widest cell per column, and images become links to their
// source reference. Pages are separated by thematic breaks.
type MarkdownWriter struct {
	w     io.Writer
	pages int
}

// NewMarkdownWriter creates a Markdown sink writing to w.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{w: w}
}

// AppendPage writes one page's Markdown.
func (m *MarkdownWriter) AppendPage(tree *model.LayoutTree) error {
	var sb strings.Builder
	if m.pages > 0 {
		sb.WriteString("\n---\n\n")
	}
	for _, b := range tree.Blocks() {
		switch b.Kind {
		case model.BlockParagraph:
			if b.Paragraph == nil {
				continue
			}
			sb.WriteString(markdownParagraph(b.Paragraph))
			sb.WriteString("\n\n")
		case model.BlockTable:
			if b.TableRef < 0 || b.TableRef >= len(tree.Tables) {
				continue
			}
			sb.WriteString(markdownTable(tree.Tables[b.TableRef], tree.Tables))
			sb.WriteString("\n")
		case model.BlockImage:
			if b.Image == nil || b.Image.Source.Ref == "" {
				continue
			}
			fmt.Fprintf(&sb, "![image](%s)\n\n", b.Image.Source.Ref)
		}
	}
	if _, err := io.WriteString(m.w, sb.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	m.pages++
	return nil
}

// Close implements the sink lifecycle; a Markdown writer holds no buffer.
func (m *MarkdownWriter) Close() error {
	return nil
}

// spanFlags is the subset of run styling Markdown can express.
type spanFlags struct {
	bold   bool
	italic bool
	strike bool
}

func markdownParagraph(p *model.Paragraph) string {
	var sb strings.Builder
	for i, line := range p.Lines {
		if i > 0 {
			// Single newlines inside a paragraph are soft breaks.
			sb.WriteString("\n")
		}
		sb.WriteString(markdownLine(line))
	}
	return sb.String()
}

// markdownLine merges adjacent runs with identical styling before
// emitting markers, so "over" + "lap" in one bold stretch becomes
// **overlap** rather than **over****lap**.
func markdownLine(line model.Line) string {
	var sb strings.Builder
	var buf strings.Builder
	var cur spanFlags
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		sb.WriteString(markSpan(buf.String(), cur))
		buf.Reset()
	}
	for _, r := range line.Runs {
		f := spanFlags{bold: r.Style.Bold, italic: r.Style.Italic, strike: r.Style.Strike}
		if f != cur {
			flush()
			cur = f
		}
		buf.WriteString(textutil.Normalize(r.Text))
	}
	flush()
	return sb.String()
}

// markSpan wraps text in emphasis markers. Markers must hug the visible
// text, so surrounding spaces stay outside them.
func markSpan(text string, f spanFlags) string {
	if !f.bold && !f.italic && !f.strike {
		return text
	}
	inner := strings.TrimLeft(text, " \t")
	lead := text[:len(text)-len(inner)]
	core := strings.TrimRight(inner, " \t")
	trail := inner[len(core):]
	if core == "" {
		return text
	}
	if f.strike {
		core = "~~" + core + "~~"
	}
	if f.italic {
		core = "*" + core + "*"
	}
	if f.bold {
		core = "**" + core + "**"
	}
	return lead + core + trail
}

func markdownTable(t model.Table, arena []model.Table) string {
	grid := t.TextGrid(arena)
	if len(grid) == 0 || len(grid[0]) == 0 {
		return ""
	}
	widths := make([]int, len(grid[0]))
	for _, row := range grid {
		for c := range row {
			row[c] = markdownCell(row[c])
			if w := textutil.DisplayWidth(row[c]); w > widths[c] {
				widths[c] = w
			}
		}
	}
	for c := range widths {
		if widths[c] < 3 {
			widths[c] = 3
		}
	}
	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteString("|")
		for c, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(textutil.PadRight(cell, widths[c]))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}
	writeRow(grid[0])
	sb.WriteString("|")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("|")
	}
	sb.WriteString("\n")
	for _, row := range grid[1:] {
		writeRow(row)
	}
	return sb.String()
}

// markdownCell flattens a cell onto one line and escapes the pipes that
// would otherwise split it.
func markdownCell(s string) string {
	s = textutil.Normalize(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return textutil.CollapseSpaces(s)
}
