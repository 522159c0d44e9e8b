package model

import (
	"fmt"
	"strings"
)

// Warning records a non-fatal condition encountered during reconstruction,
// such as a dropped degenerate primitive. Warnings are values, not log
// lines, so library consumers can inspect them programmatically.
type Warning struct {
	Page      int
	Component string
	Message   string
}

// String formats the warning for human consumption.
func (w Warning) String() string {
	return fmt.Sprintf("page %d [%s]: %s", w.Page, w.Component, w.Message)
}

// Run is a stretch of text with one resolved style, derived from a single
// source span.
type Run struct {
	Text  string
	BBox  BBox
	Style TextStyle
}

// Line is an ordered sequence of runs sharing one baseline band.
type Line struct {
	BBox      BBox
	Baseline  float64
	Runs      []Run
	Direction Direction
}

// Text returns the line's text with runs joined in reading order.
func (l Line) Text() string {
	var sb strings.Builder
	for _, r := range l.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Paragraph is an ordered sequence of lines forming one block of flowing
// text. All lines share the paragraph's writing direction. Spacing values
// are in page units; LineSpacing is the average line advance inside the
// block.
type Paragraph struct {
	BBox        BBox
	Lines       []Line
	Alignment   Alignment
	Direction   Direction
	LineSpacing float64
	SpaceBefore float64
	SpaceAfter  float64
	// Salvaged marks the catch-all paragraph holding content that could not
	// be placed anywhere else. It is always the last block of its column.
	Salvaged bool
}

// Text returns the paragraph's text with lines joined by newlines.
func (p Paragraph) Text() string {
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.Text()
	}
	return strings.Join(parts, "\n")
}

// Placement says how an image block participates in text flow.
type Placement int

const (
	// PlacementInline flows with the surrounding text, pushing subsequent
	// content downward.
	PlacementInline Placement = iota
	// PlacementFloating is anchored independent of flow and overlaps text.
	PlacementFloating
)

// String returns a human-readable name for the placement mode.
func (p Placement) String() string {
	if p == PlacementFloating {
		return "floating"
	}
	return "inline"
}

// ZOrder says whether a floating image renders behind or in front of text.
type ZOrder int

const (
	ZBehindText ZOrder = iota
	ZInFrontOfText
)

// String returns a human-readable name for the z-order.
func (z ZOrder) String() string {
	if z == ZInFrontOfText {
		return "in_front_of_text"
	}
	return "behind_text"
}

// ImageBlock is a placed image.
type ImageBlock struct {
	BBox      BBox
	Source    Image
	Placement Placement
	ZOrder    ZOrder // meaningful for floating images only
}

// BlockKind identifies the concrete type held by a Block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockTable
	BlockImage
)

// String returns a human-readable name for the block kind.
func (k BlockKind) String() string {
	switch k {
	case BlockTable:
		return "table"
	case BlockImage:
		return "image"
	default:
		return "paragraph"
	}
}

// Block is one unit of a column: a paragraph, a table, or an image. Exactly
// one payload field is meaningful, selected by Kind. Tables are referenced
// by index into the layout tree's table arena rather than owned, so nested
// tables never build recursive ownership chains.
type Block struct {
	Kind      BlockKind
	Paragraph *Paragraph
	TableRef  int // index into LayoutTree.Tables, -1 unless Kind is BlockTable
	Image     *ImageBlock
}

// ParagraphBlock wraps a paragraph as a column block.
func ParagraphBlock(p *Paragraph) Block {
	return Block{Kind: BlockParagraph, Paragraph: p, TableRef: -1}
}

// TableRefBlock wraps an arena table index as a column block.
func TableRefBlock(ref int) Block {
	return Block{Kind: BlockTable, TableRef: ref}
}

// ImageRefBlock wraps a placed image as a column block.
func ImageRefBlock(img *ImageBlock) Block {
	return Block{Kind: BlockImage, Image: img, TableRef: -1}
}

// Bounds returns the block's bounding box. Table blocks need the owning
// tree's arena to resolve their reference.
func (b Block) Bounds(arena []Table) BBox {
	switch b.Kind {
	case BlockParagraph:
		if b.Paragraph != nil {
			return b.Paragraph.BBox
		}
	case BlockTable:
		if b.TableRef >= 0 && b.TableRef < len(arena) {
			return arena[b.TableRef].BBox
		}
	case BlockImage:
		if b.Image != nil {
			return b.Image.BBox
		}
	}
	return BBox{}
}

// Column is a vertical band of a section holding blocks in reading order.
type Column struct {
	BBox   BBox
	Blocks []Block
}

// Margins are the distances from the page edges to the content.
type Margins struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Section is a horizontal band of the page holding one or two side-by-side
// columns. Space is the width of the gutter between two columns, 0 for a
// single column.
type Section struct {
	BBox    BBox
	Margins Margins
	Columns []Column
	Space   float64
}

// LayoutTree is the reconstruction result for one page: an ordered sequence
// of sections plus the arena of every table referenced anywhere in the tree,
// top-level table blocks and tables nested inside cells alike. The tree is
// immutable once assembled and consumed exactly once by the document writer.
type LayoutTree struct {
	PageIndex int
	PageBox   BBox
	Sections  []Section
	Tables    []Table
	// Placeholder is set on the minimal substitute tree emitted for a failed
	// page when the conversion policy is to continue.
	Placeholder bool
}

// Blocks returns every block of the tree in reading order: sections top to
// bottom, columns left to right, blocks in column order.
func (t LayoutTree) Blocks() []Block {
	var blocks []Block
	for _, sec := range t.Sections {
		for _, col := range sec.Columns {
			blocks = append(blocks, col.Blocks...)
		}
	}
	return blocks
}

// TopLevelTables returns the tables referenced directly by column blocks, in
// reading order. Tables nested inside cells are reachable through the arena
// only.
func (t LayoutTree) TopLevelTables() []Table {
	var out []Table
	for _, b := range t.Blocks() {
		if b.Kind == BlockTable && b.TableRef >= 0 && b.TableRef < len(t.Tables) {
			out = append(out, t.Tables[b.TableRef])
		}
	}
	return out
}

// Text renders the whole page as plain text in reading order. Tables render
// as tab-separated rows; images contribute nothing.
func (t LayoutTree) Text() string {
	var sb strings.Builder
	for _, b := range t.Blocks() {
		switch b.Kind {
		case BlockParagraph:
			if b.Paragraph == nil {
				continue
			}
			sb.WriteString(b.Paragraph.Text())
			sb.WriteString("\n\n")
		case BlockTable:
			if b.TableRef < 0 || b.TableRef >= len(t.Tables) {
				continue
			}
			for _, row := range t.Tables[b.TableRef].TextGrid(t.Tables) {
				sb.WriteString(strings.Join(row, "\t"))
				sb.WriteString("\n")
			}
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
