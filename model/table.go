package model

import (
	"fmt"
	"strings"
)

// EmptyCellMarker is the explicit marker serialized for grid positions with
// no own content: continuation positions covered by a merged cell and cells
// that are genuinely empty.
const EmptyCellMarker = ""

// BorderEdge describes one edge of a cell's border.
type BorderEdge struct {
	Present bool
	Width   float64
	Color   Color
}

// CellBorders holds the four edges of a cell in top, right, bottom, left
// order.
type CellBorders struct {
	Top    BorderEdge
	Right  BorderEdge
	Bottom BorderEdge
	Left   BorderEdge
}

// Cell is one logical cell of a table. A merged cell occupies its top-left
// lattice position with RowSpan/ColSpan > 1; the positions it covers remain
// in the grid as explicit placeholders with RowSpan == 0 and ColSpan == 0 so
// the grid stays rectangular.
type Cell struct {
	BBox       BBox
	RowSpan    int
	ColSpan    int
	Blocks     []Block // cell content: paragraphs, images, nested table refs
	Background *Color  // nil when the cell has no fill
	Borders    CellBorders
}

// Covered reports whether this grid position is a placeholder covered by a
// merged cell anchored elsewhere.
func (c Cell) Covered() bool {
	return c.RowSpan == 0 && c.ColSpan == 0
}

// Text returns the cell's text content. Paragraph blocks join with newlines;
// a nested table renders as tab-separated rows. The arena resolves nested
// table references.
func (c Cell) Text(arena []Table) string {
	var parts []string
	for _, b := range c.Blocks {
		switch b.Kind {
		case BlockParagraph:
			if b.Paragraph != nil {
				parts = append(parts, b.Paragraph.Text())
			}
		case BlockTable:
			if b.TableRef >= 0 && b.TableRef < len(arena) {
				var rows []string
				for _, row := range arena[b.TableRef].TextGrid(arena) {
					rows = append(rows, strings.Join(row, "\t"))
				}
				parts = append(parts, strings.Join(rows, "\n"))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// Lattice is the row/column boundary grid a table was built on. RowBounds
// holds the y coordinates of the horizontal grid lines top to bottom,
// ColBounds the x coordinates of the vertical grid lines left to right.
type Lattice struct {
	RowBounds []float64
	ColBounds []float64
}

// RowCount returns the number of lattice rows.
func (g Lattice) RowCount() int {
	if len(g.RowBounds) <= 1 {
		return 0
	}
	return len(g.RowBounds) - 1
}

// ColCount returns the number of lattice columns.
func (g Lattice) ColCount() int {
	if len(g.ColBounds) <= 1 {
		return 0
	}
	return len(g.ColBounds) - 1
}

// CellBox returns the lattice box of position (row, col) before any merge
// coalescing.
func (g Lattice) CellBox(row, col int) BBox {
	if row < 0 || row >= g.RowCount() || col < 0 || col >= g.ColCount() {
		return BBox{}
	}
	return BBox{
		X:      g.ColBounds[col],
		Y:      g.RowBounds[row],
		Width:  g.ColBounds[col+1] - g.ColBounds[col],
		Height: g.RowBounds[row+1] - g.RowBounds[row],
	}
}

// Table is a reconstructed table: a rectangular grid of cells over a lattice.
type Table struct {
	BBox    BBox
	Rows    [][]Cell
	Lattice Lattice
	// HasGrid is true when the lattice came from visible strokes, false when
	// it was inferred from text alignment alone.
	HasGrid    bool
	Confidence float64
	// Nested is true when the table lives inside another table's cell.
	Nested bool
}

// NewTable creates a table with the given dimensions, all cells unmerged.
func NewTable(rows, cols int) *Table {
	table := &Table{
		Rows:       make([][]Cell, rows),
		Confidence: 1.0,
	}
	for i := 0; i < rows; i++ {
		table.Rows[i] = make([]Cell, cols)
		for j := 0; j < cols; j++ {
			table.Rows[i][j] = Cell{
				RowSpan: 1,
				ColSpan: 1,
			}
		}
	}
	return table
}

// RowCount returns the number of grid rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColCount returns the number of grid columns.
func (t *Table) ColCount() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// GetCell returns the cell at the given position (0-indexed), or nil when
// out of bounds.
func (t *Table) GetCell(row, col int) *Cell {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return &t.Rows[row][col]
}

// SetCell sets the cell at the given position.
func (t *Table) SetCell(row, col int, cell Cell) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of bounds", row)
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return fmt.Errorf("col index %d out of bounds", col)
	}
	t.Rows[row][col] = cell
	return nil
}

// Validate checks the span tiling invariant: every lattice position is
// covered exactly once, either by being a real cell's anchor or by lying in
// exactly one merged cell's span.
func (t *Table) Validate() error {
	rows, cols := t.RowCount(), t.ColCount()
	if rows == 0 || cols == 0 {
		return fmt.Errorf("table has no cells")
	}
	covered := make([][]int, rows)
	for i := range covered {
		covered[i] = make([]int, cols)
		if len(t.Rows[i]) != cols {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(t.Rows[i]), cols)
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cell := t.Rows[i][j]
			if cell.Covered() {
				continue
			}
			if cell.RowSpan < 1 || cell.ColSpan < 1 {
				return fmt.Errorf("cell (%d,%d) has invalid span %dx%d", i, j, cell.RowSpan, cell.ColSpan)
			}
			if i+cell.RowSpan > rows || j+cell.ColSpan > cols {
				return fmt.Errorf("cell (%d,%d) span %dx%d exceeds grid", i, j, cell.RowSpan, cell.ColSpan)
			}
			for r := i; r < i+cell.RowSpan; r++ {
				for c := j; c < j+cell.ColSpan; c++ {
					covered[r][c]++
				}
			}
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			switch covered[i][j] {
			case 0:
				return fmt.Errorf("position (%d,%d) is covered by no cell span", i, j)
			case 1:
			default:
				return fmt.Errorf("position (%d,%d) is covered by %d overlapping spans", i, j, covered[i][j])
			}
		}
	}
	return nil
}

// TextGrid serializes the table to a rectangular grid of cell text values.
// Positions covered by a merged cell and cells without content carry the
// explicit empty marker; no value is repeated across a merge. The arena
// resolves nested table references.
func (t *Table) TextGrid(arena []Table) [][]string {
	grid := make([][]string, t.RowCount())
	for i, row := range t.Rows {
		grid[i] = make([]string, len(row))
		for j, cell := range row {
			if cell.Covered() {
				grid[i][j] = EmptyCellMarker
				continue
			}
			grid[i][j] = cell.Text(arena)
		}
	}
	return grid
}

// ToMarkdown renders the table as a Markdown pipe table. Merged
// continuation positions render as empty cells.
func (t *Table) ToMarkdown(arena []Table) string {
	if len(t.Rows) == 0 {
		return ""
	}

	grid := t.TextGrid(arena)
	var sb strings.Builder

	writeRow := func(row []string) {
		for _, text := range row {
			sb.WriteString("| ")
			sb.WriteString(strings.ReplaceAll(text, "\n", " "))
			sb.WriteString(" ")
		}
		sb.WriteString("|\n")
	}

	writeRow(grid[0])
	for range grid[0] {
		sb.WriteString("|---")
	}
	sb.WriteString("|\n")
	for _, row := range grid[1:] {
		writeRow(row)
	}

	return sb.String()
}

// ToCSV renders the table as CSV. Merged continuation positions render as
// empty fields.
func (t *Table) ToCSV(arena []Table) string {
	var sb strings.Builder
	for _, row := range t.TextGrid(arena) {
		for j, text := range row {
			if strings.ContainsAny(text, ",\"\n") {
				text = "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
			}
			sb.WriteString(text)
			if j < len(row)-1 {
				sb.WriteString(",")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
