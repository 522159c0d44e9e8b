package model

import (
	"math"
	"strings"
	"testing"
)

// ============================================================================
// Point Tests
// ============================================================================

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   Point
		expected float64
	}{
		{"same point", Point{0, 0}, Point{0, 0}, 0},
		{"horizontal", Point{0, 0}, Point{3, 0}, 3},
		{"vertical", Point{0, 0}, Point{0, 4}, 4},
		{"diagonal 3-4-5", Point{0, 0}, Point{3, 4}, 5},
		{"negative coords", Point{-1, -1}, Point{2, 3}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.p1.Distance(tt.p2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("Distance() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPointIsFinite(t *testing.T) {
	if !(Point{1, 2}).IsFinite() {
		t.Error("IsFinite() = false for a finite point")
	}
	if (Point{math.NaN(), 2}).IsFinite() {
		t.Error("IsFinite() = true for a NaN point")
	}
	if (Point{1, math.Inf(1)}).IsFinite() {
		t.Error("IsFinite() = true for an infinite point")
	}
}

// ============================================================================
// BBox Tests
// ============================================================================

func TestNewBBoxFromPoints(t *testing.T) {
	tests := []struct {
		name   string
		p1, p2 Point
		want   BBox
	}{
		{"normal", Point{10, 20}, Point{50, 70}, BBox{10, 20, 40, 50}},
		{"reversed", Point{50, 70}, Point{10, 20}, BBox{10, 20, 40, 50}},
		{"same point", Point{10, 10}, Point{10, 10}, BBox{10, 10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBBoxFromPoints(tt.p1, tt.p2)
			if got != tt.want {
				t.Errorf("NewBBoxFromPoints() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBBoxEdges(t *testing.T) {
	bbox := NewBBox(10, 20, 100, 50)

	if bbox.Left() != 10 {
		t.Errorf("Left() = %v, want 10", bbox.Left())
	}
	if bbox.Right() != 110 {
		t.Errorf("Right() = %v, want 110", bbox.Right())
	}
	if bbox.Top() != 20 {
		t.Errorf("Top() = %v, want 20", bbox.Top())
	}
	if bbox.Bottom() != 70 {
		t.Errorf("Bottom() = %v, want 70", bbox.Bottom())
	}
}

func TestBBoxContains(t *testing.T) {
	bbox := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name     string
		point    Point
		expected bool
	}{
		{"inside", Point{50, 50}, true},
		{"on left edge", Point{0, 50}, true},
		{"on right edge", Point{100, 50}, true},
		{"above", Point{50, -1}, false},
		{"below", Point{50, 101}, false},
		{"left of box", Point{-1, 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bbox.Contains(tt.point)
			if result != tt.expected {
				t.Errorf("Contains(%+v) = %v, want %v", tt.point, result, tt.expected)
			}
		})
	}
}

func TestBBoxIntersects(t *testing.T) {
	base := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name     string
		other    BBox
		expected bool
	}{
		{"overlapping", NewBBox(50, 50, 100, 100), true},
		{"contained", NewBBox(25, 25, 50, 50), true},
		{"touching edge", NewBBox(100, 0, 50, 100), true},
		{"separate right", NewBBox(101, 0, 50, 100), false},
		{"separate below", NewBBox(0, 101, 100, 50), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := base.Intersects(tt.other)
			if result != tt.expected {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.other, result, tt.expected)
			}
		})
	}
}

func TestBBoxIntersection(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)
	b := NewBBox(50, 60, 100, 100)

	got := a.Intersection(b)
	want := BBox{50, 60, 50, 40}
	if got != want {
		t.Errorf("Intersection() = %+v, want %+v", got, want)
	}

	far := NewBBox(500, 500, 10, 10)
	if got := a.Intersection(far); got != (BBox{}) {
		t.Errorf("Intersection() of disjoint boxes = %+v, want zero box", got)
	}
}

func TestBBoxUnion(t *testing.T) {
	a := NewBBox(0, 0, 50, 50)
	b := NewBBox(100, 100, 50, 50)

	got := a.Union(b)
	want := BBox{0, 0, 150, 150}
	if got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestBBoxOverlapRatio(t *testing.T) {
	a := NewBBox(0, 0, 100, 100)
	b := NewBBox(0, 0, 50, 100)

	// b is fully inside a, so the ratio relative to the smaller box is 1.
	if got := a.OverlapRatio(b); math.Abs(got-1.0) > 0.0001 {
		t.Errorf("OverlapRatio() = %v, want 1.0", got)
	}

	c := NewBBox(50, 0, 100, 100)
	if got := a.OverlapRatio(c); math.Abs(got-0.5) > 0.0001 {
		t.Errorf("OverlapRatio() = %v, want 0.5", got)
	}
}

func TestBBoxContainsBox(t *testing.T) {
	outer := NewBBox(0, 0, 100, 100)

	tests := []struct {
		name      string
		inner     BBox
		threshold float64
		expected  bool
	}{
		{"fully inside strict", NewBBox(10, 10, 50, 50), 1.0, true},
		{"half inside strict", NewBBox(75, 0, 50, 100), 1.0, false},
		{"half inside loose", NewBBox(75, 0, 50, 100), 0.5, true},
		{"outside", NewBBox(200, 200, 10, 10), 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := outer.ContainsBox(tt.inner, tt.threshold)
			if result != tt.expected {
				t.Errorf("ContainsBox(%+v, %v) = %v, want %v", tt.inner, tt.threshold, result, tt.expected)
			}
		})
	}
}

func TestBBoxVerticalOverlap(t *testing.T) {
	a := NewBBox(0, 0, 10, 12)
	b := NewBBox(50, 6, 10, 12)

	if got := a.VerticalOverlap(b); math.Abs(got-6) > 0.0001 {
		t.Errorf("VerticalOverlap() = %v, want 6", got)
	}

	c := NewBBox(50, 12, 10, 12)
	if got := a.VerticalOverlap(c); got != 0 {
		t.Errorf("VerticalOverlap() of stacked boxes = %v, want 0", got)
	}
}

func TestBBoxIsFinite(t *testing.T) {
	if !NewBBox(0, 0, 10, 10).IsFinite() {
		t.Error("IsFinite() = false for a finite box")
	}
	if NewBBox(math.NaN(), 0, 10, 10).IsFinite() {
		t.Error("IsFinite() = true for a NaN box")
	}
	if NewBBox(0, 0, math.Inf(1), 10).IsFinite() {
		t.Error("IsFinite() = true for an infinite box")
	}
}

// ============================================================================
// Segment Tests
// ============================================================================

func TestSegmentOrientation(t *testing.T) {
	h := Segment{Start: Point{0, 10}, End: Point{100, 10.5}, Width: 1}
	if !h.IsHorizontal(1.0) {
		t.Error("IsHorizontal() = false for a near-horizontal segment")
	}
	if h.IsVertical(1.0) {
		t.Error("IsVertical() = true for a horizontal segment")
	}

	v := Segment{Start: Point{20, 0}, End: Point{20, 80}, Width: 1}
	if !v.IsVertical(0.1) {
		t.Error("IsVertical() = false for a vertical segment")
	}

	if got := v.Position(false); got != 20 {
		t.Errorf("Position(false) = %v, want 20", got)
	}
	if got := h.Position(true); math.Abs(got-10.25) > 0.0001 {
		t.Errorf("Position(true) = %v, want 10.25", got)
	}
}

func TestPathSegments(t *testing.T) {
	open := Path{
		Points:      []Point{{0, 0}, {100, 0}, {100, 50}},
		StrokeWidth: 1,
	}
	if got := len(open.Segments()); got != 2 {
		t.Errorf("Segments() count = %d, want 2", got)
	}

	closed := Path{
		Points:      []Point{{0, 0}, {100, 0}, {100, 50}},
		StrokeWidth: 1,
		Closed:      true,
	}
	if got := len(closed.Segments()); got != 3 {
		t.Errorf("Segments() count for closed path = %d, want 3", got)
	}

	single := Path{Points: []Point{{5, 5}}}
	if got := len(single.Segments()); got != 0 {
		t.Errorf("Segments() count for single point = %d, want 0", got)
	}
}

// ============================================================================
// Table Tests
// ============================================================================

func TestNewTable(t *testing.T) {
	table := NewTable(3, 4)

	if table.RowCount() != 3 {
		t.Errorf("RowCount() = %d, want 3", table.RowCount())
	}
	if table.ColCount() != 4 {
		t.Errorf("ColCount() = %d, want 4", table.ColCount())
	}
	cell := table.GetCell(1, 2)
	if cell == nil {
		t.Fatal("GetCell(1, 2) returned nil")
	}
	if cell.RowSpan != 1 || cell.ColSpan != 1 {
		t.Errorf("new cell span = %dx%d, want 1x1", cell.RowSpan, cell.ColSpan)
	}
	if table.GetCell(5, 0) != nil {
		t.Error("GetCell(5, 0) out of bounds, want nil")
	}
}

func TestTableValidate(t *testing.T) {
	t.Run("plain grid", func(t *testing.T) {
		table := NewTable(2, 2)
		if err := table.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("merged cell tiles exactly", func(t *testing.T) {
		table := NewTable(2, 2)
		table.Rows[0][0] = Cell{RowSpan: 1, ColSpan: 2}
		table.Rows[0][1] = Cell{} // covered
		if err := table.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("gap detected", func(t *testing.T) {
		table := NewTable(2, 2)
		table.Rows[0][1] = Cell{} // covered but no merge reaches it
		if err := table.Validate(); err == nil {
			t.Error("Validate() = nil, want tiling error")
		}
	})

	t.Run("overlap detected", func(t *testing.T) {
		table := NewTable(2, 2)
		table.Rows[0][0] = Cell{RowSpan: 1, ColSpan: 2}
		// (0,1) is still a real cell, so the merge overlaps it.
		if err := table.Validate(); err == nil {
			t.Error("Validate() = nil, want overlap error")
		}
	})

	t.Run("span exceeding grid", func(t *testing.T) {
		table := NewTable(2, 2)
		table.Rows[1][1] = Cell{RowSpan: 2, ColSpan: 1}
		if err := table.Validate(); err == nil {
			t.Error("Validate() = nil, want out-of-grid error")
		}
	})
}

func textCell(text string) Cell {
	p := &Paragraph{Lines: []Line{{Runs: []Run{{Text: text}}}}}
	return Cell{RowSpan: 1, ColSpan: 1, Blocks: []Block{ParagraphBlock(p)}}
}

func TestTableTextGrid(t *testing.T) {
	table := NewTable(2, 2)
	table.Rows[0][0] = textCell("A")
	merged := textCell("wide")
	merged.ColSpan = 2
	table.Rows[1][0] = merged
	table.Rows[1][1] = Cell{} // covered by the merge

	grid := table.TextGrid(nil)
	if len(grid) != 2 || len(grid[0]) != 2 {
		t.Fatalf("TextGrid() dimensions = %dx%d, want 2x2", len(grid), len(grid[0]))
	}
	if grid[0][0] != "A" {
		t.Errorf("grid[0][0] = %q, want %q", grid[0][0], "A")
	}
	if grid[0][1] != EmptyCellMarker {
		t.Errorf("grid[0][1] = %q, want empty marker", grid[0][1])
	}
	if grid[1][0] != "wide" {
		t.Errorf("grid[1][0] = %q, want %q", grid[1][0], "wide")
	}
	if grid[1][1] != EmptyCellMarker {
		t.Errorf("grid[1][1] = %q, want empty marker (merged continuation)", grid[1][1])
	}
}

func TestCellTextWithNestedTable(t *testing.T) {
	inner := NewTable(1, 2)
	inner.Rows[0][0] = textCell("x")
	inner.Rows[0][1] = textCell("y")
	inner.Nested = true
	arena := []Table{*inner}

	cell := Cell{RowSpan: 1, ColSpan: 1, Blocks: []Block{TableRefBlock(0)}}
	got := cell.Text(arena)
	if got != "x\ty" {
		t.Errorf("Text() = %q, want %q", got, "x\ty")
	}
}

func TestTableToMarkdown(t *testing.T) {
	table := NewTable(2, 2)
	table.Rows[0][0] = textCell("Name")
	table.Rows[0][1] = textCell("Age")
	table.Rows[1][0] = textCell("Ada")
	table.Rows[1][1] = textCell("36")

	md := table.ToMarkdown(nil)
	if !strings.Contains(md, "| Name | Age |") {
		t.Errorf("ToMarkdown() missing header row:\n%s", md)
	}
	if !strings.Contains(md, "|---|---|") {
		t.Errorf("ToMarkdown() missing separator row:\n%s", md)
	}
	if !strings.Contains(md, "| Ada | 36 |") {
		t.Errorf("ToMarkdown() missing data row:\n%s", md)
	}
}

func TestTableToCSV(t *testing.T) {
	table := NewTable(1, 3)
	table.Rows[0][0] = textCell("plain")
	table.Rows[0][1] = textCell("with, comma")
	table.Rows[0][2] = textCell(`with "quote"`)

	csv := table.ToCSV(nil)
	want := "plain,\"with, comma\",\"with \"\"quote\"\"\"\n"
	if csv != want {
		t.Errorf("ToCSV() = %q, want %q", csv, want)
	}
}

func TestLatticeCellBox(t *testing.T) {
	g := Lattice{
		RowBounds: []float64{0, 10, 30},
		ColBounds: []float64{0, 50, 120},
	}

	if g.RowCount() != 2 || g.ColCount() != 2 {
		t.Fatalf("lattice size = %dx%d, want 2x2", g.RowCount(), g.ColCount())
	}
	got := g.CellBox(1, 1)
	want := BBox{50, 10, 70, 20}
	if got != want {
		t.Errorf("CellBox(1,1) = %+v, want %+v", got, want)
	}
	if g.CellBox(2, 0) != (BBox{}) {
		t.Error("CellBox out of range should be the zero box")
	}
}

// ============================================================================
// Layout Tree Tests
// ============================================================================

func TestLayoutTreeBlocksOrder(t *testing.T) {
	p1 := &Paragraph{BBox: NewBBox(0, 0, 100, 20)}
	p2 := &Paragraph{BBox: NewBBox(0, 30, 100, 20)}
	p3 := &Paragraph{BBox: NewBBox(120, 0, 100, 20)}

	tree := LayoutTree{
		Sections: []Section{{
			Columns: []Column{
				{Blocks: []Block{ParagraphBlock(p1), ParagraphBlock(p2)}},
				{Blocks: []Block{ParagraphBlock(p3)}},
			},
		}},
	}

	blocks := tree.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("Blocks() count = %d, want 3", len(blocks))
	}
	if blocks[0].Paragraph != p1 || blocks[1].Paragraph != p2 || blocks[2].Paragraph != p3 {
		t.Error("Blocks() does not preserve column-major reading order")
	}
}

func TestLayoutTreeTopLevelTables(t *testing.T) {
	nested := *NewTable(1, 1)
	nested.Nested = true
	top := *NewTable(2, 2)

	tree := LayoutTree{
		Tables: []Table{nested, top},
		Sections: []Section{{
			Columns: []Column{{Blocks: []Block{TableRefBlock(1)}}},
		}},
	}

	tables := tree.TopLevelTables()
	if len(tables) != 1 {
		t.Fatalf("TopLevelTables() count = %d, want 1", len(tables))
	}
	if tables[0].RowCount() != 2 {
		t.Errorf("TopLevelTables()[0] rows = %d, want 2", tables[0].RowCount())
	}
}

func TestLayoutTreeText(t *testing.T) {
	p := &Paragraph{Lines: []Line{
		{Runs: []Run{{Text: "Hello "}, {Text: "world"}}},
		{Runs: []Run{{Text: "second line"}}},
	}}
	tree := LayoutTree{
		Sections: []Section{{
			Columns: []Column{{Blocks: []Block{ParagraphBlock(p)}}},
		}},
	}

	got := tree.Text()
	want := "Hello world\nsecond line"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

// ============================================================================
// Style Tests
// ============================================================================

func TestTextStyleEqual(t *testing.T) {
	base := TextStyle{FontFamily: "Helvetica", FontSize: 12, Color: Color{0, 0, 0}}

	same := base
	if !base.Equal(same) {
		t.Error("Equal() = false for identical styles")
	}

	bold := base
	bold.Bold = true
	if base.Equal(bold) {
		t.Error("Equal() = true for styles differing in weight")
	}

	hl := base
	yellow := Color{255, 255, 0}
	hl.Highlight = &yellow
	if base.Equal(hl) {
		t.Error("Equal() = true when only one style has a highlight")
	}

	hl2 := base
	yellow2 := Color{255, 255, 0}
	hl2.Highlight = &yellow2
	if !hl.Equal(hl2) {
		t.Error("Equal() = false for equal highlight colors behind distinct pointers")
	}
}

func TestSpanBold(t *testing.T) {
	if (TextSpan{Weight: 400}).Bold() {
		t.Error("Bold() = true for weight 400")
	}
	if !(TextSpan{Weight: 700}).Bold() {
		t.Error("Bold() = false for weight 700")
	}
}

func TestWarningString(t *testing.T) {
	w := Warning{Page: 3, Component: "geometry", Message: "dropped NaN box"}
	got := w.String()
	if !strings.Contains(got, "page 3") || !strings.Contains(got, "geometry") {
		t.Errorf("String() = %q, want page and component present", got)
	}
}
