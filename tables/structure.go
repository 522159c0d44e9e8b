package tables

import (
	"math"
	"sort"

	"github.com/tsawler/folio/model"
)

// tableShell is a structured table awaiting content assignment: cell
// geometry, spans, borders and shading are set, cell blocks are not.
type tableShell struct {
	table  *model.Table
	box    model.BBox
	stream bool
}

// cellCount returns the number of logical (non-covered) cells.
func (s *tableShell) cellCount() int {
	n := 0
	for _, row := range s.table.Rows {
		for _, cell := range row {
			if !cell.Covered() {
				n++
			}
		}
	}
	return n
}

// detectExplicit finds tables whose grid is drawn: it partitions border
// strokes and shading fills into connected components and parses each
// component into a cell structure.
func (d *Detector) detectExplicit(
	spans []model.TextSpan,
	borders []model.Segment,
	shadings []model.FillRect,
) ([]*tableShell, error) {
	// A stroke thicker than a plausible rule is a decorative band. Its
	// centerline is not a cell boundary, so it contributes no grid evidence.
	kept := borders[:0:0]
	for _, seg := range borders {
		if seg.Width <= d.config.MaxBorderWidth {
			kept = append(kept, seg)
		}
	}
	borders = kept

	if len(borders) == 0 && len(shadings) == 0 {
		return nil, nil
	}

	// Step 1: group strokes and fills that touch transitively; each group
	// is one table candidate.
	boxes := make([]model.BBox, 0, len(borders)+len(shadings))
	for _, seg := range borders {
		boxes = append(boxes, seg.Bounds())
	}
	for _, fill := range shadings {
		boxes = append(boxes, fill.BBox)
	}

	var shells []*tableShell
	for _, comp := range connectedComponents(boxes) {
		var compBorders []model.Segment
		var compShadings []model.FillRect
		for _, idx := range comp {
			if idx < len(borders) {
				compBorders = append(compBorders, borders[idx])
			} else {
				compShadings = append(compShadings, shadings[idx-len(borders)])
			}
		}

		// A lone stroke or a lone fill is page decoration, not a grid.
		if len(compBorders) < 2 && len(compShadings) < 2 {
			continue
		}

		// Step 2: cluster the component's segments into candidate grid
		// lines and complete the boundary.
		hSegs, vSegs := splitGridSegs(compBorders, compShadings, d.config.ClusterTolerance)
		hGroups := groupGridSegs(hSegs, d.config.ClusterTolerance)
		vGroups := groupGridSegs(vSegs, d.config.ClusterTolerance)
		hGroups, vGroups = ensureOuterBorders(hGroups, vGroups, d.config.ClusterTolerance)

		// Step 3: fill in column boundaries the strokes leave implicit.
		vGroups = insertGroups(vGroups, d.inferColumnBoundaries(hGroups, vGroups, spans))

		// Step 4: parse the lattice into cells.
		shell, err := d.buildFromGroups(hGroups, vGroups, compShadings, true)
		if err != nil {
			return nil, err
		}
		if shell != nil {
			shells = append(shells, shell)
		}
	}
	return shells, nil
}

// buildFromGroups parses sorted grid-line groups into a cell structure.
// It returns nil when the candidate does not qualify as a table, which is
// the normal fallback, and an error only when the resulting cell spans
// fail to tile the lattice.
func (d *Detector) buildFromGroups(h, v []borderGroup, shadings []model.FillRect, hasGrid bool) (*tableShell, error) {
	// Step 1: a table needs at least two grid lines per axis.
	if len(h) < 2 || len(v) < 2 {
		return nil, nil
	}
	nRows, nCols := len(h)-1, len(v)-1
	if nRows < d.config.MinRows || nCols < d.config.MinCols {
		return nil, nil
	}

	lattice := model.Lattice{
		RowBounds: make([]float64, len(h)),
		ColBounds: make([]float64, len(v)),
	}
	for i, g := range h {
		lattice.RowBounds[i] = g.position
	}
	for j, g := range v {
		lattice.ColBounds[j] = g.position
	}

	// Step 2: pre-merge shading per lattice position, used both for the
	// fill-discontinuity separation rule and as the fallback background.
	shade := make([][]*model.Color, nRows)
	for i := range shade {
		shade[i] = make([]*model.Color, nCols)
		for j := range shade[i] {
			shade[i][j] = d.shadingColor(lattice.CellBox(i, j), shadings)
		}
	}

	// Step 3: separation flags. rowFlags[i][j] reports whether the j-th
	// vertical grid line separates cell (i,j) from its left neighbor at
	// row i's midline; colFlags[j][i] is the transpose for horizontal
	// lines. A boundary also separates when the shading color changes
	// across it.
	rowFlags := make([][]bool, nRows)
	for i := 0; i < nRows; i++ {
		ref := (lattice.RowBounds[i] + lattice.RowBounds[i+1]) / 2
		rowFlags[i] = make([]bool, nCols)
		for j := 0; j < nCols; j++ {
			sep := v[j].crosses(ref)
			if !sep && j > 0 && shadeDiffers(shade[i][j-1], shade[i][j]) {
				sep = true
			}
			rowFlags[i][j] = sep
		}
	}
	colFlags := make([][]bool, nCols)
	for j := 0; j < nCols; j++ {
		ref := (lattice.ColBounds[j] + lattice.ColBounds[j+1]) / 2
		colFlags[j] = make([]bool, nRows)
		for i := 0; i < nRows; i++ {
			sep := h[i].crosses(ref)
			if !sep && i > 0 && shadeDiffers(shade[i-1][j], shade[i][j]) {
				sep = true
			}
			colFlags[j][i] = sep
		}
	}

	// A top-left cell with no top or left boundary means the strokes never
	// formed a closed structure.
	if !rowFlags[0][0] || !colFlags[0][0] {
		return nil, nil
	}

	// Step 4: build cells. A position whose left or top boundary is
	// missing is covered by a merge anchored further up or left; an anchor
	// extends right and down while the boundaries stay missing.
	table := model.NewTable(nRows, nCols)
	table.Lattice = lattice
	table.HasGrid = hasGrid
	for i := 0; i < nRows; i++ {
		for j := 0; j < nCols; j++ {
			if !rowFlags[i][j] || !colFlags[j][i] {
				table.Rows[i][j] = model.Cell{}
				continue
			}

			colSpan := 1
			for m := j + 1; m < nCols && !rowFlags[i][m]; m++ {
				colSpan++
			}
			rowSpan := 1
			for m := i + 1; m < nRows && !colFlags[j][m]; m++ {
				rowSpan++
			}

			x0, x1 := lattice.ColBounds[j], lattice.ColBounds[j+colSpan]
			y0, y1 := lattice.RowBounds[i], lattice.RowBounds[i+rowSpan]
			bbox := model.BBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}

			cellBorders := model.CellBorders{
				Top:    d.edgeBorder(h[i], x0, x1),
				Bottom: d.edgeBorder(h[i+rowSpan], x0, x1),
				Left:   d.edgeBorder(v[j], y0, y1),
				Right:  d.edgeBorder(v[j+colSpan], y0, y1),
			}

			background := d.shadingColor(innerCellBox(bbox, cellBorders), shadings)
			if background == nil && rowSpan == 1 && colSpan == 1 {
				background = shade[i][j]
			}

			table.Rows[i][j] = model.Cell{
				BBox:       bbox,
				RowSpan:    rowSpan,
				ColSpan:    colSpan,
				Background: background,
				Borders:    cellBorders,
			}
		}
	}

	// Step 5: the merge flags are per-axis, so an irregular stroke pattern
	// can produce spans that overlap or leave holes. That violates the
	// tiling invariant and fails the page.
	if err := table.Validate(); err != nil {
		return nil, err
	}

	table.BBox = model.BBox{
		X:      lattice.ColBounds[0],
		Y:      lattice.RowBounds[0],
		Width:  lattice.ColBounds[nCols] - lattice.ColBounds[0],
		Height: lattice.RowBounds[nRows] - lattice.RowBounds[0],
	}
	table.Confidence = gridConfidence(h, v)

	return &tableShell{table: table, box: table.BBox, stream: !hasGrid}, nil
}

// gridConfidence scores a lattice by the share of grid lines backed by
// visible strokes: 1.0 for a fully drawn grid, 0.5 for a purely inferred
// one.
func gridConfidence(h, v []borderGroup) float64 {
	total, stroked := 0, 0
	for _, g := range h {
		total++
		if g.hasStroke() {
			stroked++
		}
	}
	for _, g := range v {
		total++
		if g.hasStroke() {
			stroked++
		}
	}
	if total == 0 {
		return 0.5
	}
	return 0.5 + 0.5*float64(stroked)/float64(total)
}

// edgeBorder derives one cell edge from a grid-line group. The edge is
// present when stroked segments cover enough of the lo..hi extent; width
// and color come from the longest covering stroke.
func (d *Detector) edgeBorder(g borderGroup, lo, hi float64) model.BorderEdge {
	if hi <= lo {
		return model.BorderEdge{}
	}

	type clipped struct {
		lo, hi float64
		seg    gridSeg
	}
	var parts []clipped
	for _, seg := range g.segs {
		if !seg.stroked {
			continue
		}
		clo, chi := math.Max(seg.lo, lo), math.Min(seg.hi, hi)
		if chi > clo {
			parts = append(parts, clipped{lo: clo, hi: chi, seg: seg})
		}
	}
	if len(parts) == 0 {
		return model.BorderEdge{}
	}

	// Union length of the clipped extents, plus the dominant stroke.
	sort.Slice(parts, func(i, j int) bool { return parts[i].lo < parts[j].lo })
	covered := 0.0
	cursor := math.Inf(-1)
	best := parts[0]
	for _, p := range parts {
		if p.hi-p.lo > best.hi-best.lo {
			best = p
		}
		if p.lo > cursor {
			covered += p.hi - p.lo
			cursor = p.hi
		} else if p.hi > cursor {
			covered += p.hi - cursor
			cursor = p.hi
		}
	}
	if covered/(hi-lo) < d.config.EdgeCoverRatio {
		return model.BorderEdge{}
	}
	return model.BorderEdge{Present: true, Width: best.seg.width, Color: best.seg.color}
}

// innerCellBox insets a cell box by half of each present border width,
// giving the region available to content.
func innerCellBox(box model.BBox, borders model.CellBorders) model.BBox {
	insetL, insetT, insetR, insetB := 0.0, 0.0, 0.0, 0.0
	if borders.Left.Present {
		insetL = borders.Left.Width / 2
	}
	if borders.Top.Present {
		insetT = borders.Top.Width / 2
	}
	if borders.Right.Present {
		insetR = borders.Right.Width / 2
	}
	if borders.Bottom.Present {
		insetB = borders.Bottom.Width / 2
	}
	return model.BBox{
		X:      box.X + insetL,
		Y:      box.Y + insetT,
		Width:  box.Width - insetL - insetR,
		Height: box.Height - insetT - insetB,
	}
}

// shadingColor returns the fill color of the largest shading rect that is
// substantially contained in the box, or nil when the box has no shading.
func (d *Detector) shadingColor(box model.BBox, shadings []model.FillRect) *model.Color {
	var best *model.FillRect
	for i := range shadings {
		fill := &shadings[i]
		if !box.ContainsBox(fill.BBox, d.config.ShadingContainment) {
			continue
		}
		if best == nil || fill.BBox.Area() > best.BBox.Area() {
			best = fill
		}
	}
	if best == nil {
		return nil
	}
	color := best.Fill
	return &color
}

// shadeDiffers reports whether two cell backgrounds differ, treating nil
// as unshaded.
func shadeDiffers(a, b *model.Color) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	if a == nil {
		return false
	}
	return !a.Equal(*b)
}

// cellPosition locates the lattice position containing a point. The last
// row and column include their far boundary.
func cellPosition(lat model.Lattice, pt model.Point) (int, int, bool) {
	row, col := -1, -1
	for i := 0; i+1 < len(lat.RowBounds); i++ {
		hi := lat.RowBounds[i+1]
		if pt.Y >= lat.RowBounds[i] && (pt.Y < hi || (i+2 == len(lat.RowBounds) && pt.Y <= hi)) {
			row = i
			break
		}
	}
	for j := 0; j+1 < len(lat.ColBounds); j++ {
		hi := lat.ColBounds[j+1]
		if pt.X >= lat.ColBounds[j] && (pt.X < hi || (j+2 == len(lat.ColBounds) && pt.X <= hi)) {
			col = j
			break
		}
	}
	if row < 0 || col < 0 {
		return 0, 0, false
	}
	return row, col, true
}

// anchorOf resolves a covered lattice position to the merged cell anchoring
// it. A non-covered position is its own anchor.
func anchorOf(t *model.Table, row, col int) (int, int) {
	for r := row; r >= 0; r-- {
		for c := col; c >= 0; c-- {
			cell := t.Rows[r][c]
			if cell.Covered() {
				continue
			}
			if r+cell.RowSpan > row && c+cell.ColSpan > col {
				return r, c
			}
		}
	}
	return row, col
}
