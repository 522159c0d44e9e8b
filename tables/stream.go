package tables

import (
	"math"
	"sort"

	"github.com/tsawler/folio/model"
)

// bandGapFactor scales line height into the vertical gap that separates
// two candidate regions.
const bandGapFactor = 1.5

// detectStream finds tables with no drawn grid from text alignment alone.
// It bands the page's lines vertically, splits each band into columns at
// wide horizontal gaps, and synthesizes the grid a drawn table would have
// had. Lines already claimed by an explicit table are ignored.
func (d *Detector) detectStream(lines []model.Line, shells []*tableShell, shadings []model.FillRect) ([]*tableShell, error) {
	// Step 1: candidate lines are horizontal and outside every explicit
	// table region.
	var free []model.Line
	for _, line := range lines {
		if line.Direction != model.Horizontal {
			continue
		}
		claimed := false
		for _, shell := range shells {
			if shell.box.Contains(line.BBox.Center()) {
				claimed = true
				break
			}
		}
		if !claimed {
			free = append(free, line)
		}
	}
	if len(free) < 2 {
		return nil, nil
	}

	// Step 2: group lines into vertical bands separated by wide gaps.
	sort.Slice(free, func(i, j int) bool { return free[i].BBox.Top() < free[j].BBox.Top() })
	var out []*tableShell
	band := []model.Line{free[0]}
	bandBottom := free[0].BBox.Bottom()
	prevHeight := free[0].BBox.Height
	flush := func() error {
		shell, err := d.streamFromBand(band, shadings)
		if err != nil {
			return err
		}
		if shell != nil {
			out = append(out, shell)
		}
		return nil
	}
	for _, line := range free[1:] {
		gap := line.BBox.Top() - bandBottom
		if gap > bandGapFactor*math.Max(line.BBox.Height, prevHeight) {
			if err := flush(); err != nil {
				return nil, err
			}
			band = band[:0]
		}
		band = append(band, line)
		bandBottom = math.Max(bandBottom, line.BBox.Bottom())
		if len(band) == 1 {
			bandBottom = line.BBox.Bottom()
		}
		prevHeight = line.BBox.Height
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

// streamFromBand parses one vertical band of lines into a table shell, or
// nil when the band does not read as tabular.
func (d *Detector) streamFromBand(band []model.Line, shadings []model.FillRect) (*tableShell, error) {
	if len(band) < 2 {
		return nil, nil
	}

	// Step 1: columns are maximal x intervals separated by gaps of at
	// least MinColumnGap across the whole band.
	type interval struct{ lo, hi float64 }
	ivs := make([]interval, 0, len(band))
	for _, line := range band {
		ivs = append(ivs, interval{lo: line.BBox.Left(), hi: line.BBox.Right()})
	}
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].lo < ivs[j].lo })
	cols := []interval{ivs[0]}
	for _, iv := range ivs[1:] {
		last := &cols[len(cols)-1]
		if iv.lo-last.hi >= d.config.MinColumnGap {
			cols = append(cols, iv)
			continue
		}
		last.hi = math.Max(last.hi, iv.hi)
	}
	if len(cols) < 2 {
		return nil, nil
	}

	region := band[0].BBox
	for _, line := range band[1:] {
		region = region.Union(line.BBox)
	}

	// Step 2: vertical grid lines sit at the gap midpoints plus the region
	// edges.
	vGroups := make([]borderGroup, 0, len(cols)+1)
	vGroups = append(vGroups, syntheticGroup(region.Left(), region.Top(), region.Bottom()))
	for k := 1; k < len(cols); k++ {
		mid := (cols[k-1].hi + cols[k].lo) / 2
		vGroups = append(vGroups, syntheticGroup(mid, region.Top(), region.Bottom()))
	}
	vGroups = append(vGroups, syntheticGroup(region.Right(), region.Top(), region.Bottom()))

	// Step 3: group each column's lines into rows. Two side-by-side text
	// columns with ragged row counts read as flowing prose, not a table.
	colRows := make([][][]model.Line, len(cols))
	maxRows := 0
	for c, col := range cols {
		colBox := model.BBox{X: col.lo, Y: region.Y, Width: col.hi - col.lo, Height: region.Height}
		var members []model.Line
		for _, line := range band {
			if line.BBox.HorizontalOverlap(colBox) > 0 {
				members = append(members, line)
			}
		}
		colRows[c] = groupLineRows(members)
		if len(colRows[c]) > maxRows {
			maxRows = len(colRows[c])
		}
	}
	if maxRows < 2 {
		return nil, nil
	}
	if len(cols) == 2 && len(colRows[0]) != len(colRows[1]) {
		return nil, nil
	}

	// Step 4: horizontal grid lines at the row gap midpoints of each
	// column, each spanning only its column's lattice slot so uneven rows
	// merge instead of splitting their neighbors.
	var hSegs []gridSeg
	for c, rows := range colRows {
		lo, hi := vGroups[c].position, vGroups[c+1].position
		for r := 1; r < len(rows); r++ {
			prev := rowBox(rows[r-1])
			curr := rowBox(rows[r])
			mid := (prev.Bottom() + curr.Top()) / 2
			hSegs = append(hSegs, gridSeg{pos: mid, lo: lo, hi: hi})
		}
	}
	hGroups := groupGridSegs(hSegs, d.config.AlignmentTolerance)
	hGroups = append([]borderGroup{syntheticGroup(region.Top(), region.Left(), region.Right())}, hGroups...)
	hGroups = append(hGroups, syntheticGroup(region.Bottom(), region.Left(), region.Right()))

	var regionShadings []model.FillRect
	for _, fill := range shadings {
		if region.Contains(fill.BBox.Center()) {
			regionShadings = append(regionShadings, fill)
		}
	}

	return d.buildFromGroups(hGroups, vGroups, regionShadings, false)
}

// rowBox returns the union box of one row's lines.
func rowBox(row []model.Line) model.BBox {
	box := row[0].BBox
	for _, line := range row[1:] {
		box = box.Union(line.BBox)
	}
	return box
}

// groupLineRows groups lines into rows by baseline-band overlap, top to
// bottom.
func groupLineRows(lines []model.Line) [][]model.Line {
	if len(lines) == 0 {
		return nil
	}
	sorted := make([]model.Line, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BBox.Top() < sorted[j].BBox.Top() })

	rows := [][]model.Line{{sorted[0]}}
	boxes := []model.BBox{sorted[0].BBox}
	for _, line := range sorted[1:] {
		last := len(rows) - 1
		overlap := line.BBox.VerticalOverlap(boxes[last])
		if overlap >= 0.5*math.Min(line.BBox.Height, boxes[last].Height) {
			rows[last] = append(rows[last], line)
			boxes[last] = boxes[last].Union(line.BBox)
			continue
		}
		rows = append(rows, []model.Line{line})
		boxes = append(boxes, line.BBox)
	}
	return rows
}
