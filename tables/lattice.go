package tables

import (
	"math"
	"sort"

	"github.com/tsawler/folio/model"
)

// gridSeg is one axis-aligned piece of grid-line evidence: a stroked border
// segment, the edge of a shading fill, or a synthesized boundary. Stroked
// segments alone decide visible border presence; the rest only shape the
// lattice.
type gridSeg struct {
	pos     float64 // centerline coordinate on the cross axis
	lo, hi  float64 // extent along the main axis
	width   float64
	color   model.Color
	stroked bool
}

// crosses reports whether the segment extent strictly contains ref.
func (s gridSeg) crosses(ref float64) bool {
	return s.lo < ref && ref < s.hi
}

// borderGroup is one candidate grid line: parallel segments clustered by
// centerline proximity.
type borderGroup struct {
	position float64
	lo, hi   float64
	segs     []gridSeg
	maxWidth float64
}

// crosses reports whether any member segment strictly spans ref. A grid
// line interrupted by a gap does not separate cells inside the gap.
func (g borderGroup) crosses(ref float64) bool {
	for _, s := range g.segs {
		if s.crosses(ref) {
			return true
		}
	}
	return false
}

// hasStroke reports whether the group carries at least one visible stroke.
func (g borderGroup) hasStroke() bool {
	for _, s := range g.segs {
		if s.stroked {
			return true
		}
	}
	return false
}

// syntheticGroup builds a grid line with no visible stroke spanning lo..hi.
func syntheticGroup(position, lo, hi float64) borderGroup {
	return borderGroup{
		position: position,
		lo:       lo,
		hi:       hi,
		segs:     []gridSeg{{pos: position, lo: lo, hi: hi}},
	}
}

// splitGridSegs converts border strokes and shading edges into horizontal
// and vertical grid segments. Oblique strokes contribute nothing.
func splitGridSegs(borders []model.Segment, shadings []model.FillRect, tol float64) (h, v []gridSeg) {
	for _, seg := range borders {
		switch {
		case seg.IsHorizontal(tol):
			lo := math.Min(seg.Start.X, seg.End.X)
			hi := math.Max(seg.Start.X, seg.End.X)
			h = append(h, gridSeg{
				pos:     seg.Position(true),
				lo:      lo,
				hi:      hi,
				width:   seg.Width,
				color:   seg.Color,
				stroked: true,
			})
		case seg.IsVertical(tol):
			lo := math.Min(seg.Start.Y, seg.End.Y)
			hi := math.Max(seg.Start.Y, seg.End.Y)
			v = append(v, gridSeg{
				pos:     seg.Position(false),
				lo:      lo,
				hi:      hi,
				width:   seg.Width,
				color:   seg.Color,
				stroked: true,
			})
		}
	}
	for _, fill := range shadings {
		box := fill.BBox
		h = append(h,
			gridSeg{pos: box.Top(), lo: box.Left(), hi: box.Right(), color: fill.Fill},
			gridSeg{pos: box.Bottom(), lo: box.Left(), hi: box.Right(), color: fill.Fill},
		)
		v = append(v,
			gridSeg{pos: box.Left(), lo: box.Top(), hi: box.Bottom(), color: fill.Fill},
			gridSeg{pos: box.Right(), lo: box.Top(), hi: box.Bottom(), color: fill.Fill},
		)
	}
	return h, v
}

// groupGridSegs clusters parallel segments whose centerlines fall within
// tolerance of each other into candidate grid lines. The cluster position is
// refined by averaging as members join, matching how boundary coordinates
// are clustered elsewhere in the package.
func groupGridSegs(segs []gridSeg, tolerance float64) []borderGroup {
	if len(segs) == 0 {
		return nil
	}

	sorted := make([]gridSeg, len(segs))
	copy(sorted, segs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].pos < sorted[j].pos })

	groups := []borderGroup{{
		position: sorted[0].pos,
		lo:       sorted[0].lo,
		hi:       sorted[0].hi,
		segs:     []gridSeg{sorted[0]},
		maxWidth: strokeWidth(sorted[0]),
	}}

	for _, seg := range sorted[1:] {
		last := &groups[len(groups)-1]
		if seg.pos-last.position > tolerance {
			groups = append(groups, borderGroup{
				position: seg.pos,
				lo:       seg.lo,
				hi:       seg.hi,
				segs:     []gridSeg{seg},
				maxWidth: strokeWidth(seg),
			})
			continue
		}
		last.position = (last.position + seg.pos) / 2
		last.lo = math.Min(last.lo, seg.lo)
		last.hi = math.Max(last.hi, seg.hi)
		last.segs = append(last.segs, seg)
		if w := strokeWidth(seg); w > last.maxWidth {
			last.maxWidth = w
		}
	}

	return groups
}

func strokeWidth(s gridSeg) float64 {
	if !s.stroked {
		return 0
	}
	return s.width
}

// ensureOuterBorders synthesizes missing outer grid lines. The target
// rectangle comes from the extents of the perpendicular groups; an existing
// extreme group counts as the outer border when its centerline sits within
// its own stroke width of the target.
func ensureOuterBorders(h, v []borderGroup, tolerance float64) (outH, outV []borderGroup) {
	if len(h) == 0 && len(v) == 0 {
		return h, v
	}

	left, right := math.Inf(1), math.Inf(-1)
	top, bottom := math.Inf(1), math.Inf(-1)
	for _, g := range h {
		left = math.Min(left, g.lo)
		right = math.Max(right, g.hi)
		top = math.Min(top, g.position)
		bottom = math.Max(bottom, g.position)
	}
	for _, g := range v {
		left = math.Min(left, g.position)
		right = math.Max(right, g.position)
		top = math.Min(top, g.lo)
		bottom = math.Max(bottom, g.hi)
	}

	outH, outV = h, v
	if missingOuter(outV, left, true, tolerance) {
		outV = append([]borderGroup{syntheticGroup(left, top, bottom)}, outV...)
	}
	if missingOuter(outV, right, false, tolerance) {
		outV = append(outV, syntheticGroup(right, top, bottom))
	}
	if missingOuter(outH, top, true, tolerance) {
		outH = append([]borderGroup{syntheticGroup(top, left, right)}, outH...)
	}
	if missingOuter(outH, bottom, false, tolerance) {
		outH = append(outH, syntheticGroup(bottom, left, right))
	}
	return outH, outV
}

// missingOuter reports whether no extreme group covers the target outer
// coordinate. first selects which end of the sorted group list to test.
func missingOuter(groups []borderGroup, target float64, first bool, tolerance float64) bool {
	if len(groups) == 0 {
		return true
	}
	g := groups[len(groups)-1]
	if first {
		g = groups[0]
	}
	slack := math.Max(g.maxWidth, tolerance)
	return math.Abs(g.position-target) > slack
}

// inferColumnBoundaries finds internal vertical grid lines implied by text
// alignment when the drawn strokes are incomplete. A candidate boundary
// needs span left edges agreeing within tolerance across at least two rows,
// text strictly on both sides, and no span crossing it.
func (d *Detector) inferColumnBoundaries(h, v []borderGroup, spans []model.TextSpan) []borderGroup {
	if len(h) < 2 || len(v) < 2 {
		return nil
	}
	box := model.BBox{
		X:      v[0].position,
		Y:      h[0].position,
		Width:  v[len(v)-1].position - v[0].position,
		Height: h[len(h)-1].position - h[0].position,
	}

	// Step 1: collect horizontal spans inside the table region together
	// with the row band each one occupies.
	type edgeMark struct {
		x   float64
		row int
		box model.BBox
	}
	var inner []model.TextSpan
	var marks []edgeMark
	for _, span := range spans {
		if span.Direction != model.Horizontal || !box.Contains(span.BBox.Center()) {
			continue
		}
		row := -1
		mid := span.BBox.Center().Y
		for i := 0; i+1 < len(h); i++ {
			if mid >= h[i].position && mid < h[i+1].position {
				row = i
				break
			}
		}
		if row < 0 {
			continue
		}
		inner = append(inner, span)
		marks = append(marks, edgeMark{x: span.BBox.Left(), row: row, box: span.BBox})
	}
	if len(marks) < 2 {
		return nil
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].x < marks[j].x })

	// Step 2: cluster left edges within the alignment tolerance.
	var clusters [][]edgeMark
	current := []edgeMark{marks[0]}
	for _, m := range marks[1:] {
		if m.x-current[len(current)-1].x > d.config.AlignmentTolerance {
			clusters = append(clusters, current)
			current = []edgeMark{m}
		} else {
			current = append(current, m)
		}
	}
	clusters = append(clusters, current)

	// Step 3: vet each cluster as an internal boundary.
	var inferred []borderGroup
	for _, cluster := range clusters {
		rows := map[int]bool{}
		clusterLeft := math.Inf(1)
		for _, m := range cluster {
			rows[m.row] = true
			clusterLeft = math.Min(clusterLeft, m.x)
		}
		if len(rows) < 2 {
			continue
		}

		// Text must exist strictly left of the aligned edges, and the gap
		// between the two sides locates the boundary.
		gapLo := math.Inf(-1)
		leftSide := false
		for _, span := range inner {
			if span.BBox.Right() <= clusterLeft-d.config.AlignmentTolerance {
				leftSide = true
				gapLo = math.Max(gapLo, span.BBox.Right())
			}
		}
		if !leftSide || clusterLeft-gapLo <= d.config.AlignmentTolerance {
			continue
		}
		candidate := (gapLo + clusterLeft) / 2

		// No span may straddle the boundary. Any grid line already inside
		// the gap, even a partial one, owns this boundary: a partial
		// stroke signals a merged cell, not a missing column.
		crossed := false
		for _, span := range inner {
			if span.BBox.Left() < candidate-d.config.AlignmentTolerance &&
				span.BBox.Right() > candidate+d.config.AlignmentTolerance {
				crossed = true
				break
			}
		}
		if crossed {
			continue
		}
		taken := false
		for _, g := range v {
			if g.position >= gapLo-d.config.AlignmentTolerance && g.position <= clusterLeft+d.config.AlignmentTolerance {
				taken = true
				break
			}
		}
		for _, g := range inferred {
			if g.position >= gapLo-d.config.AlignmentTolerance && g.position <= clusterLeft+d.config.AlignmentTolerance {
				taken = true
				break
			}
		}
		if taken {
			continue
		}

		// The boundary separates cells only across the rows that supplied
		// alignment evidence.
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, m := range cluster {
			lo = math.Min(lo, m.box.Top())
			hi = math.Max(hi, m.box.Bottom())
		}
		inferred = append(inferred, syntheticGroup(candidate, lo, hi))
	}
	return inferred
}

// insertGroups merges extra grid lines into a sorted group list.
func insertGroups(groups, extra []borderGroup) []borderGroup {
	if len(extra) == 0 {
		return groups
	}
	merged := append(append([]borderGroup{}, groups...), extra...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].position < merged[j].position })
	return merged
}

// connectedComponents partitions boxes into transitively-intersecting
// groups and returns the member indices of each group.
func connectedComponents(boxes []model.BBox) [][]int {
	n := len(boxes)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[rj] = ri
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if boxes[i].Intersects(boxes[j]) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	comps := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		comps = append(comps, members)
	}
	// Deterministic order: by smallest member index.
	sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
	return comps
}
