// Package geometry provides the spatial index the reconstruction stages
// query for primitive lookups. The index is built once per page, validates
// the raw primitive set on the way in, and is read-only afterward.
package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/tsawler/folio/model"
)

// Config controls spatial binning.
type Config struct {
	// BinSize is the edge length of one grid bin in page units.
	BinSize float64
}

// DefaultConfig returns the default index configuration.
func DefaultConfig() Config {
	return Config{
		BinSize: 64,
	}
}

// entry is one indexed primitive. Ordinal preserves the input order across
// all primitive kinds so query results are deterministic.
type entry struct {
	ordinal int
	box     model.BBox
	prim    model.Primitive
}

// Index answers spatial queries over one page's primitives: which primitives
// intersect a region, and which primitive is nearest below or right of a
// point. Construction drops malformed primitives (NaN or infinite
// coordinates, degenerate boxes) with a recorded warning; they never reach
// the inference stages.
type Index struct {
	page    model.BBox
	binSize float64
	cols    int
	rows    int
	bins    [][]int // bin -> entry ordinals

	entries []entry

	spans  []model.TextSpan
	images []model.Image
	paths  []model.Path
	fills  []model.FillRect

	warnings []model.Warning
}

// NewIndex builds the index for one page. The page box comes from the
// primitive set; when the set reports no page size the box is derived from
// the primitives themselves.
func NewIndex(prims model.PagePrimitives, cfg Config) *Index {
	if cfg.BinSize <= 0 {
		cfg.BinSize = DefaultConfig().BinSize
	}

	ix := &Index{
		page:    prims.PageBox(),
		binSize: cfg.BinSize,
	}

	ix.ingest(prims)

	if !ix.page.IsValid() {
		ix.page = ix.contentBounds()
	}

	ix.cols = int(math.Ceil(ix.page.Width/ix.binSize)) + 1
	ix.rows = int(math.Ceil(ix.page.Height/ix.binSize)) + 1
	if ix.cols < 1 {
		ix.cols = 1
	}
	if ix.rows < 1 {
		ix.rows = 1
	}
	ix.bins = make([][]int, ix.cols*ix.rows)
	for _, e := range ix.entries {
		ix.place(e)
	}

	return ix
}

// ingest validates each primitive and keeps the survivors, accumulating one
// warning per dropped primitive.
func (ix *Index) ingest(prims model.PagePrimitives) {
	page := prims.PageIndex
	ordinal := 0

	add := func(p model.Primitive, box model.BBox) {
		ix.entries = append(ix.entries, entry{ordinal: ordinal, box: box, prim: p})
		ordinal++
	}
	drop := func(kind model.PrimitiveKind, reason string) {
		ix.warnings = append(ix.warnings, model.Warning{
			Page:      page,
			Component: "geometry",
			Message:   fmt.Sprintf("dropped %s: %s", kind, reason),
		})
	}

	for _, s := range prims.Spans {
		switch {
		case !s.BBox.IsFinite() || math.IsNaN(s.Baseline) || math.IsInf(s.Baseline, 0):
			drop(model.KindTextSpan, "non-finite coordinates")
		case !s.BBox.IsValid():
			drop(model.KindTextSpan, "degenerate bounding box")
		default:
			ix.spans = append(ix.spans, s)
			add(s, s.BBox)
		}
	}
	for _, im := range prims.Images {
		switch {
		case !im.BBox.IsFinite():
			drop(model.KindImage, "non-finite coordinates")
		case !im.BBox.IsValid():
			drop(model.KindImage, "degenerate bounding box")
		default:
			ix.images = append(ix.images, im)
			add(im, im.BBox)
		}
	}
	for _, p := range prims.Paths {
		if !validPath(p) {
			drop(model.KindPath, "non-finite or zero-length geometry")
			continue
		}
		ix.paths = append(ix.paths, p)
		add(p, p.Bounds())
	}
	for _, f := range prims.Fills {
		switch {
		case !f.BBox.IsFinite():
			drop(model.KindFillRect, "non-finite coordinates")
		case !f.BBox.IsValid():
			drop(model.KindFillRect, "degenerate bounding box")
		default:
			ix.fills = append(ix.fills, f)
			add(f, f.BBox)
		}
	}
}

// validPath requires at least two finite points and some extent. A path's
// bounding box may legitimately be flat in one axis (a straight rule), so
// the degenerate test is total length, not area.
func validPath(p model.Path) bool {
	if len(p.Points) < 2 {
		return false
	}
	if math.IsNaN(p.StrokeWidth) || math.IsInf(p.StrokeWidth, 0) {
		return false
	}
	length := 0.0
	for i, pt := range p.Points {
		if !pt.IsFinite() {
			return false
		}
		if i > 0 {
			length += pt.Distance(p.Points[i-1])
		}
	}
	return length > 0
}

// contentBounds unions all entry boxes, for pages that report no size.
func (ix *Index) contentBounds() model.BBox {
	if len(ix.entries) == 0 {
		return model.NewBBox(0, 0, 1, 1)
	}
	box := ix.entries[0].box
	for _, e := range ix.entries[1:] {
		box = box.Union(e.box)
	}
	if !box.IsValid() {
		return model.NewBBox(box.X, box.Y, math.Max(box.Width, 1), math.Max(box.Height, 1))
	}
	return box
}

func (ix *Index) binAt(col, row int) int {
	return row*ix.cols + col
}

// binRange maps a box to the inclusive bin rectangle it covers, clamped to
// the grid.
func (ix *Index) binRange(box model.BBox) (c0, r0, c1, r1 int) {
	c0 = int((box.Left() - ix.page.Left()) / ix.binSize)
	r0 = int((box.Top() - ix.page.Top()) / ix.binSize)
	c1 = int((box.Right() - ix.page.Left()) / ix.binSize)
	r1 = int((box.Bottom() - ix.page.Top()) / ix.binSize)

	c0 = clamp(c0, 0, ix.cols-1)
	c1 = clamp(c1, 0, ix.cols-1)
	r0 = clamp(r0, 0, ix.rows-1)
	r1 = clamp(r1, 0, ix.rows-1)
	return
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (ix *Index) place(e entry) {
	c0, r0, c1, r1 := ix.binRange(e.box)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			b := ix.binAt(c, r)
			ix.bins[b] = append(ix.bins[b], e.ordinal)
		}
	}
}

// Len returns the number of indexed (surviving) primitives.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// PageBox returns the page boundary the index was built for.
func (ix *Index) PageBox() model.BBox {
	return ix.page
}

// Warnings returns the warnings recorded while ingesting the primitive set.
func (ix *Index) Warnings() []model.Warning {
	return ix.warnings
}

// Spans returns the surviving text spans in input order.
func (ix *Index) Spans() []model.TextSpan {
	return ix.spans
}

// Images returns the surviving images in input order.
func (ix *Index) Images() []model.Image {
	return ix.images
}

// Paths returns the surviving paths in input order.
func (ix *Index) Paths() []model.Path {
	return ix.paths
}

// Fills returns the surviving fill rectangles in input order.
func (ix *Index) Fills() []model.FillRect {
	return ix.fills
}

// Intersecting returns the primitives whose bounding boxes intersect the
// region, in input order. The result carries no duplicates even when a
// primitive spans multiple bins.
func (ix *Index) Intersecting(region model.BBox) []model.Primitive {
	if len(ix.entries) == 0 {
		return nil
	}
	c0, r0, c1, r1 := ix.binRange(region)

	seen := make(map[int]struct{})
	var hits []int
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, ord := range ix.bins[ix.binAt(c, r)] {
				if _, ok := seen[ord]; ok {
					continue
				}
				seen[ord] = struct{}{}
				if ix.entries[ord].box.Intersects(region) {
					hits = append(hits, ord)
				}
			}
		}
	}
	sort.Ints(hits)

	out := make([]model.Primitive, len(hits))
	for i, ord := range hits {
		out[i] = ix.entries[ord].prim
	}
	return out
}

// SpansIn returns the surviving text spans intersecting the region, in input
// order.
func (ix *Index) SpansIn(region model.BBox) []model.TextSpan {
	var out []model.TextSpan
	for _, p := range ix.Intersecting(region) {
		if s, ok := p.(model.TextSpan); ok {
			out = append(out, s)
		}
	}
	return out
}

// NearestBelow returns the primitive whose top edge is nearest below the
// point among primitives whose horizontal extent covers the point's x. The
// search walks bin rows downward and stops as soon as no closer hit is
// possible.
func (ix *Index) NearestBelow(p model.Point) (model.Primitive, bool) {
	best := -1
	bestDist := math.Inf(1)

	col := clamp(int((p.X-ix.page.Left())/ix.binSize), 0, ix.cols-1)
	startRow := clamp(int((p.Y-ix.page.Top())/ix.binSize), 0, ix.rows-1)

	for r := startRow; r < ix.rows; r++ {
		rowTop := ix.page.Top() + float64(r)*ix.binSize
		if best >= 0 && rowTop-p.Y > bestDist {
			break
		}
		for _, ord := range ix.bins[ix.binAt(col, r)] {
			box := ix.entries[ord].box
			if box.Left() > p.X || box.Right() < p.X {
				continue
			}
			d := box.Top() - p.Y
			if d < 0 {
				continue
			}
			if d < bestDist || (d == bestDist && ord < best) {
				bestDist = d
				best = ord
			}
		}
	}

	if best < 0 {
		return nil, false
	}
	return ix.entries[best].prim, true
}

// NearestRightOf returns the primitive whose left edge is nearest right of
// the point among primitives whose vertical extent covers the point's y.
func (ix *Index) NearestRightOf(p model.Point) (model.Primitive, bool) {
	best := -1
	bestDist := math.Inf(1)

	row := clamp(int((p.Y-ix.page.Top())/ix.binSize), 0, ix.rows-1)
	startCol := clamp(int((p.X-ix.page.Left())/ix.binSize), 0, ix.cols-1)

	for c := startCol; c < ix.cols; c++ {
		colLeft := ix.page.Left() + float64(c)*ix.binSize
		if best >= 0 && colLeft-p.X > bestDist {
			break
		}
		for _, ord := range ix.bins[ix.binAt(c, row)] {
			box := ix.entries[ord].box
			if box.Top() > p.Y || box.Bottom() < p.Y {
				continue
			}
			d := box.Left() - p.X
			if d < 0 {
				continue
			}
			if d < bestDist || (d == bestDist && ord < best) {
				bestDist = d
				best = ord
			}
		}
	}

	if best < 0 {
		return nil, false
	}
	return ix.entries[best].prim, true
}
