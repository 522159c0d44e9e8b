package layout

import (
	"math"
	"sort"

	"github.com/tsawler/folio/model"
)

// SectionConfig holds configuration for splitting a page into sections
// and columns.
type SectionConfig struct {
	// GutterMinWidth is the minimum width, in page units, of the empty
	// vertical strip between two columns (default: 20).
	GutterMinWidth float64

	// GutterMinHeightFrac is the minimum fraction of the content height
	// the two-column band must cover when full-width content sits above
	// or below it (default: 0.75).
	GutterMinHeightFrac float64
}

// DefaultSectionConfig returns sensible default configuration.
func DefaultSectionConfig() SectionConfig {
	return SectionConfig{
		GutterMinWidth:      20.0,
		GutterMinHeightFrac: 0.75,
	}
}

// SectionBand is one horizontal slab of the page with its column
// geometry. Columns hold the column boxes left to right; Space is the
// gutter width between two columns and 0 for one.
type SectionBand struct {
	BBox    model.BBox
	Columns []model.BBox
	Space   float64
}

// SectionDetector splits a page into stacked sections of one or two
// columns.
type SectionDetector struct {
	config SectionConfig
}

// NewSectionDetector creates a section detector with default
// configuration.
func NewSectionDetector() *SectionDetector {
	return &SectionDetector{config: DefaultSectionConfig()}
}

// NewSectionDetectorWithConfig creates a section detector with custom
// configuration.
func NewSectionDetectorWithConfig(config SectionConfig) *SectionDetector {
	return &SectionDetector{config: config}
}

// Detect partitions the page into section bands from the boxes of its
// content elements (lines, tables, images). Exactly one sufficiently
// wide empty vertical strip splits the page into two columns; full-width
// content above or below a central two-column band yields stacked
// sections instead. Anything more complex degrades to a single column,
// as does a band covering too little of the content height.
func (d *SectionDetector) Detect(boxes []model.BBox, pageBox model.BBox) []SectionBand {
	if len(boxes) == 0 {
		return nil
	}

	content := boxes[0]
	for _, b := range boxes[1:] {
		content = content.Union(b)
	}

	// Step 1: project every element onto x. A gap in the merged
	// projection is a strip nothing on the page crosses.
	gaps := projectionGaps(boxes, d.config.GutterMinWidth)
	if len(gaps) == 1 {
		return d.splitAt(content, content, gaps[0], nil, nil)
	}
	if len(gaps) > 1 {
		// Three or more columns are out of scope.
		return []SectionBand{singleColumn(content)}
	}

	// Step 2: no full-height gutter. Probe the content centerline the
	// way a full-width heading over a two-column body hides one: side
	// elements bound the band, crossers must clear it entirely.
	return d.centerlineSplit(boxes, content)
}

// gapInterval is an empty x range between content projections.
type gapInterval struct {
	lo, hi float64
}

// projectionGaps merges the x intervals of all boxes and returns the
// gaps between them of at least minWidth.
func projectionGaps(boxes []model.BBox, minWidth float64) []gapInterval {
	intervals := make([]gapInterval, 0, len(boxes))
	for _, b := range boxes {
		intervals = append(intervals, gapInterval{b.Left(), b.Right()})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].lo < intervals[j].lo })

	var gaps []gapInterval
	reach := intervals[0].hi
	for _, iv := range intervals[1:] {
		if iv.lo-reach >= minWidth {
			gaps = append(gaps, gapInterval{reach, iv.lo})
		}
		reach = math.Max(reach, iv.hi)
	}
	return gaps
}

// centerlineSplit partitions elements against the content centerline and
// accepts a two-column band only when every crossing element clears it
// above or below and the band covers enough of the content height.
func (d *SectionDetector) centerlineSplit(boxes []model.BBox, content model.BBox) []SectionBand {
	centerX := content.Center().X

	var left, right, crossing []model.BBox
	for _, b := range boxes {
		switch {
		case b.Right() <= centerX:
			left = append(left, b)
		case b.Left() >= centerX:
			right = append(right, b)
		default:
			crossing = append(crossing, b)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return []SectionBand{singleColumn(content)}
	}

	// Band extent: the vertical span of the side-partitioned content.
	bandTop, bandBottom := math.Inf(1), math.Inf(-1)
	gutterLo, gutterHi := math.Inf(-1), math.Inf(1)
	for _, b := range left {
		bandTop = math.Min(bandTop, b.Top())
		bandBottom = math.Max(bandBottom, b.Bottom())
		gutterLo = math.Max(gutterLo, b.Right())
	}
	for _, b := range right {
		bandTop = math.Min(bandTop, b.Top())
		bandBottom = math.Max(bandBottom, b.Bottom())
		gutterHi = math.Min(gutterHi, b.Left())
	}

	if gutterHi-gutterLo < d.config.GutterMinWidth {
		return []SectionBand{singleColumn(content)}
	}
	if bandBottom-bandTop < d.config.GutterMinHeightFrac*content.Height {
		return []SectionBand{singleColumn(content)}
	}

	var above, below []model.BBox
	for _, b := range crossing {
		switch {
		case b.Bottom() <= bandTop:
			above = append(above, b)
		case b.Top() >= bandBottom:
			below = append(below, b)
		default:
			// A crosser inside the band kills the split.
			return []SectionBand{singleColumn(content)}
		}
	}

	band := model.BBox{
		X: content.X, Y: bandTop,
		Width: content.Width, Height: bandBottom - bandTop,
	}
	return d.splitAt(content, band, gapInterval{gutterLo, gutterHi}, above, below)
}

// splitAt assembles the final band list: an optional full-width section
// above, the two-column band cut at the gutter midpoint, and an optional
// full-width section below.
func (d *SectionDetector) splitAt(content, band model.BBox, gutter gapInterval, above, below []model.BBox) []SectionBand {
	var bands []SectionBand
	if len(above) > 0 {
		box := above[0]
		for _, b := range above[1:] {
			box = box.Union(b)
		}
		slab := model.BBox{X: content.X, Y: box.Top(), Width: content.Width, Height: box.Bottom() - box.Top()}
		bands = append(bands, singleColumn(slab))
	}

	mid := (gutter.lo + gutter.hi) / 2
	bands = append(bands, SectionBand{
		BBox: band,
		Columns: []model.BBox{
			{X: band.X, Y: band.Y, Width: mid - band.Left(), Height: band.Height},
			{X: mid, Y: band.Y, Width: band.Right() - mid, Height: band.Height},
		},
		Space: gutter.hi - gutter.lo,
	})

	if len(below) > 0 {
		box := below[0]
		for _, b := range below[1:] {
			box = box.Union(b)
		}
		slab := model.BBox{X: content.X, Y: box.Top(), Width: content.Width, Height: box.Bottom() - box.Top()}
		bands = append(bands, singleColumn(slab))
	}
	return bands
}

func singleColumn(box model.BBox) SectionBand {
	return SectionBand{BBox: box, Columns: []model.BBox{box}}
}
