package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/style"
)

// LineConfig holds configuration for grouping text spans into lines.
type LineConfig struct {
	// BandOverlap is the minimum vertical overlap between a span and a
	// line band for the span to join it, as a fraction of the smaller
	// height (default: 0.5).
	BandOverlap float64

	// WordGapFactor is the horizontal gap, as a fraction of font size,
	// above which a space is inserted between adjacent runs
	// (default: 0.25).
	WordGapFactor float64

	// SplitGapFactor is the horizontal gap, as a fraction of font size,
	// above which two spans on the same band belong to different lines
	// (default: 2.0). Keeps side-by-side columns from fusing into one
	// page-wide line.
	SplitGapFactor float64
}

// DefaultLineConfig returns sensible default configuration.
func DefaultLineConfig() LineConfig {
	return LineConfig{
		BandOverlap:    0.5,
		WordGapFactor:  0.25,
		SplitGapFactor: 2.0,
	}
}

// LineDetector groups text spans into lines.
type LineDetector struct {
	config LineConfig
}

// NewLineDetector creates a line detector with default configuration.
func NewLineDetector() *LineDetector {
	return &LineDetector{config: DefaultLineConfig()}
}

// NewLineDetectorWithConfig creates a line detector with custom
// configuration.
func NewLineDetectorWithConfig(config LineConfig) *LineDetector {
	return &LineDetector{config: config}
}

// Detect groups spans into lines. Horizontal spans band by baseline and
// read left to right; vertical spans band by x extent and read bottom to
// top, so a line never mixes directions. The returned lines are sorted
// top to bottom, ties left to right.
func (d *LineDetector) Detect(spans []model.TextSpan) []model.Line {
	if len(spans) == 0 {
		return nil
	}

	var horizontal, vertical []model.TextSpan
	for _, s := range spans {
		if s.Direction == model.Vertical {
			vertical = append(vertical, s)
		} else {
			horizontal = append(horizontal, s)
		}
	}

	lines := d.detectAxis(horizontal, model.Horizontal)
	lines = append(lines, d.detectAxis(vertical, model.Vertical)...)

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].BBox.Top() != lines[j].BBox.Top() {
			return lines[i].BBox.Top() < lines[j].BBox.Top()
		}
		return lines[i].BBox.Left() < lines[j].BBox.Left()
	})
	return lines
}

// band is a group of spans sharing one baseline band (one x band for
// vertical text).
type band struct {
	box   model.BBox
	spans []model.TextSpan
}

func (d *LineDetector) detectAxis(spans []model.TextSpan, dir model.Direction) []model.Line {
	if len(spans) == 0 {
		return nil
	}

	// Step 1: sort into page order so banding is deterministic.
	sorted := make([]model.TextSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].BBox, sorted[j].BBox
		if dir == model.Vertical {
			if a.Left() != b.Left() {
				return a.Left() < b.Left()
			}
			return a.Bottom() > b.Bottom()
		}
		if a.Top() != b.Top() {
			return a.Top() < b.Top()
		}
		return a.Left() < b.Left()
	})

	// Step 2: cluster spans into bands by overlap on the stacking axis.
	// A span joins the band it overlaps most, provided the overlap
	// clears the fraction of the smaller extent.
	var bands []band
	for _, s := range sorted {
		best, bestOverlap := -1, 0.0
		for i := range bands {
			var overlap, need float64
			if dir == model.Vertical {
				overlap = bands[i].box.HorizontalOverlap(s.BBox)
				need = d.config.BandOverlap * math.Min(bands[i].box.Width, s.BBox.Width)
			} else {
				overlap = bands[i].box.VerticalOverlap(s.BBox)
				need = d.config.BandOverlap * math.Min(bands[i].box.Height, s.BBox.Height)
			}
			if overlap >= need && overlap > bestOverlap {
				best, bestOverlap = i, overlap
			}
		}
		if best < 0 {
			bands = append(bands, band{box: s.BBox, spans: []model.TextSpan{s}})
			continue
		}
		bands[best].box = bands[best].box.Union(s.BBox)
		bands[best].spans = append(bands[best].spans, s)
	}

	// Step 3: order each band along the reading axis and split it into
	// lines at gaps too wide to be intra-line spacing.
	var lines []model.Line
	for _, b := range bands {
		sort.SliceStable(b.spans, func(i, j int) bool {
			a, c := b.spans[i].BBox, b.spans[j].BBox
			if dir == model.Vertical {
				if a.Bottom() != c.Bottom() {
					return a.Bottom() > c.Bottom()
				}
				return a.Left() < c.Left()
			}
			if a.Left() != c.Left() {
				return a.Left() < c.Left()
			}
			return a.Top() < c.Top()
		})

		group := []model.TextSpan{b.spans[0]}
		for _, s := range b.spans[1:] {
			prev := group[len(group)-1]
			if readingGap(prev, s, dir) > d.config.SplitGapFactor*refSize(prev, s) {
				lines = append(lines, d.buildLine(group, dir))
				group = nil
			}
			group = append(group, s)
		}
		lines = append(lines, d.buildLine(group, dir))
	}
	return lines
}

// readingGap is the whitespace between two consecutive spans along the
// reading axis, negative when they overlap.
func readingGap(prev, curr model.TextSpan, dir model.Direction) float64 {
	if dir == model.Vertical {
		return prev.BBox.Top() - curr.BBox.Bottom()
	}
	return curr.BBox.Left() - prev.BBox.Right()
}

// refSize is the font size gap thresholds scale with, falling back to box
// height when the source carries no size.
func refSize(prev, curr model.TextSpan) float64 {
	ref := math.Max(prev.FontSize, curr.FontSize)
	if ref <= 0 {
		ref = math.Max(prev.BBox.Height, curr.BBox.Height)
	}
	return ref
}

func (d *LineDetector) buildLine(spans []model.TextSpan, dir model.Direction) model.Line {
	line := model.Line{Direction: dir}
	for i, s := range spans {
		if i == 0 {
			line.BBox = s.BBox
		} else {
			line.BBox = line.BBox.Union(s.BBox)
		}
		run := model.Run{Text: s.Text, BBox: s.BBox, Style: style.TextStyleOf(s)}
		if i > 0 && d.wantSpace(spans[i-1], s, dir) {
			prev := &line.Runs[len(line.Runs)-1]
			prev.Text += " "
		}
		line.Runs = append(line.Runs, run)
	}

	// The line baseline is the tallest span's; superscripts and other
	// small companions do not shift it.
	tallest := 0
	for i, s := range spans {
		if extent(s.BBox, dir) > extent(spans[tallest].BBox, dir) {
			tallest = i
		}
	}
	line.Baseline = spans[tallest].Baseline
	return line
}

// wantSpace reports whether a space belongs between two adjacent runs.
func (d *LineDetector) wantSpace(prev, curr model.TextSpan, dir model.Direction) bool {
	if strings.HasSuffix(prev.Text, " ") || strings.HasPrefix(curr.Text, " ") {
		return false
	}
	ref := curr.FontSize
	if ref <= 0 {
		ref = extent(curr.BBox, dir)
	}
	return readingGap(prev, curr, dir) > d.config.WordGapFactor*ref
}

// extent is the span's size across the reading axis: height for
// horizontal text, width for vertical.
func extent(b model.BBox, dir model.Direction) float64 {
	if dir == model.Vertical {
		return b.Width
	}
	return b.Height
}
