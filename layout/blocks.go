package layout

import (
	"math"
	"sort"

	"github.com/tsawler/folio/model"
)

// BlockConfig holds configuration for grouping lines into paragraph
// blocks and inferring their alignment.
type BlockConfig struct {
	// SpacingOutlier is the factor over the block's running average line
	// gap beyond which a gap starts a new block (default: 1.5).
	SpacingOutlier float64

	// EdgeTolerance is the slack, in page units, for treating two edge
	// offsets as the same rail (default: 2.0).
	EdgeTolerance float64

	// JustifySlack is the maximum slack on both edges, as a fraction of
	// the content width, for a line to count as filling the column
	// (default: 0.05).
	JustifySlack float64

	// ShortLineRatio is the fraction of the content width below which a
	// line is short. A block whose single line is short defaults to left
	// alignment, and only short lines support a centered rail
	// (default: 0.9).
	ShortLineRatio float64

	// SizeJumpRatio is the line height ratio beyond which two adjacent
	// lines belong to different blocks, separating headings from body
	// text (default: 1.25).
	SizeJumpRatio float64
}

// DefaultBlockConfig returns sensible default configuration.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{
		SpacingOutlier: 1.5,
		EdgeTolerance:  2.0,
		JustifySlack:   0.05,
		ShortLineRatio: 0.9,
		SizeJumpRatio:  1.25,
	}
}

// gapFloor keeps the spacing-outlier reference from collapsing on tightly
// set text, as a fraction of line height.
const gapFloor = 0.25

// BlockDetector groups lines into paragraph blocks.
type BlockDetector struct {
	config BlockConfig
}

// NewBlockDetector creates a block detector with default configuration.
func NewBlockDetector() *BlockDetector {
	return &BlockDetector{config: DefaultBlockConfig()}
}

// NewBlockDetectorWithConfig creates a block detector with custom
// configuration.
func NewBlockDetectorWithConfig(config BlockConfig) *BlockDetector {
	return &BlockDetector{config: config}
}

// Detect groups the lines of one column into paragraph blocks. A block
// never mixes writing directions; a spacing outlier, a line height jump,
// or the loss of every shared edge rail starts a new block. Alignment is
// inferred per block against the column content extent. Spacing between
// blocks is the caller's concern since images and tables interleave.
func (d *BlockDetector) Detect(lines []model.Line) []model.Paragraph {
	if len(lines) == 0 {
		return nil
	}

	var horizontal, vertical []model.Line
	for _, l := range lines {
		if l.Direction == model.Vertical {
			vertical = append(vertical, l)
		} else {
			horizontal = append(horizontal, l)
		}
	}

	var paras []model.Paragraph
	paras = append(paras, d.detectAxis(horizontal, model.Horizontal)...)
	paras = append(paras, d.detectAxis(vertical, model.Vertical)...)

	sort.SliceStable(paras, func(i, j int) bool {
		if paras[i].BBox.Top() != paras[j].BBox.Top() {
			return paras[i].BBox.Top() < paras[j].BBox.Top()
		}
		return paras[i].BBox.Left() < paras[j].BBox.Left()
	})
	return paras
}

func (d *BlockDetector) detectAxis(lines []model.Line, dir model.Direction) []model.Paragraph {
	if len(lines) == 0 {
		return nil
	}

	// Step 1: reading order. Horizontal lines stack top to bottom,
	// vertical lines left to right.
	sorted := make([]model.Line, len(lines))
	copy(sorted, lines)
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

	// Content extent along the reading axis, shared by every block's
	// alignment inference.
	contentStart, contentEnd := lineInterval(sorted[0], dir)
	for _, l := range sorted[1:] {
		s, e := lineInterval(l, dir)
		contentStart = math.Min(contentStart, s)
		contentEnd = math.Max(contentEnd, e)
	}

	// Step 2: greedy grouping with break rules.
	var paras []model.Paragraph
	group := []model.Line{sorted[0]}
	gapSum, gapCount := 0.0, 0
	for _, l := range sorted[1:] {
		prev := group[len(group)-1]
		gap := stackGap(prev, l, dir)

		avgGap := 0.0
		if gapCount > 0 {
			avgGap = gapSum / float64(gapCount)
		}
		ref := math.Max(avgGap, gapFloor*lineThickness(prev, dir))

		if gap > d.config.SpacingOutlier*ref ||
			d.sizeJump(prev, l, dir) ||
			!d.sharesRail(group, l, dir, contentStart, contentEnd) {
			paras = append(paras, d.finalize(group, dir, contentStart, contentEnd))
			group = nil
			gapSum, gapCount = 0, 0
		} else {
			gapSum += math.Max(gap, 0)
			gapCount++
		}
		group = append(group, l)
	}
	paras = append(paras, d.finalize(group, dir, contentStart, contentEnd))
	return paras
}

// sizeJump reports whether two adjacent lines differ enough in height to
// belong to different blocks.
func (d *BlockDetector) sizeJump(a, b model.Line, dir model.Direction) bool {
	ha, hb := lineThickness(a, dir), lineThickness(b, dir)
	if ha <= 0 || hb <= 0 {
		return false
	}
	return math.Max(ha, hb)/math.Min(ha, hb) > d.config.SizeJumpRatio
}

// sharesRail reports whether the candidate line continues any edge rail
// of the running block: the start edge, the end edge, or for short lines
// the center. A start outdent from a one-line block is allowed so a
// first-line indent does not orphan its opening line.
func (d *BlockDetector) sharesRail(group []model.Line, l model.Line, dir model.Direction, contentStart, contentEnd float64) bool {
	eps := d.config.EdgeTolerance
	blockStart, blockEnd := lineInterval(group[0], dir)
	widest := blockEnd - blockStart
	for _, g := range group[1:] {
		s, e := lineInterval(g, dir)
		blockStart = math.Min(blockStart, s)
		blockEnd = math.Max(blockEnd, e)
		widest = math.Max(widest, e-s)
	}
	start, end := lineInterval(l, dir)

	if math.Abs(start-blockStart) <= eps {
		return true
	}
	if len(group) == 1 && start < blockStart-eps {
		return true
	}
	if math.Abs(end-blockEnd) <= eps {
		return true
	}

	short := d.config.ShortLineRatio * (contentEnd - contentStart)
	if end-start < short && widest < short {
		blockCenter := (blockStart + blockEnd) / 2
		if math.Abs((start+end)/2-blockCenter) <= eps {
			return true
		}
	}
	return false
}

// finalize builds the paragraph for one group of lines: bounding box,
// alignment, and average line advance.
func (d *BlockDetector) finalize(group []model.Line, dir model.Direction, contentStart, contentEnd float64) model.Paragraph {
	p := model.Paragraph{Lines: group, Direction: dir}
	p.BBox = group[0].BBox
	for _, l := range group[1:] {
		p.BBox = p.BBox.Union(l.BBox)
	}
	p.Alignment = d.inferAlignment(group, dir, contentStart, contentEnd)

	// Average line advance: block extent minus the first line, spread
	// over the remaining lines. A single line advances by its own box.
	blockThickness := p.BBox.Height
	firstThickness := group[0].BBox.Height
	if dir == model.Vertical {
		blockThickness = p.BBox.Width
		firstThickness = group[0].BBox.Width
	}
	if n := len(group); n > 1 {
		p.LineSpacing = (blockThickness - firstThickness) / float64(n-1)
	} else {
		p.LineSpacing = blockThickness
	}
	return p
}

// inferAlignment runs the alignment cascade for one block. Justified
// blocks are recognized first since their left rail is also uniform; a
// single line carries too little evidence for center or justify and
// defaults to left.
func (d *BlockDetector) inferAlignment(group []model.Line, dir model.Direction, contentStart, contentEnd float64) model.Alignment {
	eps := d.config.EdgeTolerance
	width := contentEnd - contentStart
	if len(group) == 1 || width <= 0 {
		return model.AlignLeft
	}

	slack := d.config.JustifySlack * width
	full := 0
	for _, l := range group[:len(group)-1] {
		s, e := lineInterval(l, dir)
		if s-contentStart <= slack && contentEnd-e <= slack {
			full++
		}
	}
	if full == len(group)-1 {
		return model.AlignJustify
	}

	minStart, maxStart := math.Inf(1), math.Inf(-1)
	minEnd, maxEnd := math.Inf(1), math.Inf(-1)
	minCenter, maxCenter := math.Inf(1), math.Inf(-1)
	startSlack, endSlack := 0.0, 0.0
	for _, l := range group {
		s, e := lineInterval(l, dir)
		minStart = math.Min(minStart, s)
		maxStart = math.Max(maxStart, s)
		minEnd = math.Min(minEnd, e)
		maxEnd = math.Max(maxEnd, e)
		c := (s + e) / 2
		minCenter = math.Min(minCenter, c)
		maxCenter = math.Max(maxCenter, c)
		startSlack += s - contentStart
		endSlack += contentEnd - e
	}
	uniformStart := maxStart-minStart <= eps
	uniformEnd := maxEnd-minEnd <= eps
	uniformCenter := maxCenter-minCenter <= eps

	switch {
	case uniformStart && !uniformEnd:
		return model.AlignLeft
	case uniformEnd && !uniformStart:
		return model.AlignRight
	case uniformStart && uniformEnd:
		// Both edges rule out raggedness; symmetric slack reads as a
		// centered slab, otherwise the tighter margin wins.
		if math.Abs(startSlack-endSlack)/float64(len(group)) <= 2*eps {
			if startSlack/float64(len(group)) > eps {
				return model.AlignCenter
			}
			return model.AlignLeft
		}
		if startSlack < endSlack {
			return model.AlignLeft
		}
		return model.AlignRight
	case uniformCenter:
		return model.AlignCenter
	default:
		return model.AlignLeft
	}
}

// lineInterval is the line's occupancy along the reading axis in
// ascending reading coordinates. Vertical text reads bottom to top, so
// its interval is the negated y extent.
func lineInterval(l model.Line, dir model.Direction) (start, end float64) {
	if dir == model.Vertical {
		return -l.BBox.Bottom(), -l.BBox.Top()
	}
	return l.BBox.Left(), l.BBox.Right()
}

// stackGap is the whitespace between consecutive lines on the stacking
// axis: vertical for horizontal text, horizontal for vertical text.
func stackGap(prev, curr model.Line, dir model.Direction) float64 {
	if dir == model.Vertical {
		return curr.BBox.Left() - prev.BBox.Right()
	}
	return curr.BBox.Top() - prev.BBox.Bottom()
}

// lineThickness is the line's size on the stacking axis.
func lineThickness(l model.Line, dir model.Direction) float64 {
	if dir == model.Vertical {
		return l.BBox.Width
	}
	return l.BBox.Height
}
