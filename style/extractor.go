// Package style classifies a page's vector shapes by role and resolves
// per-span text styling. Strokes become either table border candidates or
// text decorations (underline, strike-through); fills become either table
// shading candidates or text highlights. The split drives everything
// downstream: border and shading pools feed table detection, decoration
// and highlight pools feed span styling.
package style

import (
	"math"

	"github.com/tsawler/folio/model"
)

// Config holds thresholds for shape classification and span styling.
type Config struct {
	// OrientationTolerance is the maximum axis deviation for a stroke to
	// count as horizontal or vertical. Oblique strokes are ignored.
	OrientationTolerance float64

	// MaxBorderWidth is the largest thin dimension for a filled rectangle
	// to be reinterpreted as a stroke.
	MaxBorderWidth float64

	// StrokeInLine is the minimum fraction of a stroke's area that must
	// fall inside a text line for the stroke to count as a decoration.
	StrokeInLine float64

	// FillOverLine is the minimum fraction of a text line's area a fill
	// must cover to count as table shading.
	FillOverLine float64

	// LengthSlack is the absolute slack allowed when comparing a shape's
	// main-axis length against its containing line.
	LengthSlack float64

	// HighlightBand is the minimum fill height as a fraction of span
	// height for the fill to read as a highlight.
	HighlightBand float64

	// UnderlineBand bounds the distance from a stroke to the span bottom,
	// as a fraction of span height, for the stroke to read as an
	// underline.
	UnderlineBand float64

	// StrikeLow and StrikeHigh bound the same distance for a
	// strike-through.
	StrikeLow  float64
	StrikeHigh float64

	// SpanCover is the minimum main-axis overlap, as a fraction of the
	// span's extent, for a decoration or highlight to apply to that span.
	SpanCover float64
}

// DefaultConfig returns the default style configuration.
func DefaultConfig() Config {
	return Config{
		OrientationTolerance: 0.5,
		MaxBorderWidth:       6.0,
		StrokeInLine:         0.01,
		FillOverLine:         0.1,
		LengthSlack:          1.0,
		HighlightBand:        0.75,
		UnderlineBand:        0.25,
		StrikeLow:            0.35,
		StrikeHigh:           0.75,
		SpanCover:            0.5,
	}
}

// Classified partitions a page's shapes by inferred role.
type Classified struct {
	// Borders are stroke segments that may form a table grid.
	Borders []model.Segment

	// Shadings are fills that may shade table cells.
	Shadings []model.FillRect

	// Decorations are strokes contained in a text line: underline or
	// strike-through candidates.
	Decorations []model.Segment

	// Highlights are fills overlapping text without containing a whole
	// line.
	Highlights []model.FillRect
}

// Extractor classifies shapes and styles spans.
type Extractor struct {
	config Config
}

// NewExtractor creates an extractor with default configuration.
func NewExtractor() *Extractor {
	return &Extractor{config: DefaultConfig()}
}

// NewExtractorWithConfig creates an extractor with custom configuration.
func NewExtractorWithConfig(config Config) *Extractor {
	return &Extractor{config: config}
}

// Classify splits paths and fills into border, shading, decoration, and
// highlight pools using the page's preliminary text lines as context. A
// stroke contained within a line is a decoration; any other axis-aligned
// stroke is a border candidate. A fill covering at least one whole line is
// shading; any other non-white fill is a highlight candidate. White fills
// are the page background and are ignored.
func (e *Extractor) Classify(paths []model.Path, fills []model.FillRect, lines []model.Line) Classified {
	var c Classified

	// Step 1: explode paths into axis-aligned segments. Oblique segments
	// have no role in grid or decoration inference.
	var strokes []model.Segment
	for _, p := range paths {
		for _, s := range p.Segments() {
			if s.IsHorizontal(e.config.OrientationTolerance) || s.IsVertical(e.config.OrientationTolerance) {
				strokes = append(strokes, s)
			}
		}
	}

	// Step 2: reinterpret thin fills as strokes. Borders are commonly
	// drawn as filled rectangles a few units thick.
	var areaFills []model.FillRect
	for _, f := range fills {
		if s, ok := e.fillToStroke(f); ok {
			strokes = append(strokes, s)
			continue
		}
		areaFills = append(areaFills, f)
	}

	// Step 3: drop fills fully contained in a same-color fill.
	areaFills = dedupeFills(areaFills)

	// Step 4: strokes -> decoration or border.
	for _, s := range strokes {
		if e.strokeInLine(s, lines) {
			c.Decorations = append(c.Decorations, s)
		} else {
			c.Borders = append(c.Borders, s)
		}
	}

	// Step 5: fills -> shading or highlight.
	for _, f := range areaFills {
		if f.Fill.IsWhite() {
			continue
		}
		if e.fillCoversLine(f, lines) {
			c.Shadings = append(c.Shadings, f)
		} else {
			c.Highlights = append(c.Highlights, f)
		}
	}

	return c
}

// fillToStroke converts a thin filled rectangle into its centerline
// segment. The stroke width is the rectangle's thin dimension.
func (e *Extractor) fillToStroke(f model.FillRect) (model.Segment, bool) {
	w, h := f.BBox.Width, f.BBox.Height
	if math.Min(w, h) > e.config.MaxBorderWidth {
		return model.Segment{}, false
	}
	if h <= w {
		y := f.BBox.Top() + h/2
		return model.Segment{
			Start: model.Point{X: f.BBox.Left(), Y: y},
			End:   model.Point{X: f.BBox.Right(), Y: y},
			Width: h,
			Color: f.Fill,
		}, true
	}
	x := f.BBox.Left() + w/2
	return model.Segment{
		Start: model.Point{X: x, Y: f.BBox.Top()},
		End:   model.Point{X: x, Y: f.BBox.Bottom()},
		Width: w,
		Color: f.Fill,
	}, true
}

// dedupeFills removes fills fully contained in an earlier same-color fill.
func dedupeFills(fills []model.FillRect) []model.FillRect {
	var out []model.FillRect
	for _, f := range fills {
		dup := false
		for _, kept := range out {
			if kept.Fill.Equal(f.Fill) && kept.BBox.ContainsBox(f.BBox, 0.99) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// strokeInLine reports whether the stroke sits inside some text line and is
// no longer than it. Decorations never exceed the line they belong to,
// which is what separates them from table borders crossing several
// columns.
func (e *Extractor) strokeInLine(s model.Segment, lines []model.Line) bool {
	bounds := s.Bounds()
	for _, ln := range lines {
		if !ln.BBox.ContainsBox(bounds, e.config.StrokeInLine) {
			continue
		}
		if mainLength(ln.BBox)+e.config.LengthSlack >= s.Length() {
			return true
		}
	}
	return false
}

// fillCoversLine reports whether the fill contains at least one whole text
// line, which marks it as table shading rather than a highlight.
func (e *Extractor) fillCoversLine(f model.FillRect, lines []model.Line) bool {
	for _, ln := range lines {
		if !f.BBox.ContainsBox(ln.BBox, e.config.FillOverLine) {
			continue
		}
		if mainLength(f.BBox)+e.config.LengthSlack >= mainLength(ln.BBox) {
			return true
		}
	}
	return false
}

// mainLength returns the box's extent along its longer axis.
func mainLength(b model.BBox) float64 {
	return math.Max(b.Width, b.Height)
}

// Apply returns a styled copy of the spans with decorations and highlights
// resolved onto them. Explicit span attributes always win: geometry can
// set a flag the extractor left unset, never clear one.
func (e *Extractor) Apply(spans []model.TextSpan, decorations []model.Segment, highlights []model.FillRect) []model.TextSpan {
	if len(spans) == 0 {
		return nil
	}

	styled := make([]model.TextSpan, len(spans))
	copy(styled, spans)

	for i := range styled {
		e.applyDecorations(&styled[i], decorations)
		e.applyHighlight(&styled[i], highlights)
	}
	return styled
}

// applyDecorations sets underline and strike flags from strokes positioned
// against the span. For horizontal text the deciding measure is the
// distance from the stroke to the span bottom as a fraction of span
// height: within the bottom quarter reads as underline, through the middle
// band as strike-through. Vertical text swaps axes.
func (e *Extractor) applyDecorations(span *model.TextSpan, decorations []model.Segment) {
	horizontal := span.Direction == model.Horizontal

	var extent, low float64
	if horizontal {
		extent = span.BBox.Height
		low = span.BBox.Bottom()
	} else {
		extent = span.BBox.Width
		low = span.BBox.Right()
	}
	if extent <= 0 {
		return
	}

	for _, s := range decorations {
		if s.IsHorizontal(e.config.OrientationTolerance) != horizontal {
			continue
		}
		if !e.coversSpan(s, *span, horizontal) {
			continue
		}

		d := low - s.Position(horizontal)
		switch {
		case d <= e.config.UnderlineBand*extent:
			span.Underline = true
		case d > e.config.StrikeLow*extent && d < e.config.StrikeHigh*extent:
			span.Strike = true
		}
	}
}

// coversSpan reports whether the decoration's main-axis range overlaps
// enough of the span to apply to it.
func (e *Extractor) coversSpan(s model.Segment, span model.TextSpan, horizontal bool) bool {
	bounds := s.Bounds()
	if horizontal {
		overlap := math.Min(bounds.Right(), span.BBox.Right()) - math.Max(bounds.Left(), span.BBox.Left())
		return overlap >= e.config.SpanCover*span.BBox.Width
	}
	overlap := math.Min(bounds.Bottom(), span.BBox.Bottom()) - math.Max(bounds.Top(), span.BBox.Top())
	return overlap >= e.config.SpanCover*span.BBox.Height
}

// applyHighlight picks the highlight fill with the largest overlap among
// those tall enough relative to the span. An explicit highlight attribute
// from the source is left untouched.
func (e *Extractor) applyHighlight(span *model.TextSpan, highlights []model.FillRect) {
	if span.Highlight != nil {
		return
	}

	horizontal := span.Direction == model.Horizontal
	var best *model.FillRect
	bestArea := 0.0

	for i := range highlights {
		f := highlights[i]
		if f.Fill.IsWhite() {
			continue
		}

		var band, spanExtent float64
		if horizontal {
			band, spanExtent = f.BBox.Height, span.BBox.Height
		} else {
			band, spanExtent = f.BBox.Width, span.BBox.Width
		}
		if spanExtent <= 0 || band < e.config.HighlightBand*spanExtent {
			continue
		}

		inter := f.BBox.Intersection(span.BBox)
		if inter.IsEmpty() {
			continue
		}
		var overlap, need float64
		if horizontal {
			overlap, need = inter.Width, e.config.SpanCover*span.BBox.Width
		} else {
			overlap, need = inter.Height, e.config.SpanCover*span.BBox.Height
		}
		if overlap < need {
			continue
		}

		if area := inter.Area(); area > bestArea {
			bestArea = area
			best = &highlights[i]
		}
	}

	if best != nil {
		color := best.Fill
		span.Highlight = &color
	}
}

// TextStyleOf builds the resolved run style for a span.
func TextStyleOf(span model.TextSpan) model.TextStyle {
	style := model.TextStyle{
		FontFamily: span.FontFamily,
		FontSize:   span.FontSize,
		Bold:       span.Bold(),
		Italic:     span.Italic,
		Color:      span.Color,
		Underline:  span.Underline,
		Strike:     span.Strike,
	}
	if span.Highlight != nil {
		color := *span.Highlight
		style.Highlight = &color
	}
	return style
}
