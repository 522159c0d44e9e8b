package style

import (
	"testing"

	"github.com/tsawler/folio/model"
)

// testLine builds a one-run line covering the given box.
func testLine(box model.BBox) model.Line {
	return model.Line{
		BBox:     box,
		Baseline: box.Bottom(),
		Runs:     []model.Run{{Text: "x", BBox: box}},
	}
}

func hseg(x0, x1, y float64) model.Path {
	return model.Path{
		Points:      []model.Point{{X: x0, Y: y}, {X: x1, Y: y}},
		StrokeWidth: 1,
	}
}

func TestClassifyPools(t *testing.T) {
	lines := []model.Line{testLine(model.NewBBox(100, 100, 200, 12))}

	paths := []model.Path{
		// Underline-length stroke inside the line.
		hseg(100, 220, 111),
		// Rule crossing well beyond the line: a border candidate.
		hseg(50, 500, 150),
		// Vertical stroke: border candidate.
		{Points: []model.Point{{X: 400, Y: 100}, {X: 400, Y: 300}}, StrokeWidth: 1},
		// Oblique stroke: ignored entirely.
		{Points: []model.Point{{X: 0, Y: 0}, {X: 50, Y: 50}}, StrokeWidth: 1},
	}
	fills := []model.FillRect{
		// Contains the whole line: shading.
		{BBox: model.NewBBox(90, 95, 220, 25), Fill: model.Color{R: 220, G: 220, B: 220}},
		// Covers only part of the line: highlight.
		{BBox: model.NewBBox(100, 100, 60, 12), Fill: model.Color{R: 255, G: 255, B: 0}},
		// White background fill: ignored.
		{BBox: model.NewBBox(0, 0, 612, 792), Fill: model.White},
	}

	c := NewExtractor().Classify(paths, fills, lines)

	if got := len(c.Decorations); got != 1 {
		t.Errorf("Decorations count = %d, want 1", got)
	}
	if got := len(c.Borders); got != 2 {
		t.Errorf("Borders count = %d, want 2", got)
	}
	if got := len(c.Shadings); got != 1 {
		t.Errorf("Shadings count = %d, want 1", got)
	}
	if got := len(c.Highlights); got != 1 {
		t.Errorf("Highlights count = %d, want 1", got)
	}
	if len(c.Highlights) == 1 && c.Highlights[0].Fill != (model.Color{R: 255, G: 255, B: 0}) {
		t.Errorf("highlight color = %+v, want yellow", c.Highlights[0].Fill)
	}
}

func TestClassifyThinFillBecomesBorderStroke(t *testing.T) {
	// A 2-unit-thick filled bar far from any text reads as a drawn border.
	fills := []model.FillRect{
		{BBox: model.NewBBox(100, 400, 300, 2), Fill: model.Color{R: 0, G: 0, B: 0}},
	}

	c := NewExtractor().Classify(nil, fills, nil)

	if len(c.Borders) != 1 {
		t.Fatalf("Borders count = %d, want 1", len(c.Borders))
	}
	s := c.Borders[0]
	if !s.IsHorizontal(0.5) {
		t.Error("converted stroke should be horizontal")
	}
	if s.Width != 2 {
		t.Errorf("converted stroke width = %v, want 2", s.Width)
	}
	if got := s.Position(true); got != 401 {
		t.Errorf("converted stroke position = %v, want 401", got)
	}
	if len(c.Shadings)+len(c.Highlights) != 0 {
		t.Error("thin fill must not remain in a fill pool")
	}
}

func TestClassifyDedupesContainedFills(t *testing.T) {
	gray := model.Color{R: 200, G: 200, B: 200}
	fills := []model.FillRect{
		{BBox: model.NewBBox(50, 50, 200, 100), Fill: gray},
		// Fully inside the first, same color: duplicate.
		{BBox: model.NewBBox(60, 60, 100, 50), Fill: gray},
		// Same geometry but different color: kept.
		{BBox: model.NewBBox(60, 60, 100, 50), Fill: model.Color{R: 255, G: 0, B: 0}},
	}

	c := NewExtractor().Classify(nil, fills, nil)

	if got := len(c.Highlights); got != 2 {
		t.Errorf("Highlights count = %d, want 2 after dedupe", got)
	}
}

func TestApplyUnderlineAndStrike(t *testing.T) {
	span := model.TextSpan{
		BBox:     model.NewBBox(100, 100, 100, 12),
		Baseline: 110,
		Text:     "decorated",
		FontSize: 12,
	}

	tests := []struct {
		name          string
		segY          float64
		segX0, segX1  float64
		wantUnderline bool
		wantStrike    bool
	}{
		{"just below baseline", 111, 100, 200, true, false},
		{"through the middle", 106, 100, 200, false, true},
		{"far above", 90, 100, 200, false, false},
		{"too short to cover the span", 106, 100, 130, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := []model.Segment{{
				Start: model.Point{X: tt.segX0, Y: tt.segY},
				End:   model.Point{X: tt.segX1, Y: tt.segY},
				Width: 1,
			}}

			styled := NewExtractor().Apply([]model.TextSpan{span}, dec, nil)

			if styled[0].Underline != tt.wantUnderline {
				t.Errorf("Underline = %v, want %v", styled[0].Underline, tt.wantUnderline)
			}
			if styled[0].Strike != tt.wantStrike {
				t.Errorf("Strike = %v, want %v", styled[0].Strike, tt.wantStrike)
			}
		})
	}
}

func TestApplyHighlight(t *testing.T) {
	span := model.TextSpan{
		BBox:     model.NewBBox(100, 100, 100, 12),
		Baseline: 110,
		Text:     "marked",
		FontSize: 12,
	}
	yellow := model.Color{R: 255, G: 255, B: 0}
	green := model.Color{R: 0, G: 255, B: 0}

	t.Run("tall overlapping fill applies", func(t *testing.T) {
		hl := []model.FillRect{{BBox: model.NewBBox(95, 99, 110, 14), Fill: yellow}}
		styled := NewExtractor().Apply([]model.TextSpan{span}, nil, hl)
		if styled[0].Highlight == nil || !styled[0].Highlight.Equal(yellow) {
			t.Errorf("Highlight = %v, want yellow", styled[0].Highlight)
		}
	})

	t.Run("largest overlap wins", func(t *testing.T) {
		hl := []model.FillRect{
			{BBox: model.NewBBox(100, 99, 55, 14), Fill: green},
			{BBox: model.NewBBox(95, 99, 110, 14), Fill: yellow},
		}
		styled := NewExtractor().Apply([]model.TextSpan{span}, nil, hl)
		if styled[0].Highlight == nil || !styled[0].Highlight.Equal(yellow) {
			t.Errorf("Highlight = %v, want yellow (wider fill)", styled[0].Highlight)
		}
	})

	t.Run("shallow band does not apply", func(t *testing.T) {
		hl := []model.FillRect{{BBox: model.NewBBox(95, 104, 110, 5), Fill: yellow}}
		styled := NewExtractor().Apply([]model.TextSpan{span}, nil, hl)
		if styled[0].Highlight != nil {
			t.Errorf("Highlight = %v, want nil for a shallow fill", styled[0].Highlight)
		}
	})
}

func TestApplyExplicitAttributesWin(t *testing.T) {
	pink := model.Color{R: 255, G: 200, B: 200}
	span := model.TextSpan{
		BBox:      model.NewBBox(100, 100, 100, 12),
		Baseline:  110,
		Text:      "preset",
		FontSize:  12,
		Underline: true,
		Highlight: &pink,
	}
	yellow := model.Color{R: 255, G: 255, B: 0}

	styled := NewExtractor().Apply(
		[]model.TextSpan{span},
		nil,
		[]model.FillRect{{BBox: model.NewBBox(95, 99, 110, 14), Fill: yellow}},
	)

	if !styled[0].Underline {
		t.Error("explicit underline must survive")
	}
	if styled[0].Highlight == nil || !styled[0].Highlight.Equal(pink) {
		t.Errorf("Highlight = %v, want the explicit pink", styled[0].Highlight)
	}
}

func TestApplyVerticalSpan(t *testing.T) {
	// Vertical text: the deciding axis is x, measured from the span's
	// right edge.
	span := model.TextSpan{
		BBox:      model.NewBBox(100, 100, 12, 100),
		Baseline:  110,
		Text:      "rotated",
		FontSize:  12,
		Direction: model.Vertical,
	}
	dec := []model.Segment{{
		Start: model.Point{X: 111, Y: 100},
		End:   model.Point{X: 111, Y: 200},
		Width: 1,
	}}

	styled := NewExtractor().Apply([]model.TextSpan{span}, dec, nil)

	if !styled[0].Underline {
		t.Error("vertical stroke near the right edge should underline vertical text")
	}
}

func TestTextStyleOf(t *testing.T) {
	yellow := model.Color{R: 255, G: 255, B: 0}
	span := model.TextSpan{
		Text:       "styled",
		FontFamily: "Georgia",
		FontSize:   11,
		Weight:     700,
		Italic:     true,
		Color:      model.Color{R: 10, G: 20, B: 30},
		Underline:  true,
		Highlight:  &yellow,
	}

	style := TextStyleOf(span)

	if !style.Bold {
		t.Error("weight 700 should map to bold")
	}
	if !style.Italic || !style.Underline {
		t.Error("italic and underline flags should carry over")
	}
	if style.Highlight == nil || !style.Highlight.Equal(yellow) {
		t.Fatalf("Highlight = %v, want yellow", style.Highlight)
	}

	// The style owns its highlight color.
	yellow.R = 0
	if style.Highlight.R != 255 {
		t.Error("style highlight must not alias the span's color")
	}
}
