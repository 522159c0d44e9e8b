package layout

import (
	"testing"

	"github.com/tsawler/folio/model"
)

// TestDetectTwoColumns verifies that a single wide empty strip splits
// the page into two columns at the strip's midpoint.
func TestDetectTwoColumns(t *testing.T) {
	var boxes []model.BBox
	for y := 0.0; y < 200; y += 20 {
		boxes = append(boxes, model.NewBBox(0, y, 130, 12))
		boxes = append(boxes, model.NewBBox(170, y, 130, 12))
	}

	bands := NewSectionDetector().Detect(boxes, model.NewBBox(0, 0, 320, 220))
	if len(bands) != 1 {
		t.Fatalf("Detect() returned %d bands, want 1", len(bands))
	}

	b := bands[0]
	if len(b.Columns) != 2 {
		t.Fatalf("band has %d columns, want 2", len(b.Columns))
	}
	if b.Space != 40 {
		t.Errorf("Space = %v, want 40", b.Space)
	}
	if got := b.Columns[0].Right(); got != 150 {
		t.Errorf("columns split at %v, want 150 (gutter midpoint)", got)
	}
	if got := b.Columns[1].Left(); got != 150 {
		t.Errorf("right column starts at %v, want 150", got)
	}
	if b.Columns[0].Top() != 0 || b.Columns[0].Bottom() != 192 {
		t.Errorf("column extent = %v..%v, want 0..192", b.Columns[0].Top(), b.Columns[0].Bottom())
	}
}

// TestDetectStackedSections verifies the full-width heading over a
// two-column body: three content regimes, two section bands.
func TestDetectStackedSections(t *testing.T) {
	boxes := []model.BBox{model.NewBBox(0, 0, 300, 20)}
	for y := 40.0; y < 200; y += 20 {
		boxes = append(boxes, model.NewBBox(0, y, 130, 12))
		boxes = append(boxes, model.NewBBox(170, y, 130, 12))
	}

	bands := NewSectionDetector().Detect(boxes, model.NewBBox(0, 0, 320, 220))
	if len(bands) != 2 {
		t.Fatalf("Detect() returned %d bands, want 2", len(bands))
	}
	if len(bands[0].Columns) != 1 {
		t.Errorf("heading band has %d columns, want 1", len(bands[0].Columns))
	}
	if bands[0].BBox.Bottom() != 20 {
		t.Errorf("heading band bottom = %v, want 20", bands[0].BBox.Bottom())
	}
	if len(bands[1].Columns) != 2 {
		t.Fatalf("body band has %d columns, want 2", len(bands[1].Columns))
	}
	if bands[1].BBox.Top() != 40 {
		t.Errorf("body band top = %v, want 40", bands[1].BBox.Top())
	}
	if got := bands[1].Columns[0].Right(); got != 150 {
		t.Errorf("body columns split at %v, want 150", got)
	}
	if bands[1].Space != 40 {
		t.Errorf("body Space = %v, want 40", bands[1].Space)
	}
}

// TestDetectDegradation covers the layouts that fall back to a single
// column.
func TestDetectDegradation(t *testing.T) {
	page := model.NewBBox(0, 0, 320, 220)

	t.Run("three columns", func(t *testing.T) {
		var boxes []model.BBox
		for y := 0.0; y < 200; y += 20 {
			boxes = append(boxes, model.NewBBox(0, y, 80, 12))
			boxes = append(boxes, model.NewBBox(120, y, 80, 12))
			boxes = append(boxes, model.NewBBox(240, y, 80, 12))
		}
		bands := NewSectionDetector().Detect(boxes, page)
		if len(bands) != 1 || len(bands[0].Columns) != 1 {
			t.Fatalf("three-column page = %d bands / %d columns, want 1/1",
				len(bands), len(bands[0].Columns))
		}
	})

	t.Run("crosser inside the band", func(t *testing.T) {
		var boxes []model.BBox
		for y := 0.0; y < 200; y += 20 {
			boxes = append(boxes, model.NewBBox(0, y, 130, 12))
			boxes = append(boxes, model.NewBBox(170, y, 130, 12))
		}
		boxes = append(boxes, model.NewBBox(0, 96, 300, 12))
		bands := NewSectionDetector().Detect(boxes, page)
		if len(bands) != 1 || len(bands[0].Columns) != 1 {
			t.Fatalf("crossed band = %d bands / %d columns, want 1/1",
				len(bands), len(bands[0].Columns))
		}
	})

	t.Run("band too short", func(t *testing.T) {
		boxes := []model.BBox{model.NewBBox(0, 0, 300, 120)}
		boxes = append(boxes,
			model.NewBBox(0, 140, 130, 52),
			model.NewBBox(170, 140, 130, 52),
		)
		bands := NewSectionDetector().Detect(boxes, page)
		if len(bands) != 1 || len(bands[0].Columns) != 1 {
			t.Fatalf("short band = %d bands / %d columns, want 1/1",
				len(bands), len(bands[0].Columns))
		}
	})

	t.Run("narrow gutter", func(t *testing.T) {
		var boxes []model.BBox
		for y := 0.0; y < 200; y += 20 {
			boxes = append(boxes, model.NewBBox(0, y, 145, 12))
			boxes = append(boxes, model.NewBBox(160, y, 140, 12))
		}
		bands := NewSectionDetector().Detect(boxes, page)
		if len(bands) != 1 || len(bands[0].Columns) != 1 {
			t.Fatalf("narrow gutter = %d bands / %d columns, want 1/1",
				len(bands), len(bands[0].Columns))
		}
	})
}

// TestDetectMirroredColumnsSwap verifies that mirroring every box about
// the page midline yields the same split with the columns swapped.
func TestDetectMirroredColumnsSwap(t *testing.T) {
	page := model.NewBBox(0, 0, 320, 220)
	var boxes, mirrored []model.BBox
	for y := 0.0; y < 200; y += 20 {
		boxes = append(boxes, model.NewBBox(0, y, 130, 12))
		boxes = append(boxes, model.NewBBox(170, y, 130, 12))
	}
	for _, b := range boxes {
		mirrored = append(mirrored, model.NewBBox(page.Width-b.Right(), b.Y, b.Width, b.Height))
	}

	orig := NewSectionDetector().Detect(boxes, page)
	flip := NewSectionDetector().Detect(mirrored, page)
	if len(orig) != 1 || len(flip) != 1 {
		t.Fatalf("bands = %d and %d, want 1 and 1", len(orig), len(flip))
	}
	if len(flip[0].Columns) != 2 {
		t.Fatalf("mirrored page has %d columns, want 2", len(flip[0].Columns))
	}

	for i := 0; i < 2; i++ {
		want := orig[0].Columns[1-i]
		got := flip[0].Columns[i]
		if got.Left() != page.Width-want.Right() || got.Right() != page.Width-want.Left() {
			t.Errorf("mirrored column %d = %v..%v, want %v..%v",
				i, got.Left(), got.Right(), page.Width-want.Right(), page.Width-want.Left())
		}
	}
}
