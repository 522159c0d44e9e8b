package tables

import (
	"github.com/tsawler/folio/model"
)

// Config holds detector configuration.
type Config struct {
	// ClusterTolerance is the maximum centerline distance for two strokes
	// to belong to one grid line (page units).
	ClusterTolerance float64

	// MaxBorderWidth is the largest stroke thickness treated as a border.
	MaxBorderWidth float64

	// AlignmentTolerance is the tolerance for text-edge alignment when
	// inferring hidden column boundaries and stream grids (page units).
	AlignmentTolerance float64

	// EdgeCoverRatio is the minimum fraction of a cell edge a stroke set
	// must cover for the edge to count as present.
	EdgeCoverRatio float64

	// ShadingContainment is the minimum fraction of a shading fill that
	// must sit inside a cell for the fill to become its background.
	ShadingContainment float64

	// MinColumnGap is the minimum horizontal gap separating text lines
	// into distinct stream-table columns.
	MinColumnGap float64

	// MinRows and MinCols reject explicit grids smaller than this many
	// cells per axis.
	MinRows int
	MinCols int

	// StreamEnabled turns on the text-alignment fallback detector.
	StreamEnabled bool

	// MaxNestingDepth bounds recursive nested-table detection.
	MaxNestingDepth int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		ClusterTolerance:   1.0,
		MaxBorderWidth:     6.0,
		AlignmentTolerance: 2.0,
		EdgeCoverRatio:     0.5,
		ShadingContainment: 0.9,
		MinColumnGap:       25.0,
		MinRows:            1,
		MinCols:            1,
		StreamEnabled:      true,
		MaxNestingDepth:    3,
	}
}

// ContentBuilder assembles the ordered block sequence for one cell region
// from the spans and images assigned to it. The detector stays ignorant of
// how paragraphs are formed; the layout layer supplies this.
type ContentBuilder func(spans []model.TextSpan, images []model.Image, region model.BBox) []model.Block

// Detection is the result of table detection on one page.
type Detection struct {
	// Arena holds every detected table, nested tables included. Cells
	// reference nested tables by arena index.
	Arena []model.Table

	// Roots are arena indices of top-level tables in reading order.
	Roots []int

	// SpanConsumed and ImageConsumed are parallel to the input slices and
	// mark primitives claimed by some table cell.
	SpanConsumed  []bool
	ImageConsumed []bool

	// LineConsumed is parallel to the input lines and marks lines claimed
	// by some table region.
	LineConsumed []bool

	Warnings []model.Warning
}

// RootTables returns the top-level tables in reading order.
func (d Detection) RootTables() []model.Table {
	out := make([]model.Table, 0, len(d.Roots))
	for _, ref := range d.Roots {
		out = append(out, d.Arena[ref])
	}
	return out
}

// Detector finds tables on one page from classified shapes and text.
type Detector struct {
	config Config
}

// NewDetector creates a detector with default configuration.
func NewDetector() *Detector {
	return &Detector{config: DefaultConfig()}
}

// NewDetectorWithConfig creates a detector with custom configuration.
func NewDetectorWithConfig(config Config) *Detector {
	return &Detector{config: config}
}

// Detect runs both detection phases over one page.
//
// The borders and shadings come pre-classified; spans are the page's
// styled text spans and lines their preliminary grouping, both in reading
// order. The builder is invoked once per non-covered cell to produce its
// content. Page index is carried into warnings.
//
// An error means an internal invariant was violated while assembling a
// table (the cell spans failed to tile the lattice); the page is not
// salvageable and the caller decides the failure policy.
func (d *Detector) Detect(
	spans []model.TextSpan,
	lines []model.Line,
	images []model.Image,
	borders []model.Segment,
	shadings []model.FillRect,
	builder ContentBuilder,
	page int,
) (Detection, error) {
	det := Detection{
		SpanConsumed:  make([]bool, len(spans)),
		ImageConsumed: make([]bool, len(images)),
		LineConsumed:  make([]bool, len(lines)),
	}

	// Phase A: explicit grids from connected stroke groups.
	shells, err := d.detectExplicit(spans, borders, shadings)
	if err != nil {
		return Detection{}, err
	}

	// Phase B: text-alignment fallback on lines no explicit table claimed.
	if d.config.StreamEnabled {
		streamShells, err := d.detectStream(lines, shells, shadings)
		if err != nil {
			return Detection{}, err
		}
		shells = append(shells, streamShells...)
	}

	// Resolve nesting and overlap between accepted shells, then build the
	// arena with content assigned.
	d.assemble(shells, spans, images, lines, builder, page, &det)
	return det, nil
}
