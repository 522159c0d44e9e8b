package model

// PrimitiveKind identifies the type of a raw page primitive.
type PrimitiveKind int

const (
	KindTextSpan PrimitiveKind = iota
	KindImage
	KindPath
	KindFillRect
)

// String returns a human-readable name for the primitive kind.
func (k PrimitiveKind) String() string {
	switch k {
	case KindTextSpan:
		return "text_span"
	case KindImage:
		return "image"
	case KindPath:
		return "path"
	case KindFillRect:
		return "fill_rect"
	default:
		return "unknown"
	}
}

// Primitive is a single geometric element extracted from one page by the
// upstream page-parsing service. All coordinates live in one page-local
// space: origin at the page's top-left corner, y increasing downward.
type Primitive interface {
	Kind() PrimitiveKind
	Bounds() BBox
}

// Direction is the writing direction of a text span.
type Direction int

const (
	// Horizontal text reads left to right, lines stack top to bottom.
	Horizontal Direction = iota
	// Vertical text reads bottom to top, lines stack left to right.
	Vertical
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// TextSpan is a run of glyphs sharing one font, size and color.
//
// Weight follows the common numeric scale (400 regular, 700 bold). The
// upstream extractor may already know about decorations that are encoded as
// font attributes rather than drawn geometry; those arrive as the explicit
// Underline/Strike/Highlight fields and always win over geometry inference.
type TextSpan struct {
	BBox       BBox
	Baseline   float64 // y of the baseline for horizontal text, x for vertical
	Text       string
	FontFamily string
	FontSize   float64
	Weight     int
	Italic     bool
	Color      Color
	Direction  Direction
	Underline  bool
	Strike     bool
	Highlight  *Color
	DrawOrder  int // sequence number in page paint order, -1 when unknown
}

// Kind implements Primitive.
func (s TextSpan) Kind() PrimitiveKind { return KindTextSpan }

// Bounds implements Primitive.
func (s TextSpan) Bounds() BBox { return s.BBox }

// Bold reports whether the span's weight reads as bold.
func (s TextSpan) Bold() bool { return s.Weight >= 600 }

// ColorMode is the color space of an image's pixel data.
type ColorMode int

const (
	ColorModeGray ColorMode = iota
	ColorModeRGB
	ColorModeCMYK
)

// String returns a human-readable name for the color mode.
func (m ColorMode) String() string {
	switch m {
	case ColorModeGray:
		return "gray"
	case ColorModeCMYK:
		return "cmyk"
	default:
		return "rgb"
	}
}

// Image is a raster image placed on the page. Data may be nil when the
// upstream source hands out payloads by reference only; Ref then identifies
// the payload in the source's store. Format and the pixel dimensions are
// filled by sniffing Data when present.
type Image struct {
	BBox        BBox
	Ref         string
	Data        []byte
	Format      string
	PixelWidth  int
	PixelHeight int
	Mode        ColorMode
	HasAlpha    bool
	DrawOrder   int // sequence number in page paint order, -1 when unknown
}

// Kind implements Primitive.
func (i Image) Kind() PrimitiveKind { return KindImage }

// Bounds implements Primitive.
func (i Image) Bounds() BBox { return i.BBox }

// Path is a stroked vector path given as an ordered point list.
type Path struct {
	Points      []Point
	Stroke      Color
	StrokeWidth float64
	Closed      bool
}

// Kind implements Primitive.
func (p Path) Kind() PrimitiveKind { return KindPath }

// Bounds implements Primitive.
func (p Path) Bounds() BBox {
	if len(p.Points) == 0 {
		return BBox{}
	}
	box := NewBBoxFromPoints(p.Points[0], p.Points[0])
	for _, pt := range p.Points[1:] {
		box = box.Union(NewBBoxFromPoints(pt, pt))
	}
	return box
}

// Segments explodes the path into its consecutive straight segments. A
// closed path contributes the closing segment back to the first point.
func (p Path) Segments() []Segment {
	if len(p.Points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(p.Points))
	for i := 1; i < len(p.Points); i++ {
		segs = append(segs, Segment{
			Start: p.Points[i-1],
			End:   p.Points[i],
			Width: p.StrokeWidth,
			Color: p.Stroke,
		})
	}
	if p.Closed && len(p.Points) > 2 {
		segs = append(segs, Segment{
			Start: p.Points[len(p.Points)-1],
			End:   p.Points[0],
			Width: p.StrokeWidth,
			Color: p.Stroke,
		})
	}
	return segs
}

// FillRect is a filled axis-aligned rectangle.
type FillRect struct {
	BBox BBox
	Fill Color
}

// Kind implements Primitive.
func (f FillRect) Kind() PrimitiveKind { return KindFillRect }

// Bounds implements Primitive.
func (f FillRect) Bounds() BBox { return f.BBox }

// PagePrimitives is the complete primitive set of one page as delivered by
// the page primitive source, in paint order within each slice.
type PagePrimitives struct {
	PageIndex int
	Width     float64
	Height    float64
	Spans     []TextSpan
	Images    []Image
	Paths     []Path
	Fills     []FillRect
}

// PageBox returns the page boundary box.
func (p PagePrimitives) PageBox() BBox {
	return BBox{X: 0, Y: 0, Width: p.Width, Height: p.Height}
}

// Empty reports whether the page carries no primitives at all.
func (p PagePrimitives) Empty() bool {
	return len(p.Spans) == 0 && len(p.Images) == 0 &&
		len(p.Paths) == 0 && len(p.Fills) == 0
}
