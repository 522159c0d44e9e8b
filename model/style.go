package model

// Color represents an RGB color.
type Color struct {
	R, G, B uint8
}

// White is the default page background color.
var White = Color{R: 255, G: 255, B: 255}

// Equal reports whether two colors are identical.
func (c Color) Equal(other Color) bool {
	return c.R == other.R && c.G == other.G && c.B == other.B
}

// IsWhite reports whether the color is pure white.
func (c Color) IsWhite() bool {
	return c.Equal(White)
}

// Alignment is the horizontal alignment of a paragraph block.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
	AlignJustify
)

// String returns a human-readable name for the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return "left"
	}
}

// TextStyle is the resolved character style of a run: the verbatim font
// attributes of its source span plus any decorations, whether explicit or
// inferred from page geometry.
type TextStyle struct {
	FontFamily string
	FontSize   float64
	Bold       bool
	Italic     bool
	Color      Color
	Underline  bool
	Strike     bool
	Highlight  *Color
}

// Equal reports whether two styles are identical, treating Highlight by
// value.
func (s TextStyle) Equal(other TextStyle) bool {
	if s.FontFamily != other.FontFamily || s.FontSize != other.FontSize ||
		s.Bold != other.Bold || s.Italic != other.Italic ||
		!s.Color.Equal(other.Color) ||
		s.Underline != other.Underline || s.Strike != other.Strike {
		return false
	}
	if (s.Highlight == nil) != (other.Highlight == nil) {
		return false
	}
	if s.Highlight != nil && !s.Highlight.Equal(*other.Highlight) {
		return false
	}
	return true
}
