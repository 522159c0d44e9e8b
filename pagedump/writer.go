package pagedump

import (
	"fmt"
	"io"
	"os"

	"github.com/bytedance/sonic"

	"github.com/tsawler/folio/model"
)

// document is the wire root of one page dump.
type document struct {
	Version int    `json:"version"`
	Pages   []page `json:"pages"`
}

type page struct {
	// Index mirrors the page's position in the array; readers trust the
	// position.
	Index  int     `json:"index"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Spans  []span  `json:"spans,omitempty"`
	Images []img   `json:"images,omitempty"`
	Paths  []path  `json:"paths,omitempty"`
	Fills  []fill  `json:"fills,omitempty"`
	// Error is the upstream parser's failure message for a page it could
	// not deliver; such a page carries no primitives.
	Error string `json:"error,omitempty"`
}

type box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (b box) model() model.BBox {
	return model.NewBBox(b.X, b.Y, b.W, b.H)
}

func wireBox(b model.BBox) box {
	return box{X: b.X, Y: b.Y, W: b.Width, H: b.Height}
}

type span struct {
	Box        box       `json:"box"`
	Baseline   float64   `json:"baseline"`
	Text       string    `json:"text"`
	FontFamily string    `json:"font_family,omitempty"`
	FontSize   float64   `json:"font_size"`
	Weight     int       `json:"weight,omitempty"`
	Italic     bool      `json:"italic,omitempty"`
	Color      *[3]uint8 `json:"color,omitempty"`
	Direction  string    `json:"direction,omitempty"`
	Underline  bool      `json:"underline,omitempty"`
	Strike     bool      `json:"strike,omitempty"`
	Highlight  *[3]uint8 `json:"highlight,omitempty"`
	DrawOrder  *int      `json:"draw_order,omitempty"`
}

type img struct {
	Box         box    `json:"box"`
	Ref         string `json:"ref,omitempty"`
	Data        []byte `json:"data,omitempty"`
	Format      string `json:"format,omitempty"`
	PixelWidth  int    `json:"pixel_width,omitempty"`
	PixelHeight int    `json:"pixel_height,omitempty"`
	Mode        string `json:"mode,omitempty"`
	HasAlpha    bool   `json:"has_alpha,omitempty"`
	DrawOrder   *int   `json:"draw_order,omitempty"`
}

type path struct {
	Points [][2]float64 `json:"points"`
	Stroke *[3]uint8    `json:"stroke,omitempty"`
	Width  float64      `json:"width"`
	Closed bool         `json:"closed,omitempty"`
}

type fill struct {
	Box  box      `json:"box"`
	Fill [3]uint8 `json:"fill"`
}

// Marshal serializes pages to the page-dump interchange format.
func Marshal(pages []model.PagePrimitives) ([]byte, error) {
	doc := document{Version: FormatVersion}
	for i, p := range pages {
		doc.Pages = append(doc.Pages, encodePage(p, i))
	}
	data, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode page dump: %w", err)
	}
	return data, nil
}

// Write writes the page dump for pages to w.
func Write(w io.Writer, pages []model.PagePrimitives) error {
	data, err := Marshal(pages)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write page dump: %w", err)
	}
	return nil
}

// WriteFile writes the page dump for pages to filename.
func WriteFile(filename string, pages []model.PagePrimitives) error {
	data, err := Marshal(pages)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write page dump: %w", err)
	}
	return nil
}

func encodePage(p model.PagePrimitives, index int) page {
	out := page{Index: index, Width: p.Width, Height: p.Height}
	for _, s := range p.Spans {
		out.Spans = append(out.Spans, encodeSpan(s))
	}
	for _, im := range p.Images {
		out.Images = append(out.Images, encodeImage(im))
	}
	for _, pa := range p.Paths {
		out.Paths = append(out.Paths, encodePath(pa))
	}
	for _, f := range p.Fills {
		out.Fills = append(out.Fills, fill{
			Box:  wireBox(f.BBox),
			Fill: [3]uint8{f.Fill.R, f.Fill.G, f.Fill.B},
		})
	}
	return out
}

func encodeSpan(s model.TextSpan) span {
	out := span{
		Box:        wireBox(s.BBox),
		Baseline:   s.Baseline,
		Text:       s.Text,
		FontFamily: s.FontFamily,
		FontSize:   s.FontSize,
		Weight:     s.Weight,
		Italic:     s.Italic,
		Color:      encodeColor(s.Color),
		Underline:  s.Underline,
		Strike:     s.Strike,
		DrawOrder:  encodeOrder(s.DrawOrder),
	}
	if s.Direction == model.Vertical {
		out.Direction = "vertical"
	}
	if s.Highlight != nil {
		out.Highlight = &[3]uint8{s.Highlight.R, s.Highlight.G, s.Highlight.B}
	}
	return out
}

func encodeImage(im model.Image) img {
	out := img{
		Box:         wireBox(im.BBox),
		Ref:         im.Ref,
		Data:        im.Data,
		Format:      im.Format,
		PixelWidth:  im.PixelWidth,
		PixelHeight: im.PixelHeight,
		Mode:        im.Mode.String(),
		HasAlpha:    im.HasAlpha,
		DrawOrder:   encodeOrder(im.DrawOrder),
	}
	return out
}

func encodePath(p model.Path) path {
	out := path{
		Stroke: encodeColor(p.Stroke),
		Width:  p.StrokeWidth,
		Closed: p.Closed,
	}
	for _, pt := range p.Points {
		out.Points = append(out.Points, [2]float64{pt.X, pt.Y})
	}
	return out
}

// encodeColor omits black, the zero color.
func encodeColor(c model.Color) *[3]uint8 {
	if c == (model.Color{}) {
		return nil
	}
	return &[3]uint8{c.R, c.G, c.B}
}

// encodeOrder omits unknown draw orders.
func encodeOrder(o int) *int {
	if o < 0 {
		return nil
	}
	return &o
}
