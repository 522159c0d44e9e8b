// Package pagedump reads and writes the page-dump interchange format: one
// JSON document per file carrying the per-page primitive sets produced by
// the upstream page-parsing service.
//
// The reader implements pipeline.Source. Pages are positional: a page's
// index is its position in the pages array. A page the upstream parser
// could not deliver carries an error string instead of primitives and
// surfaces as a page-unreadable failure.
package pagedump

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bytedance/sonic"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/pipeline"
)

// FormatVersion is the newest interchange version this package handles.
const FormatVersion = 1

// Reader is an opened page dump. It implements pipeline.Source and is
// safe for concurrent use once constructed.
type Reader struct {
	pages []model.PagePrimitives
	// errs holds the upstream parser's per-page failure messages, ""
	// for pages that parsed.
	errs []string
}

// Open reads and decodes the page dump at filename.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("open page dump: %w", err)
	}
	return FromBytes(data)
}

// FromBytes decodes a page dump held in memory.
func FromBytes(data []byte) (*Reader, error) {
	var doc document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode page dump: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("page dump version %d not supported (up to %d)", doc.Version, FormatVersion)
	}

	r := &Reader{
		pages: make([]model.PagePrimitives, len(doc.Pages)),
		errs:  make([]string, len(doc.Pages)),
	}
	for i, p := range doc.Pages {
		r.errs[i] = p.Error
		r.pages[i] = decodePage(p, i)
	}
	return r, nil
}

// PageCount implements pipeline.Source.
func (r *Reader) PageCount() int {
	return len(r.pages)
}

// Page implements pipeline.Source.
func (r *Reader) Page(index int) (model.PagePrimitives, error) {
	if index < 0 || index >= len(r.pages) {
		return model.PagePrimitives{}, fmt.Errorf("page index %d out of range (0-%d)", index, len(r.pages)-1)
	}
	if r.errs[index] != "" {
		return model.PagePrimitives{}, fmt.Errorf("%s: %w", r.errs[index], pipeline.ErrPageUnreadable)
	}
	return r.pages[index], nil
}

func decodePage(p page, index int) model.PagePrimitives {
	prims := model.PagePrimitives{
		PageIndex: index,
		Width:     p.Width,
		Height:    p.Height,
	}
	for _, s := range p.Spans {
		prims.Spans = append(prims.Spans, decodeSpan(s))
	}
	for _, im := range p.Images {
		prims.Images = append(prims.Images, decodeImage(im))
	}
	for _, pa := range p.Paths {
		prims.Paths = append(prims.Paths, decodePath(pa))
	}
	for _, f := range p.Fills {
		prims.Fills = append(prims.Fills, model.FillRect{
			BBox: f.Box.model(),
			Fill: decodeColor(&f.Fill),
		})
	}
	return prims
}

func decodeSpan(s span) model.TextSpan {
	out := model.TextSpan{
		BBox:       s.Box.model(),
		Baseline:   s.Baseline,
		Text:       s.Text,
		FontFamily: s.FontFamily,
		FontSize:   s.FontSize,
		Weight:     s.Weight,
		Italic:     s.Italic,
		Color:      decodeColor(s.Color),
		Underline:  s.Underline,
		Strike:     s.Strike,
		DrawOrder:  decodeOrder(s.DrawOrder),
	}
	if s.Direction == "vertical" {
		out.Direction = model.Vertical
	}
	if s.Highlight != nil {
		c := decodeColor(s.Highlight)
		out.Highlight = &c
	}
	return out
}

func decodeImage(im img) model.Image {
	out := model.Image{
		BBox:        im.Box.model(),
		Ref:         im.Ref,
		Data:        im.Data,
		Format:      im.Format,
		PixelWidth:  im.PixelWidth,
		PixelHeight: im.PixelHeight,
		HasAlpha:    im.HasAlpha,
		DrawOrder:   decodeOrder(im.DrawOrder),
	}
	switch im.Mode {
	case "gray":
		out.Mode = model.ColorModeGray
	case "cmyk":
		out.Mode = model.ColorModeCMYK
	default:
		out.Mode = model.ColorModeRGB
	}
	sniffImage(&out, im.Mode == "")
	return out
}

// sniffImage fills format, pixel dimensions, color mode and alpha from
// the payload bytes when the dump left them unspecified. A payload that
// no registered decoder understands is left as delivered.
func sniffImage(m *model.Image, modeUnset bool) {
	if len(m.Data) == 0 {
		return
	}
	if m.Format != "" && m.PixelWidth > 0 && m.PixelHeight > 0 && !modeUnset {
		return
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(m.Data))
	if err != nil {
		return
	}
	if m.Format == "" {
		m.Format = format
	}
	if m.PixelWidth == 0 {
		m.PixelWidth = cfg.Width
	}
	if m.PixelHeight == 0 {
		m.PixelHeight = cfg.Height
	}
	if modeUnset {
		switch cfg.ColorModel {
		case color.GrayModel, color.Gray16Model:
			m.Mode = model.ColorModeGray
		case color.CMYKModel:
			m.Mode = model.ColorModeCMYK
		default:
			m.Mode = model.ColorModeRGB
		}
	}
	switch cfg.ColorModel {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		m.HasAlpha = true
	}
}

func decodePath(p path) model.Path {
	out := model.Path{
		Stroke:      decodeColor(p.Stroke),
		StrokeWidth: p.Width,
		Closed:      p.Closed,
	}
	for _, pt := range p.Points {
		out.Points = append(out.Points, model.Point{X: pt[0], Y: pt[1]})
	}
	return out
}

func decodeColor(c *[3]uint8) model.Color {
	if c == nil {
		return model.Color{}
	}
	return model.Color{R: c[0], G: c[1], B: c[2]}
}

// decodeOrder maps an absent draw order to the unknown marker.
func decodeOrder(o *int) int {
	if o == nil {
		return -1
	}
	return *o
}
