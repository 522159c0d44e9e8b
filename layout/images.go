package layout

import (
	"github.com/tsawler/folio/model"
)

// ImagePlacer decides how images participate in text flow.
type ImagePlacer struct{}

// NewImagePlacer creates an image placer.
func NewImagePlacer() *ImagePlacer {
	return &ImagePlacer{}
}

// Place classifies each image against the page's text lines. An image
// overlapping no line is inline: it sits between lines and pushes content
// downward. An image overlapping one or more lines floats over or under
// them without displacing anything; its z-order comes from paint order
// when the source recorded one and defaults to behind the text, the
// watermark case. The spans are the lines' sources and supply the paint
// order of the overlapped text.
func (p *ImagePlacer) Place(images []model.Image, lines []model.Line, spans []model.TextSpan) []model.ImageBlock {
	if len(images) == 0 {
		return nil
	}

	blocks := make([]model.ImageBlock, 0, len(images))
	for _, img := range images {
		blk := model.ImageBlock{
			BBox:      img.BBox,
			Source:    img,
			Placement: model.PlacementInline,
			ZOrder:    model.ZBehindText,
		}
		for _, l := range lines {
			if img.BBox.Intersects(l.BBox) {
				blk.Placement = model.PlacementFloating
				blk.ZOrder = p.zOrder(img, spans)
				break
			}
		}
		blocks = append(blocks, blk)
	}
	return blocks
}

// zOrder compares the image's paint order against the text it overlaps:
// painted after every overlapped span means in front.
func (p *ImagePlacer) zOrder(img model.Image, spans []model.TextSpan) model.ZOrder {
	if img.DrawOrder < 0 {
		return model.ZBehindText
	}
	overlapped := false
	for _, s := range spans {
		if !img.BBox.Intersects(s.BBox) {
			continue
		}
		overlapped = true
		if s.DrawOrder < 0 || s.DrawOrder > img.DrawOrder {
			return model.ZBehindText
		}
	}
	if !overlapped {
		return model.ZBehindText
	}
	return model.ZInFrontOfText
}
