package layout

import (
	"fmt"
	"sort"

	"github.com/tsawler/folio/geometry"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/style"
	"github.com/tsawler/folio/tables"
)

// PageConfig aggregates the configuration of every stage of page
// reconstruction.
type PageConfig struct {
	Geometry geometry.Config
	Style    style.Config
	Line     LineConfig
	Block    BlockConfig
	Section  SectionConfig
	Table    tables.Config
}

// DefaultPageConfig returns the default configuration of every stage.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Geometry: geometry.DefaultConfig(),
		Style:    style.DefaultConfig(),
		Line:     DefaultLineConfig(),
		Block:    DefaultBlockConfig(),
		Section:  DefaultSectionConfig(),
		Table:    tables.DefaultConfig(),
	}
}

// Assembler reconstructs one page's layout tree from its raw primitives.
// It is stateless across pages and safe for concurrent use from multiple
// goroutines, one page per call.
type Assembler struct {
	config   PageConfig
	lines    *LineDetector
	blocks   *BlockDetector
	sections *SectionDetector
	placer   *ImagePlacer
	styler   *style.Extractor
	// explicit detects stroked and shaded grids at page scope; stream
	// runs the text-alignment fallback scoped to one column, where a
	// column split cannot masquerade as a borderless table.
	explicit *tables.Detector
	stream   *tables.Detector
}

// NewAssembler creates an assembler with default configuration.
func NewAssembler() *Assembler {
	return NewAssemblerWithConfig(DefaultPageConfig())
}

// NewAssemblerWithConfig creates an assembler with custom configuration.
func NewAssemblerWithConfig(config PageConfig) *Assembler {
	explicitCfg := config.Table
	explicitCfg.StreamEnabled = false
	return &Assembler{
		config:   config,
		lines:    NewLineDetectorWithConfig(config.Line),
		blocks:   NewBlockDetectorWithConfig(config.Block),
		sections: NewSectionDetectorWithConfig(config.Section),
		placer:   NewImagePlacer(),
		styler:   style.NewExtractorWithConfig(config.Style),
		explicit: tables.NewDetectorWithConfig(explicitCfg),
		stream:   tables.NewDetectorWithConfig(config.Table),
	}
}

// ReconstructPage runs the full reconstruction pipeline on one page:
// index the primitives, classify shapes, style the spans, detect drawn
// tables, group the remaining text into lines, partition sections and
// columns, detect borderless tables inside each column, build the block
// flow and place images. Content that lands in no column attaches to a
// catch-all block at the end of the last column, so nothing is silently
// dropped.
//
// The returned warnings hold every non-fatal condition met along the way.
// An error means the page is unsalvageable (a structural invariant broke
// inside table assembly); the caller owns the failure policy.
func (a *Assembler) ReconstructPage(prims model.PagePrimitives) (*model.LayoutTree, []model.Warning, error) {
	// Step 1: index and validate the raw primitives.
	ix := geometry.NewIndex(prims, a.config.Geometry)
	warnings := ix.Warnings()

	tree := &model.LayoutTree{
		PageIndex: prims.PageIndex,
		PageBox:   ix.PageBox(),
	}
	if ix.Len() == 0 {
		return tree, warnings, nil
	}

	// Step 2: preliminary lines give the shape classifier its text
	// context.
	prelim := a.lines.Detect(ix.Spans())
	cls := a.styler.Classify(ix.Paths(), ix.Fills(), prelim)

	// Step 3: resolve every span's final character style.
	styled := a.styler.Apply(ix.Spans(), cls.Decorations, cls.Highlights)

	// Step 4: drawn tables claim their spans, images and lines. Cell
	// content is built through the same line and block machinery.
	det, err := a.explicit.Detect(styled, prelim, ix.Images(), cls.Borders, cls.Shadings, a.cellBlocks, prims.PageIndex)
	if err != nil {
		return nil, warnings, fmt.Errorf("table detection: %w", err)
	}
	warnings = append(warnings, det.Warnings...)

	// Step 5: everything tables left behind flows as ordinary content.
	var freeSpans []model.TextSpan
	for i, s := range styled {
		if !det.SpanConsumed[i] {
			freeSpans = append(freeSpans, s)
		}
	}
	var freeImages []model.Image
	for i, img := range ix.Images() {
		if !det.ImageConsumed[i] {
			freeImages = append(freeImages, img)
		}
	}
	finalLines := a.lines.Detect(freeSpans)
	imageBlocks := a.placer.Place(freeImages, finalLines, freeSpans)

	// Step 6: partition the page into sections and columns. Floating
	// images overlay the flow without displacing it, so they contribute
	// no section geometry; a full-page watermark must not hide a gutter.
	var boxes []model.BBox
	for _, l := range finalLines {
		boxes = append(boxes, l.BBox)
	}
	for _, r := range det.Roots {
		boxes = append(boxes, det.Arena[r].BBox)
	}
	for _, ib := range imageBlocks {
		if ib.Placement == model.PlacementInline {
			boxes = append(boxes, ib.BBox)
		}
	}
	bands := a.sections.Detect(boxes, ix.PageBox())

	// Step 7: hand every piece of content to its column, detect
	// borderless tables in column scope, and build the block flow.
	sections, fillWarnings, err := a.fill(bands, finalLines, &det, imageBlocks, freeSpans, cls.Shadings, ix.PageBox(), prims.PageIndex)
	warnings = append(warnings, fillWarnings...)
	if err != nil {
		return nil, warnings, err
	}
	tree.Sections = sections
	tree.Tables = det.Arena
	return tree, warnings, nil
}

// cellBlocks is the table detector's content builder: the cell region's
// spans become lines and paragraph blocks, its images become image
// blocks, merged in reading order.
func (a *Assembler) cellBlocks(spans []model.TextSpan, images []model.Image, region model.BBox) []model.Block {
	lines := a.lines.Detect(spans)
	paras := a.blocks.Detect(lines)
	imgs := a.placer.Place(images, lines, spans)

	blocks := make([]model.Block, 0, len(paras)+len(imgs))
	for i := range paras {
		blocks = append(blocks, model.ParagraphBlock(&paras[i]))
	}
	for i := range imgs {
		blocks = append(blocks, model.ImageRefBlock(&imgs[i]))
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Bounds(nil).Top() < blocks[j].Bounds(nil).Top()
	})
	return blocks
}

// fill distributes lines, tables and images into the section bands by
// centroid, runs stream table detection inside each column, builds the
// paragraph blocks, and salvages anything unclaimed into a catch-all
// block on the last column.
func (a *Assembler) fill(bands []SectionBand, lines []model.Line, det *tables.Detection, images []model.ImageBlock, spans []model.TextSpan, shadings []model.FillRect, pageBox model.BBox, page int) ([]model.Section, []model.Warning, error) {
	var warnings []model.Warning
	lineClaimed := make([]bool, len(lines))
	tableClaimed := make([]bool, len(det.Roots))
	imageClaimed := make([]bool, len(images))

	// Shadings inside a drawn table already serve as cell backgrounds;
	// the rest may still shade a borderless grid.
	var freeShadings []model.FillRect
	for _, sh := range shadings {
		inTable := false
		for _, r := range det.Roots {
			if det.Arena[r].BBox.Intersects(sh.BBox) {
				inTable = true
				break
			}
		}
		if !inTable {
			freeShadings = append(freeShadings, sh)
		}
	}

	sections := make([]model.Section, 0, len(bands))
	for _, b := range bands {
		sec := model.Section{
			BBox: b.BBox,
			Margins: model.Margins{
				Top:    b.BBox.Top() - pageBox.Top(),
				Bottom: pageBox.Bottom() - b.BBox.Bottom(),
				Left:   b.BBox.Left() - pageBox.Left(),
				Right:  pageBox.Right() - b.BBox.Right(),
			},
			Space: b.Space,
		}
		for _, colBox := range b.Columns {
			var colLines []model.Line
			for i, l := range lines {
				if !lineClaimed[i] && colBox.Contains(l.BBox.Center()) {
					lineClaimed[i] = true
					colLines = append(colLines, l)
				}
			}
			var colSpans []model.TextSpan
			for _, s := range spans {
				if colBox.Contains(s.BBox.Center()) {
					colSpans = append(colSpans, s)
				}
			}
			var colImages []int
			var colSources []model.Image
			for i := range images {
				if !imageClaimed[i] && colBox.Contains(images[i].BBox.Center()) {
					colImages = append(colImages, i)
					colSources = append(colSources, images[i].Source)
				}
			}
			var colShadings []model.FillRect
			for _, sh := range freeShadings {
				if colBox.Contains(sh.BBox.Center()) {
					colShadings = append(colShadings, sh)
				}
			}

			blocks, colWarnings, err := a.columnBlocks(colLines, colSpans, colImages, colSources, colShadings, det, images, imageClaimed, page)
			warnings = append(warnings, colWarnings...)
			if err != nil {
				return nil, warnings, err
			}
			for i, r := range det.Roots {
				if !tableClaimed[i] && colBox.Contains(det.Arena[r].BBox.Center()) {
					tableClaimed[i] = true
					blocks = append(blocks, model.TableRefBlock(r))
				}
			}

			sortBlocks(blocks, det.Arena)
			spaceBlocks(blocks, det.Arena, colBox)
			sec.Columns = append(sec.Columns, model.Column{BBox: colBox, Blocks: blocks})
		}
		sections = append(sections, sec)
	}

	return a.salvage(sections, lines, lineClaimed, det, tableClaimed, images, imageClaimed, pageBox), warnings, nil
}

// columnBlocks builds one column's flow: borderless tables first, then
// paragraphs from the lines left over, then the column's images.
func (a *Assembler) columnBlocks(colLines []model.Line, colSpans []model.TextSpan, colImages []int, colSources []model.Image, colShadings []model.FillRect, det *tables.Detection, images []model.ImageBlock, imageClaimed []bool, page int) ([]model.Block, []model.Warning, error) {
	var blocks []model.Block

	streamDet, err := a.stream.Detect(colSpans, colLines, colSources, nil, colShadings, a.cellBlocks, page)
	if err != nil {
		return nil, nil, fmt.Errorf("table detection: %w", err)
	}

	// Splice the column's tables into the page arena, rebasing every
	// nested reference.
	base := len(det.Arena)
	for ti := range streamDet.Arena {
		rebaseTableRefs(&streamDet.Arena[ti], base)
	}
	det.Arena = append(det.Arena, streamDet.Arena...)
	for _, r := range streamDet.Roots {
		blocks = append(blocks, model.TableRefBlock(base+r))
	}

	var flowLines []model.Line
	for i, l := range colLines {
		if !streamDet.LineConsumed[i] {
			flowLines = append(flowLines, l)
		}
	}
	paras := a.blocks.Detect(flowLines)
	for i := range paras {
		blocks = append(blocks, model.ParagraphBlock(&paras[i]))
	}

	for local, i := range colImages {
		imageClaimed[i] = true
		if streamDet.ImageConsumed[local] {
			continue
		}
		blocks = append(blocks, model.ImageRefBlock(&images[i]))
	}
	return blocks, streamDet.Warnings, nil
}

// rebaseTableRefs shifts the arena indices of a table's nested table
// blocks by base.
func rebaseTableRefs(t *model.Table, base int) {
	for ri := range t.Rows {
		for ci := range t.Rows[ri] {
			cell := &t.Rows[ri][ci]
			for bi := range cell.Blocks {
				if cell.Blocks[bi].Kind == model.BlockTable {
					cell.Blocks[bi].TableRef += base
				}
			}
		}
	}
}

// sortBlocks orders a column's blocks top to bottom, ties left to right.
func sortBlocks(blocks []model.Block, arena []model.Table) {
	sort.SliceStable(blocks, func(i, j int) bool {
		bi, bj := blocks[i].Bounds(arena), blocks[j].Bounds(arena)
		if bi.Top() != bj.Top() {
			return bi.Top() < bj.Top()
		}
		return bi.Left() < bj.Left()
	})
}

// spaceBlocks fills in the vertical spacing of a column's paragraphs.
// Space before a block is the distance from the previous flowing block's
// bottom, or from the column top for the first. Floating images overlay
// the flow and neither give nor take space.
func spaceBlocks(blocks []model.Block, arena []model.Table, colBox model.BBox) {
	flowBottom := colBox.Top()
	var prevPara *model.Paragraph
	for _, b := range blocks {
		if b.Kind == model.BlockImage && b.Image.Placement == model.PlacementFloating {
			continue
		}
		bounds := b.Bounds(arena)
		if b.Kind == model.BlockParagraph {
			b.Paragraph.SpaceBefore = clampPositive(bounds.Top() - flowBottom)
		}
		if prevPara != nil {
			prevPara.SpaceAfter = clampPositive(bounds.Top() - prevPara.BBox.Bottom())
		}
		prevPara = nil
		if b.Kind == model.BlockParagraph {
			prevPara = b.Paragraph
		}
		flowBottom = bounds.Bottom()
	}
}

func clampPositive(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// salvage appends any content no column claimed to a catch-all block at
// the end of the last column, creating a single full-page section when
// the page produced none.
func (a *Assembler) salvage(sections []model.Section, lines []model.Line, lineClaimed []bool, det *tables.Detection, tableClaimed []bool, images []model.ImageBlock, imageClaimed []bool, pageBox model.BBox) []model.Section {
	var lost []model.Line
	for i, l := range lines {
		if !lineClaimed[i] {
			lost = append(lost, l)
		}
	}
	var lostBlocks []model.Block
	if len(lost) > 0 {
		box := lost[0].BBox
		for _, l := range lost[1:] {
			box = box.Union(l.BBox)
		}
		lostBlocks = append(lostBlocks, model.ParagraphBlock(&model.Paragraph{
			BBox:      box,
			Lines:     lost,
			Alignment: model.AlignLeft,
			Direction: lost[0].Direction,
			Salvaged:  true,
		}))
	}
	for i, r := range det.Roots {
		if !tableClaimed[i] {
			lostBlocks = append(lostBlocks, model.TableRefBlock(r))
		}
	}
	for i := range images {
		if !imageClaimed[i] {
			lostBlocks = append(lostBlocks, model.ImageRefBlock(&images[i]))
		}
	}
	if len(lostBlocks) == 0 {
		return sections
	}

	if len(sections) == 0 {
		sections = append(sections, model.Section{
			BBox:    pageBox,
			Columns: []model.Column{{BBox: pageBox}},
		})
	}
	last := &sections[len(sections)-1]
	col := &last.Columns[len(last.Columns)-1]
	col.Blocks = append(col.Blocks, lostBlocks...)
	return sections
}
