package export

import (
	"github.com/tsawler/folio/model"
)

// samplePage builds one page holding a styled two-line paragraph, a table
// with a merged header row, and an inline image reference.
func samplePage(index int) *model.LayoutTree {
	para := &model.Paragraph{
		BBox:      model.NewBBox(72, 72, 200, 30),
		Alignment: model.AlignLeft,
		Lines: []model.Line{
			{
				BBox:     model.NewBBox(72, 72, 200, 12),
				Baseline: 82,
				Runs: []model.Run{
					{Text: "Quarterly ", Style: model.TextStyle{FontSize: 11}},
					{Text: "report", Style: model.TextStyle{FontSize: 11, Bold: true}},
				},
			},
			{
				BBox:     model.NewBBox(72, 88, 200, 12),
				Baseline: 98,
				Runs: []model.Run{
					{Text: "Figures are ", Style: model.TextStyle{FontSize: 11}},
					{Text: "unaudited", Style: model.TextStyle{FontSize: 11, Italic: true}},
					{Text: ".", Style: model.TextStyle{FontSize: 11}},
				},
			},
		},
	}

	img := &model.ImageBlock{
		BBox:      model.NewBBox(72, 260, 120, 80),
		Source:    model.Image{BBox: model.NewBBox(72, 260, 120, 80), Ref: "img-7", PixelWidth: 240, PixelHeight: 160, DrawOrder: -1},
		Placement: model.PlacementInline,
	}

	colBox := model.NewBBox(72, 72, 451, 648)
	return &model.LayoutTree{
		PageIndex: index,
		PageBox:   model.NewBBox(0, 0, 595, 842),
		Sections: []model.Section{{
			BBox:    colBox,
			Margins: model.Margins{Top: 72, Bottom: 122, Left: 72, Right: 72},
			Columns: []model.Column{{
				BBox: colBox,
				Blocks: []model.Block{
					model.ParagraphBlock(para),
					model.TableRefBlock(0),
					model.ImageRefBlock(img),
				},
			}},
		}},
		Tables: []model.Table{headerTable()},
	}
}

// headerTable is a 3x2 grid whose first row is one merged cell.
func headerTable() model.Table {
	t := model.NewTable(3, 2)
	t.BBox = model.NewBBox(72, 120, 300, 90)
	t.HasGrid = true
	t.Rows[0][0] = model.Cell{RowSpan: 1, ColSpan: 2, Blocks: []model.Block{model.ParagraphBlock(cellPara("Results"))}}
	t.Rows[0][1] = model.Cell{}
	t.Rows[1][0].Blocks = []model.Block{model.ParagraphBlock(cellPara("Region"))}
	t.Rows[1][1].Blocks = []model.Block{model.ParagraphBlock(cellPara("Total"))}
	t.Rows[2][0].Blocks = []model.Block{model.ParagraphBlock(cellPara("West"))}
	t.Rows[2][1].Blocks = []model.Block{model.ParagraphBlock(cellPara("1,204"))}
	return *t
}

func cellPara(text string) *model.Paragraph {
	return &model.Paragraph{
		Lines: []model.Line{{Runs: []model.Run{{Text: text}}}},
	}
}

// placeholderPage is the substitute tree a failed page turns into.
func placeholderPage(index int) *model.LayoutTree {
	return &model.LayoutTree{
		PageIndex:   index,
		PageBox:     model.NewBBox(0, 0, 595, 842),
		Placeholder: true,
	}
}
