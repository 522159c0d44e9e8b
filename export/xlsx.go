package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tsawler/folio/internal/textutil"
	"github.com/tsawler/folio/model"
)

// XLSXWriter renders every page onto its own worksheet. Tables keep their
// grid shape with merged regions for spanning cells; paragraphs and image
// markers occupy single cells in the first column. A placeholder page
// becomes an empty sheet so page numbering survives.
type XLSXWriter struct {
	book  *excelize.File
	pages int
}

// NewXLSXWriter creates a workbook sink. Serialize with WriteTo or SaveAs
// once the conversion finishes, then Close to release the workbook.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{book: excelize.NewFile()}
}

// AppendPage lays one page out on a fresh worksheet named after its
// one-based page number.
func (x *XLSXWriter) AppendPage(tree *model.LayoutTree) error {
	sheet := fmt.Sprintf("Page %d", tree.PageIndex+1)
	if x.pages == 0 {
		// excelize seeds every workbook with a default sheet; claim it.
		if err := x.book.SetSheetName(x.book.GetSheetName(0), sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := x.book.NewSheet(sheet); err != nil {
		return fmt.Errorf("add sheet %q: %w", sheet, err)
	}
	x.pages++

	row := 1
	for _, b := range tree.Blocks() {
		var err error
		switch b.Kind {
		case model.BlockParagraph:
			if b.Paragraph == nil {
				continue
			}
			err = x.setCell(sheet, 1, row, textutil.Normalize(b.Paragraph.Text()))
			row += 2
		case model.BlockTable:
			if b.TableRef < 0 || b.TableRef >= len(tree.Tables) {
				continue
			}
			row, err = x.writeTable(sheet, tree.Tables[b.TableRef], tree.Tables, row)
			row++
		case model.BlockImage:
			if b.Image == nil {
				continue
			}
			marker := "[image]"
			if b.Image.Source.Ref != "" {
				marker = "[image: " + b.Image.Source.Ref + "]"
			}
			err = x.setCell(sheet, 1, row, marker)
			row += 2
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteTo serializes the workbook to w.
func (x *XLSXWriter) WriteTo(w io.Writer) (int64, error) {
	return x.book.WriteTo(w)
}

// SaveAs writes the workbook to the named file.
func (x *XLSXWriter) SaveAs(name string) error {
	return x.book.SaveAs(name)
}

// Close releases the workbook's resources. It does not serialize;
// call WriteTo or SaveAs first.
func (x *XLSXWriter) Close() error {
	return x.book.Close()
}

// writeTable lays the table's grid out starting at startRow and returns
// the first row past it. Spanning cells become merged regions; covered
// positions are left untouched for the merge to absorb.
func (x *XLSXWriter) writeTable(sheet string, t model.Table, arena []model.Table, startRow int) (int, error) {
	for ri, cells := range t.Rows {
		for ci, cell := range cells {
			if cell.Covered() {
				continue
			}
			from, err := excelize.CoordinatesToCellName(ci+1, startRow+ri)
			if err != nil {
				return 0, fmt.Errorf("cell %d,%d: %w", ci+1, startRow+ri, err)
			}
			text := textutil.Normalize(cell.Text(arena))
			if err := x.book.SetCellValue(sheet, from, text); err != nil {
				return 0, fmt.Errorf("set %s!%s: %w", sheet, from, err)
			}
			if cell.RowSpan > 1 || cell.ColSpan > 1 {
				to, err := excelize.CoordinatesToCellName(ci+cell.ColSpan, startRow+ri+cell.RowSpan-1)
				if err != nil {
					return 0, fmt.Errorf("cell %d,%d: %w", ci+cell.ColSpan, startRow+ri+cell.RowSpan-1, err)
				}
				if err := x.book.MergeCell(sheet, from, to); err != nil {
					return 0, fmt.Errorf("merge %s:%s: %w", from, to, err)
				}
			}
		}
	}
	return startRow + t.RowCount(), nil
}

func (x *XLSXWriter) setCell(sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell %d,%d: %w", col, row, err)
	}
	if err := x.book.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
	return nil
}
