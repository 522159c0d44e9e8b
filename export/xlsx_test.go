package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXWriter(t *testing.T) {
	w := NewXLSXWriter()
	if err := w.AppendPage(samplePage(0)); err != nil {
		t.Fatalf("AppendPage: %v", err)
	}
	if err := w.AppendPage(placeholderPage(1)); err != nil {
		t.Fatalf("AppendPage placeholder: %v", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Page 1" || sheets[1] != "Page 2" {
		t.Fatalf("sheets = %v, want [Page 1, Page 2]", sheets)
	}

	cells := []struct {
		axis string
		want string
	}{
		{"A1", "Quarterly report\nFigures are unaudited."},
		{"A3", "Results"},
		{"A4", "Region"},
		{"B4", "Total"},
		{"A5", "West"},
		{"B5", "1,204"},
		{"A7", "[image: img-7]"},
	}
	for _, tc := range cells {
		got, err := book.GetCellValue("Page 1", tc.axis)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tc.axis, err)
		}
		if got != tc.want {
			t.Errorf("%s = %q, want %q", tc.axis, got, tc.want)
		}
	}

	merges, err := book.GetMergeCells("Page 1")
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merges) != 1 {
		t.Fatalf("want 1 merged region, got %d", len(merges))
	}
	if merges[0].GetStartAxis() != "A3" || merges[0].GetEndAxis() != "B3" {
		t.Errorf("merge = %s:%s, want A3:B3", merges[0].GetStartAxis(), merges[0].GetEndAxis())
	}

	// The placeholder page keeps its sheet but holds nothing.
	if got, _ := book.GetCellValue("Page 2", "A1"); got != "" {
		t.Errorf("placeholder sheet A1 = %q, want empty", got)
	}
}
