package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/folio/model"
)

type fakeSource struct {
	pages []model.PagePrimitives
	bad   map[int]bool
}

func (s *fakeSource) PageCount() int { return len(s.pages) }

func (s *fakeSource) Page(index int) (model.PagePrimitives, error) {
	if s.bad[index] {
		return model.PagePrimitives{}, fmt.Errorf("parse page %d: %w", index, ErrPageUnreadable)
	}
	return s.pages[index], nil
}

type collectSink struct {
	trees  []*model.LayoutTree
	failAt int // AppendPage fails once len(trees) reaches this, -1 never
}

func newCollectSink() *collectSink {
	return &collectSink{failAt: -1}
}

func (s *collectSink) AppendPage(tree *model.LayoutTree) error {
	if s.failAt >= 0 && len(s.trees) == s.failAt {
		return errors.New("disk full")
	}
	s.trees = append(s.trees, tree)
	return nil
}

func textPage(index int) model.PagePrimitives {
	return model.PagePrimitives{
		PageIndex: index,
		Width:     200,
		Height:    100,
		Spans: []model.TextSpan{{
			BBox:      model.NewBBox(10, 10, 80, 12),
			Baseline:  22,
			Text:      fmt.Sprintf("page %d", index),
			FontSize:  12,
			Direction: model.Horizontal,
			DrawOrder: -1,
		}},
	}
}

func makeSource(n int, bad ...int) *fakeSource {
	src := &fakeSource{bad: make(map[int]bool)}
	for i := 0; i < n; i++ {
		src.pages = append(src.pages, textPage(i))
	}
	for _, b := range bad {
		src.bad[b] = true
	}
	return src
}

// TestConvertOrdersPages verifies that output order is page order no
// matter which worker finishes first.
func TestConvertOrdersPages(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 8
	src := makeSource(40)
	sink := newCollectSink()

	report, err := NewCoordinatorWithConfig(config).Convert(src, sink)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if report.PagesWritten != 40 {
		t.Errorf("PagesWritten = %d, want 40", report.PagesWritten)
	}
	if len(report.Failures) != 0 {
		t.Errorf("Failures = %v, want none", report.Failures)
	}
	if len(sink.trees) != 40 {
		t.Fatalf("sink received %d trees, want 40", len(sink.trees))
	}
	for i, tree := range sink.trees {
		if tree.PageIndex != i {
			t.Fatalf("sink.trees[%d].PageIndex = %d, want %d", i, tree.PageIndex, i)
		}
		if tree.Placeholder {
			t.Errorf("page %d is a placeholder", i)
		}
	}
}

// TestConvertPlaceholderPolicy drives a four-page document whose third
// page is unreadable through the continue policy: all four pages come out
// in order, the failed one as a placeholder.
func TestConvertPlaceholderPolicy(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 4
	src := makeSource(4, 2)
	sink := newCollectSink()

	report, err := NewCoordinatorWithConfig(config).Convert(src, sink)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if report.PagesWritten != 4 {
		t.Errorf("PagesWritten = %d, want 4", report.PagesWritten)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Failures = %v, want exactly one", report.Failures)
	}
	if report.Failures[0].Page != 2 {
		t.Errorf("Failures[0].Page = %d, want 2", report.Failures[0].Page)
	}
	if !errors.Is(report.Failures[0], ErrPageUnreadable) {
		t.Errorf("failure = %v, want ErrPageUnreadable in chain", report.Failures[0])
	}

	if len(sink.trees) != 4 {
		t.Fatalf("sink received %d trees, want 4", len(sink.trees))
	}
	for i, tree := range sink.trees {
		if tree.PageIndex != i {
			t.Fatalf("sink.trees[%d].PageIndex = %d, want %d", i, tree.PageIndex, i)
		}
		if got := tree.Placeholder; got != (i == 2) {
			t.Errorf("page %d Placeholder = %v, want %v", i, got, i == 2)
		}
	}
}

// TestConvertReconstructionFailure verifies that an invariant violation
// inside reconstruction isolates to its page and the placeholder keeps
// the page boundary.
func TestConvertReconstructionFailure(t *testing.T) {
	src := makeSource(2)
	src.pages[1] = model.PagePrimitives{
		PageIndex: 1,
		Width:     400,
		Height:    300,
		Paths: []model.Path{
			{Points: []model.Point{{X: 0, Y: 0}, {X: 200, Y: 0}}, StrokeWidth: 1},
			{Points: []model.Point{{X: 0, Y: 100}, {X: 200, Y: 100}}, StrokeWidth: 1},
			{Points: []model.Point{{X: 0, Y: 0}, {X: 0, Y: 100}}, StrokeWidth: 1},
			{Points: []model.Point{{X: 200, Y: 0}, {X: 200, Y: 100}}, StrokeWidth: 1},
			{Points: []model.Point{{X: 100, Y: 50}, {X: 200, Y: 50}}, StrokeWidth: 1},
			{Points: []model.Point{{X: 100, Y: 50}, {X: 100, Y: 100}}, StrokeWidth: 1},
		},
	}
	sink := newCollectSink()

	report, err := NewCoordinator().Convert(src, sink)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].Page != 1 {
		t.Fatalf("Failures = %v, want one on page 1", report.Failures)
	}
	if !strings.Contains(report.Failures[0].Error(), "covered") {
		t.Errorf("failure = %v, want cell coverage violation", report.Failures[0])
	}
	if len(sink.trees) != 2 || !sink.trees[1].Placeholder {
		t.Fatalf("sink trees = %d, want 2 with placeholder second", len(sink.trees))
	}
	if got := sink.trees[1].PageBox; got != model.NewBBox(0, 0, 400, 300) {
		t.Errorf("placeholder PageBox = %+v, want the page boundary", got)
	}
}

// TestConvertAbortPolicy verifies the abort-on-page-error policy stops at
// the failed page with every earlier page already written.
func TestConvertAbortPolicy(t *testing.T) {
	config := DefaultConfig()
	config.Workers = 4
	config.AbortOnPageError = true
	src := makeSource(4, 2)
	sink := newCollectSink()

	report, err := NewCoordinatorWithConfig(config).Convert(src, sink)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("Convert() error = %v, want ErrAborted", err)
	}
	if !errors.Is(err, ErrPageUnreadable) {
		t.Errorf("error chain %v lost the source cause", err)
	}
	var perr PageError
	if !errors.As(err, &perr) || perr.Page != 2 {
		t.Errorf("error = %v, want PageError for page 2", err)
	}
	if report.PagesWritten != 2 {
		t.Errorf("PagesWritten = %d, want 2", report.PagesWritten)
	}
	if len(sink.trees) != 2 {
		t.Errorf("sink received %d trees, want the two pages before the failure", len(sink.trees))
	}
}

// TestConvertSinkFailure verifies a write failure aborts the conversion
// and the report carries the pages already written.
func TestConvertSinkFailure(t *testing.T) {
	src := makeSource(3)
	sink := newCollectSink()
	sink.failAt = 1

	report, err := NewCoordinator().Convert(src, sink)
	if !errors.Is(err, ErrSinkWrite) {
		t.Fatalf("Convert() error = %v, want ErrSinkWrite", err)
	}
	if report.PagesWritten != 1 {
		t.Errorf("PagesWritten = %d, want 1", report.PagesWritten)
	}
	if len(sink.trees) != 1 {
		t.Errorf("sink received %d trees, want 1", len(sink.trees))
	}
}

// TestConvertSelection exercises page restriction by list and by range.
func TestConvertSelection(t *testing.T) {
	pageIndices := func(sink *collectSink) []int {
		var out []int
		for _, tree := range sink.trees {
			out = append(out, tree.PageIndex)
		}
		return out
	}
	equal := func(a, b []int) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	t.Run("explicit list sorts and deduplicates", func(t *testing.T) {
		config := DefaultConfig()
		config.Selection = Selection{Pages: []int{4, 1, 1}}
		sink := newCollectSink()
		if _, err := NewCoordinatorWithConfig(config).Convert(makeSource(6), sink); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if got := pageIndices(sink); !equal(got, []int{1, 4}) {
			t.Errorf("pages = %v, want [1 4]", got)
		}
	})

	t.Run("half-open range", func(t *testing.T) {
		config := DefaultConfig()
		config.Selection = Selection{Start: 2, End: 5}
		sink := newCollectSink()
		if _, err := NewCoordinatorWithConfig(config).Convert(makeSource(6), sink); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if got := pageIndices(sink); !equal(got, []int{2, 3, 4}) {
			t.Errorf("pages = %v, want [2 3 4]", got)
		}
	})

	t.Run("open end runs to the last page", func(t *testing.T) {
		config := DefaultConfig()
		config.Selection = Selection{Start: 4}
		sink := newCollectSink()
		if _, err := NewCoordinatorWithConfig(config).Convert(makeSource(6), sink); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if got := pageIndices(sink); !equal(got, []int{4, 5}) {
			t.Errorf("pages = %v, want [4 5]", got)
		}
	})

	t.Run("empty range converts nothing", func(t *testing.T) {
		config := DefaultConfig()
		config.Selection = Selection{Start: 3, End: 3}
		sink := newCollectSink()
		report, err := NewCoordinatorWithConfig(config).Convert(makeSource(6), sink)
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if report.PagesWritten != 0 || len(sink.trees) != 0 {
			t.Errorf("wrote %d pages, want 0", report.PagesWritten)
		}
	})

	t.Run("out-of-range page is an error", func(t *testing.T) {
		config := DefaultConfig()
		config.Selection = Selection{Pages: []int{9}}
		sink := newCollectSink()
		if _, err := NewCoordinatorWithConfig(config).Convert(makeSource(6), sink); err == nil {
			t.Fatal("Convert() error = nil, want out-of-range error")
		}
	})
}
