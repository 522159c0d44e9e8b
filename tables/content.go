package tables

import (
	"fmt"
	"sort"

	"github.com/tsawler/folio/model"
)

// containment is the fraction of a table's area that must lie inside
// another table's box for the two to count as nested rather than merely
// overlapping.
const containment = 0.9

// placement records where a shell ended up after nesting resolution.
type placement struct {
	parent   int // shell index of the containing shell, -1 for roots
	row, col int // anchor cell inside the parent
	depth    int
}

// cellBuckets collects the primitive indices assigned to each lattice
// anchor of one shell.
type cellBuckets struct {
	spans  [][][]int
	images [][][]int
}

func newCellBuckets(rows, cols int) *cellBuckets {
	b := &cellBuckets{
		spans:  make([][][]int, rows),
		images: make([][][]int, rows),
	}
	for i := 0; i < rows; i++ {
		b.spans[i] = make([][]int, cols)
		b.images[i] = make([][]int, cols)
	}
	return b
}

// assemble turns accepted shells into the final arena: it discards
// conflicting candidates, resolves nesting, assigns every span and image to
// the innermost containing cell, and builds cell content depth-first so the
// arena lists parents before their nested tables.
func (d *Detector) assemble(
	shells []*tableShell,
	spans []model.TextSpan,
	images []model.Image,
	lines []model.Line,
	builder ContentBuilder,
	page int,
	det *Detection,
) {
	if len(shells) == 0 {
		return
	}

	// Step 1: rank candidates and drop any that partially overlaps a
	// stronger one. A drawn grid always beats an inferred one; between
	// equals the denser cell structure wins.
	order := make([]int, len(shells))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		sa, sb := shells[order[a]], shells[order[b]]
		if sa.stream != sb.stream {
			return !sa.stream
		}
		if ca, cb := sa.cellCount(), sb.cellCount(); ca != cb {
			return ca > cb
		}
		return sa.box.Area() > sb.box.Area()
	})

	var kept []int
	for _, si := range order {
		box := shells[si].box
		conflicted := false
		for _, ki := range kept {
			other := shells[ki].box
			if !box.Intersects(other) {
				continue
			}
			if other.ContainsBox(box, containment) || box.ContainsBox(other, containment) {
				continue
			}
			conflicted = true
			break
		}
		if conflicted {
			det.Warnings = append(det.Warnings, model.Warning{
				Page:      page,
				Component: "tables",
				Message:   fmt.Sprintf("discarded table candidate at (%.1f, %.1f) overlapping a stronger one", box.X, box.Y),
			})
			continue
		}
		kept = append(kept, si)
	}

	// Step 2: nest each kept shell under the smallest kept shell that
	// substantially contains it.
	place := make([]placement, len(shells))
	for i := range place {
		place[i] = placement{parent: -1}
	}
	for _, ki := range kept {
		best := -1
		for _, kj := range kept {
			if kj == ki {
				continue
			}
			host := shells[kj]
			if host.box.Area() <= shells[ki].box.Area() {
				continue
			}
			if !host.box.ContainsBox(shells[ki].box, containment) {
				continue
			}
			if best == -1 || host.box.Area() < shells[best].box.Area() {
				best = kj
			}
		}
		place[ki].parent = best
	}

	var depthOf func(int) int
	depthOf = func(si int) int {
		if place[si].parent < 0 {
			return 0
		}
		return depthOf(place[si].parent) + 1
	}
	filtered := kept[:0]
	for _, ki := range kept {
		depth := depthOf(ki)
		if depth > d.config.MaxNestingDepth {
			det.Warnings = append(det.Warnings, model.Warning{
				Page:      page,
				Component: "tables",
				Message:   fmt.Sprintf("dropped table nested %d levels deep, limit is %d", depth, d.config.MaxNestingDepth),
			})
			continue
		}
		place[ki].depth = depth
		filtered = append(filtered, ki)
	}
	kept = filtered

	// Locate the anchor cell each nested shell lives in.
	for _, ki := range kept {
		pi := place[ki].parent
		if pi < 0 {
			continue
		}
		parent := shells[pi].table
		row, col, ok := cellPosition(parent.Lattice, shells[ki].box.Center())
		if !ok {
			place[ki].parent = -1
			place[ki].depth = 0
			continue
		}
		place[ki].row, place[ki].col = anchorOf(parent, row, col)
	}

	// Step 3: claim content. Each span and image goes to the innermost
	// kept shell containing its centroid; lines are marked consumed when a
	// shell claimed their region.
	buckets := make(map[int]*cellBuckets, len(kept))
	for _, ki := range kept {
		t := shells[ki].table
		buckets[ki] = newCellBuckets(t.RowCount(), t.ColCount())
	}
	innermost := func(pt model.Point) int {
		best := -1
		for _, ki := range kept {
			if !shells[ki].box.Contains(pt) {
				continue
			}
			if best == -1 || place[ki].depth > place[best].depth ||
				(place[ki].depth == place[best].depth && shells[ki].box.Area() < shells[best].box.Area()) {
				best = ki
			}
		}
		return best
	}

	for i, span := range spans {
		ki := innermost(span.BBox.Center())
		if ki < 0 {
			continue
		}
		t := shells[ki].table
		row, col, ok := cellPosition(t.Lattice, span.BBox.Center())
		if !ok {
			continue
		}
		row, col = anchorOf(t, row, col)
		buckets[ki].spans[row][col] = append(buckets[ki].spans[row][col], i)
		det.SpanConsumed[i] = true
	}
	for i, img := range images {
		ki := innermost(img.BBox.Center())
		if ki < 0 {
			continue
		}
		t := shells[ki].table
		row, col, ok := cellPosition(t.Lattice, img.BBox.Center())
		if !ok {
			continue
		}
		row, col = anchorOf(t, row, col)
		buckets[ki].images[row][col] = append(buckets[ki].images[row][col], i)
		det.ImageConsumed[i] = true
	}
	for i, line := range lines {
		for _, ki := range kept {
			if shells[ki].box.Contains(line.BBox.Center()) {
				det.LineConsumed[i] = true
				break
			}
		}
	}

	// Step 4: build cell content depth-first from reading-order roots, so
	// every nested table lands in the arena after its host.
	children := make(map[int][]int)
	var roots []int
	for _, ki := range kept {
		if pi := place[ki].parent; pi >= 0 {
			children[pi] = append(children[pi], ki)
		} else {
			roots = append(roots, ki)
		}
	}
	readingOrder := func(ids []int) {
		sort.Slice(ids, func(a, b int) bool {
			ba, bb := shells[ids[a]].box, shells[ids[b]].box
			if ba.Y != bb.Y {
				return ba.Y < bb.Y
			}
			return ba.X < bb.X
		})
	}
	readingOrder(roots)
	for _, ids := range children {
		readingOrder(ids)
	}

	var finalize func(si int) int
	finalize = func(si int) int {
		ref := len(det.Arena)
		det.Arena = append(det.Arena, model.Table{})

		t := shells[si].table
		t.Nested = place[si].parent >= 0

		childBlocks := make(map[[2]int][]model.Block)
		for _, ci := range children[si] {
			cref := finalize(ci)
			key := [2]int{place[ci].row, place[ci].col}
			childBlocks[key] = append(childBlocks[key], model.TableRefBlock(cref))
		}

		bucket := buckets[si]
		for r := 0; r < t.RowCount(); r++ {
			for c := 0; c < t.ColCount(); c++ {
				cell := &t.Rows[r][c]
				if cell.Covered() {
					continue
				}

				var cellSpans []model.TextSpan
				for _, idx := range bucket.spans[r][c] {
					cellSpans = append(cellSpans, spans[idx])
				}
				var cellImages []model.Image
				for _, idx := range bucket.images[r][c] {
					cellImages = append(cellImages, images[idx])
				}

				var blocks []model.Block
				if builder != nil && (len(cellSpans) > 0 || len(cellImages) > 0) {
					blocks = builder(cellSpans, cellImages, innerCellBox(cell.BBox, cell.Borders))
				}
				blocks = append(blocks, childBlocks[[2]int{r, c}]...)
				sort.SliceStable(blocks, func(a, b int) bool {
					return blocks[a].Bounds(det.Arena).Y < blocks[b].Bounds(det.Arena).Y
				})
				cell.Blocks = blocks
			}
		}

		det.Arena[ref] = *t
		return ref
	}

	for _, root := range roots {
		det.Roots = append(det.Roots, finalize(root))
	}
}
