// Package model defines the data types shared by the whole reconstruction
// pipeline: the raw page primitives delivered by the upstream page-parsing
// service and the semantic layout tree the pipeline produces from them.
//
// # Coordinates
//
// Every position lives in one page-local coordinate space with the origin at
// the page's top-left corner and y increasing downward. [BBox] and [Point]
// carry the geometric operations the inference stages build on.
//
// # Primitives
//
// A page arrives as a [PagePrimitives] set of [TextSpan], [Image], [Path]
// and [FillRect] values, each implementing [Primitive]. Primitives are
// consumed exactly once; the reconstructed tree owns copies, never aliases.
//
// # Layout tree
//
// The reconstruction result for one page is a [LayoutTree]:
//
//	LayoutTree → Section (1..n) → Column (1..2) → Block
//
// where a [Block] is a [Paragraph], a table reference, or an [ImageBlock].
// Tables live in the tree's arena slice and are referenced by index, so a
// table nested inside a cell is an index too, never a recursive owning
// structure.
//
// # Tables
//
// [Table] keeps its cells as a rectangular grid over a [Lattice]. Merged
// cells occupy their top-left position with spans > 1; covered positions
// stay in the grid as explicit placeholders. TextGrid, ToMarkdown and ToCSV
// serialize the grid with the [EmptyCellMarker] at positions that have no
// own value.
package model
