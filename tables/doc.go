// Package tables infers table structure from page geometry.
//
// Detection is performed by a [Detector] and is two-phase:
//
//  1. Grid inference - border strokes and shading-fill edges are clustered
//     into horizontal and vertical grid lines by centerline proximity,
//     missing outer borders are synthesized from the extent of the
//     perpendicular set, and missing internal column boundaries are
//     recovered from text-span edges that align across rows.
//  2. Cell assignment - merged cells are found by probing each lattice
//     gap's midline against the crossing border set, per-edge border
//     presence comes from stroke coverage of the edge span, and cell
//     shading comes from fills contained in the cell interior.
//
// A text-only fallback recognizes borderless grids from line alignment
// alone, rejecting the two-column page-layout pattern that merely looks
// like a table.
//
// # Fallback Policy
//
// Candidates short of two grid lines in either axis are rejected and
// their primitives fall through to ordinary paragraph handling; detection
// is opportunistic, never forced. A table nested wholly inside another
// table's cell is detected recursively and referenced from that cell
// through the page's table arena.
//
// # Configuration
//
// Detector behavior is controlled by [Config]:
//
//	config := tables.DefaultConfig()
//	config.StreamEnabled = false
//	detector := tables.NewDetectorWithConfig(config)
//
// Tolerances follow the page coordinate space: ClusterTolerance bounds
// how far apart two strokes may sit and still form one grid line,
// AlignmentTolerance bounds text-edge alignment for inferred boundaries.
package tables
