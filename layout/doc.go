// Package layout turns a page's styled primitives into its semantic
// structure: spans become lines, lines become paragraph blocks, the page
// splits into sections and columns, and images are placed inline or
// floating. The Assembler orchestrates the full per-page pipeline,
// including table detection, and produces one model.LayoutTree.
//
// All detection here is pure geometry over the y-down page space. Every
// stage resolves ambiguity by a documented fallback (single column, left
// alignment, plain paragraph) rather than by failing; the only error an
// assembled page can surface is a structural violation reported by table
// detection.
//
// Basic usage:
//
//	asm := layout.NewAssembler()
//	tree, warnings, err := asm.ReconstructPage(prims)
//
// Tolerances live in the per-stage config structs and are aggregated by
// PageConfig for callers that need to tune them:
//
//	cfg := layout.DefaultPageConfig()
//	cfg.Section.GutterMinWidth = 30
//	asm := layout.NewAssemblerWithConfig(cfg)
package layout
