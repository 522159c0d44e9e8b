package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/folio/pagedump"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dump.json>",
	Short: "Summarize a page dump without converting it",
	Long: `Summarize a page dump: page count, per-page dimensions and primitive
counts, and any pages the upstream parser already marked unreadable.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	src, err := pagedump.Open(args[0])
	if err != nil {
		return err
	}

	n := src.PageCount()
	fmt.Printf("%s: %d page(s)\n", args[0], n)
	for i := 0; i < n; i++ {
		prims, err := src.Page(i)
		if err != nil {
			fmt.Printf("  page %d: unreadable: %v\n", i+1, err)
			continue
		}
		fmt.Printf("  page %d: %.0fx%.0f, %d span(s), %d image(s), %d path(s), %d fill(s)\n",
			i+1, prims.Width, prims.Height,
			len(prims.Spans), len(prims.Images), len(prims.Paths), len(prims.Fills))
	}
	return nil
}
