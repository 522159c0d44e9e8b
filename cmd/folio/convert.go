package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/folio"
)

var (
	convertOutput string
	convertFormat string
	convertPages  string
	convertAbort  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <dump.json>",
	Short: "Convert a page dump into a document",
	Long: `Convert a page dump into a document.

Examples:
  # Plain text to stdout
  folio convert report.pages.json

  # Markdown for selected pages
  folio convert report.pages.json --format markdown --pages 1,3,5-9

  # Workbook, one sheet per page
  folio convert report.pages.json --format xlsx --output report.xlsx

  # Fail fast instead of writing placeholder pages
  folio convert report.pages.json --abort-on-error
`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output file (default stdout; required for xlsx)")
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "text", "Output format: text, markdown, html, xlsx")
	convertCmd.Flags().StringVarP(&convertPages, "pages", "p", "", "Pages to convert, e.g. 1,3,5-9 (default all)")
	convertCmd.Flags().BoolVar(&convertAbort, "abort-on-error", false, "Abort on the first failed page instead of writing a placeholder")
	cobra.CheckErr(viper.BindPFlag("format", convertCmd.Flags().Lookup("format")))
}

func runConvert(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	defer func() { _ = logger.Sync() }()

	conv := folio.Open(args[0]).Logger(logger)
	if w := viper.GetInt("workers"); w > 0 {
		conv = conv.Workers(w)
	}
	if convertPages != "" {
		pages, err := parsePageList(convertPages)
		if err != nil {
			return err
		}
		conv = conv.Pages(pages...)
	}
	if convertAbort {
		conv = conv.AbortOnPageError()
	}

	var (
		text     string
		data     []byte
		warnings []folio.Warning
		err      error
	)
	format := viper.GetString("format")
	switch format {
	case "text":
		text, warnings, err = conv.Text()
	case "markdown", "md":
		text, warnings, err = conv.Markdown()
	case "html":
		text, warnings, err = conv.HTML()
	case "xlsx":
		if convertOutput == "" {
			return fmt.Errorf("xlsx output requires --output")
		}
		data, warnings, err = conv.XLSX()
	default:
		return fmt.Errorf("unknown format %q: must be text, markdown, html or xlsx", format)
	}
	if err != nil {
		return err
	}
	if len(warnings) > 0 {
		fmt.Fprintln(os.Stderr, folio.FormatWarnings(warnings))
	}

	if data == nil {
		data = []byte(text)
	}
	if convertOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(convertOutput, data, 0o644)
}
