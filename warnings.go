package folio

import (
	"strings"

	"github.com/tsawler/folio/model"
)

// Warning is a non-fatal condition recorded during reconstruction. It
// aliases the model package's type so values flow through the fluent API
// without conversion.
type Warning = model.Warning

// FormatWarnings renders warnings one per line for logs or CLI output.
// It returns the empty string for an empty slice.
//
// Example:
//
//	if len(warnings) > 0 {
//	    log.Println("Warnings:\n" + folio.FormatWarnings(warnings))
//	}
func FormatWarnings(warnings []Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
