// Package textutil provides text normalization and measurement helpers
// shared by the reconstruction stages and the export sinks.
//
// Extracted text arrives in whatever normalization form the producing
// renderer used; Normalize puts it in NFC so style comparison and cell
// alignment work on one canonical form. DisplayWidth measures strings in
// terminal columns, counting East Asian wide and fullwidth characters as
// two, which the plain-text and markdown table writers use to keep grid
// columns aligned.
package textutil
