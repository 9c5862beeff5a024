package sheet

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an export format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat parses an export format name. The empty string selects xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", ErrExportFailure, s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatCSV {
		return ".csv"
	}
	return ".xlsx"
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// inputKind is how a file with a given extension is read.
type inputKind int

const (
	inputUnknown inputKind = iota
	inputCSV
	inputTSV
	inputXLSX
	inputXLS
)

var extensions = map[string]inputKind{
	".csv":  inputCSV,
	".txt":  inputCSV,
	".tsv":  inputTSV,
	".xlsx": inputXLSX,
	".xlsm": inputXLSX,
	".xls":  inputXLS,
}

func kindOf(name string) inputKind {
	return extensions[strings.ToLower(filepath.Ext(name))]
}

// Formats returns the extensions offered to users for upload, in display
// order.
func Formats() []string {
	return []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm", ".xls"}
}

// Accepts reports whether name has an extension Parse can read.
func Accepts(name string) bool {
	switch kindOf(name) {
	case inputCSV, inputTSV, inputXLSX:
		return true
	}
	return false
}

// FormatFor returns the export format matching the extension of path:
// CSV for .csv and xlsx for anything else.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExportFileName returns the download name for a join of the two files,
// without extension: <primary>-<secondary>-joined.
func ExportFileName(primaryName, secondaryName string) string {
	p := Stem(primaryName)
	if p == "" {
		p = "primary"
	}
	s := Stem(secondaryName)
	if s == "" {
		s = "secondary"
	}
	return p + "-" + s + "-joined"
}
