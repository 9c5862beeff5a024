// Package sheet reads uploaded CSV and Excel files into datasets and writes
// datasets back out as spreadsheets.
//
// The format is chosen by file extension:
//
//	.csv .txt   comma separated
//	.tsv        tab separated
//	.xlsx .xlsm Office Open XML workbook, first sheet
//
// Legacy .xls workbooks are recognized but rejected with ErrUnparsableFile.
//
// The first non-empty row is the header. Header cells are trimmed and
// NFC-normalized; blank ones are named __EMPTY and repeats get _1, _2
// suffixes. Data cells past the last header cell get generated __EMPTY
// columns. Empty cells parse as Null, cells a short row does not reach stay
// Missing, and rows with no content are skipped.
package sheet
