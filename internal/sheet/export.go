package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Krish120003/databind/internal/dataset"
)

// SheetName is the name of the single sheet in exported workbooks.
const SheetName = "Joined Data"

// Export writes d to w. The header row is d.Columns and rows follow in
// order. Blank values become empty cells.
func Export(w io.Writer, d *dataset.Dataset, format Format) error {
	if d == nil {
		d = &dataset.Dataset{}
	}

	var err error
	switch format {
	case FormatXLSX, "":
		err = writeWorkbook(w, d)
	case FormatCSV:
		err = writeCSV(w, d)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

// WriteFile exports d to path in format. An empty format is inferred from
// the extension with FormatFor. A partially written file is removed.
func WriteFile(path string, d *dataset.Dataset, format Format) error {
	if format == "" {
		format = FormatFor(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	if err := Export(f, d, format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrExportFailure, err)
	}
	return nil
}

func writeWorkbook(w io.Writer, d *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(d.Columns))
	for i, c := range d.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range d.Rows {
		cells := make([]interface{}, len(d.Columns))
		for j, c := range d.Columns {
			cells[j] = row.Get(c).Any()
		}
		ref, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(ref, cells); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func writeCSV(w io.Writer, d *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return err
	}

	record := make([]string, len(d.Columns))
	for _, row := range d.Rows {
		for j, c := range d.Columns {
			record[j] = row.Get(c).Text()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
