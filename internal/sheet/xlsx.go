package sheet

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Krish120003/databind/internal/dataset"
)

// readWorkbook reads the first sheet of an xlsx workbook. It returns the
// sheet name and the number of blank data rows skipped.
func readWorkbook(ctx context.Context, r io.Reader) (*dataset.Dataset, string, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrUnparsableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", 0, fmt.Errorf("%w: workbook has no sheets", ErrUnparsableFile)
	}
	name := sheets[0]

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, name, 0, fmt.Errorf("%w: sheet %q: %v", ErrUnparsableFile, name, err)
	}

	b := newTableBuilder()
	for i, record := range rows {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, name, 0, err
			}
		}

		rowNum := i + 1
		b.add(record, func(col int) dataset.Value {
			return workbookCell(f, name, col+1, rowNum, record[col])
		})
	}
	return b.dataset(), name, b.skipped, nil
}

// workbookCell types a raw cell value using the cell's stored type.
func workbookCell(f *excelize.File, sheet string, col, row int, raw string) dataset.Value {
	if raw == "" {
		return dataset.Null()
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return dataset.ParseCell(raw)
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return dataset.ParseCell(raw)
	}

	switch typ {
	case excelize.CellTypeBool:
		return dataset.Bool(raw == "1" || raw == "TRUE" || raw == "true")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return dataset.String(raw)
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		// Untyped cells hold numbers, or numeric formula results.
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return dataset.Number(n)
		}
		return dataset.String(raw)
	default:
		return dataset.ParseCell(raw)
	}
}
