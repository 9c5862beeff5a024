package sheet

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Krish120003/databind/internal/dataset"
)

// emptyHeader names columns whose header cell is blank.
const emptyHeader = "__EMPTY"

// ctxCheckInterval is how many rows are read between context checks.
const ctxCheckInterval = 1024

// Info describes a parsed file.
type Info struct {
	Format      string `json:"format"`
	Sheet       string `json:"sheet,omitempty"`
	Bytes       int64  `json:"bytes"`
	Rows        int    `json:"rows"`
	SkippedRows int    `json:"skippedRows"`
}

// Parse reads the file called name from r into a dataset.
func Parse(ctx context.Context, name string, r io.Reader) (*dataset.Dataset, error) {
	d, _, err := ParseWithInfo(ctx, name, r)
	return d, err
}

// ParseWithInfo is Parse that also reports what was read.
func ParseWithInfo(ctx context.Context, name string, r io.Reader) (*dataset.Dataset, Info, error) {
	cr := &countingReader{r: r}

	var (
		d    *dataset.Dataset
		info Info
		err  error
	)
	switch kindOf(name) {
	case inputCSV:
		info.Format = "csv"
		d, info.SkippedRows, err = readDelimited(ctx, cr, ',')
	case inputTSV:
		info.Format = "tsv"
		d, info.SkippedRows, err = readDelimited(ctx, cr, '\t')
	case inputXLSX:
		info.Format = "xlsx"
		d, info.Sheet, info.SkippedRows, err = readWorkbook(ctx, cr)
	case inputXLS:
		return nil, info, fmt.Errorf("%w: %s: legacy .xls workbooks are not supported, save the file as .xlsx or .csv", ErrUnparsableFile, name)
	default:
		return nil, info, fmt.Errorf("%w: %s: unsupported file type", ErrUnparsableFile, name)
	}
	info.Bytes = cr.n
	if err != nil {
		return nil, info, fmt.Errorf("%s: %w", name, err)
	}
	if d.Len() == 0 {
		return nil, info, fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	info.Rows = d.Len()
	return d, info, nil
}

// tableBuilder turns header and data records into a dataset.
type tableBuilder struct {
	columns []string
	used    map[string]int
	rows    []dataset.Row
	header  bool
	skipped int
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{used: make(map[string]int)}
}

// unique returns name, or name with the first free _n suffix when it is
// already taken.
func (b *tableBuilder) unique(name string) string {
	n, taken := b.used[name]
	if !taken {
		b.used[name] = 0
		return name
	}
	for {
		n++
		candidate := name + "_" + strconv.Itoa(n)
		if _, clash := b.used[candidate]; !clash {
			b.used[name] = n
			b.used[candidate] = 0
			return candidate
		}
	}
}

func cleanHeader(raw string) string {
	name := strings.TrimSpace(norm.NFC.String(raw))
	if name == "" {
		return emptyHeader
	}
	return name
}

// add consumes one record. cell converts the i-th field into a value; it is
// only called for fields present in the record. Columns the record does not
// reach are null.
func (b *tableBuilder) add(fields []string, cell func(i int) dataset.Value) {
	if isBlankRecord(fields) {
		if b.header {
			b.skipped++
		}
		return
	}

	if !b.header {
		b.header = true
		for _, f := range fields {
			b.columns = append(b.columns, b.unique(cleanHeader(f)))
		}
		return
	}

	row := make(dataset.Row, len(fields))
	for i := range fields {
		for i >= len(b.columns) {
			b.columns = append(b.columns, b.unique(emptyHeader))
		}
		row[b.columns[i]] = cell(i)
	}
	// Short CSV records and workbook rows with trailing empty cells still
	// define every column seen so far, as null.
	for _, col := range b.columns[len(fields):] {
		row[col] = dataset.Null()
	}
	b.rows = append(b.rows, row)
}

func (b *tableBuilder) dataset() *dataset.Dataset {
	return &dataset.Dataset{Columns: b.columns, Rows: b.rows}
}

func isBlankRecord(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
