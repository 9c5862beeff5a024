package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Krish120003/databind/internal/dataset"
)

// readDelimited reads comma or tab separated text. It returns the number of
// blank data rows skipped.
func readDelimited(ctx context.Context, r io.Reader, comma rune) (*dataset.Dataset, int, error) {
	cr := csv.NewReader(newTextReader(r))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	b := newTableBuilder()
	for line := 0; ; line++ {
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, 0, fmt.Errorf("%w: line %d: %v", ErrUnparsableFile, perr.Line, perr.Err)
			}
			return nil, 0, fmt.Errorf("%w: %v", ErrUnparsableFile, err)
		}

		b.add(record, func(i int) dataset.Value {
			return dataset.ParseCell(record[i])
		})
	}
	return b.dataset(), b.skipped, nil
}
