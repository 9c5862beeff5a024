package dataset

// Dataset is an ordered sequence of rows plus the ordered column names of
// its source. Row order is the source order and is preserved through the
// pipeline.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New returns a Dataset over copies of columns and rows.
func New(columns []string, rows []Row) *Dataset {
	d := &Dataset{
		Columns: append([]string(nil), columns...),
		Rows:    make([]Row, len(rows)),
	}
	for i, r := range rows {
		d.Rows[i] = r.Clone()
	}
	return d
}

// Len returns the number of rows. A nil Dataset has no rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Clone returns a deep copy of d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	return New(d.Columns, d.Rows)
}

// HasColumn reports whether name is one of d's declared columns.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Page returns the rows of the 1-based page of the given size. Pages past
// the end are empty.
func (d *Dataset) Page(page, size int) []Row {
	if d == nil || size <= 0 {
		return nil
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(d.Rows) {
		return []Row{}
	}
	end := start + size
	if end > len(d.Rows) {
		end = len(d.Rows)
	}
	return d.Rows[start:end]
}

// PageCount returns how many pages of the given size d spans.
func (d *Dataset) PageCount(size int) int {
	if size <= 0 {
		return 0
	}
	return (d.Len() + size - 1) / size
}

// Matrix returns the rows as value slices aligned to d.Columns.
func (d *Dataset) Matrix() [][]Value {
	if d == nil {
		return nil
	}
	out := make([][]Value, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Values(d.Columns)
	}
	return out
}

// UnionColumns returns a's columns in order followed by the columns of b
// that a lacks, in b's order, without duplicates.
func UnionColumns(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, cols := range [][]string{a, b} {
		for _, c := range cols {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// CommonColumns returns the columns of a that also appear in b, in a's
// order. Useful for suggesting join keys.
func CommonColumns(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, c := range b {
		inB[c] = struct{}{}
	}
	var out []string
	for _, c := range a {
		if _, ok := inB[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
