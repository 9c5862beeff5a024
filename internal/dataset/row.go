package dataset

// Row maps column names to values. Absent keys read as Missing.
type Row map[string]Value

// Get returns the value at col, or Missing if the row does not hold it.
func (r Row) Get(col string) Value {
	return r[col]
}

// Defines reports whether the row holds a non-Missing value at col.
func (r Row) Defines(col string) bool {
	return !r[col].IsMissing()
}

// Set stores v at col.
func (r Row) Set(col string, v Value) {
	r[col] = v
}

// Clone returns a shallow copy of r. Values are immutable, so this is a
// full copy.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Project returns a copy of r holding exactly the given columns, in which
// columns r lacks are stored as Missing.
func (r Row) Project(columns []string) Row {
	out := make(Row, len(columns))
	for _, c := range columns {
		out[c] = r[c]
	}
	return out
}

// Values returns the row's values in column order.
func (r Row) Values(columns []string) []Value {
	out := make([]Value, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}

// Equal reports whether r and o hold equal values at every column either
// of them defines. Missing and absent are the same.
func (r Row) Equal(o Row) bool {
	for k, v := range r {
		if !v.Equal(o[k]) {
			return false
		}
	}
	for k, v := range o {
		if !v.Equal(r[k]) {
			return false
		}
	}
	return true
}
