package merge

import (
	"github.com/Krish120003/databind/internal/dataset"
)

// Resolutions maps a conflict's row index to the chosen source.
type Resolutions map[int]Source

// Clone returns a copy of r.
func (r Resolutions) Clone() Resolutions {
	out := make(Resolutions, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Resolve returns a copy of joined in which every conflict with an entry in
// resolutions has its conflicting columns set to the chosen source's
// original values. Conflicts without an entry keep the merged value. The
// inputs are not modified, so calling Resolve again with the same arguments
// yields the same output.
func Resolve(joined *dataset.Dataset, conflicts []Conflict, resolutions Resolutions) *dataset.Dataset {
	out := joined.Clone()
	if out == nil {
		return &dataset.Dataset{}
	}

	for _, c := range conflicts {
		src, ok := resolutions[c.RowIndex]
		if !ok {
			continue
		}
		if c.RowIndex < 0 || c.RowIndex >= len(out.Rows) {
			continue
		}

		var from dataset.Row
		switch src {
		case SourcePrimary:
			from = c.Primary
		case SourceSecondary:
			from = c.Secondary
		default:
			continue
		}

		row := out.Rows[c.RowIndex]
		for _, col := range c.Columns {
			row[col] = from.Get(col)
		}
	}

	return out
}

// Resolve applies resolutions to the joined dataset of r.
func (r *Result) Resolve(resolutions Resolutions) *dataset.Dataset {
	return Resolve(r.Joined, r.Conflicts, resolutions)
}

// Unresolved returns the row indexes of conflicts with no resolution, in
// ascending order.
func (r *Result) Unresolved(resolutions Resolutions) []int {
	var out []int
	for _, c := range r.Conflicts {
		if src, ok := resolutions[c.RowIndex]; !ok || !src.Valid() {
			out = append(out, c.RowIndex)
		}
	}
	return out
}
