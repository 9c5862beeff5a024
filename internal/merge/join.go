package merge

import (
	"github.com/Krish120003/databind/internal/dataset"
)

// Conflict describes one joined row whose sources disagree.
type Conflict struct {
	// RowIndex is the 0-based position of the row in Result.Joined. It is
	// stable for the lifetime of the Result and keys resolutions.
	RowIndex int `json:"rowIndex"`

	// Primary and Secondary are copies of the original source rows.
	Primary   dataset.Row `json:"primaryValues"`
	Secondary dataset.Row `json:"secondaryValues"`

	// Columns lists, in AllColumns order, the columns both sides define as
	// non-null with different text.
	Columns []string `json:"conflictingColumns"`
}

// Stats counts how the rows of a join were produced.
type Stats struct {
	Matched                int `json:"matched"`
	PrimaryOnly            int `json:"primaryOnly"`
	SecondaryOnly          int `json:"secondaryOnly"`
	DuplicateSecondaryKeys int `json:"duplicateSecondaryKeys"`
}

// Result is the output of Join. Treat it as immutable.
type Result struct {
	Joined     *dataset.Dataset
	Conflicts  []Conflict
	AllColumns []string
	Stats      Stats
}

// Join merges secondary into primary on the composite keys.
//
// Secondary rows are indexed by key token; when several share a token the
// last one wins. For every primary row in order, a match produces a merged
// row: a copy of the primary row completed with the secondary values of
// columns the primary row does not define. Columns both rows define with
// non-null values whose text differs are reported in a Conflict and keep the
// primary value. Unmatched primary rows are copied unchanged. Secondary rows
// whose token matches no primary row are appended last, in their original
// order.
//
// Every joined row holds every column of AllColumns, Missing where neither
// source defines it.
func Join(primary, secondary *dataset.Dataset, primaryKey, secondaryKey []string) (*Result, error) {
	if err := ValidateKeys(primaryKey, secondaryKey); err != nil {
		return nil, err
	}
	if primary == nil {
		primary = &dataset.Dataset{}
	}
	if secondary == nil {
		secondary = &dataset.Dataset{}
	}

	var stats Stats

	index := make(map[string]dataset.Row, secondary.Len())
	for _, row := range secondary.Rows {
		token := KeyToken(row, secondaryKey)
		if _, dup := index[token]; dup {
			stats.DuplicateSecondaryKeys++
		}
		index[token] = row
	}

	allColumns := dataset.UnionColumns(primary.Columns, secondary.Columns)

	joined := make([]dataset.Row, 0, primary.Len()+secondary.Len())
	var conflicts []Conflict
	primaryTokens := make(map[string]struct{}, primary.Len())

	for _, prow := range primary.Rows {
		token := KeyToken(prow, primaryKey)
		primaryTokens[token] = struct{}{}

		srow, ok := index[token]
		if !ok {
			stats.PrimaryOnly++
			joined = append(joined, prow.Project(allColumns))
			continue
		}

		stats.Matched++
		merged, conflicting := mergeRows(prow, srow, allColumns)
		joined = append(joined, merged)

		if len(conflicting) > 0 {
			conflicts = append(conflicts, Conflict{
				RowIndex:  len(joined) - 1,
				Primary:   prow.Clone(),
				Secondary: srow.Clone(),
				Columns:   conflicting,
			})
		}
	}

	for _, srow := range secondary.Rows {
		if _, matched := primaryTokens[KeyToken(srow, secondaryKey)]; matched {
			continue
		}
		stats.SecondaryOnly++
		joined = append(joined, srow.Project(allColumns))
	}

	return &Result{
		Joined:     &dataset.Dataset{Columns: allColumns, Rows: joined},
		Conflicts:  conflicts,
		AllColumns: append([]string(nil), allColumns...),
		Stats:      stats,
	}, nil
}

// mergeRows builds the merged row for a matched pair and returns the
// conflicting columns.
func mergeRows(prow, srow dataset.Row, columns []string) (dataset.Row, []string) {
	merged := prow.Project(columns)
	var conflicting []string

	for _, col := range columns {
		sv := srow.Get(col)
		if sv.IsMissing() {
			continue
		}
		pv := prow.Get(col)
		if pv.IsMissing() {
			merged[col] = sv
			continue
		}
		if !pv.IsNull() && !sv.IsNull() && pv.Text() != sv.Text() {
			conflicting = append(conflicting, col)
		}
	}

	return merged, conflicting
}

// FindConflict returns the conflict recorded for rowIndex.
func (r *Result) FindConflict(rowIndex int) (Conflict, bool) {
	if r == nil {
		return Conflict{}, false
	}
	// Conflicts are sorted by RowIndex.
	lo, hi := 0, len(r.Conflicts)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if r.Conflicts[mid].RowIndex < rowIndex {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(r.Conflicts) && r.Conflicts[lo].RowIndex == rowIndex {
		return r.Conflicts[lo], true
	}
	return Conflict{}, false
}
