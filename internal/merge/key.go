package merge

import (
	"strconv"
	"strings"

	"github.com/Krish120003/databind/internal/dataset"
)

// KeyToken collapses a row's values at cols into one comparable string.
//
// Each element is written as a tag byte, the byte length of its text and
// the text itself, so no field content can be mistaken for a separator.
// Present values compare by their Text normalization (so 1 and "1" match);
// Null and Missing share the blank tag and match each other.
func KeyToken(row dataset.Row, cols []string) string {
	var b strings.Builder
	for _, col := range cols {
		v := row.Get(col)
		if v.IsBlank() {
			b.WriteByte('n')
			continue
		}
		text := v.Text()
		b.WriteByte('v')
		b.WriteString(strconv.Itoa(len(text)))
		b.WriteByte(':')
		b.WriteString(text)
	}
	return b.String()
}
