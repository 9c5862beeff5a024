// Package templates renders the HTML pages and HTMX fragments of the join
// UI as templ components.
package templates

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// page accumulates markup and keeps the first write error.
type page struct {
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

// rawf writes a formatted string. Arguments are escaped.
func (p *page) rawf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			escaped[i] = templ.EscapeString(v)
		case fmt.Stringer:
			escaped[i] = templ.EscapeString(v.String())
		default:
			escaped[i] = v
		}
	}
	p.raw(fmt.Sprintf(format, escaped...))
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

// vals encodes an hx-vals value. The result still needs attribute
// escaping.
func vals(m map[string]any) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
