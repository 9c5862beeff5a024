package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert is the fragment swapped into #alerts when an HTMX request
// fails.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<div class="alert alert-error" role="alert">`)
		p.rawf(`<strong>%s</strong>`, message)
		if action != "" {
			p.rawf(`<p>%s</p>`, action)
		}
		if code != "" {
			p.rawf(`<small>Code: %s</small>`, code)
		}
		p.raw(`</div>`)
		return p.err
	})
}
