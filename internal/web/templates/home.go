package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/sheet"
)

// HomePage introduces the tool and starts a new session.
func HomePage(status core.ServiceStatus) templ.Component {
	return Layout("databind", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<h1>databind</h1><div class="panel">`)
		p.raw(`<p>Join two spreadsheets on one or more key columns. Rows of the primary file are kept in order, `)
		p.raw(`matching rows from the secondary file fill in missing columns, and cells where the files disagree are `)
		p.raw(`listed so you can choose which file wins before downloading the result.</p>`)
		p.rawf(`<p class="muted">Accepted files: %s</p>`, strings.Join(sheet.Formats(), ", "))
		p.raw(`<button hx-post="/api/sessions" hx-target="#alerts">Start a join</button>`)
		p.raw(`</div>`)
		p.rawf(`<p class="muted">%d of %d sessions in use, %d uploads processing</p>`,
			status.Sessions, status.MaxSessions, status.Uploads.Active)
		return p.err
	}))
}
