package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/dataset"
	"github.com/Krish120003/databind/internal/merge"
	"github.com/Krish120003/databind/internal/sheet"
)

// SessionPageData is everything the session page shows.
type SessionPageData struct {
	Session core.Snapshot

	// Rows is the current preview page, nil before a join.
	Rows *core.RowsPage
}

// SessionPage renders the upload, key selection and preview steps of a
// session.
func SessionPage(data SessionPageData) templ.Component {
	return Layout("databind · join", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &page{w: w}
		renderSession(p, data)
		return p.err
	}))
}

func apiPath(id string, parts ...string) string {
	segs := append([]string{"/api/sessions", url.PathEscape(id)}, parts...)
	return strings.Join(segs, "/")
}

func renderSession(p *page, data SessionPageData) {
	snap := data.Session

	p.raw(`<div class="toolbar"><h1>databind</h1>`)
	p.rawf(`<span class="muted">session %s</span>`, snap.ID)
	p.rawf(`<button hx-post="%s" hx-confirm="Discard both files and start over?">Reset all</button>`, apiPath(snap.ID, "reset"))
	p.raw(`</div>`)

	common := make(map[string]bool, len(snap.CommonColumns))
	for _, c := range snap.CommonColumns {
		common[c] = true
	}

	p.raw(`<div class="panels">`)
	renderFilePanel(p, snap, core.SidePrimary, "Primary file", common)
	renderFilePanel(p, snap, core.SideSecondary, "Secondary file", common)
	p.raw(`</div>`)

	if snap.Join == nil {
		renderJoinControls(p, snap)
		return
	}
	renderPreview(p, snap, data.Rows)
}

func renderFilePanel(p *page, snap core.Snapshot, side core.Side, title string, common map[string]bool) {
	p.raw(`<section class="panel">`)
	p.rawf(`<h2>%s</h2>`, title)

	f := snap.File(side)
	if f == nil {
		p.rawf(`<form hx-post="%s" hx-encoding="multipart/form-data" hx-target="#alerts">`, apiPath(snap.ID, "files", string(side)))
		p.rawf(`<input type="file" name="file" accept="%s" required> `, strings.Join(sheet.Formats(), ","))
		p.raw(`<button type="submit">Upload</button></form>`)
		p.raw(`</section>`)
		return
	}

	p.raw(`<div class="toolbar">`)
	p.rawf(`<strong>%s</strong>`, f.Name)
	p.rawf(`<span class="muted">%d rows, %d columns</span>`, f.Rows, len(f.Columns))
	if f.Info.SkippedRows > 0 {
		p.rawf(`<span class="muted">(%d blank rows skipped)</span>`, f.Info.SkippedRows)
	}
	p.rawf(`<button hx-delete="%s" hx-target="#alerts">Remove</button>`, apiPath(snap.ID, "files", string(side)))
	p.raw(`</div>`)

	if snap.Join != nil {
		p.rawf(`<p class="muted">Key: %s</p>`, strings.Join(snap.Selection.Columns(side), " + "))
		p.raw(`</section>`)
		return
	}

	p.raw(`<p class="muted">Select key columns in order. Highlighted columns appear in both files.</p><div class="chips">`)
	for _, col := range f.Columns {
		class := "chip"
		if common[col] {
			class += " common"
		}
		badge := snap.Selection.Badge(side, col)
		if badge > 0 {
			class += " selected"
		}
		p.rawf(`<button class="%s" hx-post="%s" hx-vals="`, class, apiPath(snap.ID, "columns", string(side)))
		p.text(vals(map[string]any{"column": col}))
		p.raw(`" hx-target="#alerts">`)
		p.text(col)
		if badge > 0 {
			p.rawf(`<span class="badge">%d</span>`, badge)
		}
		p.raw(`</button>`)
	}
	p.raw(`</div></section>`)
}

func renderJoinControls(p *page, snap core.Snapshot) {
	if snap.Primary == nil || snap.Secondary == nil {
		return
	}
	p.raw(`<section class="panel toolbar">`)
	p.rawf(`<span>%d primary key columns, %d secondary key columns</span>`,
		len(snap.Selection.Primary), len(snap.Selection.Secondary))
	disabled := ""
	if !snap.CanJoin {
		disabled = " disabled"
	}
	p.rawf(`<button hx-post="%s" hx-target="#alerts"%s>Join</button>`, apiPath(snap.ID, "join"), disabled)
	p.rawf(`<button hx-delete="%s" hx-target="#alerts">Clear selections</button>`, apiPath(snap.ID, "columns"))
	p.raw(`</section>`)
}

func renderPreview(p *page, snap core.Snapshot, rows *core.RowsPage) {
	j := snap.Join

	p.raw(`<section class="panel">`)
	p.raw(`<div class="toolbar">`)
	p.rawf(`<button hx-post="%s" hx-target="#alerts">Back</button>`, apiPath(snap.ID, "back"))
	p.rawf(`<span>%d rows: %d matched, %d primary only, %d secondary only.</span>`,
		j.Rows, j.Stats.Matched, j.Stats.PrimaryOnly, j.Stats.SecondaryOnly)
	if j.Stats.DuplicateSecondaryKeys > 0 {
		p.rawf(`<span class="muted">%d duplicate secondary keys, the last row wins.</span>`, j.Stats.DuplicateSecondaryKeys)
	}
	p.raw(`</div>`)

	p.raw(`<div class="toolbar">`)
	p.rawf(`<span>%d conflicts, %d unresolved.</span>`, j.Conflicts, j.Unresolved)
	if j.Unresolved > 0 {
		for _, src := range []merge.Source{merge.SourcePrimary, merge.SourceSecondary} {
			p.rawf(`<button hx-post="%s" hx-vals="%s" hx-target="#alerts">Use %s for all unresolved</button>`,
				apiPath(snap.ID, "resolutions"), vals(map[string]any{"source": src}), string(src))
		}
	}
	if j.Unresolved == 0 {
		p.rawf(`<a href="%s?format=xlsx">Download .xlsx</a>`, apiPath(snap.ID, "export"))
		p.rawf(`<a href="%s?format=csv">Download .csv</a>`, apiPath(snap.ID, "export"))
	} else {
		p.raw(`<span class="muted">Resolve every conflict to download.</span>`)
	}
	p.raw(`</div>`)

	if rows == nil {
		p.raw(`</section>`)
		return
	}

	p.raw(`<div class="toolbar">View: `)
	for _, v := range []core.View{core.ViewMerged, core.ViewResolved} {
		if v == rows.View {
			p.rawf(`<strong>%s</strong>`, string(v))
		} else {
			p.rawf(`<a href="?view=%s&page=%d">%s</a>`, string(v), rows.Page, string(v))
		}
	}
	p.raw(`</div>`)

	p.raw(`<div class="scroll"><table><thead><tr><th>#</th>`)
	for _, col := range rows.Columns {
		p.rawf(`<th>%s</th>`, col)
	}
	p.raw(`<th></th></tr></thead><tbody>`)

	for i, row := range rows.Rows {
		index := rows.Offset + i
		conflict, isConflict := rows.Conflicts[index]
		renderRow(p, snap.ID, index, rows.Columns, row, conflict, isConflict)
	}
	p.raw(`</tbody></table></div>`)

	renderPager(p, rows)
	p.raw(`</section>`)
}

func renderRow(p *page, id string, index int, columns []string, row dataset.Row, c core.ConflictView, isConflict bool) {
	conflicting := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		conflicting[col] = true
	}

	switch {
	case isConflict && c.Resolution != "":
		p.raw(`<tr class="resolved">`)
	case isConflict:
		p.raw(`<tr class="conflict">`)
	default:
		p.raw(`<tr>`)
	}
	p.rawf(`<td>%d</td>`, index+1)

	for _, col := range columns {
		v := row.Get(col)
		if conflicting[col] {
			p.rawf(`<td class="conflict" title="%s">%s</td>`,
				fmt.Sprintf("primary: %s / secondary: %s", c.Primary.Get(col).Text(), c.Secondary.Get(col).Text()),
				v.Text())
			continue
		}
		p.rawf(`<td>%s</td>`, v.Text())
	}

	p.raw(`<td>`)
	if isConflict {
		path := apiPath(id, "resolutions", strconv.Itoa(index))
		for _, src := range []merge.Source{merge.SourcePrimary, merge.SourceSecondary} {
			label := "Keep primary"
			if src == merge.SourceSecondary {
				label = "Use secondary"
			}
			if c.Resolution == src {
				p.rawf(`<strong>%s</strong> `, label)
				continue
			}
			p.rawf(`<button hx-put="%s" hx-vals="%s" hx-target="#alerts">%s</button> `,
				path, vals(map[string]any{"source": src}), label)
		}
	}
	p.raw(`</td></tr>`)
}

func renderPager(p *page, rows *core.RowsPage) {
	if rows.TotalPages <= 1 {
		return
	}
	p.raw(`<div class="toolbar">`)
	if rows.Page > 1 {
		p.rawf(`<a href="?view=%s&page=%d">Previous</a>`, string(rows.View), rows.Page-1)
	}
	p.rawf(`<span>Page %d of %d</span>`, rows.Page, rows.TotalPages)
	if rows.Page < rows.TotalPages {
		p.rawf(`<a href="?view=%s&page=%d">Next</a>`, string(rows.View), rows.Page+1)
	}
	p.raw(`</div>`)
}
