package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const htmxSrc = "https://unpkg.com/htmx.org@1.9.12"

// HTMXSource is the script origin the Content-Security-Policy must allow.
const HTMXSource = "https://unpkg.com"

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2328}
main{max-width:1200px;margin:0 auto;padding:24px}
h1{font-size:22px}h2{font-size:17px;margin:0 0 8px}
.panels{display:grid;grid-template-columns:1fr 1fr;gap:16px}
.panel{background:#fff;border:1px solid #d0d7de;border-radius:8px;padding:16px;margin-bottom:16px}
.muted{color:#656d76;font-size:13px}
.chips{display:flex;flex-wrap:wrap;gap:6px;margin-top:8px}
.chip{border:1px solid #d0d7de;background:#fff;border-radius:14px;padding:3px 10px;cursor:pointer}
.chip.common{border-color:#0969da}
.chip.selected{background:#0969da;color:#fff}
.badge{display:inline-block;min-width:16px;margin-left:4px;border-radius:8px;background:#fff;color:#0969da;font-size:11px;text-align:center}
button{cursor:pointer}
button[disabled]{cursor:not-allowed;opacity:.5}
table{border-collapse:collapse;width:100%;background:#fff;font-size:13px}
th,td{border:1px solid #d0d7de;padding:4px 8px;text-align:left;white-space:nowrap}
tr.conflict{background:#fff8c5}
td.conflict{background:#ffebe9;font-weight:600}
tr.resolved{background:#dafbe1}
.alert-error{background:#ffebe9;border:1px solid #ff8182;border-radius:8px;padding:12px;margin-bottom:16px}
.toolbar{display:flex;gap:8px;align-items:center;flex-wrap:wrap;margin:8px 0}
.scroll{overflow-x:auto}
`

// Error responses are swapped into #alerts instead of being dropped.
const swapErrors = `document.addEventListener("htmx:beforeSwap",function(e){if(e.detail.xhr.status>=400){e.detail.shouldSwap=true;e.detail.isError=false;e.detail.target=document.getElementById("alerts");}});`

// Layout wraps body in the HTML document shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.rawf(`<title>%s</title>`, title)
		p.raw(`<style>` + styles + `</style>`)
		p.raw(`<script src="` + htmxSrc + `"></script>`)
		p.raw(`<script>` + swapErrors + `</script>`)
		p.raw(`</head><body><main><div id="alerts"></div>`)
		if p.err != nil {
			return p.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		p.raw(`</main></body></html>`)
		return p.err
	})
}
