// Package components renders the contact widget as templ components. Every
// component is a pure function of a widget.State snapshot.
package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/formify/internal/alert"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/widget"
)

// RootID is the id of the element that live updates replace.
const RootID = "formify-widget"

// Colours used by the widget.
const (
	ColorPanel   = "#374151"
	ColorSuccess = "#22d3ee"
	ColorWarning = "#e8e840"
	ColorButton  = "#3b82f6"
	ColorLoader  = "#0ea5e9"
)

// Options controls where the rendered forms post to.
type Options struct {
	// BasePath prefixes every widget endpoint, e.g. "/widget".
	BasePath string
	// LivePath is the websocket endpoint; empty disables the live script.
	LivePath string
}

// DefaultOptions matches the routes mounted by the host server.
func DefaultOptions() Options {
	return Options{BasePath: "/widget", LivePath: "/ws"}
}

func (o Options) endpoint(name string) string {
	return strings.TrimSuffix(o.BasePath, "/") + "/" + name
}

// FieldID returns the DOM id of a field's input.
func FieldID(f fields.Field) string {
	return "formify-" + f.String()
}

type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) rawf(format string, args ...interface{}) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func component(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}

// Styles emits the widget stylesheet.
func Styles() templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw("<style>")
		h.raw(stylesheet)
		h.raw("</style>")
	})
}

const stylesheet = `
.formify-panel{position:fixed;bottom:65px;right:20px;width:300px;padding:16px;border-radius:8px;background:` + ColorPanel + `;color:#f9fafb;font-family:sans-serif;transition:transform .7s ease;z-index:9999}
.formify-panel--open{transform:translateX(0)}
.formify-panel--closed{transform:translateX(400px)}
.formify-panel h2{margin:0 0 12px;font-size:1.25rem}
.formify-panel input,.formify-panel textarea{display:block;width:100%;box-sizing:border-box;margin:0 0 8px;padding:8px;border:0;border-radius:4px}
.formify-panel textarea{min-height:96px;resize:vertical}
.formify-alert{min-height:1.25em;margin:4px 0 8px;font-size:.875rem}
.formify-alert--success{color:` + ColorSuccess + `}
.formify-alert--warning{color:` + ColorWarning + `}
.formify-send{width:100%;padding:8px;border:0;border-radius:4px;background:` + ColorButton + `;color:#fff;cursor:pointer}
.formify-loader{position:absolute;inset:0;display:flex;align-items:center;justify-content:center;background:rgba(55,65,81,.8);border-radius:8px}
.formify-toggler{position:fixed;bottom:20px;right:20px;width:40px;height:40px;padding:0;border:0;border-radius:50%;background:` + ColorPanel + `;color:#fff;cursor:pointer;z-index:10000}
.formify-sr{position:absolute;width:1px;height:1px;overflow:hidden;clip:rect(0 0 0 0);white-space:nowrap}
`

// FieldInput renders one labelled input; message becomes a textarea.
func FieldInput(f fields.Field, value string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		id := FieldID(f)
		h.rawf(`<label class="formify-sr" for="%s">`, id)
		h.text(f.Label())
		h.raw(`</label>`)

		if f.Multiline() {
			h.rawf(`<textarea id="%s" name="%s" placeholder="`, id, f.String())
			h.text(f.Label())
			h.raw(`">`)
			h.text(value)
			h.raw(`</textarea>`)
			return
		}
		h.rawf(`<input id="%s" name="%s" type="%s" placeholder="`, id, f.String(), f.InputType())
		h.text(f.Label())
		h.raw(`" value="`)
		h.text(value)
		h.raw(`">`)
	})
}

// AlertLine renders the alert paragraph; it is always present so the
// layout does not jump when an alert appears.
func AlertLine(a alert.Alert) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		class := "formify-alert"
		switch a.Kind {
		case alert.KindSuccess:
			class += " formify-alert--success"
		case alert.KindWarning:
			class += " formify-alert--warning"
		}
		h.rawf(`<p class="%s" role="status" aria-live="polite">`, class)
		h.text(a.Text)
		h.raw(`</p>`)
	})
}

// Loader renders the three-dot loading overlay.
func Loader() templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="formify-loader" aria-busy="true">`)
		h.rawf(`<svg width="60" height="16" viewBox="0 0 60 16" fill="%s" aria-hidden="true">`, ColorLoader)
		for i, cx := range []int{8, 30, 52} {
			h.rawf(`<circle cx="%d" cy="8" r="6"><animate attributeName="opacity" values="1;.2;1" dur="1s" begin="%.1fs" repeatCount="indefinite"/></circle>`, cx, float64(i)*0.2)
		}
		h.raw(`</svg></div>`)
	})
}

// Panel renders the sliding form.
func Panel(s widget.State, o Options) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		state := "closed"
		if s.Open {
			state = "open"
		}
		h.rawf(`<form class="formify-panel formify-panel--%s" method="post" action="%s" aria-hidden="%t">`,
			state, templ.EscapeString(o.endpoint("submit")), !s.Open)
		h.raw(`<h2>`)
		h.text(s.Title)
		h.raw(`</h2>`)
		for _, f := range s.Fields() {
			h.render(ctx, FieldInput(f, s.Value(f)))
		}
		h.render(ctx, AlertLine(s.Alert))
		h.raw(`<button class="formify-send" type="submit">Send</button>`)
		if s.Loading {
			h.render(ctx, Loader())
		}
		h.raw(`</form>`)
	})
}

// Toggler renders the round button that opens and closes the panel.
func Toggler(s widget.State, o Options) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		label := "Open contact form"
		if s.Open {
			label = "Close contact form"
		}
		h.rawf(`<form method="post" action="%s">`, templ.EscapeString(o.endpoint("toggle")))
		h.rawf(`<button class="formify-toggler" type="submit" aria-label="%s" aria-expanded="%t">`, label, s.Open)
		h.raw(envelopeIcon)
		h.raw(`</button></form>`)
	})
}

const envelopeIcon = `<svg width="20" height="20" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" aria-hidden="true"><rect x="2" y="4" width="20" height="16" rx="2"/><path d="m22 6-10 7L2 6"/></svg>`

// Widget composes the stylesheet, the panel and the toggler under RootID.
func Widget(s widget.State, o Options) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.rawf(`<div id="%s" data-version="%d">`, RootID, s.Version)
		h.render(ctx, Styles())
		h.render(ctx, Panel(s, o))
		h.render(ctx, Toggler(s, o))
		h.raw(`</div>`)
	})
}

// Page renders a complete demo document hosting the widget.
func Page(s widget.State, o Options) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(s.Title)
		h.raw(`</title></head><body>`)
		h.render(ctx, Widget(s, o))
		if o.LivePath != "" {
			h.render(ctx, LiveScript(o))
		}
		h.raw(`</body></html>`)
	})
}

// LiveScript posts the widget forms with fetch and swaps in markup pushed
// over the websocket.
func LiveScript(o Options) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<script>`)
		h.rawf(`(function(){var root=%s,fieldsURL=%s,live=%s;`, jsString(RootID), jsString(o.endpoint("fields")), jsString(o.LivePath))
		h.raw(liveScript)
		h.raw(`</script>`)
	})
}

// jsString quotes s as a JavaScript string literal that is safe inside a
// <script> element: JSON encoding escapes <, >, & and the line separators.
func jsString(s string) string {
	quoted, err := templ.JSONString(s)
	if err != nil {
		return `""`
	}
	return quoted
}

const liveScript = `
function swap(html){var cur=document.getElementById(root);if(!cur)return;var t=document.createElement("template");t.innerHTML=html.trim();var next=t.content.firstElementChild;if(!next)return;
if(Number(next.dataset.version)<Number(cur.dataset.version))return;
var focused=document.activeElement&&document.activeElement.id;cur.replaceWith(next);if(focused){var el=document.getElementById(focused);if(el){el.focus();}}}
document.addEventListener("submit",function(e){var f=e.target;if(!f.closest("#"+root))return;e.preventDefault();
fetch(f.action,{method:"POST",headers:{"X-Requested-With":"fetch"},body:new URLSearchParams(new FormData(f))}).then(function(r){return r.text();}).then(swap);});
document.addEventListener("change",function(e){var el=e.target;if(!el.name||!el.closest("#"+root))return;
var b=new URLSearchParams();b.set(el.name,el.value);fetch(fieldsURL,{method:"POST",headers:{"X-Requested-With":"fetch"},body:b});});
function connect(){var p=location.protocol==="https:"?"wss://":"ws://";var ws=new WebSocket(p+location.host+live);
ws.onmessage=function(m){swap(m.data);};ws.onclose=function(){setTimeout(connect,1000);};}
connect();})();
`
