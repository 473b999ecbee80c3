package components

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/formify/internal/alert"
	"github.com/conneroisu/formify/internal/fields"
	"github.com/conneroisu/formify/internal/widget"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func state(names ...string) widget.State {
	return widget.State{
		Title:  widget.DefaultTitle,
		Values: fields.NewValues(fields.MustSet(names...)),
	}
}

func TestPanelFieldsInOrder(t *testing.T) {
	s := state("website", "name", "message", "email")
	doc := parse(t, render(t, Panel(s, DefaultOptions())))

	inputs := findAll(doc, "input")
	require.Len(t, inputs, 3)
	assert.Equal(t, "website", attr(inputs[0], "name"))
	assert.Equal(t, "name", attr(inputs[1], "name"))
	assert.Equal(t, "email", attr(inputs[2], "name"))
	assert.Equal(t, "email", attr(inputs[2], "type"))
	assert.Equal(t, "text", attr(inputs[0], "type"))
	assert.Equal(t, "Website", attr(inputs[0], "placeholder"))

	areas := findAll(doc, "textarea")
	require.Len(t, areas, 1)
	assert.Equal(t, "message", attr(areas[0], "name"))
	assert.Equal(t, "Message", attr(areas[0], "placeholder"))

	headings := findAll(doc, "h2")
	require.Len(t, headings, 1)
	assert.Equal(t, "Contact", textOf(headings[0]))

	forms := findAll(doc, "form")
	require.Len(t, forms, 1)
	assert.Equal(t, "/widget/submit", attr(forms[0], "action"))
}

func TestPanelVisibility(t *testing.T) {
	s := state("name")
	closed := render(t, Panel(s, DefaultOptions()))
	assert.Contains(t, closed, "formify-panel--closed")

	s.Open = true
	open := render(t, Panel(s, DefaultOptions()))
	assert.Contains(t, open, "formify-panel--open")

	css := render(t, Styles())
	assert.Contains(t, css, "translateX(400px)")
	assert.Contains(t, css, "translateX(0)")
	assert.Contains(t, css, "width:300px")
}

func TestFieldValuesAreEscaped(t *testing.T) {
	s := state("name", "message")
	require.NoError(t, s.Values.Set(fields.Name, `"><script>alert(1)</script>`))
	require.NoError(t, s.Values.Set(fields.Message, `</textarea><b>x</b>`))

	markup := render(t, Panel(s, DefaultOptions()))
	assert.NotContains(t, markup, "<script>")
	assert.NotContains(t, markup, "<b>x</b>")

	doc := parse(t, markup)
	inputs := findAll(doc, "input")
	require.Len(t, inputs, 1)
	assert.Equal(t, `"><script>alert(1)</script>`, attr(inputs[0], "value"))
	assert.Equal(t, `</textarea><b>x</b>`, textOf(findAll(doc, "textarea")[0]))
}

func TestTitleIsEscaped(t *testing.T) {
	s := state("name")
	s.Title = "<i>Hi</i>"
	markup := render(t, Panel(s, DefaultOptions()))
	assert.Contains(t, markup, "&lt;i&gt;Hi&lt;/i&gt;")
}

func TestAlertLine(t *testing.T) {
	tests := []struct {
		alert alert.Alert
		class string
	}{
		{alert.Success(alert.TextSent), "formify-alert--success"},
		{alert.Warning(alert.TextFailed), "formify-alert--warning"},
		{alert.Alert{}, "formify-alert"},
	}
	for _, tt := range tests {
		markup := render(t, AlertLine(tt.alert))
		doc := parse(t, markup)
		p := findAll(doc, "p")
		require.Len(t, p, 1)
		assert.Contains(t, attr(p[0], "class"), tt.class)
		assert.Equal(t, tt.alert.Text, textOf(p[0]))
	}

	css := render(t, Styles())
	assert.Contains(t, css, ColorSuccess)
	assert.Contains(t, css, ColorWarning)
}

func TestLoaderOnlyWhileLoading(t *testing.T) {
	s := state("name")
	assert.NotContains(t, render(t, Panel(s, DefaultOptions())), "formify-loader\"")

	s.Loading = true
	markup := render(t, Panel(s, DefaultOptions()))
	doc := parse(t, markup)
	assert.Len(t, findAll(doc, "circle"), 3)
	assert.Contains(t, markup, ColorLoader)
}

func TestToggler(t *testing.T) {
	s := state("name")
	doc := parse(t, render(t, Toggler(s, DefaultOptions())))
	buttons := findAll(doc, "button")
	require.Len(t, buttons, 1)
	assert.Equal(t, "Open contact form", attr(buttons[0], "aria-label"))
	assert.Equal(t, "false", attr(buttons[0], "aria-expanded"))
	assert.Len(t, findAll(doc, "svg"), 1)

	css := render(t, Styles())
	assert.Contains(t, css, ".formify-toggler{position:fixed;bottom:20px;right:20px;width:40px;height:40px;padding:0;border:0;border-radius:50%;background:"+ColorPanel+";")
	assert.Contains(t, css, ".formify-panel{position:fixed;bottom:65px;")

	s.Open = true
	doc = parse(t, render(t, Toggler(s, Options{BasePath: "/custom/"})))
	assert.Equal(t, "/custom/toggle", attr(findAll(doc, "form")[0], "action"))
	assert.Equal(t, "Close contact form", attr(findAll(doc, "button")[0], "aria-label"))
}

func TestPageIncludesLiveScript(t *testing.T) {
	s := state("name", "email")
	page := render(t, Page(s, DefaultOptions()))
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, `id="formify-widget"`)
	assert.Contains(t, page, `"/ws"`)

	noLive := render(t, Page(s, Options{BasePath: "/widget"}))
	assert.NotContains(t, noLive, "<script>")
}

func TestLiveScriptEscapesPaths(t *testing.T) {
	hostile := Options{
		BasePath: `/w"</script><script>alert(1)</script>`,
		LivePath: "/ws</script><img src=x onerror=alert(2)>\u2028",
	}
	markup := render(t, LiveScript(hostile))

	assert.Equal(t, 1, strings.Count(markup, "</script>"))
	assert.NotContains(t, markup, "<img")
	assert.Contains(t, markup, `\u003c/script\u003e`)

	doc := parse(t, render(t, Page(state("name"), hostile)))
	assert.Len(t, findAll(doc, "script"), 1)
	assert.Empty(t, findAll(doc, "img"))
}
