// internal/install/render.go
//
// Display helpers for remote responses.  Moodle answers with XML on
// success and an HTML error page on failure, so bodies are either shown
// as sanitized HTML or condensed to Markdown for log lines.

package install

import (
	"html/template"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

var (
	policy = bluemonday.UGCPolicy()

	md = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
)

// HTML returns the body sanitized for inclusion in a page.  Non-HTML
// bodies are escaped and wrapped in <pre>.
func (r Result) HTML() template.HTML {
	if !looksLikeHTML(r.Body) {
		return template.HTML("<pre>" + template.HTMLEscapeString(r.Body) + "</pre>")
	}
	return template.HTML(policy.Sanitize(r.Body))
}

// Summary condenses body to at most n runes of text.  HTML is converted
// to Markdown first so log lines stay readable.
func Summary(body string, n int) string {
	text := body
	if looksLikeHTML(body) {
		if out, err := md.ConvertString(body); err == nil {
			text = out
		}
	}
	text = strings.Join(strings.Fields(text), " ")

	r := []rune(text)
	if len(r) > n {
		return string(r[:n]) + "…"
	}
	return text
}

func looksLikeHTML(s string) bool {
	l := strings.ToLower(s)
	return strings.Contains(l, "<html") || strings.Contains(l, "<body") ||
		strings.Contains(l, "<div") || strings.Contains(l, "<p>")
}
