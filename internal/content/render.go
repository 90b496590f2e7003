package content

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github-dark"),
		),
	),
)

// RenderMarkdown converts markdown to HTML. Fenced code blocks are
// highlighted; raw HTML in the source is dropped.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

var tokenPattern = regexp.MustCompile(
	`("[^"\n]*")` +
		`|\b(const|let|var|function|def|class|import|export|from|return|add)\b` +
		`|\b(app|model|component|useState|useEffect|UserSchema|Sequential|LSTM)\b`)

// Highlight marks keywords, well-known identifiers and string literals in a
// code snippet. The output is escaped HTML safe to embed in a page.
func Highlight(code string) template.HTML {
	var b strings.Builder
	last := 0
	for _, m := range tokenPattern.FindAllStringSubmatchIndex(code, -1) {
		b.WriteString(html.EscapeString(code[last:m[0]]))
		class := "tok-ident"
		switch {
		case m[2] >= 0:
			class = "tok-string"
		case m[4] >= 0:
			class = "tok-keyword"
		}
		fmt.Fprintf(&b, `<span class="%s">%s</span>`, class, html.EscapeString(code[m[0]:m[1]]))
		last = m[1]
	}
	b.WriteString(html.EscapeString(code[last:]))
	return template.HTML(b.String())
}
