package export

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// FontScale is the multiplier for each CSS font size keyword relative to the
// base size of an area.
var FontScale = map[string]float64{
	"xx-small": 0.6,
	"x-small":  0.75,
	"small":    0.89,
	"medium":   1.0,
	"large":    1.2,
	"x-large":  1.5,
	"xx-large": 2.0,
}

// headingSize is the keyword used for each heading level.
var headingSize = [7]string{"", "xx-large", "x-large", "large", "medium", "small", "x-small"}

// FontPx resolves a size keyword against the base size in pixels. Unknown
// keywords give the base size.
func FontPx(keyword string, base int) int {
	k, ok := FontScale[keyword]
	if !ok {
		k = 1
	}
	return int(math.Round(float64(base) * k))
}

// RenderMarkdown converts area text to HTML. Raw HTML in the text is shown
// literally rather than interpreted; quotes are left as typed. Headings
// carry an inline pixel font size scaled from base.
func RenderMarkdown(text string, base int) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)

	hook := func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		switch n := node.(type) {
		case *ast.HTMLSpan:
			io.WriteString(w, html.EscapeString(string(n.Literal)))
			return ast.GoToNext, true
		case *ast.HTMLBlock:
			fmt.Fprintf(w, "<p>%s</p>\n", html.EscapeString(strings.TrimSpace(string(n.Literal))))
			return ast.GoToNext, true
		case *ast.Heading:
			level := min(max(n.Level, 1), 6)
			if entering {
				fmt.Fprintf(w, `<h%d style="font-size:%dpx;margin:0.2em 0;">`, level, FontPx(headingSize[level], base))
			} else {
				fmt.Fprintf(w, "</h%d>\n", level)
			}
			return ast.GoToNext, true
		}
		return ast.GoToNext, false
	}
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags:          mdhtml.HrefTargetBlank,
		RenderNodeHook: hook,
	})

	out := markdown.ToHTML([]byte(text), p, r)
	return strings.TrimSpace(string(out))
}
