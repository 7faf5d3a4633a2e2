package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/textnorm"
)

// Visible reports whether n renders. An element is hidden when it, or any
// ancestor, is a non-rendered tag, carries the hidden attribute, or has an
// inline style hiding it.
func Visible(n *html.Node) bool {
	if n == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && hiddenElement(cur) {
			return false
		}
	}
	return true
}

func hiddenElement(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "template", "head":
		return true
	case "input":
		if strings.EqualFold(Attr(n, "type"), "hidden") {
			return true
		}
	}
	if HasAttr(n, "hidden") {
		return true
	}
	return styleHides(Attr(n, "style"))
}

func styleHides(style string) bool {
	if style == "" {
		return false
	}
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "!important")))
		switch {
		case k == "display" && v == "none":
			return true
		case k == "visibility" && v == "hidden":
			return true
		case k == "opacity" && (v == "0" || v == "0.0"):
			return true
		}
	}
	return false
}

// Text renders the visible text of n with block elements on their own
// lines, then normalizes it.
func Text(n *html.Node) string {
	if n == nil || !Visible(n) {
		return ""
	}
	r := &renderer{}
	r.walk(n, false)
	return normalizeLines(r.b.String())
}

// renderer accumulates text. Line breaks requested by adjacent block
// boundaries collapse to the largest request, as in innerText.
type renderer struct {
	b       strings.Builder
	pending int
}

func (r *renderer) request(breaks int) {
	if breaks > r.pending {
		r.pending = breaks
	}
}

func (r *renderer) write(s string) {
	if s == "" {
		return
	}
	if strings.TrimSpace(s) == "" && s != "\n" && (r.pending > 0 || r.b.Len() == 0) {
		return
	}
	if r.pending > 0 {
		if r.b.Len() > 0 {
			r.b.WriteString(strings.Repeat("\n", r.pending))
		}
		r.pending = 0
	}
	r.b.WriteString(s)
}

func (r *renderer) walk(n *html.Node, inPre bool) {
	switch n.Type {
	case html.TextNode:
		data := n.Data
		if !inPre {
			data = collapseSpaces(data)
		}
		r.write(data)
		return
	case html.ElementNode:
		if hiddenElement(n) {
			return
		}
	case html.DocumentNode:
	default:
		return
	}

	name := strings.ToLower(n.Data)
	if name == "pre" {
		inPre = true
	}
	if name == "br" {
		r.write("\n")
		return
	}
	breaks := blockBreaks(name)
	r.request(breaks)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c, inPre)
	}
	r.request(breaks)
}

func blockBreaks(name string) int {
	switch name {
	case "p":
		return 2
	case "address", "article", "aside", "blockquote", "dd", "div", "dl", "dt",
		"fieldset", "figcaption", "figure", "footer", "form", "h1", "h2", "h3",
		"h4", "h5", "h6", "header", "hr", "li", "main", "nav", "ol", "pre",
		"section", "table", "tr", "ul":
		return 1
	}
	return 0
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

// normalizeLines trims every line and keeps at most one blank line between
// paragraphs.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Trim(line, " \t\u00a0")
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	return textnorm.Normalize(strings.Join(out, "\n"))
}
