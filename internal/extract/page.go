package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/dom"
	"github.com/hyperifyio/webreader/internal/textnorm"
)

// MinArticleChars is how long the largest <article> must be to be chosen as
// the main content container.
const MinArticleChars = 300

var pageBlocks = dom.Tag("h1", "h2", "h3", "p", "li", "blockquote", "pre")

// ExtractPage reduces a generic page to its main content. Block-level nodes
// of the chosen container are read in document order with duplicates and
// single-rune lines removed; a container without such nodes is read whole.
func (e *Extractor) ExtractPage(page Page) (Result, error) {
	root := mainRoot(page.Doc)
	res := newResult(page, pageText(root), ModePage)
	if res.Text == "" {
		return Result{}, ErrNoContent
	}
	return res, nil
}

func mainRoot(doc *html.Node) *html.Node {
	var best *html.Node
	bestLen := 0
	for _, n := range dom.FindAll(doc, dom.Tag("article")) {
		if !dom.Visible(n) {
			continue
		}
		if l := textnorm.Len(dom.Text(n)); l > bestLen {
			best, bestLen = n, l
		}
	}
	if best != nil && bestLen >= MinArticleChars {
		return best
	}
	main := dom.Find(doc, dom.Tag("main"))
	if main == nil {
		main = dom.Find(doc, dom.Role("main"))
	}
	if main != nil && dom.Visible(main) {
		return main
	}
	if body := dom.Find(doc, dom.Tag("body")); body != nil {
		return body
	}
	return doc
}

func pageText(root *html.Node) string {
	lines := newLineSet(false)
	for _, n := range dom.FindAll(root, pageBlocks) {
		if !dom.Visible(n) {
			continue
		}
		text := dom.Text(n)
		if textnorm.Len(text) < 2 {
			continue
		}
		lines.add(text)
	}
	if len(lines.lines) > 0 {
		return strings.Join(lines.lines, "\n")
	}
	return dom.Text(root)
}
