package extract

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/dom"
)

var (
	articleReadView  = dom.TestID("twitterArticleReadView")
	articleRichText  = dom.TestID("twitterArticleRichTextView")
	longformRichText = dom.TestID("longformRichTextComponent")
	articleTitle     = dom.TestID("twitter-article-title")
	embeddedPost     = dom.TestID("simpleTweet")

	longformText = dom.AnyClass(
		"longform-header-one", "longform-header-one-narrow",
		"longform-header-two", "longform-header-two-narrow",
		"longform-unstyled", "longform-unstyled-narrow",
		"longform-blockquote", "longform-blockquote-narrow",
		"longform-unordered-list-item", "longform-unordered-list-item-narrow",
		"longform-ordered-list-item", "longform-ordered-list-item-narrow",
	)
	articleBlocks = dom.Tag("h1", "h2", "h3", "p", "li", "blockquote")
)

func visibleAll(root *html.Node, m dom.Matcher) []*html.Node {
	var out []*html.Node
	for _, n := range dom.FindAll(root, m) {
		if dom.Visible(n) {
			out = append(out, n)
		}
	}
	return out
}

// articleRoots returns the visible read views and the rich-text roots inside
// them. Without a read view the whole document is searched. Rich-text views
// take precedence over long-form components within a scope.
func articleRoots(doc *html.Node) (views, roots []*html.Node) {
	views = visibleAll(doc, articleReadView)
	scopes := views
	if len(scopes) == 0 {
		scopes = []*html.Node{doc}
	}
	seen := make(map[*html.Node]bool)
	for _, scope := range scopes {
		found := visibleAll(scope, articleRichText)
		if len(found) == 0 {
			found = visibleAll(scope, longformRichText)
		}
		for _, n := range found {
			if !seen[n] {
				seen[n] = true
				roots = append(roots, n)
			}
		}
	}
	return views, roots
}

// preferredNodes picks the text nodes of a rich-text root. Articles render
// their body twice, once per layout width; the regular set wins unless the
// narrow set is larger.
func preferredNodes(root *html.Node) []*html.Node {
	nodes := visibleAll(root, longformText)
	if len(nodes) == 0 {
		return visibleAll(root, articleBlocks)
	}
	var regular, narrow []*html.Node
	for _, n := range nodes {
		if strings.Contains(dom.Attr(n, "class"), "-narrow") {
			narrow = append(narrow, n)
		} else {
			regular = append(regular, n)
		}
	}
	if len(regular) > 0 && len(narrow) > 0 {
		if len(regular) >= len(narrow) {
			return regular
		}
		return narrow
	}
	return nodes
}

// articleText extracts a long-form article. found reports whether a visible
// rich-text root exists even if it produced no text.
func articleText(doc *html.Node) (text string, found bool) {
	lines := newLineSet(true)
	views, roots := articleRoots(doc)
	titleScopes := views
	if len(titleScopes) == 0 {
		titleScopes = []*html.Node{doc}
	}
	for _, scope := range titleScopes {
		for _, n := range visibleAll(scope, articleTitle) {
			lines.add(dom.Text(n))
		}
	}
	for _, root := range roots {
		found = true
		pushed := 0
		for _, n := range preferredNodes(root) {
			if dom.Closest(n, embeddedPost) != nil {
				continue
			}
			if lines.add(dom.Text(n)) {
				pushed++
			}
		}
		if pushed == 0 {
			lines.add(dom.Text(root))
		}
	}
	return strings.Join(RemoveCompositeDuplicates(lines.lines), "\n"), found
}
