// Package dom is a read-only query layer over an x/net/html tree. It renders
// visible text roughly the way a browser's innerText does and offers the
// selector-style lookups the extraction heuristics need.
package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/textnorm"
)

// Parse reads an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseBytes is Parse for an in-memory document.
func ParseBytes(b []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(b))
}

// Matcher reports whether an element node matches a selector.
type Matcher func(*html.Node) bool

// Tag matches elements with any of the given names.
func Tag(names ...string) Matcher {
	return func(n *html.Node) bool {
		for _, name := range names {
			if strings.EqualFold(n.Data, name) {
				return true
			}
		}
		return false
	}
}

// TestID matches elements whose data-testid equals id.
func TestID(id string) Matcher {
	return func(n *html.Node) bool { return Attr(n, "data-testid") == id }
}

// Role matches elements whose role attribute equals role.
func Role(role string) Matcher {
	return func(n *html.Node) bool { return Attr(n, "role") == role }
}

// HasClass matches elements carrying class c.
func HasClass(c string) Matcher {
	return func(n *html.Node) bool {
		for _, f := range strings.Fields(Attr(n, "class")) {
			if f == c {
				return true
			}
		}
		return false
	}
}

// AnyClass matches elements carrying at least one of classes.
func AnyClass(classes ...string) Matcher {
	ms := make([]Matcher, len(classes))
	for i, c := range classes {
		ms[i] = HasClass(c)
	}
	return Or(ms...)
}

// AttrContains matches elements whose attribute key contains sub.
func AttrContains(key, sub string) Matcher {
	return func(n *html.Node) bool {
		v, ok := lookup(n, key)
		return ok && strings.Contains(v, sub)
	}
}

// AttrEquals matches elements whose attribute key equals val.
func AttrEquals(key, val string) Matcher {
	return func(n *html.Node) bool {
		v, ok := lookup(n, key)
		return ok && v == val
	}
}

// Within matches elements that have an ancestor matching m.
func Within(m Matcher) Matcher {
	return func(n *html.Node) bool {
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && m(p) {
				return true
			}
		}
		return false
	}
}

// And matches when every matcher matches.
func And(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Or matches when any matcher matches.
func Or(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// FindAll returns the descendants of root matching m, in document order.
// root itself is not considered.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find returns the first descendant of root matching m, or nil.
func Find(root *html.Node, m Matcher) *html.Node {
	var res *html.Node
	var walk func(*html.Node) bool
	walk = func(cur *html.Node) bool {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && m(c) {
				res = c
				return true
			}
			if walk(c) {
				return true
			}
		}
		return false
	}
	if root != nil {
		walk(root)
	}
	return res
}

// Closest returns n or its nearest ancestor matching m, or nil.
func Closest(n *html.Node, m Matcher) *html.Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && m(cur) {
			return cur
		}
	}
	return nil
}

// Ancestors returns the element ancestors of n from the parent outward.
func Ancestors(n *html.Node) []*html.Node {
	var out []*html.Node
	if n == nil {
		return nil
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			out = append(out, p)
		}
	}
	return out
}

// PrevElement returns the previous element sibling of n, or nil.
func PrevElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	v, _ := lookup(n, key)
	return v
}

// HasAttr reports whether n carries attribute key.
func HasAttr(n *html.Node, key string) bool {
	_, ok := lookup(n, key)
	return ok
}

func lookup(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// Title returns the document <title>, trimmed.
func Title(doc *html.Node) string {
	head := Find(doc, Tag("head"))
	if head == nil {
		return ""
	}
	t := Find(head, Tag("title"))
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return textnorm.Normalize(t.FirstChild.Data)
}
