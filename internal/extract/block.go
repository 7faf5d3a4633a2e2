package extract

import (
	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/dom"
	"github.com/hyperifyio/webreader/internal/textnorm"
)

var (
	socialContext = dom.TestID("socialContext")
	timelineCell  = dom.TestID("cellInnerDiv")
	shortLabel    = dom.Tag("span", "div", "a")
	headingNode   = dom.Or(dom.Tag("h1", "h2", "h3"), dom.Role("heading"))
	labeled       = func(n *html.Node) bool { return dom.HasAttr(n, "aria-label") }
	placed        = dom.And(labeled, dom.Within(dom.TestID("placementTracking")))
)

// xBlock presents an x.com post element to the noise filter.
type xBlock struct {
	article *html.Node
}

func (b xBlock) SocialContext() string {
	return dom.Text(dom.Find(b.article, socialContext))
}

func (b xBlock) Labels(max int) []string {
	nodes := dom.FindAll(b.article, shortLabel)
	if len(nodes) > max {
		nodes = nodes[:max]
	}
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, dom.Text(n))
	}
	return out
}

func (b xBlock) AccessibilityLabels() []string {
	return ariaLabels(dom.FindAll(b.article, labeled))
}

func (b xBlock) PlacementLabels() []string {
	return ariaLabels(dom.FindAll(b.article, placed))
}

func ariaLabels(nodes []*html.Node) []string {
	var out []string
	for _, n := range nodes {
		if label := dom.Attr(n, "aria-label"); label != "" {
			out = append(out, label)
		}
	}
	return out
}

func (b xBlock) SectionHeadings(hops int) []string {
	cell := dom.Closest(b.article, timelineCell)
	if cell == nil || cell.Parent == nil {
		return nil
	}
	var out []string
	sib := dom.PrevElement(cell)
	for i := 0; sib != nil && i < hops; i++ {
		if h := dom.Find(sib, headingNode); h != nil {
			if text := dom.Text(h); text != "" {
				out = append(out, text)
			}
		}
		sib = dom.PrevElement(sib)
	}
	return out
}

func (b xBlock) ContainerLabels() []string {
	var out []string
	for _, n := range dom.Ancestors(b.article) {
		if label := textnorm.Normalize(dom.Attr(n, "aria-label")); label != "" {
			out = append(out, label)
		}
	}
	return out
}
