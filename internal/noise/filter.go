// Package noise classifies timeline posts as promoted or recommended so the
// extractor can leave them out. It works on the Block abstraction and never
// touches a DOM directly.
package noise

import (
	"strings"

	"github.com/hyperifyio/webreader/internal/textnorm"
)

const (
	// SocialContextMaxLen bounds the dedicated social-context label.
	SocialContextMaxLen = 48
	// LabelScanLimit is how many short labels inside a block are inspected.
	LabelScanLimit = 48
	// LabelMaxLen skips labels that are too long to be a badge.
	LabelMaxLen = 32
	// HeadingHops is how many preceding sibling groups are searched for a
	// section heading.
	HeadingHops = 24
)

// Block is a candidate content block viewed through the queries the filter
// needs. Implementations return normalized strings.
type Block interface {
	// SocialContext is the dedicated context label shown above a post
	// ("Promoted", "X reposted"), or "".
	SocialContext() string
	// Labels returns the text of up to max short inline elements in the
	// block, in document order.
	Labels(max int) []string
	// AccessibilityLabels returns the accessibility labels carried by the
	// block's descendants.
	AccessibilityLabels() []string
	// PlacementLabels returns the accessibility labels of descendants that
	// sit inside an ad placement element.
	PlacementLabels() []string
	// SectionHeadings returns, for up to hops preceding sibling groups of
	// the block's container (nearest first), the first heading text of each
	// group. Groups without a heading are omitted.
	SectionHeadings(hops int) []string
	// ContainerLabels returns the accessibility labels of the block's
	// ancestors, nearest first.
	ContainerLabels() []string
}

// Filter applies a pattern set.
type Filter struct {
	Patterns Patterns
}

// New returns a Filter using DefaultPatterns.
func New() *Filter {
	return &Filter{Patterns: DefaultPatterns()}
}

func (f *Filter) promotedLabel(s string) bool {
	return f.Patterns.PromotedExact.MatchString(s) || f.Patterns.PromotedPrefix.MatchString(s)
}

// IsPromoted reports whether b is labeled as an advertisement. The
// social-context label is checked first, then the block's short labels, then
// its accessibility labels.
func (f *Filter) IsPromoted(b Block) bool {
	if b == nil {
		return false
	}
	if ctx := textnorm.Normalize(b.SocialContext()); ctx != "" && textnorm.Len(ctx) <= SocialContextMaxLen && f.promotedLabel(ctx) {
		return true
	}
	labels := b.Labels(LabelScanLimit)
	if len(labels) > LabelScanLimit {
		labels = labels[:LabelScanLimit]
	}
	for _, raw := range labels {
		label := textnorm.Normalize(raw)
		if label == "" || textnorm.Len(label) > LabelMaxLen {
			continue
		}
		if f.promotedLabel(label) {
			return true
		}
	}
	return containsAny(b.AccessibilityLabels(), f.Patterns.PromotedMarkers) ||
		containsAny(b.PlacementLabels(), f.Patterns.PlacementMarkers)
}

func containsAny(labels, markers []string) bool {
	for _, label := range labels {
		for _, marker := range markers {
			if marker != "" && strings.Contains(label, marker) {
				return true
			}
		}
	}
	return false
}

// area returns the first candidate matching either the recommended or the
// conversation pattern. A nearer conversation label shadows a farther
// recommendation label.
func (f *Filter) area(candidates []string) string {
	for _, raw := range candidates {
		text := textnorm.Normalize(raw)
		if text == "" {
			continue
		}
		if f.Patterns.Recommended.MatchString(text) || f.Patterns.Conversation.MatchString(text) {
			return text
		}
	}
	return ""
}

// IsRecommendedArea reports whether b sits under a recommendation heading or
// inside a container labeled as recommendations.
func (f *Filter) IsRecommendedArea(b Block) bool {
	if b == nil {
		return false
	}
	heading := f.area(b.SectionHeadings(HeadingHops))
	label := f.area(b.ContainerLabels())
	return f.Patterns.Recommended.MatchString(heading + "\n" + label)
}

// ShouldSkip reports whether b is noise for a page about pageSubject. Promoted
// blocks are always skipped. Recommendation areas are skipped only when the
// page has a subject and the block is about something else, so on-topic
// replies and quotes are kept.
func (f *Filter) ShouldSkip(b Block, pageSubject, blockSubject string) bool {
	if f.IsPromoted(b) {
		return true
	}
	return pageSubject != "" && blockSubject != pageSubject && f.IsRecommendedArea(b)
}
