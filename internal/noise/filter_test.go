package noise

import "testing"

type fakeBlock struct {
	social    string
	labels    []string
	aria      []string
	placement []string
	headings  []string
	container []string
}

func (b fakeBlock) SocialContext() string { return b.social }
func (b fakeBlock) Labels(max int) []string {
	if len(b.labels) > max {
		return b.labels[:max]
	}
	return b.labels
}
func (b fakeBlock) AccessibilityLabels() []string { return b.aria }
func (b fakeBlock) PlacementLabels() []string { return b.placement }
func (b fakeBlock) SectionHeadings(hops int) []string {
	if len(b.headings) > hops {
		return b.headings[:hops]
	}
	return b.headings
}
func (b fakeBlock) ContainerLabels() []string { return b.container }

func TestIsPromoted(t *testing.T) {
	f := New()
	cases := []struct {
		name  string
		block fakeBlock
		want  bool
	}{
		{"exact sponsored label", fakeBlock{labels: []string{"@someone", "Sponsored"}}, true},
		{"social context promoted", fakeBlock{social: "Promoted"}, true},
		{"social context prefix", fakeBlock{social: "Promoted by Acme"}, true},
		{"japanese label", fakeBlock{labels: []string{"プロモーション"}}, true},
		{"case insensitive", fakeBlock{labels: []string{"ADVERTISEMENT"}}, true},
		{"accessibility fallback", fakeBlock{aria: []string{"Promoted tweet"}}, true},
		{"ad label inside placement", fakeBlock{placement: []string{"広告"}}, true},
		{"ad word in ordinary label", fakeBlock{aria: []string{"広告業界についての投稿"}}, false},
		{"long label ignored", fakeBlock{labels: []string{"Sponsored content is discussed at length in this reply"}}, false},
		{"word inside sentence", fakeBlock{labels: []string{"I am not sponsored"}}, false},
		{"reposted context", fakeBlock{social: "Alice reposted"}, false},
		{"plain", fakeBlock{labels: []string{"hello"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.IsPromoted(tc.block); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsPromoted_OnlyFirstLabelsScanned(t *testing.T) {
	labels := make([]string, LabelScanLimit+1)
	for i := range labels {
		labels[i] = "x"
	}
	labels[LabelScanLimit] = "Sponsored"
	if New().IsPromoted(fakeBlock{labels: labels}) {
		t.Fatalf("label past the scan limit should not count")
	}
}

func TestIsRecommendedArea(t *testing.T) {
	f := New()
	cases := []struct {
		name  string
		block fakeBlock
		want  bool
	}{
		{"heading", fakeBlock{headings: []string{"Discover more"}}, true},
		{"container label", fakeBlock{container: []string{"Timeline: Related to your interests"}}, true},
		{"japanese heading", fakeBlock{headings: []string{"もっと見つける"}}, true},
		{"conversation heading shadows farther recommendation", fakeBlock{headings: []string{"Conversation", "Discover more"}}, false},
		{"unrelated heading skipped", fakeBlock{headings: []string{"Trending now", "More to explore"}}, true},
		{"none", fakeBlock{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.IsRecommendedArea(tc.block); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	f := New()
	recommended := fakeBlock{container: []string{"Related to your interests"}}
	if !f.ShouldSkip(recommended, "100", "200") {
		t.Fatalf("recommendation for a different subject should be skipped")
	}
	if f.ShouldSkip(recommended, "100", "100") {
		t.Fatalf("same-subject block must not be skipped by the recommendation rule")
	}
	if f.ShouldSkip(recommended, "", "200") {
		t.Fatalf("without a page subject the recommendation rule does not apply")
	}
	reply := fakeBlock{container: []string{"Timeline: Conversation"}}
	if f.ShouldSkip(reply, "100", "300") {
		t.Fatalf("reply in a conversation area should be kept")
	}
	if !f.ShouldSkip(fakeBlock{labels: []string{"Sponsored"}}, "100", "100") {
		t.Fatalf("promoted blocks are always skipped")
	}
}

func TestPatternConfig_Compile(t *testing.T) {
	p, err := PatternConfig{Recommended: `(?i)empfohlen`}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	f := &Filter{Patterns: p}
	if !f.IsRecommendedArea(fakeBlock{headings: []string{"Empfohlen für dich"}}) {
		t.Fatalf("custom pattern not applied")
	}
	if !f.IsPromoted(fakeBlock{labels: []string{"Sponsored"}}) {
		t.Fatalf("default promoted patterns should be kept")
	}
	if _, err := (PatternConfig{Conversation: "("}).Compile(); err == nil {
		t.Fatalf("expected error for invalid expression")
	}
}
