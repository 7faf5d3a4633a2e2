package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/dom"
)

func mustPage(t *testing.T, rawURL, src string) Page {
	t.Helper()
	doc, err := dom.ParseBytes([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Page{URL: rawURL, Doc: doc}
}

func TestExtractPage_PrefersMainOverBody(t *testing.T) {
	page := mustPage(t, "https://example.com/a", `<!doctype html>
    <html>
      <head><title>Test Page</title></head>
      <body>
        <nav><p>Nav should be ignored</p></nav>
        <main>
          <h1>Main Heading</h1>
          <p>This is the main content paragraph.</p>
        </main>
        <footer><p>Footer text</p></footer>
      </body>
    </html>`)

	res, err := New().ExtractPage(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Title != "Test Page" {
		t.Fatalf("expected title 'Test Page', got %q", res.Title)
	}
	if res.Text != "Main Heading\nThis is the main content paragraph." {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Mode != ModePage || res.Structured {
		t.Fatalf("expected unstructured page mode, got %+v", res)
	}
	if res.Chars != len([]rune(res.Text)) {
		t.Fatalf("expected chars %d, got %d", len([]rune(res.Text)), res.Chars)
	}
}

func TestExtractPage_LargestArticleWins(t *testing.T) {
	long := strings.Repeat("Long article sentence. ", 20)
	page := mustPage(t, "https://example.com/a", `<html><body>
      <main><p>Main landmark text.</p></main>
      <article><p>Short article.</p></article>
      <article><p>`+long+`</p></article>
    </body></html>`)

	res, err := New().ExtractPage(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != strings.TrimSpace(long) {
		t.Fatalf("expected long article text, got %q", res.Text)
	}
}

func TestExtractPage_ShortArticleFallsBackToMain(t *testing.T) {
	page := mustPage(t, "https://example.com/a", `<html><body>
      <article><p>Short article.</p></article>
      <div role="main"><p>Landmark text.</p></div>
    </body></html>`)

	res, err := New().ExtractPage(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Landmark text." {
		t.Fatalf("expected landmark text, got %q", res.Text)
	}
}

func TestExtractPage_FiltersHiddenShortAndDuplicateLines(t *testing.T) {
	page := mustPage(t, "https://example.com/a", `<html><body><main>
      <p>Kept line.</p>
      <p style="display: none">Hidden line.</p>
      <div hidden><p>Hidden subtree.</p></div>
      <p>x</p>
      <p>Kept line.</p>
      <li>Second line.</li>
    </main></body></html>`)

	res, err := New().ExtractPage(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Kept line.\nSecond line." {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestExtractPage_FallbackToContainerText(t *testing.T) {
	page := mustPage(t, "https://example.com/a", `<html><body><div>Just some <b>inline</b> text</div></body></html>`)
	res, err := New().ExtractPage(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Just some inline text" {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestExtractPage_EmptyIsNoContent(t *testing.T) {
	page := mustPage(t, "https://example.com/a", `<html><body><script>var a = 1;</script></body></html>`)
	if _, err := New().ExtractPage(page); !errors.Is(err, ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}
}

func TestExtractThread_RejectsOtherHosts(t *testing.T) {
	page := mustPage(t, "https://example.com/status/1234567890", `<html><body><p>x</p></body></html>`)
	if _, err := New().ExtractThread(context.Background(), page); !errors.Is(err, ErrNotThreadPage) {
		t.Fatalf("expected ErrNotThreadPage, got %v", err)
	}
}

const threadFixture = `<html><head>
<link rel="canonical" href="https://x.com/alice/status/1234567890">
</head><body><div aria-label="Timeline: Conversation">
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/alice/status/1234567890">now</a><div data-testid="tweetText">Root post text.</div></article></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/bob/status/2234567890">now</a><div data-testid="tweetText">A reply on topic.</div></article></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/alice/status/1234567890">now</a><div data-testid="tweetText">Root post rendered again.</div></article></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/dave/status/4234567890">now</a><div data-testid="tweetText">a reply, on topic</div></article></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><div data-testid="socialContext">Promoted</div><a href="/ads/status/5234567890">now</a><div data-testid="tweetText">Buy now.</div></article></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/ads/status/6234567890">now</a><span>Ad</span><span>Sponsored</span><div data-testid="tweetText">Buy more.</div></article></div>
<div data-testid="cellInnerDiv"><div><h2>Discover more</h2></div></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/carol/status/3234567890">now</a><div data-testid="tweetText">Unrelated recommendation.</div></article></div>
</div></body></html>`

func TestExtractThread_PerPostScanDropsNoise(t *testing.T) {
	page := mustPage(t, "https://x.com/alice/status/1234567890", threadFixture)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Root post text.\nA reply on topic."
	if res.Text != want {
		t.Fatalf("expected %q, got %q", want, res.Text)
	}
	if res.Structured || res.Mode != ModeThread {
		t.Fatalf("expected unstructured thread result, got %+v", res)
	}
}

func TestExtractThread_AdMarkerOnlyInsidePlacement(t *testing.T) {
	src := `<html><body><div aria-label="Timeline: Conversation">
<div data-testid="cellInnerDiv"><article data-testid="tweet"><a href="/alice/status/1234567890">now</a><div aria-label="広告業界の話">x</div><div data-testid="tweetText">広告の仕事について。</div></article></div>
<div data-testid="cellInnerDiv"><article data-testid="tweet"><div data-testid="placementTracking"><span aria-label="広告">x</span></div><a href="/ads/status/5234567890">now</a><div data-testid="tweetText">今すぐ購入。</div></article></div>
</div></body></html>`
	page := mustPage(t, "https://x.com/alice/status/1234567890", src)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "広告の仕事について。"; res.Text != want {
		t.Fatalf("expected %q, got %q", want, res.Text)
	}
}

func TestExtractThread_WithoutSubjectKeepsRecommendations(t *testing.T) {
	src := strings.Replace(threadFixture, `<link rel="canonical" href="https://x.com/alice/status/1234567890">`, "", 1)
	page := mustPage(t, "https://x.com/home", src)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Text, "Unrelated recommendation.") {
		t.Fatalf("expected recommendation to be kept without a page subject, got %q", res.Text)
	}
	if strings.Contains(res.Text, "Buy") {
		t.Fatalf("promoted posts must always be dropped, got %q", res.Text)
	}
}

func TestExtractThread_SubjectFromURLPath(t *testing.T) {
	src := strings.Replace(threadFixture, `<link rel="canonical" href="https://x.com/alice/status/1234567890">`, "", 1)
	page := mustPage(t, "https://twitter.com/alice/status/1234567890", src)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(res.Text, "Unrelated recommendation.") {
		t.Fatalf("expected recommendation to be dropped, got %q", res.Text)
	}
}

func TestExtractThread_NoPostsIsNoContent(t *testing.T) {
	page := mustPage(t, "https://x.com/home", `<html><body><p>Sign in</p></body></html>`)
	_, err := New().ExtractThread(context.Background(), page)
	if !errors.Is(err, ErrNoContent) || !errors.Is(err, ErrNoThreadContent) {
		t.Fatalf("expected thread no-content error, got %v", err)
	}
}

func TestExtractThread_StructuredArticle(t *testing.T) {
	page := mustPage(t, "https://x.com/alice/article/1234567890", `<html><body>
<div data-testid="twitterArticleReadView">
  <div data-testid="twitter-article-title">My Article</div>
  <div data-testid="twitterArticleRichTextView">
    <div class="longform-header-one">Intro</div>
    <div class="longform-unstyled">First paragraph.</div>
    <div class="longform-unstyled">Second paragraph.</div>
    <div class="longform-unstyled-narrow">First paragraph in the narrow layout.</div>
    <div data-testid="simpleTweet"><div class="longform-unstyled">Embedded post.</div></div>
  </div>
</div>
<article data-testid="tweet"><a href="/alice/status/1234567890">now</a><div data-testid="tweetText">Should not be read.</div></article>
</body></html>`)

	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "My Article\nIntro\nFirst paragraph.\nSecond paragraph."
	if res.Text != want {
		t.Fatalf("expected %q, got %q", want, res.Text)
	}
	if !res.Structured {
		t.Fatalf("expected structured result")
	}
}

func TestExtractThread_NarrowLayoutWhenLarger(t *testing.T) {
	page := mustPage(t, "https://x.com/i/article/1", `<html><body>
<div data-testid="longformRichTextComponent">
  <div class="longform-unstyled">Wide only.</div>
  <div class="longform-unstyled-narrow">Narrow one.</div>
  <div class="longform-unstyled-narrow">Narrow two.</div>
</div></body></html>`)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Narrow one.\nNarrow two." {
		t.Fatalf("unexpected text %q", res.Text)
	}
}

func TestExtractThread_RootTextWhenNoTextNodes(t *testing.T) {
	page := mustPage(t, "https://x.com/i/article/1", `<html><body>
<div data-testid="longformRichTextComponent"><span>Only inline text</span></div>
</body></html>`)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Only inline text" || !res.Structured {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExtractThread_EmptyArticleFallsBackToPosts(t *testing.T) {
	page := mustPage(t, "https://x.com/alice/status/1234567890", `<html><body>
<div data-testid="twitterArticleRichTextView"></div>
<article data-testid="tweet"><a href="/alice/status/1234567890">now</a><div data-testid="tweetText">Post body.</div></article>
</body></html>`)
	res, err := New().ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Post body." || res.Structured {
		t.Fatalf("unexpected result %+v", res)
	}
}

// revealingExpander fills in the post text on click and optionally reveals
// another truncated control.
type revealingExpander struct {
	clicks int
	more   int
}

func (x *revealingExpander) Click(_ context.Context, n *html.Node) error {
	x.clicks++
	article := dom.Closest(n, dom.Tag("article"))
	if text := dom.Find(article, dom.TestID("tweetText")); text != nil && text.FirstChild != nil {
		text.FirstChild.Data = "Full post text."
	}
	if x.more > 0 {
		x.more--
		btn := &html.Node{Type: html.ElementNode, Data: "button"}
		btn.AppendChild(&html.Node{Type: html.TextNode, Data: "Show more"})
		article.AppendChild(btn)
	}
	return nil
}

const truncatedPost = `<html><body>
<article data-testid="tweet"><a href="/alice/status/1234567890">now</a>
<div data-testid="tweetText">Truncated</div><div role="button">Show more</div><button>Reply</button>
</article></body></html>`

func TestExtractThread_ExpandsTruncatedPosts(t *testing.T) {
	page := mustPage(t, "https://x.com/alice/status/1234567890", truncatedPost)
	x := &revealingExpander{}
	page.Expander = x
	e := New()
	e.SettleDelay = time.Millisecond

	res, err := e.ExtractThread(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "Full post text." {
		t.Fatalf("expected expanded text, got %q", res.Text)
	}
	if x.clicks != 1 {
		t.Fatalf("expected 1 click, got %d", x.clicks)
	}
}

func TestExtractThread_ExpandRoundsAreBounded(t *testing.T) {
	page := mustPage(t, "https://x.com/alice/status/1234567890", truncatedPost)
	x := &revealingExpander{more: 10}
	page.Expander = x
	e := New()
	e.SettleDelay = time.Millisecond

	if _, err := e.ExtractThread(context.Background(), page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x.clicks != DefaultMaxExpandRounds {
		t.Fatalf("expected %d clicks, got %d", DefaultMaxExpandRounds, x.clicks)
	}
}

func TestExtractThread_ExpandHonorsContext(t *testing.T) {
	page := mustPage(t, "https://x.com/alice/status/1234567890", truncatedPost)
	page.Expander = &revealingExpander{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().ExtractThread(ctx, page); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtractAuto_FallsBackToPage(t *testing.T) {
	page := mustPage(t, "https://example.com/post", `<html><body><main><p>Plain article.</p></main></body></html>`)
	res, err := New().ExtractAuto(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModePage || res.Text != "Plain article." {
		t.Fatalf("unexpected result %+v", res)
	}

	xpage := mustPage(t, "https://x.com/alice/status/1234567890", threadFixture)
	res, err = New().ExtractAuto(context.Background(), xpage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mode != ModeThread {
		t.Fatalf("expected thread mode, got %q", res.Mode)
	}
}

func TestParseStatusIDAndMode(t *testing.T) {
	if id := ParseStatusID("https://x.com/a/status/1234567890123/photo/1"); id != "1234567890123" {
		t.Fatalf("unexpected id %q", id)
	}
	if id := ParseStatusID("/a/status/123"); id != "" {
		t.Fatalf("expected short ids to be rejected, got %q", id)
	}
	for in, want := range map[string]Mode{"": ModeAuto, "page": ModePage, "x": ModeThread, "Thread": ModeThread} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q): expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseMode("pdf"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
