package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/dom"
	"github.com/hyperifyio/webreader/internal/textnorm"
)

var statusID = regexp.MustCompile(`/status/(\d{8,25})`)

// ShowMoreLabels are the texts of controls that reveal truncated posts.
var ShowMoreLabels = []string{"さらに表示", "Show more"}

var (
	expandControl = dom.And(dom.Or(dom.Role("button"), dom.Tag("button")), dom.Within(dom.Tag("article")))
	postArticle   = dom.And(dom.Tag("article"), dom.TestID("tweet"))
	postText      = dom.TestID("tweetText")
	statusLink    = dom.And(dom.Tag("a"), dom.AttrContains("href", "/status/"))
	canonicalLink = dom.And(dom.Tag("link"), dom.AttrEquals("rel", "canonical"))
)

// ParseStatusID returns the post id embedded in a status URL or path.
func ParseStatusID(s string) string {
	m := statusID.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

// pageStatusID is the id of the post the page is about, taken from the
// canonical link and then from the URL path.
func pageStatusID(page Page) string {
	if link := dom.Find(page.Doc, canonicalLink); link != nil {
		if id := ParseStatusID(dom.Attr(link, "href")); id != "" {
			return id
		}
	}
	if u, err := url.Parse(page.URL); err == nil {
		return ParseStatusID(u.Path)
	}
	return ""
}

func postStatusID(article *html.Node) string {
	for _, a := range dom.FindAll(article, statusLink) {
		if id := ParseStatusID(dom.Attr(a, "href")); id != "" {
			return id
		}
	}
	return ""
}

// ExtractThread reads an x.com thread or long-form article. Truncated posts
// are expanded first. A visible article body is returned as is; otherwise
// every distinct post that is neither promoted nor an off-topic
// recommendation contributes its text.
func (e *Extractor) ExtractThread(ctx context.Context, page Page) (Result, error) {
	if !e.IsThreadHost(page.URL) {
		return Result{}, ErrNotThreadPage
	}
	if err := e.expand(ctx, page); err != nil {
		return Result{}, err
	}

	if text, found := articleText(page.Doc); found && text != "" {
		res := newResult(page, text, ModeThread)
		res.Structured = true
		return res, nil
	}

	subject := pageStatusID(page)
	filter := e.filter()
	seen := make(map[string]bool)
	lines := newLineSet(true)
	skipped := 0
	for _, article := range dom.FindAll(page.Doc, postArticle) {
		id := postStatusID(article)
		if id == "" || seen[id] {
			continue
		}
		if filter.ShouldSkip(xBlock{article: article}, subject, id) {
			skipped++
			continue
		}
		seen[id] = true
		lines.add(dom.Text(dom.Find(article, postText)))
	}
	log.Debug().Str("url", page.URL).Str("subject", subject).Int("posts", len(seen)).Int("skipped", skipped).Msg("thread scan")

	res := newResult(page, strings.Join(lines.lines, "\n"), ModeThread)
	if res.Text == "" {
		return Result{}, ErrNoThreadContent
	}
	return res, nil
}

// expand clicks visible "show more" controls inside posts. Each round
// rescans for controls revealed by the previous one; controls already
// clicked are not clicked again. It stops after a round without clicks.
func (e *Extractor) expand(ctx context.Context, page Page) error {
	expander := page.Expander
	if expander == nil {
		expander = NoopExpander{}
	}
	rounds := e.MaxExpandRounds
	if rounds <= 0 {
		rounds = DefaultMaxExpandRounds
	}
	clicked := make(map[*html.Node]bool)
	for round := 0; round < rounds; round++ {
		n := 0
		for _, node := range dom.FindAll(page.Doc, expandControl) {
			if clicked[node] || !dom.Visible(node) || !isShowMore(dom.Text(node)) {
				continue
			}
			clicked[node] = true
			if err := expander.Click(ctx, node); err != nil {
				log.Debug().Err(err).Msg("expand click failed")
				continue
			}
			n++
		}
		if n == 0 {
			return nil
		}
		log.Debug().Int("round", round+1).Int("clicked", n).Msg("expanded posts")
		if err := sleep(ctx, e.SettleDelay); err != nil {
			return err
		}
	}
	return nil
}

func isShowMore(label string) bool {
	label = textnorm.Normalize(label)
	for _, l := range ShowMoreLabels {
		if label == l {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
