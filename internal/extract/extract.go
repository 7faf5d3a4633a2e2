// Package extract isolates the readable prose of a page. Generic pages are
// reduced to their main content container; x.com threads and long-form
// articles get dedicated handling that leaves out promoted posts and
// recommendations.
package extract

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/hyperifyio/webreader/internal/dom"
	"github.com/hyperifyio/webreader/internal/noise"
	"github.com/hyperifyio/webreader/internal/textnorm"
)

var (
	// ErrNoContent is returned when extraction yields no text.
	ErrNoContent = errors.New("no readable text found")
	// ErrNoThreadContent is the thread-mode variant of ErrNoContent.
	ErrNoThreadContent = &noThreadContentError{}
	// ErrNotThreadPage is returned by ExtractThread for hosts outside
	// Extractor.ThreadHosts.
	ErrNotThreadPage = errors.New("page is not x.com/twitter.com")
)

type noThreadContentError struct{}

func (*noThreadContentError) Error() string { return "no thread/article text found" }

func (*noThreadContentError) Is(target error) bool { return target == ErrNoContent }

// Mode selects an extraction strategy.
type Mode string

const (
	ModePage   Mode = "page"
	ModeThread Mode = "thread"
	// ModeAuto tries thread mode and falls back to page mode.
	ModeAuto Mode = "auto"
)

// ParseMode maps user input to a Mode. "x" is accepted for thread mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "page":
		return ModePage, nil
	case "thread", "x":
		return ModeThread, nil
	}
	return "", errors.New("unknown extraction mode: " + s)
}

// DefaultThreadHosts are the hosts served by thread mode.
var DefaultThreadHosts = []string{"x.com", "www.x.com", "twitter.com", "www.twitter.com"}

const (
	// DefaultSettleDelay is the pause between expand rounds.
	DefaultSettleDelay = 150 * time.Millisecond
	// DefaultMaxExpandRounds bounds how often expand controls are rescanned.
	DefaultMaxExpandRounds = 3
)

// Expander is the single write capability on a page: activating an
// expandable control.
type Expander interface {
	Click(ctx context.Context, node *html.Node) error
}

// NoopExpander ignores clicks. Static fetched pages use it.
type NoopExpander struct{}

func (NoopExpander) Click(context.Context, *html.Node) error { return nil }

// Page is a parsed document plus the URL it was loaded from.
type Page struct {
	URL      string
	Doc      *html.Node
	Expander Expander
}

// Result is the outcome of an extraction.
type Result struct {
	Text  string
	Title string
	Mode  Mode
	// Structured is true when a long-form article root produced the text.
	Structured bool
	// Chars is the rune length of Text.
	Chars int
}

func newResult(page Page, text string, mode Mode) Result {
	text = textnorm.Normalize(text)
	return Result{
		Text:  text,
		Title: dom.Title(page.Doc),
		Mode:  mode,
		Chars: textnorm.Len(text),
	}
}

// Extractor holds the tunables of both extraction modes. The zero value is
// usable and falls back to the defaults.
type Extractor struct {
	Filter          *noise.Filter
	SettleDelay     time.Duration
	MaxExpandRounds int
	ThreadHosts     []string
}

// New returns an Extractor with the default filter and limits.
func New() *Extractor {
	return &Extractor{
		Filter:          noise.New(),
		SettleDelay:     DefaultSettleDelay,
		MaxExpandRounds: DefaultMaxExpandRounds,
		ThreadHosts:     DefaultThreadHosts,
	}
}

func (e *Extractor) filter() *noise.Filter {
	if e.Filter == nil {
		return noise.New()
	}
	return e.Filter
}

func (e *Extractor) hosts() []string {
	if len(e.ThreadHosts) == 0 {
		return DefaultThreadHosts
	}
	return e.ThreadHosts
}

// IsThreadHost reports whether rawURL is served by thread mode.
func (e *Extractor) IsThreadHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range e.hosts() {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

// Extract runs the strategy selected by mode.
func (e *Extractor) Extract(ctx context.Context, page Page, mode Mode) (Result, error) {
	switch mode {
	case ModePage:
		return e.ExtractPage(page)
	case ModeThread:
		return e.ExtractThread(ctx, page)
	default:
		return e.ExtractAuto(ctx, page)
	}
}

// ExtractAuto uses thread mode when it yields text and page mode otherwise.
// Result.Mode reports the strategy that produced the text.
func (e *Extractor) ExtractAuto(ctx context.Context, page Page) (Result, error) {
	res, err := e.ExtractThread(ctx, page)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	log.Debug().Err(err).Str("url", page.URL).Msg("thread extraction failed, falling back to page mode")
	return e.ExtractPage(page)
}
