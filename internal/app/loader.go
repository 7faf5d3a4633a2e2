package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/dom"
	"github.com/hyperifyio/webreader/internal/extract"
	"github.com/hyperifyio/webreader/internal/fetch"
)

// Loader turns a URL into a parsed page.
type Loader interface {
	Load(ctx context.Context, url string) (extract.Page, error)
}

// FetchLoader retrieves pages over HTTP. Fetched pages are static, so
// expand controls cannot be activated.
type FetchLoader struct {
	Client *fetch.Client
}

func (l *FetchLoader) Load(ctx context.Context, url string) (extract.Page, error) {
	resp, err := l.Client.Get(ctx, strings.TrimSpace(url))
	if err != nil {
		return extract.Page{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	log.Debug().Str("url", url).Str("final", resp.URL).Int("bytes", len(resp.Body)).Bool("cached", resp.FromCache).Msg("page loaded")
	return PageFromHTML(resp.URL, resp.Body)
}

// PageFromHTML parses markup captured elsewhere, such as a browser
// snapshot, as the page at url.
func PageFromHTML(url string, markup []byte) (extract.Page, error) {
	doc, err := dom.ParseBytes(markup)
	if err != nil {
		return extract.Page{}, fmt.Errorf("parse %s: %w", url, err)
	}
	return extract.Page{URL: url, Doc: doc, Expander: extract.NoopExpander{}}, nil
}
