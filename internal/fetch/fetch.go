// Package fetch retrieves HTML pages for extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/cache"
)

// DefaultMaxBodyBytes caps how much of a page is read.
const DefaultMaxBodyBytes = 8 << 20

var (
	// ErrUnsupportedScheme is returned for URLs other than http and https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrUnsupportedContentType is returned for responses that are not HTML.
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status: %d", e.Code) }

// Response is a fetched page.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	ContentType string
	Body        []byte
	// FromCache is set when the body was served after a 304.
	FromCache bool
}

// Client wraps http.Client and provides timeouts and limited retry on
// transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Cache enables conditional GETs. Optional.
	Cache *cache.HTTPCache
	// BypassCache fetches fresh without conditional headers but still saves
	// the response.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int
	// MaxBodyBytes caps the body size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirect()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirect()}
}

// Get fetches rawURL with bounded retry on 5xx and timeouts.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag, lastMod = meta.ETag, meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		backoff := time.Duration(i+1) * 200 * time.Millisecond
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Dur("backoff", backoff).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (*Response, error) {
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, req.URL.Scheme)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	final := resp.Request.URL.String()

	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		body, err := c.Cache.LoadBody(ctx, rawURL)
		if err == nil {
			meta, _ := c.Cache.LoadMeta(ctx, rawURL)
			res := &Response{URL: final, Body: body, FromCache: true}
			if meta != nil {
				res.ContentType = meta.ContentType
				if meta.FinalURL != "" {
					res.URL = meta.FinalURL
				}
			}
			return res, nil
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if c.Cache != nil {
		entry := cache.HTTPEntry{
			URL:          rawURL,
			FinalURL:     final,
			ContentType:  contentType,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := c.Cache.Save(ctx, entry, body); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("page cache save failed")
		}
	}
	return &Response{URL: final, ContentType: contentType, Body: body}, nil
}

// isTransient treats 5xx responses and deadline expiry as retryable.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500 && se.Code <= 599
}

func (c *Client) checkRedirect() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	<-c.limiter
}
