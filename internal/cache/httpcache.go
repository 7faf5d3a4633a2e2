package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPEntry captures enough metadata to revalidate a cached page.
type HTTPEntry struct {
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url,omitempty"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// HTTPCache stores pages as <key>.meta.json and <key>.body where key is
// sha256(url). There is no eviction beyond PurgeHTTPByAge.
type HTTPCache struct {
	Dir         string
	StrictPerms bool
}

func (c *HTTPCache) store() store {
	if c == nil {
		return store{}
	}
	return store{dir: c.Dir, strict: c.StrictPerms}
}

func (c *HTTPCache) key(url string) string { return digest(url) }

func (c *HTTPCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *HTTPCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns entry metadata if present.
func (c *HTTPCache) LoadMeta(_ context.Context, url string) (*HTTPEntry, error) {
	if err := c.store().ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(c.key(url)))
	if err != nil {
		return nil, err
	}
	var e HTTPEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadBody returns the cached body if present.
func (c *HTTPCache) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.store().ensure(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(c.key(url)))
}

// Save stores the entry under e.URL. The body is written before the
// metadata so a readable meta file always has its body.
func (c *HTTPCache) Save(_ context.Context, e HTTPEntry, body []byte) error {
	s := c.store()
	if err := s.ensure(); err != nil {
		return err
	}
	key := c.key(e.URL)
	if err := s.writeAtomic(c.bodyPath(key), body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	e.SavedAt = time.Now().UTC()
	meta, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := s.writeAtomic(c.metaPath(key), meta); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}
