package cache

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AudioCache stores synthesized utterances keyed by everything that affects
// the rendered audio.
type AudioCache struct {
	Dir         string
	StrictPerms bool
}

// AudioKey builds the cache key of one utterance.
func AudioKey(model, voice, format string, speed float64, text string) string {
	return digest(model, voice, format, strconv.FormatFloat(speed, 'f', 3, 64), text)
}

func (c *AudioCache) store() store {
	if c == nil {
		return store{}
	}
	return store{dir: c.Dir, strict: c.StrictPerms}
}

func (c *AudioCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".audio")
}

// Get returns cached audio if present. A hit refreshes the file mtime so
// PurgeAudioByAge keeps recently played entries.
func (c *AudioCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.store().ensure(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes audio to the cache.
func (c *AudioCache) Save(_ context.Context, key string, data []byte) error {
	s := c.store()
	if err := s.ensure(); err != nil {
		return err
	}
	return s.writeAtomic(c.pathFor(key), data)
}
