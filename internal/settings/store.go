package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store persists Settings.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
}

// FileStore keeps settings in a YAML file. A missing file reads as
// Defaults; malformed values are coerced rather than rejected.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func (f *FileStore) Load(_ context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read settings: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return Defaults(), fmt.Errorf("parse settings %s: %w", f.Path, err)
	}
	return Coerce(raw), nil
}

func (f *FileStore) Save(_ context.Context, s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := yaml.Marshal(s.Clamp())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// MemoryStore keeps settings in memory. The zero value holds Defaults.
type MemoryStore struct {
	mu  sync.Mutex
	s   Settings
	set bool
}

// NewMemoryStore returns a store holding s.
func NewMemoryStore(s Settings) *MemoryStore {
	return &MemoryStore{s: s.Clamp(), set: true}
}

func (m *MemoryStore) Load(context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Defaults(), nil
	}
	return m.s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s, m.set = s.Clamp(), true
	return nil
}
