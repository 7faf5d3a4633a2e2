// Package cache keeps fetched pages and synthesized audio on disk. Entries
// are keyed by a sha256 digest so file names never depend on user input.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

// ErrNoDir is returned when a cache is used without a directory.
var ErrNoDir = errors.New("cache dir not configured")

// store is the directory handling shared by the caches. With strict set,
// directories are 0700 and files 0600.
type store struct {
	dir    string
	strict bool
}

func (s store) ensure() error {
	if strings.TrimSpace(s.dir) == "" {
		return ErrNoDir
	}
	perm := os.FileMode(0o755)
	if s.strict {
		perm = 0o700
	}
	if err := os.MkdirAll(s.dir, perm); err != nil {
		return err
	}
	if s.strict {
		if info, err := os.Stat(s.dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(s.dir, 0o700)
		}
	}
	return nil
}

func (s store) fileMode() os.FileMode {
	if s.strict {
		return 0o600
	}
	return 0o644
}

// writeAtomic writes data next to path and renames it into place.
func (s store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, s.fileMode()); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func digest(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\n\n")))
	return hex.EncodeToString(h[:])
}

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return ErrNoDir
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
