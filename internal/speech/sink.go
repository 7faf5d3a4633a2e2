package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// DirSink writes every clip to Dir as a numbered file. Play returns as soon
// as the file is written.
type DirSink struct {
	Dir string

	mu sync.Mutex
	n  int
}

func (s *DirSink) Play(_ context.Context, c Clip) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	s.mu.Lock()
	s.n++
	n := s.n
	s.mu.Unlock()
	ext := c.Format
	if ext == "" {
		ext = "audio"
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%04d.%s", n, ext))
	return os.WriteFile(path, c.Audio, 0o644)
}

// PipeSink streams each clip to the stdin of a player command such as
// "mpv --no-terminal -" and waits for it to exit.
type PipeSink struct {
	Command string
	Args    []string

	proc process
}

func (s *PipeSink) Play(ctx context.Context, c Clip) error {
	cmd := exec.Command(s.Command, s.Args...)
	cmd.Stdin = bytes.NewReader(c.Audio)
	return s.proc.run(ctx, cmd)
}

func (s *PipeSink) Pause() error  { return s.proc.pause() }
func (s *PipeSink) Resume() error { return s.proc.resume() }
func (s *PipeSink) kill()         { s.proc.kill() }
