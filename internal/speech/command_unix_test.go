//go:build unix

package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCommandEngine_SpeakWritesStdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "said.txt")
	e := &CommandEngine{Command: "sh", Args: []string{"-c", "cat > " + out}}
	if err := e.Speak(context.Background(), Utterance{Text: "こんにちは", Lang: "ja-JP"}); err != nil {
		t.Fatalf("speak: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "こんにちは" {
		t.Fatalf("expected utterance on stdin, got %q", b)
	}
	if e.Active() {
		t.Fatalf("expected inactive engine after Speak")
	}
}

func TestCommandEngine_ContextKillsProcess(t *testing.T) {
	e := &CommandEngine{Command: "sh", Args: []string{"-c", "sleep 5"}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Speak(ctx, Utterance{Text: "x"}) }()

	deadline := time.Now().Add(2 * time.Second)
	for !e.Active() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := e.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Speak did not return after cancel")
	}
}

func TestCommandEngine_MissingBinary(t *testing.T) {
	e := &CommandEngine{Command: "webreader-no-such-binary"}
	if err := e.Speak(context.Background(), Utterance{Text: "x"}); err == nil {
		t.Fatalf("expected start error")
	}
}

func TestPipeSink_PauseBeforePlayStartsStopped(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "played")
	s := &PipeSink{Command: "sh", Args: []string{"-c", "sleep 0.1; touch " + marker}}
	if err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Play(context.Background(), Clip{Audio: []byte("x")}) }()

	time.Sleep(400 * time.Millisecond)
	if _, err := os.Stat(marker); err == nil {
		t.Fatalf("player ran while paused")
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("play: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("play did not finish after resume")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected player to finish after resume: %v", err)
	}
}

func TestPipeSink_KillDropsPendingPause(t *testing.T) {
	s := &PipeSink{Command: "sh", Args: []string{"-c", "cat > /dev/null"}}
	if err := s.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	s.kill()
	done := make(chan error, 1)
	go func() { done <- s.Play(context.Background(), Clip{Audio: []byte("x")}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("play: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("play stayed paused after kill")
	}
}
