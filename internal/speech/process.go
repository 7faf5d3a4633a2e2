package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// process tracks the external command of the utterance in flight.
type process struct {
	mu  sync.Mutex
	cmd *exec.Cmd
	// paused outlives a single command: a pause requested while no command
	// runs stops the next one as soon as it starts.
	paused bool
}

// run starts cmd and waits for it. A cancelled ctx kills the process and
// is reported as ctx.Err().
func (p *process) run(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	p.mu.Lock()
	p.cmd = cmd
	if p.paused {
		if err := suspend(cmd.Process); err != nil {
			p.paused = false
		}
	}
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		p.kill()
		<-done
		err = ctx.Err()
	}

	p.mu.Lock()
	if p.cmd == cmd {
		p.cmd = nil
	}
	p.mu.Unlock()

	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return fmt.Errorf("%s exited: %w", cmd.Path, err)
	}
	return err
}

func (p *process) active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

func (p *process) pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		if err := suspend(p.cmd.Process); err != nil {
			return err
		}
	} else if !canSuspend {
		return ErrUnsupported
	}
	p.paused = true
	return nil
}

func (p *process) resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return nil
	}
	if p.cmd != nil && p.cmd.Process != nil {
		if err := proceed(p.cmd.Process); err != nil {
			return err
		}
	}
	p.paused = false
	return nil
}

// kill ends the command in flight and drops a pending pause.
func (p *process) kill() {
	p.mu.Lock()
	defer p.mu.Unlock()
	paused := p.paused
	p.paused = false
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	if paused {
		_ = proceed(p.cmd.Process)
	}
	_ = p.cmd.Process.Kill()
}
