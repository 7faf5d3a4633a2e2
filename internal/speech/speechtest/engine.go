// Package speechtest provides a scripted speech.Engine for tests.
package speechtest

import (
	"context"
	"sync"

	"github.com/hyperifyio/webreader/internal/speech"
)

// Engine records utterances. With Block set, each Speak waits for Release
// or for its context to end, which lets tests observe the player mid-chunk.
type Engine struct {
	VoiceList []speech.Voice
	Block     bool
	// Fail returns the error for the i-th utterance (zero based).
	Fail func(i int) error

	mu      sync.Mutex
	spoken  []speech.Utterance
	active  bool
	paused  bool
	cancels int
	release chan struct{}
	started chan speech.Utterance
}

// New returns a blocking engine offering voices.
func New(voices ...speech.Voice) *Engine {
	return &Engine{VoiceList: voices, Block: true}
}

func (e *Engine) init() {
	if e.release == nil {
		e.release = make(chan struct{}, 64)
		e.started = make(chan speech.Utterance, 64)
	}
}

// Started delivers every utterance as Speak begins.
func (e *Engine) Started() <-chan speech.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.init()
	return e.started
}

// Release lets one blocked Speak return.
func (e *Engine) Release() {
	e.mu.Lock()
	e.init()
	ch := e.release
	e.mu.Unlock()
	ch <- struct{}{}
}

func (e *Engine) Speak(ctx context.Context, u speech.Utterance) error {
	e.mu.Lock()
	e.init()
	i := len(e.spoken)
	e.spoken = append(e.spoken, u)
	e.active = true
	release, started := e.release, e.started
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.active, e.paused = false, false
		e.mu.Unlock()
	}()

	select {
	case started <- u:
	default:
	}
	if e.Block {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if e.Fail != nil {
		return e.Fail(i)
	}
	return nil
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	return nil
}

func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	return nil
}

func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels++
}

func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Engine) Voices() []speech.Voice { return e.VoiceList }

// Spoken returns the utterances received so far.
func (e *Engine) Spoken() []speech.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]speech.Utterance(nil), e.spoken...)
}

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Cancels counts Cancel calls.
func (e *Engine) Cancels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancels
}
