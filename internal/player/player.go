// Package player turns text into a sequence of utterances and plays them
// through a speech engine, one at a time, with pause, resume and stop.
//
// Every Start and Stop advances an epoch. A playback loop captures the
// epoch it was started with and exits as soon as it no longer matches, so
// a superseded run never touches the state of its successor.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/chunk"
	"github.com/hyperifyio/webreader/internal/observe"
	"github.com/hyperifyio/webreader/internal/settings"
	"github.com/hyperifyio/webreader/internal/speech"
	"github.com/hyperifyio/webreader/internal/textnorm"
)

// Option configures a Controller.
type Option func(*Controller)

// WithMetrics records sessions and utterances on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithJobIDs replaces the uuid job id generator.
func WithJobIDs(next func() string) Option {
	return func(c *Controller) { c.newJobID = next }
}

// Controller owns the player state and the session epoch.
type Controller struct {
	engine   speech.Engine
	metrics  *observe.Metrics
	newJobID func() string

	mu      sync.Mutex
	cond    *sync.Cond
	epoch   uint64
	snap    Snapshot
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	subs    map[chan Snapshot]struct{}
}

// New returns an idle controller driving engine.
func New(engine speech.Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:   engine,
		newJobID: uuid.NewString,
		snap:     Snapshot{State: Idle},
		subs:     make(map[chan Snapshot]struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start replaces any current run with a new one reading text. The text is
// normalized, truncated to s.MaxChars and chunked by s.ChunkChars. Start
// fails with ErrNoText, leaving the state untouched, when nothing is left to
// read. Playback continues in the background after Start returns; ctx only
// contributes its values.
func (c *Controller) Start(ctx context.Context, text string, s settings.Settings) (Snapshot, error) {
	s = s.Clamp()
	normalized := textnorm.Truncate(textnorm.Normalize(text), s.MaxChars)
	chunks := chunk.Split(normalized, s.ChunkChars)
	if len(chunks) == 0 {
		return c.Status(), ErrNoText
	}
	lang := textnorm.ClassifyLanguage(normalized).Tag()
	voice := PickVoice(c.engine.Voices(), lang)
	tmpl := speech.Utterance{Lang: lang, Rate: s.Rate, Pitch: s.Pitch, Volume: s.Volume, Voice: voice}

	c.mu.Lock()
	c.invalidateLocked()
	epoch := c.epoch
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	c.cancel, c.done, c.running = cancel, done, true
	c.snap = Snapshot{
		State:   Playing,
		Chars:   textnorm.Len(normalized),
		Chunks:  len(chunks),
		Lang:    lang,
		Session: epoch,
		Job:     c.newJobID(),
	}
	snap := c.snap
	c.publishLocked()
	c.mu.Unlock()

	c.metrics.RecordSession(ctx, lang)
	ev := log.Info().Uint64("session", epoch).Str("job", snap.Job).Int("chars", snap.Chars).Int("chunks", snap.Chunks).Str("lang", lang)
	if voice != nil {
		ev = ev.Str("voice", voice.Name)
	}
	ev.Msg("playback started")

	go c.run(runCtx, epoch, chunks, tmpl, done)
	return snap, nil
}

// run speaks the chunks in order. It waits while paused before each chunk
// and after the last one, and exits when its epoch is superseded. A paused
// run therefore only ends through Stop or a new Start.
func (c *Controller) run(ctx context.Context, epoch uint64, chunks []string, tmpl speech.Utterance, done chan struct{}) {
	defer close(done)
	for i, text := range chunks {
		c.mu.Lock()
		if !c.holdLocked(epoch) {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		u := tmpl
		u.Text = text
		start := time.Now()
		err := c.engine.Speak(ctx, u)

		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.metrics.RecordUtterance(ctx, time.Since(start), err)
		if err != nil {
			log.Warn().Err(err).Uint64("session", epoch).Int("chunk", i).Msg("utterance failed, advancing")
		}
		c.snap.Index = i + 1
		c.publishLocked()
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.holdLocked(epoch) {
		return
	}
	c.running = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.snap = Snapshot{State: Idle, Session: epoch}
	c.publishLocked()
	log.Info().Uint64("session", epoch).Msg("playback finished")
}

// holdLocked waits while the run of epoch is paused and reports whether it is
// still current. The caller holds c.mu.
func (c *Controller) holdLocked(epoch uint64) bool {
	for c.epoch == epoch && c.snap.State == Paused {
		c.cond.Wait()
	}
	return c.epoch == epoch
}

// invalidateLocked ends the current run, if any. The caller holds c.mu.
func (c *Controller) invalidateLocked() {
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.running = false
	c.engine.Cancel()
	c.cond.Broadcast()
}

// Pause suspends playback. It requires a playing run with an utterance in
// flight or about to start.
func (c *Controller) Pause() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.State != Playing {
		return c.snap, ErrNotPlaying
	}
	if !c.running && !c.engine.Active() {
		return c.snap, ErrNoActivePlayback
	}
	if err := c.engine.Pause(); err != nil && !errors.Is(err, speech.ErrUnsupported) {
		return c.snap, err
	}
	c.snap.State = Paused
	c.publishLocked()
	log.Debug().Uint64("session", c.epoch).Int("index", c.snap.Index).Msg("playback paused")
	return c.snap, nil
}

// Resume continues a paused run.
func (c *Controller) Resume() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.State != Paused {
		return c.snap, ErrNotPaused
	}
	if err := c.engine.Resume(); err != nil && !errors.Is(err, speech.ErrUnsupported) {
		return c.snap, err
	}
	c.snap.State = Playing
	c.cond.Broadcast()
	c.publishLocked()
	log.Debug().Uint64("session", c.epoch).Int("index", c.snap.Index).Msg("playback resumed")
	return c.snap, nil
}

// Stop ends any run and returns to idle. It always succeeds.
func (c *Controller) Stop() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasIdle := c.snap.State == Idle
	c.invalidateLocked()
	c.snap = Snapshot{State: Idle, Session: c.epoch}
	c.publishLocked()
	if !wasIdle {
		log.Info().Uint64("session", c.epoch).Msg("playback stopped")
	}
	return c.snap
}

// Status returns the current snapshot.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Wait blocks until the current run ends, by completion or supersession,
// or ctx is done. It returns immediately when idle.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel receiving a snapshot on every change and a
// function that unsubscribes and closes it. Slow subscribers miss updates.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) publishLocked() {
	for ch := range c.subs {
		select {
		case ch <- c.snap:
		default:
		}
	}
}
