package speech

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/webreader/internal/cache"
)

// Synthesizer is the part of *openai.Client used by OpenAIEngine.
type Synthesizer interface {
	CreateSpeech(ctx context.Context, request openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Clip is synthesized audio ready for playback.
type Clip struct {
	Audio  []byte
	Format string
	Text   string
}

// Sink plays or stores clips. Play blocks until the clip is done.
type Sink interface {
	Play(ctx context.Context, c Clip) error
}

// Pauser is implemented by sinks that can suspend playback.
type Pauser interface {
	Pause() error
	Resume() error
}

// killer is implemented by sinks that own a playback process.
type killer interface {
	kill()
}

// OpenAIEngine renders utterances through an OpenAI-compatible speech
// endpoint and hands the audio to a Sink. Rendered audio is cached when
// Cache is set. While paused, a rendered clip is held back from the sink
// until Resume.
type OpenAIEngine struct {
	Client Synthesizer
	Model  openai.SpeechModel
	Voice  openai.SpeechVoice
	Format openai.SpeechResponseFormat
	Cache  *cache.AudioCache
	Sink   Sink

	mu     sync.Mutex
	cancel context.CancelFunc
	// gate is non-nil while paused and closed on resume.
	gate chan struct{}
}

// NewOpenAIEngine returns an engine with the tts-1 model, the alloy voice
// and mp3 output.
func NewOpenAIEngine(client Synthesizer, sink Sink) *OpenAIEngine {
	return &OpenAIEngine{
		Client: client,
		Model:  openai.TTSModel1,
		Voice:  openai.VoiceAlloy,
		Format: openai.SpeechResponseFormatMp3,
		Sink:   sink,
	}
}

func (e *OpenAIEngine) Speak(ctx context.Context, u Utterance) error {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
		cancel()
	}()

	voice := e.Voice
	if u.Voice != nil && u.Voice.Name != "" {
		voice = openai.SpeechVoice(u.Voice.Name)
	}
	speed := u.Rate
	if speed == 0 {
		speed = 1
	}
	audio, err := e.render(ctx, voice, speed, u.Text)
	if err != nil {
		return err
	}
	if err := e.hold(ctx); err != nil {
		return err
	}
	if e.Sink == nil {
		return nil
	}
	return e.Sink.Play(ctx, Clip{Audio: audio, Format: string(e.Format), Text: u.Text})
}

func (e *OpenAIEngine) render(ctx context.Context, voice openai.SpeechVoice, speed float64, text string) ([]byte, error) {
	key := cache.AudioKey(string(e.Model), string(voice), string(e.Format), speed, text)
	if e.Cache != nil {
		if b, ok, _ := e.Cache.Get(ctx, key); ok {
			log.Debug().Str("voice", string(voice)).Int("bytes", len(b)).Msg("audio cache hit")
			return b, nil
		}
	}
	resp, err := e.Client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          e.Model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: e.Format,
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()
	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	if e.Cache != nil {
		if err := e.Cache.Save(ctx, key, audio); err != nil {
			log.Warn().Err(err).Msg("audio cache save failed")
		}
	}
	return audio, nil
}

// hold blocks while the engine is paused.
func (e *OpenAIEngine) hold(ctx context.Context) error {
	e.mu.Lock()
	gate := e.gate
	e.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *OpenAIEngine) openGateLocked() {
	if e.gate != nil {
		close(e.gate)
		e.gate = nil
	}
}

// Pause suspends a sink that supports it and holds back clips that are
// still being rendered.
func (e *OpenAIEngine) Pause() error {
	if p, ok := e.Sink.(Pauser); ok {
		if err := p.Pause(); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gate == nil {
		e.gate = make(chan struct{})
	}
	return nil
}

func (e *OpenAIEngine) Resume() error {
	e.mu.Lock()
	e.openGateLocked()
	e.mu.Unlock()
	if p, ok := e.Sink.(Pauser); ok {
		return p.Resume()
	}
	return nil
}

func (e *OpenAIEngine) Cancel() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.openGateLocked()
	e.mu.Unlock()
	if k, ok := e.Sink.(killer); ok {
		k.kill()
	}
}

func (e *OpenAIEngine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// Voices returns the configured voice. OpenAI voices are multilingual so
// the voice has no language tag.
func (e *OpenAIEngine) Voices() []Voice {
	return []Voice{{Name: string(e.Voice)}}
}
