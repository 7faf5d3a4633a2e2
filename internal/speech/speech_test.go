package speech

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/webreader/internal/cache"
)

func TestCommandEngine_ExpandPlaceholders(t *testing.T) {
	e := &CommandEngine{}
	got := e.expand(DefaultCommandArgs, Utterance{Lang: "en-US", Rate: 2, Pitch: 0.5, Volume: 0.5, Voice: &Voice{Name: "en-us"}})
	want := []string{"-v", "en-us", "-s", "350", "-p", "25", "-a", "50", "--stdin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	got = e.expand([]string{"{voice}", "{lang}"}, Utterance{Lang: "ja-JP"})
	if want := []string{"ja", "ja-JP"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected language-derived voice %q, got %q", want, got)
	}
}

func TestCommandEngine_DefaultVoices(t *testing.T) {
	if v := (&CommandEngine{}).Voices(); !reflect.DeepEqual(v, DefaultCommandVoices) {
		t.Fatalf("expected default voices, got %+v", v)
	}
	custom := []Voice{{Name: "x", Lang: "fr-FR"}}
	if v := (&CommandEngine{VoiceList: custom}).Voices(); !reflect.DeepEqual(v, custom) {
		t.Fatalf("expected custom voices, got %+v", v)
	}
}

type fakeSynth struct {
	calls int
	reqs  []openai.CreateSpeechRequest
	err   error
}

func (f *fakeSynth) CreateSpeech(_ context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	f.calls++
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return openai.RawResponse{}, f.err
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader("audio:" + req.Input))}, nil
}

func TestOpenAIEngine_CachesAndWritesClips(t *testing.T) {
	synth := &fakeSynth{}
	out := t.TempDir()
	e := NewOpenAIEngine(synth, &DirSink{Dir: out})
	e.Cache = &cache.AudioCache{Dir: t.TempDir()}

	u := Utterance{Text: "Hello there.", Lang: "en-US", Rate: 1.25, Volume: 1}
	for i := 0; i < 2; i++ {
		if err := e.Speak(context.Background(), u); err != nil {
			t.Fatalf("speak %d: %v", i, err)
		}
	}
	if synth.calls != 1 {
		t.Fatalf("expected one synthesis call, got %d", synth.calls)
	}
	req := synth.reqs[0]
	if req.Model != openai.TTSModel1 || req.Voice != openai.VoiceAlloy || req.Speed != 1.25 || req.ResponseFormat != openai.SpeechResponseFormatMp3 {
		t.Fatalf("unexpected request %+v", req)
	}
	for _, name := range []string{"0001.mp3", "0002.mp3"} {
		b, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(b) != "audio:Hello there." {
			t.Fatalf("unexpected clip %q", b)
		}
	}
	if e.Active() {
		t.Fatalf("expected engine to be idle after Speak returns")
	}
}

func TestOpenAIEngine_UtteranceVoiceAndErrors(t *testing.T) {
	synth := &fakeSynth{}
	e := NewOpenAIEngine(synth, nil)
	if err := e.Speak(context.Background(), Utterance{Text: "x", Voice: &Voice{Name: "nova"}}); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if synth.reqs[0].Voice != "nova" || synth.reqs[0].Speed != 1 {
		t.Fatalf("unexpected request %+v", synth.reqs[0])
	}

	synth.err = errors.New("boom")
	if err := e.Speak(context.Background(), Utterance{Text: "y"}); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped synthesis error, got %v", err)
	}
	if v := e.Voices(); len(v) != 1 || v[0].Name != "alloy" {
		t.Fatalf("unexpected voices %+v", v)
	}
}

// slowSynth blocks CreateSpeech until release is closed.
type slowSynth struct {
	entered chan struct{}
	release chan struct{}
}

func (f *slowSynth) CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	f.entered <- struct{}{}
	select {
	case <-f.release:
	case <-ctx.Done():
		return openai.RawResponse{}, ctx.Err()
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(strings.NewReader(req.Input))}, nil
}

type chanSink struct{ played chan string }

func (s chanSink) Play(_ context.Context, c Clip) error {
	s.played <- string(c.Audio)
	return nil
}

func TestOpenAIEngine_PauseDuringRenderHoldsClip(t *testing.T) {
	synth := &slowSynth{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sink := chanSink{played: make(chan string, 1)}
	e := NewOpenAIEngine(synth, sink)

	done := make(chan error, 1)
	go func() { done <- e.Speak(context.Background(), Utterance{Text: "held"}) }()
	<-synth.entered
	if err := e.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	close(synth.release)

	select {
	case got := <-sink.played:
		t.Fatalf("clip %q played while paused", got)
	case <-time.After(150 * time.Millisecond):
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	select {
	case got := <-sink.played:
		if got != "held" {
			t.Fatalf("expected held clip, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected clip to play after resume")
	}
	if err := <-done; err != nil {
		t.Fatalf("speak: %v", err)
	}
}

func TestOpenAIEngine_CancelDropsPause(t *testing.T) {
	sink := chanSink{played: make(chan string, 1)}
	e := NewOpenAIEngine(&fakeSynth{}, sink)
	if err := e.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	e.Cancel()
	if err := e.Speak(context.Background(), Utterance{Text: "next"}); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if got := <-sink.played; got != "audio:next" {
		t.Fatalf("unexpected clip %q", got)
	}
}
