package app

import (
	"fmt"
	"net/http"
	"path/filepath"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/webreader/internal/cache"
	"github.com/hyperifyio/webreader/internal/speech"
)

// NewEngine builds the local speech engine selected by cfg.Speech.
func NewEngine(cfg Config, hc *http.Client) (speech.Engine, error) {
	switch cfg.Speech {
	case "", SpeechCommand:
		return &speech.CommandEngine{Command: cfg.Command, Args: cfg.CommandArgs}, nil
	case SpeechOpenAI:
		oc := openai.DefaultConfig(cfg.OpenAIKey)
		if cfg.OpenAIBaseURL != "" {
			oc.BaseURL = cfg.OpenAIBaseURL
		}
		if hc != nil {
			oc.HTTPClient = hc
		}
		e := speech.NewOpenAIEngine(openai.NewClientWithConfig(oc), newSink(cfg))
		if cfg.OpenAIModel != "" {
			e.Model = openai.SpeechModel(cfg.OpenAIModel)
		}
		if cfg.OpenAIVoice != "" {
			e.Voice = openai.SpeechVoice(cfg.OpenAIVoice)
		}
		if cfg.CacheDir != "" {
			e.Cache = &cache.AudioCache{Dir: audioCacheDir(cfg.CacheDir), StrictPerms: cfg.CacheStrictPerms}
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q", cfg.Speech)
	}
}

func newSink(cfg Config) speech.Sink {
	if len(cfg.PlayerCommand) > 0 {
		return &speech.PipeSink{Command: cfg.PlayerCommand[0], Args: cfg.PlayerCommand[1:]}
	}
	return &speech.DirSink{Dir: cfg.AudioDir}
}

func httpCacheDir(root string) string  { return filepath.Join(root, "http") }
func audioCacheDir(root string) string { return filepath.Join(root, "audio") }
