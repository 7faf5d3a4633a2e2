package app

import (
	"time"

	"github.com/hyperifyio/webreader/internal/noise"
)

// Backend names accepted by Config.Engine.
const (
	EngineLocal     = "local"
	EngineVoicepeak = "voicepeak"
)

// Speech engine names accepted by Config.Speech.
const (
	SpeechCommand = "command"
	SpeechOpenAI  = "openai"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Engine selects where playback happens: EngineLocal or EngineVoicepeak.
	Engine string
	// Remote endpoint
	Endpoint string
	Token    string

	// Server
	Listen string

	// Settings file; empty keeps settings in memory.
	SettingsPath string

	// Local speech
	Speech        string
	Command       string
	CommandArgs   []string
	OpenAIBaseURL string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIVoice   string
	// AudioDir receives rendered clips when PlayerCommand is empty.
	AudioDir      string
	PlayerCommand []string

	// Fetching and caching
	UserAgent        string
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	FetchTimeout     time.Duration

	// Extraction
	Mode        string
	SettleDelay time.Duration
	Patterns    noise.PatternConfig

	Verbose bool
}

// Defaults used when neither flags, env nor the config file set a value.
const (
	DefaultListen    = "127.0.0.1:18766"
	DefaultUserAgent = "webreader/1.0 (+https://github.com/hyperifyio/webreader)"
	DefaultCacheDir  = ".webreader-cache"
	DefaultAudioDir  = "webreader-audio"
)

// DefaultConfig returns the configuration used before any overlay.
func DefaultConfig() Config {
	return Config{
		Engine:    EngineLocal,
		Listen:    DefaultListen,
		Speech:    SpeechCommand,
		UserAgent: DefaultUserAgent,
		CacheDir:  DefaultCacheDir,
		AudioDir:  DefaultAudioDir,
		Mode:      "auto",
	}
}
