package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/webreader/internal/extract"
	"github.com/hyperifyio/webreader/internal/noise"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Engine string `yaml:"engine" json:"engine"`

	Voicepeak struct {
		Endpoint string `yaml:"endpoint" json:"endpoint"`
		Token    string `yaml:"token" json:"token"`
	} `yaml:"voicepeak" json:"voicepeak"`

	Server struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"server" json:"server"`

	Settings struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"settings" json:"settings"`

	Speech struct {
		Engine  string   `yaml:"engine" json:"engine"`
		Command string   `yaml:"command" json:"command"`
		Args    []string `yaml:"args" json:"args"`
		OpenAI  struct {
			BaseURL string `yaml:"base" json:"base"`
			Key     string `yaml:"key" json:"key"`
			Model   string `yaml:"model" json:"model"`
			Voice   string `yaml:"voice" json:"voice"`
		} `yaml:"openai" json:"openai"`
		AudioDir string   `yaml:"audioDir" json:"audioDir"`
		Player   []string `yaml:"player" json:"player"`
	} `yaml:"speech" json:"speech"`

	Fetch struct {
		UserAgent string        `yaml:"ua" json:"ua"`
		Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Extract struct {
		Mode        string              `yaml:"mode" json:"mode"`
		SettleDelay time.Duration       `yaml:"settleDelay" json:"settleDelay"`
		Patterns    noise.PatternConfig `yaml:"patterns" json:"patterns"`
	} `yaml:"extract" json:"extract"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their default. Flags should already have
// been parsed; the file supplies values while explicit flags are preserved.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	d := DefaultConfig()
	unset := func(v, def string) bool { return v == "" || v == def }

	if unset(cfg.Engine, d.Engine) && fc.Engine != "" {
		cfg.Engine = fc.Engine
	}
	if cfg.Endpoint == "" && fc.Voicepeak.Endpoint != "" {
		cfg.Endpoint = fc.Voicepeak.Endpoint
	}
	if cfg.Token == "" && fc.Voicepeak.Token != "" {
		cfg.Token = fc.Voicepeak.Token
	}
	if unset(cfg.Listen, d.Listen) && fc.Server.Listen != "" {
		cfg.Listen = fc.Server.Listen
	}
	if cfg.SettingsPath == "" && fc.Settings.File != "" {
		cfg.SettingsPath = fc.Settings.File
	}

	if unset(cfg.Speech, d.Speech) && fc.Speech.Engine != "" {
		cfg.Speech = fc.Speech.Engine
	}
	if cfg.Command == "" && fc.Speech.Command != "" {
		cfg.Command = fc.Speech.Command
	}
	if len(cfg.CommandArgs) == 0 && len(fc.Speech.Args) > 0 {
		cfg.CommandArgs = append([]string{}, fc.Speech.Args...)
	}
	if cfg.OpenAIBaseURL == "" && fc.Speech.OpenAI.BaseURL != "" {
		cfg.OpenAIBaseURL = fc.Speech.OpenAI.BaseURL
	}
	if cfg.OpenAIKey == "" && fc.Speech.OpenAI.Key != "" {
		cfg.OpenAIKey = fc.Speech.OpenAI.Key
	}
	if cfg.OpenAIModel == "" && fc.Speech.OpenAI.Model != "" {
		cfg.OpenAIModel = fc.Speech.OpenAI.Model
	}
	if cfg.OpenAIVoice == "" && fc.Speech.OpenAI.Voice != "" {
		cfg.OpenAIVoice = fc.Speech.OpenAI.Voice
	}
	if unset(cfg.AudioDir, d.AudioDir) && fc.Speech.AudioDir != "" {
		cfg.AudioDir = fc.Speech.AudioDir
	}
	if len(cfg.PlayerCommand) == 0 && len(fc.Speech.Player) > 0 {
		cfg.PlayerCommand = append([]string{}, fc.Speech.Player...)
	}

	if unset(cfg.UserAgent, d.UserAgent) && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.FetchTimeout == 0 && fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout
	}
	if unset(cfg.CacheDir, d.CacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if unset(cfg.Mode, d.Mode) && fc.Extract.Mode != "" {
		cfg.Mode = fc.Extract.Mode
	}
	if cfg.SettleDelay == 0 && fc.Extract.SettleDelay > 0 {
		cfg.SettleDelay = fc.Extract.SettleDelay
	}
	if cfg.Patterns.IsZero() {
		cfg.Patterns = fc.Extract.Patterns
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation.
func ValidateConfig(cfg Config) error {
	switch cfg.Engine {
	case EngineLocal, EngineVoicepeak:
	default:
		return fmt.Errorf("config: unknown engine %q (want %s or %s)", cfg.Engine, EngineLocal, EngineVoicepeak)
	}
	if cfg.Engine == EngineLocal {
		switch cfg.Speech {
		case SpeechCommand:
		case SpeechOpenAI:
			if strings.TrimSpace(cfg.OpenAIKey) == "" && strings.TrimSpace(cfg.OpenAIBaseURL) == "" {
				return errors.New("config: speech.openai.key or speech.openai.base is required (or set OPENAI_API_KEY)")
			}
		default:
			return fmt.Errorf("config: unknown speech engine %q", cfg.Speech)
		}
	}
	if _, err := extract.ParseMode(cfg.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.CacheMaxAge < 0 || cfg.FetchTimeout < 0 || cfg.SettleDelay < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if _, err := cfg.Patterns.Compile(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
