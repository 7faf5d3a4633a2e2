package app

import (
	"os"
	"strings"
	"time"
)

// envPrefix namespaces every variable read by ApplyEnvOverrides.
const envPrefix = "WEBREADER_"

func getenv(key string) string { return strings.TrimSpace(os.Getenv(envPrefix + key)) }

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence
// over values coming from a config file while flags remain highest
// precedence. OPENAI_API_KEY and OPENAI_BASE_URL are honoured as fallbacks
// for the OpenAI speech engine.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := getenv("ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := getenv("ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := getenv("TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := getenv("LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := getenv("SETTINGS_FILE"); v != "" {
		cfg.SettingsPath = v
	}

	if v := getenv("SPEECH"); v != "" {
		cfg.Speech = v
	}
	if v := getenv("SPEECH_COMMAND"); v != "" {
		cfg.Command = v
	}
	if v := getenv("SPEECH_ARGS"); v != "" {
		cfg.CommandArgs = strings.Fields(v)
	}
	if v := getenv("PLAYER"); v != "" {
		cfg.PlayerCommand = strings.Fields(v)
	}
	if v := getenv("AUDIO_DIR"); v != "" {
		cfg.AudioDir = v
	}

	if v := getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" && cfg.OpenAIBaseURL == "" {
		cfg.OpenAIBaseURL = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.OpenAIKey == "" {
		cfg.OpenAIKey = v
	}
	if v := getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	if v := getenv("OPENAI_VOICE"); v != "" {
		cfg.OpenAIVoice = v
	}

	if v := getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := getenv("MODE"); v != "" {
		cfg.Mode = v
	}

	setDuration := func(dst *time.Duration, key string) {
		if s := getenv(key); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT")
	setDuration(&cfg.SettleDelay, "SETTLE_DELAY")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(getenv(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
