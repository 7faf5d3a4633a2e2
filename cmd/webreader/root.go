package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/webreader/internal/app"
)

// options holds the persistent flags.
type options struct {
	configPath string
	envFiles   []string
	verbose    bool
	jsonOut    bool

	cfg app.Config
}

func newRootCmd() *cobra.Command {
	o := &options{cfg: app.DefaultConfig()}
	root := &cobra.Command{
		Use:   "webreader",
		Short: "Read web pages aloud",
		Long: `webreader extracts the readable prose of a web page, including x.com
threads and long-form articles, and plays it through a speech engine.

Configuration precedence is flags > environment (WEBREADER_*) > config file
(YAML or JSON) > defaults.

Examples:
  # Print the text of a thread
  webreader extract --mode thread https://x.com/someone/status/1234567890

  # Run a local player and drive it from another shell
  webreader serve
  webreader toggle https://example.com/article
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "Path to a YAML or JSON config file")
	f.StringSliceVar(&o.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose logging")
	f.BoolVar(&o.jsonOut, "json", false, "Print responses as JSON")
	f.StringVar(&o.cfg.Engine, "engine", o.cfg.Engine, "Playback backend: local or voicepeak")
	f.StringVar(&o.cfg.Endpoint, "endpoint", "", "Voicepeak or webreader serve endpoint (default http://127.0.0.1:18766)")
	f.StringVar(&o.cfg.Token, "token", "", "Shared token sent as x-web-reader-token")
	f.StringVar(&o.cfg.SettingsPath, "settings", defaultSettingsPath(), "Settings file (YAML); empty keeps settings in memory")
	f.StringVar(&o.cfg.Speech, "speech", o.cfg.Speech, "Local speech engine: command or openai")
	f.StringVar(&o.cfg.Command, "speech.command", "", "Synthesizer run by the command engine (default espeak-ng)")
	f.StringVar(&o.cfg.OpenAIModel, "speech.model", "", "OpenAI speech model")
	f.StringVar(&o.cfg.OpenAIVoice, "speech.voice", "", "OpenAI speech voice")
	f.StringVar(&o.cfg.AudioDir, "speech.audioDir", o.cfg.AudioDir, "Directory receiving rendered audio when no player is set")
	f.StringVar(&o.cfg.CacheDir, "cache.dir", o.cfg.CacheDir, "Cache directory path")
	f.DurationVar(&o.cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	f.BoolVar(&o.cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	f.BoolVar(&o.cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	f.StringVar(&o.cfg.UserAgent, "ua", o.cfg.UserAgent, "User-Agent for page requests")

	root.AddCommand(
		newExtractCmd(o),
		newReadCmd(o),
		newSpeakCmd(o),
		newServeCmd(o),
		newToggleCmd(o),
		newControlCmd(o, "pause", "Pause the player", app.CmdPause),
		newControlCmd(o, "resume", "Resume the player", app.CmdResume),
		newControlCmd(o, "stop", "Stop the player", app.CmdStop),
		newControlCmd(o, "reset", "Stop the player, ignoring an unreachable endpoint", app.CmdReset),
		newControlCmd(o, "status", "Show the player state", app.CmdStatus),
		newSettingsCmd(o),
		newVersionCmd(),
	)
	return root
}

// load layers env files, the config file and the environment under the
// flags explicitly set on the command line.
func (o *options) load(cmd *cobra.Command) error {
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return err
	}
	flagged := o.cfg
	cfg := o.cfg
	if strings.TrimSpace(o.configPath) != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return err
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	reapplyFlags(cmd, &cfg, flagged)
	if o.verbose {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	o.cfg = cfg
	return nil
}

// reapplyFlags restores the flags the user set so they win over env.
func reapplyFlags(cmd *cobra.Command, cfg *app.Config, flagged app.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	set := map[string]func(){
		"engine":            func() { cfg.Engine = flagged.Engine },
		"endpoint":          func() { cfg.Endpoint = flagged.Endpoint },
		"token":             func() { cfg.Token = flagged.Token },
		"settings":          func() { cfg.SettingsPath = flagged.SettingsPath },
		"speech":            func() { cfg.Speech = flagged.Speech },
		"speech.command":    func() { cfg.Command = flagged.Command },
		"speech.model":      func() { cfg.OpenAIModel = flagged.OpenAIModel },
		"speech.voice":      func() { cfg.OpenAIVoice = flagged.OpenAIVoice },
		"speech.audioDir":   func() { cfg.AudioDir = flagged.AudioDir },
		"cache.dir":         func() { cfg.CacheDir = flagged.CacheDir },
		"cache.maxAge":      func() { cfg.CacheMaxAge = flagged.CacheMaxAge },
		"cache.clear":       func() { cfg.CacheClear = flagged.CacheClear },
		"cache.strictPerms": func() { cfg.CacheStrictPerms = flagged.CacheStrictPerms },
		"ua":                func() { cfg.UserAgent = flagged.UserAgent },
		"listen":            func() { cfg.Listen = flagged.Listen },
		"mode":              func() { cfg.Mode = flagged.Mode },
	}
	for name, apply := range set {
		if changed(name) {
			apply()
		}
	}
}

// newApp builds the App for o, optionally forcing the remote backend.
func (o *options) newApp(ctx context.Context, remote bool) (*app.App, error) {
	cfg := o.cfg
	if remote {
		cfg.Engine = app.EngineVoicepeak
	}
	return app.New(ctx, cfg)
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "webreader", "settings.yaml")
}
