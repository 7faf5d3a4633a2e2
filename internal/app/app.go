// Package app wires configuration, page loading, extraction and playback
// into the operations exposed by the CLI and the control server.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/cache"
	"github.com/hyperifyio/webreader/internal/extract"
	"github.com/hyperifyio/webreader/internal/fetch"
	"github.com/hyperifyio/webreader/internal/noise"
	"github.com/hyperifyio/webreader/internal/observe"
	"github.com/hyperifyio/webreader/internal/player"
	"github.com/hyperifyio/webreader/internal/settings"
	"github.com/hyperifyio/webreader/internal/voicepeak"
)

// App holds the collaborators of one webreader process.
type App struct {
	cfg       Config
	Extractor *extract.Extractor
	Loader    Loader
	Backend   Backend
	Settings  settings.Store
	Metrics   *observe.Metrics
	// Player is set for the local backend.
	Player *player.Controller
}

// New builds an App from cfg. The local backend gets a player driving the
// configured speech engine; the voicepeak backend forwards to the endpoint.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	patterns, err := cfg.Patterns.Compile()
	if err != nil {
		return nil, err
	}
	hc := newHTTPClient(cfg.FetchTimeout)

	ex := extract.New()
	ex.Filter = &noise.Filter{Patterns: patterns}
	if cfg.SettleDelay > 0 {
		ex.SettleDelay = cfg.SettleDelay
	}

	fc := &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       2,
		PerRequestTimeout: 15 * time.Second,
		MaxConcurrent:     4,
	}
	if cfg.CacheDir != "" {
		// Apply cache invalidation controls
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			// Purge by age; errors must not fail startup
			_, _ = cache.PurgeHTTPByAge(httpCacheDir(cfg.CacheDir), cfg.CacheMaxAge)
			_, _ = cache.PurgeAudioByAge(audioCacheDir(cfg.CacheDir), cfg.CacheMaxAge)
		}
		fc.Cache = &cache.HTTPCache{Dir: httpCacheDir(cfg.CacheDir), StrictPerms: cfg.CacheStrictPerms}
	}

	var store settings.Store = settings.NewMemoryStore(settings.Defaults())
	if cfg.SettingsPath != "" {
		store = &settings.FileStore{Path: cfg.SettingsPath}
	}

	a := &App{
		cfg:       cfg,
		Extractor: ex,
		Loader:    &FetchLoader{Client: fc},
		Settings:  store,
		Metrics:   observe.DefaultMetrics(),
	}

	switch cfg.Engine {
	case EngineVoicepeak:
		vc := voicepeak.New(cfg.Endpoint, cfg.Token)
		vc.HTTPClient = hc
		a.Backend = &RemoteBackend{Client: vc}
		log.Debug().Str("endpoint", voicepeak.NormalizeEndpoint(cfg.Endpoint)).Msg("using voicepeak backend")
	default:
		engine, err := NewEngine(cfg, hc)
		if err != nil {
			return nil, err
		}
		a.Player = player.New(engine, player.WithMetrics(a.Metrics))
		a.Backend = &LocalBackend{Player: a.Player}
		log.Debug().Str("speech", cfg.Speech).Msg("using local backend")
	}
	if s, err := store.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("settings unreadable, defaults apply")
	} else {
		log.Debug().Float64("rate", s.Rate).Int("maxChars", s.MaxChars).Int("chunkChars", s.ChunkChars).Msg("settings loaded")
	}
	return a, nil
}

// Config returns the configuration the App was built with.
func (a *App) Config() Config { return a.cfg }

// DefaultMode is the configured extraction mode.
func (a *App) DefaultMode() extract.Mode {
	m, err := extract.ParseMode(a.cfg.Mode)
	if err != nil {
		return extract.ModeAuto
	}
	return m
}

// ExtractPage runs extraction on an already loaded page.
func (a *App) ExtractPage(ctx context.Context, page extract.Page, mode extract.Mode) (extract.Result, error) {
	res, err := a.Extractor.Extract(ctx, page, mode)
	effective := string(mode)
	if err == nil {
		effective = string(res.Mode)
	}
	a.Metrics.RecordExtraction(ctx, effective, err)
	if err != nil {
		return res, err
	}
	log.Info().Str("url", page.URL).Str("mode", effective).Bool("structured", res.Structured).Int("chars", res.Chars).Msg("extracted")
	return res, nil
}

// Extract loads url and extracts its text.
func (a *App) Extract(ctx context.Context, url string, mode extract.Mode) (extract.Result, error) {
	page, err := a.Loader.Load(ctx, url)
	if err != nil {
		return extract.Result{}, err
	}
	return a.ExtractPage(ctx, page, mode)
}

// Speak plays text with the stored settings.
func (a *App) Speak(ctx context.Context, text string, src voicepeak.Source) (Status, error) {
	s, err := a.Settings.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("settings load failed, using defaults")
		s = settings.Defaults()
	}
	return a.Backend.Speak(ctx, text, src, s)
}

// ReadPage extracts page and plays the result.
func (a *App) ReadPage(ctx context.Context, page extract.Page, mode extract.Mode) (extract.Result, Status, error) {
	res, err := a.ExtractPage(ctx, page, mode)
	if err != nil {
		return res, Status{State: string(player.Idle)}, err
	}
	st, err := a.Speak(ctx, res.Text, voicepeak.Source{Mode: string(res.Mode), URL: page.URL, Title: res.Title})
	return res, st, err
}

// Read loads url, extracts it and plays the result.
func (a *App) Read(ctx context.Context, url string, mode extract.Mode) (extract.Result, Status, error) {
	page, err := a.Loader.Load(ctx, url)
	if err != nil {
		return extract.Result{}, Status{State: string(player.Idle)}, err
	}
	return a.ReadPage(ctx, page, mode)
}

// Toggle pauses a playing backend, resumes a paused one and otherwise reads
// url in auto mode. An unreachable endpoint counts as idle.
func (a *App) Toggle(ctx context.Context, url string) (Status, error) {
	st, err := a.Backend.Status(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("status failed, treating as idle")
		st.State = string(player.Idle)
	}
	switch st.State {
	case string(player.Playing):
		return a.Backend.Pause(ctx)
	case string(player.Paused):
		return a.Backend.Resume(ctx)
	}
	if url == "" {
		return st, ErrNoURL
	}
	_, st, err = a.Read(ctx, url, extract.ModeAuto)
	return st, err
}

// Reset stops playback. Transport failures are logged and swallowed so
// Reset is idempotent.
func (a *App) Reset(ctx context.Context) Status {
	st, err := a.Backend.Stop(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("stop during reset failed")
	}
	if a.Player != nil {
		a.Player.Stop()
	}
	return Status{State: string(player.Idle), Session: st.Session}
}

// Wait blocks until local playback ends. It returns at once for the remote
// backend.
func (a *App) Wait(ctx context.Context) error {
	if a.Player == nil {
		return nil
	}
	return a.Player.Wait(ctx)
}

// ErrNoURL is returned when an operation needs a page but none was given.
var ErrNoURL = errors.New("no page url given")

// IsNoContent reports whether err means nothing readable was found.
func IsNoContent(err error) bool {
	return errors.Is(err, extract.ErrNoContent) || errors.Is(err, player.ErrNoText)
}
