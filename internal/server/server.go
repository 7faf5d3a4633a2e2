// Package server exposes a webreader process over HTTP. The /api routes
// speak the voicepeak protocol, so a voicepeak.Client in another process
// can drive the player served here.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/app"
	"github.com/hyperifyio/webreader/internal/observe"
	"github.com/hyperifyio/webreader/internal/player"
	"github.com/hyperifyio/webreader/internal/settings"
	"github.com/hyperifyio/webreader/internal/voicepeak"
)

// maxBody caps request bodies; commands may carry a page snapshot.
const maxBody = 16 << 20

// Dispatcher executes commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd app.Command) app.Response
}

// Events is the source of the /api/events stream.
type Events interface {
	player.Reporter
	Subscribe() (<-chan player.Snapshot, func())
}

// Options configures Handler.
type Options struct {
	// Token, when set, must be sent in the x-web-reader-token header, or
	// as the token query parameter on /api/events.
	Token   string
	Events  Events
	Metrics *observe.Metrics
	// MetricsHandler serves /metrics. Nil means promhttp.Handler().
	MetricsHandler http.Handler
}

// Handler returns the routes served by `webreader serve`.
func Handler(d Dispatcher, opts Options) http.Handler {
	s := &server{d: d, opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/speak", s.auth(s.handleSpeak))
	mux.HandleFunc("POST /api/stop", s.auth(s.simple(app.CmdStop)))
	mux.HandleFunc("POST /api/pause", s.auth(s.simple(app.CmdPause)))
	mux.HandleFunc("POST /api/resume", s.auth(s.simple(app.CmdResume)))
	mux.HandleFunc("GET /api/status", s.auth(s.simple(app.CmdStatus)))
	mux.HandleFunc("POST /api/command", s.auth(s.handleCommand))
	mux.HandleFunc("GET /api/settings", s.auth(s.simple(app.CmdGetSettings)))
	mux.HandleFunc("PUT /api/settings", s.auth(s.handlePutSettings))
	mux.HandleFunc("GET /api/events", s.auth(s.handleEvents))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "version": app.BuildVersion})
	})
	mh := opts.MetricsHandler
	if mh == nil {
		mh = promhttp.Handler()
	}
	mux.Handle("GET /metrics", mh)
	return observe.Middleware(opts.Metrics)(mux)
}

type server struct {
	d    Dispatcher
	opts Options
}

func (s *server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Token == "" {
			next(w, r)
			return
		}
		got := r.Header.Get(voicepeak.TokenHeader)
		if got == "" && r.URL.Path == "/api/events" {
			got = r.URL.Query().Get("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.Token)) != 1 {
			log.Debug().Str("path", r.URL.Path).Msg("rejected request with bad token")
			writeJSON(w, http.StatusUnauthorized, app.Response{Error: "Invalid token."})
			return
		}
		next(w, r)
	}
}

func (s *server) simple(typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, s.d.Dispatch(r.Context(), app.Command{Type: typ}))
	}
}

func (s *server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req voicepeak.SpeakRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, app.Response{Error: "Invalid request body."})
		return
	}
	s.respond(w, s.d.Dispatch(r.Context(), app.Command{Type: app.CmdSpeak, Text: req.Text, Source: req.Source}))
}

func (s *server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd app.Command
	if err := decode(r, &cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, app.Response{Error: "Invalid command."})
		return
	}
	s.respond(w, s.d.Dispatch(r.Context(), cmd))
}

func (s *server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	raw := map[string]any{}
	if err := decode(r, &raw); err != nil {
		writeJSON(w, http.StatusBadRequest, app.Response{Error: "Invalid request body."})
		return
	}
	// Accept either the bare record or {"settings": {...}}.
	if nested, ok := raw["settings"].(map[string]any); ok {
		raw = nested
	}
	for k := range raw {
		if !known(k) {
			delete(raw, k)
		}
	}
	s.respond(w, s.d.Dispatch(r.Context(), app.Command{Type: app.CmdSetSettings, Settings: raw}))
}

func known(key string) bool {
	for _, k := range settings.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// respond writes a dispatched response. Failures use 400 so that either
// the status or the ok field tells a client the request was refused.
func (s *server) respond(w http.ResponseWriter, resp app.Response) {
	code := http.StatusOK
	if !resp.OK {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, resp)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response failed")
	}
}

// Serve runs h on addr until ctx ends, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
