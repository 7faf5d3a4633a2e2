// Package voicepeak is a client for a remote speech synthesis endpoint that
// owns its own queue and player. The same protocol is served by
// internal/server, so a Client can drive another webreader process.
package voicepeak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is used when no endpoint is configured.
const DefaultEndpoint = "http://127.0.0.1:18766"

// TokenHeader carries the shared secret when one is configured.
const TokenHeader = "x-web-reader-token"

// Player states reported by the endpoint.
const (
	StateIdle    = "idle"
	StatePlaying = "playing"
	StatePaused  = "paused"
)

var (
	// ErrUnreachable wraps transport failures.
	ErrUnreachable = errors.New("voicepeak endpoint unreachable")
	// ErrRejected matches every *RejectedError.
	ErrRejected = errors.New("voicepeak endpoint rejected request")
)

// RejectedError is returned for non-2xx responses and for bodies with ok
// set to false. Message is suitable for display.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// Source describes where spoken text came from.
type Source struct {
	Mode  string `json:"mode"`
	URL   string `json:"url,omitempty"`
	Title string `json:"title,omitempty"`
}

// SpeakRequest is the body of POST /api/speak.
type SpeakRequest struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Response is the envelope every endpoint returns.
type Response struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	State       string `json:"state,omitempty"`
	PlayerState string `json:"player_state,omitempty"`
	QueueLength int    `json:"queue_length"`
	// ActiveJob is opaque; any value other than null, false, 0 or "" counts
	// as an active job.
	ActiveJob json.RawMessage `json:"active_job,omitempty"`
	Chars     int             `json:"chars,omitempty"`
	Chunks    int             `json:"chunks,omitempty"`
	Lang      string          `json:"lang,omitempty"`
}

// HasActiveJob reports whether ActiveJob holds a truthy value.
func (r Response) HasActiveJob() bool {
	v := strings.TrimSpace(string(r.ActiveJob))
	switch v {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// NormalizeState maps any reported state onto idle, playing or paused.
func NormalizeState(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StatePlaying:
		return StatePlaying
	case StatePaused:
		return StatePaused
	}
	return StateIdle
}

// InferState derives the player state from a status response: an explicit
// playing or paused state wins, then an active job or a non-empty queue
// means playing.
func InferState(r Response) string {
	reported := r.PlayerState
	if reported == "" {
		reported = r.State
	}
	if s := NormalizeState(reported); s != StateIdle {
		return s
	}
	if r.HasActiveJob() || r.QueueLength > 0 {
		return StatePlaying
	}
	return StateIdle
}

// stateOr normalizes r.State, using fallback when the endpoint sent none.
func stateOr(r Response, fallback string) string {
	if r.State == "" {
		return fallback
	}
	return NormalizeState(r.State)
}

// Client talks to one endpoint.
type Client struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
}

// New returns a client for endpoint with a bounded timeout.
func New(endpoint, token string) *Client {
	return &Client{Endpoint: endpoint, Token: token, HTTPClient: &http.Client{Timeout: 15 * time.Second}}
}

// NormalizeEndpoint trims whitespace and trailing slashes, defaulting to
// DefaultEndpoint.
func NormalizeEndpoint(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s == "" {
		return DefaultEndpoint
	}
	return s
}

// Speak queues text. The returned state defaults to playing.
func (c *Client) Speak(ctx context.Context, text string, src Source) (Response, string, error) {
	r, err := c.call(ctx, http.MethodPost, "/api/speak", SpeakRequest{Text: text, Source: src})
	if err != nil {
		return r, StateIdle, err
	}
	return r, stateOr(r, StatePlaying), nil
}

// Stop clears the endpoint queue.
func (c *Client) Stop(ctx context.Context) (Response, string, error) {
	r, err := c.call(ctx, http.MethodPost, "/api/stop", struct{}{})
	if err != nil {
		return r, StateIdle, err
	}
	return r, InferState(r), nil
}

// Pause pauses the endpoint player. The returned state defaults to paused.
func (c *Client) Pause(ctx context.Context) (Response, string, error) {
	r, err := c.call(ctx, http.MethodPost, "/api/pause", struct{}{})
	if err != nil {
		return r, StateIdle, err
	}
	return r, stateOr(r, StatePaused), nil
}

// Resume resumes the endpoint player. The returned state defaults to playing.
func (c *Client) Resume(ctx context.Context) (Response, string, error) {
	r, err := c.call(ctx, http.MethodPost, "/api/resume", struct{}{})
	if err != nil {
		return r, StateIdle, err
	}
	return r, stateOr(r, StatePlaying), nil
}

// Status fetches the endpoint state.
func (c *Client) Status(ctx context.Context) (Response, string, error) {
	r, err := c.call(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return r, StateIdle, err
	}
	return r, InferState(r), nil
}

func (c *Client) call(ctx context.Context, method, path string, body any) (Response, error) {
	var out Response
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return out, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	url := NormalizeEndpoint(c.Endpoint) + path
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return out, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := strings.TrimSpace(c.Token); tok != "" {
		req.Header.Set(TokenHeader, tok)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	decoded := json.Unmarshal(raw, &out) == nil
	log.Debug().Str("method", method).Str("url", url).Int("status", resp.StatusCode).Bool("ok", out.OK).Msg("voicepeak call")
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !decoded || !out.OK {
		msg := out.Error
		if !decoded || msg == "" {
			msg = fmt.Sprintf("Voicepeak endpoint error (%d).", resp.StatusCode)
		}
		return out, &RejectedError{Status: resp.StatusCode, Message: msg}
	}
	return out, nil
}
