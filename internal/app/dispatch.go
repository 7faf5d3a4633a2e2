package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/extract"
	"github.com/hyperifyio/webreader/internal/settings"
	"github.com/hyperifyio/webreader/internal/voicepeak"
)

// Command types understood by Dispatch.
const (
	CmdSpeak         = "speak"
	CmdStop          = "stop"
	CmdPause         = "pause"
	CmdResume        = "resume"
	CmdStatus        = "status"
	CmdToggle        = "toggle"
	CmdReset         = "reset"
	CmdExtractPage   = "extract_page"
	CmdExtractThread = "extract_thread"
	CmdExtractAuto   = "extract_auto"
	CmdReadPage      = "read_page"
	CmdReadThread    = "read_thread"
	CmdReadAuto      = "read_auto"
	CmdGetSettings   = "get_settings"
	CmdSetSettings   = "set_settings"
)

var (
	// ErrInvalidCommand is returned for a request without a type.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownCommand is returned for a request type no handler knows.
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is one request. Extraction commands take the page from HTML when
// present, loading URL otherwise.
type Command struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	URL      string           `json:"url,omitempty"`
	HTML     string           `json:"html,omitempty"`
	Source   voicepeak.Source `json:"source,omitempty"`
	Settings map[string]any   `json:"settings,omitempty"`
}

// Response is the envelope returned for every command. It carries the same
// fields as the voicepeak protocol so either side can read the other.
type Response struct {
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
	State       string `json:"state"`
	PlayerState string `json:"player_state"`
	Chars       int    `json:"chars"`
	Chunks      int    `json:"chunks"`
	Lang        string `json:"lang,omitempty"`
	QueueLength int    `json:"queue_length"`
	ActiveJob   string `json:"active_job,omitempty"`
	Session     uint64 `json:"session,omitempty"`

	Text       string             `json:"text,omitempty"`
	Title      string             `json:"title,omitempty"`
	Mode       string             `json:"mode,omitempty"`
	Structured bool               `json:"structured,omitempty"`
	Settings   *settings.Settings `json:"settings,omitempty"`
}

func okResponse(st Status) Response {
	return Response{
		OK:          true,
		State:       st.State,
		PlayerState: st.State,
		Chars:       st.Chars,
		Chunks:      st.Chunks,
		Lang:        st.Lang,
		QueueLength: st.QueueLength,
		ActiveJob:   st.ActiveJob,
		Session:     st.Session,
	}
}

// errorResponse keeps whatever state is known alongside the failure.
func errorResponse(st Status, err error) Response {
	r := okResponse(st)
	r.OK = false
	r.Error = Message(err)
	return r
}

func withResult(r Response, res extract.Result) Response {
	r.Text = res.Text
	r.Title = res.Title
	r.Mode = string(res.Mode)
	r.Structured = res.Structured
	if r.Chars == 0 {
		r.Chars = res.Chars
	}
	return r
}

// Dispatch routes a command. It never returns an error: failures become
// responses with ok false and a short message.
func (a *App) Dispatch(ctx context.Context, cmd Command) Response {
	typ := strings.ToLower(strings.TrimSpace(cmd.Type))
	if typ == "" {
		return a.fail(ctx, cmd, ErrInvalidCommand)
	}
	switch typ {
	case CmdSpeak:
		st, err := a.Speak(ctx, cmd.Text, cmd.Source)
		if err != nil {
			return a.fail(ctx, cmd, err)
		}
		return okResponse(st)
	case CmdStop:
		return a.status(ctx, cmd, a.Backend.Stop)
	case CmdPause:
		return a.status(ctx, cmd, a.Backend.Pause)
	case CmdResume:
		return a.status(ctx, cmd, a.Backend.Resume)
	case CmdStatus:
		// An unreachable endpoint reads as idle.
		st, err := a.Backend.Status(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("status failed")
		}
		return okResponse(st)
	case CmdToggle:
		st, err := a.Toggle(ctx, cmd.URL)
		if err != nil {
			return errorResponse(st, err)
		}
		return okResponse(st)
	case CmdReset:
		return okResponse(a.Reset(ctx))
	case CmdExtractPage, CmdExtractThread, CmdExtractAuto:
		page, err := a.page(ctx, cmd)
		if err != nil {
			return a.fail(ctx, cmd, err)
		}
		res, err := a.ExtractPage(ctx, page, commandMode(typ))
		if err != nil {
			return a.fail(ctx, cmd, err)
		}
		st, _ := a.Backend.Status(ctx)
		r := okResponse(st)
		r.Chars = 0
		return withResult(r, res)
	case CmdReadPage, CmdReadThread, CmdReadAuto:
		page, err := a.page(ctx, cmd)
		if err != nil {
			return a.fail(ctx, cmd, err)
		}
		res, st, err := a.ReadPage(ctx, page, commandMode(typ))
		if err != nil {
			return withResult(errorResponse(st, err), res)
		}
		return withResult(okResponse(st), res)
	case CmdGetSettings:
		s, err := a.Settings.Load(ctx)
		if err != nil {
			return a.fail(ctx, cmd, err)
		}
		return Response{OK: true, Settings: &s}
	case CmdSetSettings:
		s, err := a.UpdateSettings(ctx, cmd.Settings)
		if err != nil {
			return a.fail(ctx, cmd, err)
		}
		return Response{OK: true, Settings: &s}
	default:
		return a.fail(ctx, cmd, ErrUnknownCommand)
	}
}

// UpdateSettings merges raw over the stored settings and saves the result.
func (a *App) UpdateSettings(ctx context.Context, raw map[string]any) (settings.Settings, error) {
	cur, err := a.Settings.Load(ctx)
	if err != nil {
		cur = settings.Defaults()
	}
	next := cur.Merge(raw)
	if err := a.Settings.Save(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

func (a *App) status(ctx context.Context, cmd Command, op func(context.Context) (Status, error)) Response {
	st, err := op(ctx)
	if err != nil {
		log.Debug().Err(err).Str("type", cmd.Type).Msg("command failed")
		return errorResponse(st, err)
	}
	return okResponse(st)
}

// fail reports err with the current backend state.
func (a *App) fail(ctx context.Context, cmd Command, err error) Response {
	log.Debug().Err(err).Str("type", cmd.Type).Msg("command failed")
	st, serr := a.Backend.Status(ctx)
	if serr != nil {
		st = Status{State: "idle"}
	}
	return errorResponse(st, err)
}

func (a *App) page(ctx context.Context, cmd Command) (extract.Page, error) {
	if cmd.HTML != "" {
		return PageFromHTML(cmd.URL, []byte(cmd.HTML))
	}
	if strings.TrimSpace(cmd.URL) == "" {
		return extract.Page{}, ErrNoURL
	}
	return a.Loader.Load(ctx, cmd.URL)
}

func commandMode(typ string) extract.Mode {
	switch {
	case strings.HasSuffix(typ, "_page"):
		return extract.ModePage
	case strings.HasSuffix(typ, "_thread"):
		return extract.ModeThread
	}
	return extract.ModeAuto
}
