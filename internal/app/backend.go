package app

import (
	"context"
	"strings"

	"github.com/hyperifyio/webreader/internal/player"
	"github.com/hyperifyio/webreader/internal/settings"
	"github.com/hyperifyio/webreader/internal/voicepeak"
)

// Status is the player state as reported by either backend.
type Status struct {
	State       string
	Chars       int
	Chunks      int
	Lang        string
	QueueLength int
	ActiveJob   string
	Session     uint64
}

// Backend plays text somewhere: in this process or on a remote endpoint.
type Backend interface {
	Speak(ctx context.Context, text string, src voicepeak.Source, s settings.Settings) (Status, error)
	Pause(ctx context.Context) (Status, error)
	Resume(ctx context.Context) (Status, error)
	Stop(ctx context.Context) (Status, error)
	Status(ctx context.Context) (Status, error)
}

// LocalBackend plays through an in-process player.
type LocalBackend struct {
	Player *player.Controller
}

func fromSnapshot(s player.Snapshot) Status {
	return Status{
		State:       string(s.State),
		Chars:       s.Chars,
		Chunks:      s.Chunks,
		Lang:        s.Lang,
		QueueLength: s.Remaining(),
		ActiveJob:   s.Job,
		Session:     s.Session,
	}
}

func (b *LocalBackend) Speak(ctx context.Context, text string, _ voicepeak.Source, s settings.Settings) (Status, error) {
	snap, err := b.Player.Start(ctx, text, s)
	return fromSnapshot(snap), err
}

func (b *LocalBackend) Pause(context.Context) (Status, error) {
	snap, err := b.Player.Pause()
	return fromSnapshot(snap), err
}

func (b *LocalBackend) Resume(context.Context) (Status, error) {
	snap, err := b.Player.Resume()
	return fromSnapshot(snap), err
}

func (b *LocalBackend) Stop(context.Context) (Status, error) {
	return fromSnapshot(b.Player.Stop()), nil
}

func (b *LocalBackend) Status(context.Context) (Status, error) {
	return fromSnapshot(b.Player.Status()), nil
}

// RemoteBackend forwards to a voicepeak endpoint, which owns synthesis
// settings; only the text and its source are sent.
type RemoteBackend struct {
	Client *voicepeak.Client
}

func fromResponse(r voicepeak.Response, state string) Status {
	return Status{
		State:       state,
		Chars:       r.Chars,
		Chunks:      r.Chunks,
		Lang:        r.Lang,
		QueueLength: r.QueueLength,
		ActiveJob:   activeJob(r),
	}
}

// activeJob renders the opaque active_job value as a string.
func activeJob(r voicepeak.Response) string {
	if !r.HasActiveJob() {
		return ""
	}
	return strings.Trim(string(r.ActiveJob), `"`)
}

func (b *RemoteBackend) Speak(ctx context.Context, text string, src voicepeak.Source, _ settings.Settings) (Status, error) {
	r, state, err := b.Client.Speak(ctx, text, src)
	return fromResponse(r, state), err
}

func (b *RemoteBackend) Pause(ctx context.Context) (Status, error) {
	r, state, err := b.Client.Pause(ctx)
	return fromResponse(r, state), err
}

func (b *RemoteBackend) Resume(ctx context.Context) (Status, error) {
	r, state, err := b.Client.Resume(ctx)
	return fromResponse(r, state), err
}

func (b *RemoteBackend) Stop(ctx context.Context) (Status, error) {
	r, state, err := b.Client.Stop(ctx)
	return fromResponse(r, state), err
}

// Status reports idle when the endpoint cannot be reached, matching a
// player that is not running.
func (b *RemoteBackend) Status(ctx context.Context) (Status, error) {
	r, state, err := b.Client.Status(ctx)
	return fromResponse(r, state), err
}
