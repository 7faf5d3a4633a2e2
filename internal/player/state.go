package player

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/webreader/internal/speech"
)

// State is the playback state.
type State string

const (
	Idle    State = "idle"
	Playing State = "playing"
	Paused  State = "paused"
)

var (
	// ErrInvalidState is returned when pause or resume is requested from a
	// state that does not allow it.
	ErrInvalidState = errors.New("invalid player state")
	// ErrNotPlaying, ErrNoActivePlayback and ErrNotPaused refine
	// ErrInvalidState.
	ErrNotPlaying       = fmt.Errorf("%w: not playing", ErrInvalidState)
	ErrNoActivePlayback = fmt.Errorf("%w: no active playback", ErrInvalidState)
	ErrNotPaused        = fmt.Errorf("%w: not paused", ErrInvalidState)
	// ErrNoText is returned by Start when the text yields no chunks.
	ErrNoText = errors.New("no readable text")
)

// Snapshot is the reported player state. Chars, Chunks and Lang describe
// the current run and are zero when idle.
type Snapshot struct {
	State  State  `json:"state"`
	Chars  int    `json:"chars"`
	Chunks int    `json:"chunks"`
	Lang   string `json:"lang,omitempty"`
	// Session is the epoch of the run.
	Session uint64 `json:"session"`
	// Index counts the chunks completed in this run.
	Index int `json:"index"`
	// Job identifies the run and is empty when idle.
	Job string `json:"job,omitempty"`
}

// Remaining is the number of chunks not yet completed.
func (s Snapshot) Remaining() int {
	if s.State == Idle || s.Index >= s.Chunks {
		return 0
	}
	return s.Chunks - s.Index
}

// Reporter exposes the current state without granting control.
type Reporter interface {
	Status() Snapshot
}

// PickVoice selects a voice for lang: an exact tag match, then a match of
// the two-letter language prefix, then the first voice. It returns nil when
// there are no voices.
func PickVoice(voices []speech.Voice, lang string) *speech.Voice {
	if len(voices) == 0 {
		return nil
	}
	for i := range voices {
		if strings.EqualFold(voices[i].Lang, lang) {
			return &voices[i]
		}
	}
	if len(lang) >= 2 {
		prefix := strings.ToLower(lang[:2])
		for i := range voices {
			if strings.HasPrefix(strings.ToLower(voices[i].Lang), prefix) {
				return &voices[i]
			}
		}
	}
	return &voices[0]
}
