// Package speech defines the text-to-speech engine contract used by the
// player and the engines that implement it.
package speech

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by engines that cannot perform an operation,
// such as pausing a file sink.
var ErrUnsupported = errors.New("speech: operation not supported")

// Voice is a voice offered by an engine. Lang is a BCP 47 tag and may be
// empty for multilingual voices.
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

// Utterance is one chunk of text with its prosody.
type Utterance struct {
	Text   string
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
	// Voice is nil when no voice matched the language.
	Voice *Voice
}

// Engine speaks one utterance at a time.
type Engine interface {
	// Speak blocks until the utterance finished, failed, or ctx ended.
	Speak(ctx context.Context, u Utterance) error
	// Pause and Resume suspend and continue the utterance in flight. A
	// pause made between utterances holds the next one until Resume.
	Pause() error
	Resume() error
	// Cancel aborts the utterance in flight, if any. It does not block.
	Cancel()
	// Active reports whether an utterance is in flight.
	Active() bool
	Voices() []Voice
}
