package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperifyio/webreader/internal/extract"
	"github.com/hyperifyio/webreader/internal/fetch"
	"github.com/hyperifyio/webreader/internal/player"
	"github.com/hyperifyio/webreader/internal/voicepeak"
)

// Message returns the short human-readable text shown for err. Structured
// error values never cross the request boundary.
func Message(err error) string {
	var rejected *voicepeak.RejectedError
	var status *fetch.StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, extract.ErrNotThreadPage):
		return "Current page is not x.com/twitter.com."
	case errors.Is(err, extract.ErrNoThreadContent):
		return "No thread/article text found on this X page."
	case errors.Is(err, extract.ErrNoContent), errors.Is(err, player.ErrNoText):
		return "No readable text found."
	case errors.Is(err, player.ErrNotPlaying):
		return "Playback is not playing."
	case errors.Is(err, player.ErrNoActivePlayback):
		return "No active playback."
	case errors.Is(err, player.ErrNotPaused):
		return "Playback is not paused."
	case errors.Is(err, ErrInvalidCommand):
		return "Invalid command."
	case errors.Is(err, ErrUnknownCommand):
		return "Unknown command."
	case errors.Is(err, ErrNoURL):
		return "No page URL given."
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, voicepeak.ErrUnreachable):
		return "Voicepeak endpoint is unreachable."
	case errors.Is(err, fetch.ErrUnsupportedScheme):
		return "Only http(s) pages can be read."
	case errors.Is(err, fetch.ErrUnsupportedContentType):
		return "Page is not HTML."
	case errors.As(err, &status):
		return fmt.Sprintf("Failed to load page (%d).", status.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	}
	return "Request failed."
}
