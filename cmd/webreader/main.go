// Command webreader reads web pages aloud.
//
// Usage:
//
//	webreader [flags] <command> [args]
//
// Commands:
//
//	extract URL    print the readable text of a page
//	read URL       extract a page and play it
//	speak [TEXT]   play text from the arguments or stdin
//	serve          run the control API with a local player
//	toggle URL     pause, resume or start reading on the endpoint
//	pause, resume, stop, reset, status
//	               control the player behind --endpoint
//	settings get|set
//	               show or change rate, pitch, volume and chunking
//	version        print build information
package main

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg(userMessage(err))
		// Exit code policy: 2 when nothing readable was found, 1 otherwise.
		if app.IsNoContent(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// userMessage is the short text shown for a failed command.
func userMessage(err error) string {
	var ce *commandError
	if errors.As(err, &ce) {
		return ce.msg
	}
	return app.Message(err)
}
