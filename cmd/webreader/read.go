package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/webreader/internal/app"
	"github.com/hyperifyio/webreader/internal/extract"
	"github.com/hyperifyio/webreader/internal/voicepeak"
)

func modeFlag(cmd *cobra.Command, o *options) {
	cmd.Flags().StringVar(&o.cfg.Mode, "mode", o.cfg.Mode, "Extraction mode: auto, page or thread")
}

func (o *options) mode() (extract.Mode, error) {
	return extract.ParseMode(o.cfg.Mode)
}

// loadPage reads url, or parses snapshot as the page at url when given.
func loadPage(ctx context.Context, a *app.App, url, snapshot string) (extract.Page, error) {
	if snapshot == "" {
		return a.Loader.Load(ctx, url)
	}
	b, err := os.ReadFile(snapshot)
	if err != nil {
		return extract.Page{}, err
	}
	return app.PageFromHTML(url, b)
}

func newExtractCmd(o *options) *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "extract URL",
		Short: "Print the readable text of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := o.mode()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := o.newApp(ctx, false)
			if err != nil {
				return err
			}
			page, err := loadPage(ctx, a, args[0], snapshot)
			if err != nil {
				return err
			}
			res, err := a.ExtractPage(ctx, page, mode)
			if err != nil {
				return err
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"text": res.Text, "title": res.Title, "mode": res.Mode,
					"structured": res.Structured, "chars": res.Chars,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return err
		},
	}
	modeFlag(cmd, o)
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Parse this saved HTML file as the page at URL instead of fetching")
	return cmd
}

// interruptible returns a context cancelled by SIGINT or SIGTERM.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// play speaks through a, waiting for local playback to finish. An
// interrupt stops the player.
func play(ctx context.Context, cmd *cobra.Command, a *app.App, st app.Status, wait bool) error {
	if a.Player == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Queued to Voicepeak (queue: %d).\n", st.QueueLength)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started (%d chars / %d chunks).\n", st.Chars, st.Chunks)
	if !wait {
		return nil
	}
	ctx, stop := interruptible(ctx)
	defer stop()
	if err := a.Wait(ctx); err != nil {
		a.Reset(context.WithoutCancel(ctx))
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("interrupted")
			return nil
		}
		return err
	}
	return nil
}

func newReadCmd(o *options) *cobra.Command {
	var snapshot string
	var noWait bool
	cmd := &cobra.Command{
		Use:   "read URL",
		Short: "Extract a page and play it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := o.mode()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := o.newApp(ctx, false)
			if err != nil {
				return err
			}
			page, err := loadPage(ctx, a, args[0], snapshot)
			if err != nil {
				return err
			}
			_, st, err := a.ReadPage(ctx, page, mode)
			if err != nil {
				return err
			}
			return play(ctx, cmd, a, st, !noWait)
		},
	}
	modeFlag(cmd, o)
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Parse this saved HTML file as the page at URL instead of fetching")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return once playback started (remote backends always do)")
	return cmd
}

func newSpeakCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "speak [TEXT...]",
		Short: "Play text from the arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 || text == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}
			ctx := cmd.Context()
			a, err := o.newApp(ctx, false)
			if err != nil {
				return err
			}
			st, err := a.Speak(ctx, text, voicepeak.Source{Mode: "text"})
			if err != nil {
				return err
			}
			return play(ctx, cmd, a, st, true)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
