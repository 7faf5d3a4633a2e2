package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/webreader/internal/app"
)

// commandError carries the message of a refused command.
type commandError struct{ msg string }

func (e *commandError) Error() string { return e.msg }

// report prints resp and turns a refusal into an error.
func (o *options) report(w io.Writer, resp app.Response, done string) error {
	if o.jsonOut {
		if err := printJSON(w, resp); err != nil {
			return err
		}
	} else if resp.OK {
		fmt.Fprintln(w, done)
	}
	if !resp.OK {
		return &commandError{msg: resp.Error}
	}
	return nil
}

func describe(resp app.Response) string {
	if resp.State == "" || resp.State == "idle" {
		return "idle"
	}
	s := fmt.Sprintf("%s (%d chars / %d chunks", resp.State, resp.Chars, resp.Chunks)
	if resp.Lang != "" {
		s += ", " + resp.Lang
	}
	if resp.QueueLength > 0 {
		s += fmt.Sprintf(", queue: %d", resp.QueueLength)
	}
	return s + ")"
}

var doneMessages = map[string]string{
	app.CmdPause:  "Paused.",
	app.CmdResume: "Resumed.",
	app.CmdStop:   "Stopped.",
	app.CmdReset:  "Reset.",
}

// newControlCmd builds a command sent to the endpoint, which is either a
// Voicepeak server or `webreader serve`.
func newControlCmd(o *options, use, short, typ string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.newApp(ctx, true)
			if err != nil {
				return err
			}
			resp := a.Dispatch(ctx, app.Command{Type: typ})
			done, ok := doneMessages[typ]
			if !ok {
				done = describe(resp)
			}
			return o.report(cmd.OutOrStdout(), resp, done)
		},
	}
}

func newToggleCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [URL]",
		Short: "Pause when playing, resume when paused, otherwise read URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.newApp(ctx, true)
			if err != nil {
				return err
			}
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			before, _ := a.Backend.Status(ctx)
			st, err := a.Toggle(ctx, url)
			if err != nil {
				if errors.Is(err, app.ErrNoURL) {
					return &commandError{msg: "Nothing is playing; give a URL to start reading."}
				}
				return err
			}
			switch {
			case before.State == "playing":
				fmt.Fprintln(cmd.OutOrStdout(), "Paused.")
			case before.State == "paused":
				fmt.Fprintln(cmd.OutOrStdout(), "Resumed.")
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "Queued (queue: %d).\n", st.QueueLength)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.VersionString())
			return err
		},
	}
}
