package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/webreader/internal/app"
	"github.com/hyperifyio/webreader/internal/settings"
)

func newSettingsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change playback settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the stored settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			return o.printSettings(cmd, a.Dispatch(cmd.Context(), app.Command{Type: app.CmdGetSettings}))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Change settings; values are clamped to their ranges",
		Long:  "Keys: " + strings.Join(settings.Keys(), ", ") + ".",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := map[string]any{}
			for _, arg := range args {
				k, v, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected KEY=VALUE, got %q", arg)
				}
				raw[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
			a, err := o.newApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			return o.printSettings(cmd, a.Dispatch(cmd.Context(), app.Command{Type: app.CmdSetSettings, Settings: raw}))
		},
	})
	return cmd
}

func (o *options) printSettings(cmd *cobra.Command, resp app.Response) error {
	if !resp.OK || resp.Settings == nil || o.jsonOut {
		return o.report(cmd.OutOrStdout(), resp, "")
	}
	m := resp.Settings.Map()
	for _, k := range settings.Keys() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%v\n", k, m[k])
	}
	return nil
}
