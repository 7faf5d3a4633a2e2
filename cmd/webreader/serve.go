package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/webreader/internal/app"
	"github.com/hyperifyio/webreader/internal/observe"
	"github.com/hyperifyio/webreader/internal/server"
)

func newServeCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control API with a local player",
		Long: `serve plays text in this process and exposes it on the voicepeak
protocol (/api/speak, /api/pause, ...) plus /api/command, /api/settings,
/api/events (websocket) and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := interruptible(cmd.Context())
			defer stop()

			shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: app.BuildVersion})
			if err != nil {
				return err
			}
			cfg := o.cfg
			cfg.Engine = app.EngineLocal
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			h := server.Handler(a, server.Options{
				Token:   cfg.Token,
				Events:  a.Player,
				Metrics: a.Metrics,
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Serve(gctx, cfg.Listen, h)
			})
			g.Go(func() error {
				<-gctx.Done()
				a.Reset(context.WithoutCancel(gctx))
				return shutdownMetrics(context.WithoutCancel(gctx))
			})
			err = g.Wait()
			log.Info().Msg("server stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&o.cfg.Listen, "listen", o.cfg.Listen, "Address to listen on")
	return cmd
}
