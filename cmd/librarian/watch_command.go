package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"librarian/internal/history"
	"librarian/internal/manifest"
	"librarian/internal/notify"
	"librarian/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the optical drives and resolve inserted discs",
		Long: `Poll the optical drives for new discs and run each one through scan,
title resolution, history, and manifest persistence. Runs until
interrupted unless --once is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}
			client, err := ctx.newDiscClient(cfg)
			if err != nil {
				return err
			}
			// The watch loop never prompts; ambiguous discs land in review.
			resolver, err := ctx.newResolver(cfg, logger, false)
			if err != nil {
				return err
			}

			hist, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer hist.Close()

			manifests, err := manifest.NewStore(cfg.Paths.ManifestDir)
			if err != nil {
				return fmt.Errorf("open manifest store: %w", err)
			}

			w, err := watcher.New(cfg, client, resolver, hist, manifests, notify.NewService(cfg), logger)
			if err != nil {
				return err
			}

			if once {
				w.RunOnce(cmd.Context())
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(runCtx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Watching for discs; press Ctrl-C to stop")
			<-runCtx.Done()
			w.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single detection pass and exit")
	return cmd
}
