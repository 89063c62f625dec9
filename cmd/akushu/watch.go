package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"akushu/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Extract again whenever the input record changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		debounce, err := cfg.Debounce()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := watch.New(cfg.InputPath, debounce, func(context.Context) error {
			res, err := extract(cfg.InputPath, cfg.OutputDir, logger)
			if err != nil {
				return err
			}
			cmd.Printf("%d problems written to %s\n", len(res.Files), cfg.OutputDir)
			return nil
		}, logger)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
