package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ngt-labs/coughdx/internal/adapters/term"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Diagnose every WAV file dropped into a directory",
		Long:  "Watch dir (default: current directory) and upload each new WAV file once it has been fully written.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, closeFn, err := c.newClient(term.NewView(os.Stdout))
			if err != nil {
				return err
			}
			defer closeFn()
			defer client.Wait()

			c.log.Info().Str("dir", dir).Str("upload_url", client.UploadURL()).Msg("watching for recordings")
			if err := client.Watch(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
