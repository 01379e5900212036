package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngt-labs/coughdx/internal/adapters/term"
)

func newSubmitCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file.wav>...",
		Short: "Upload recorded WAV files and show each diagnosis",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, closeFn, err := c.newClient(term.NewView(os.Stdout))
			if err != nil {
				return err
			}
			defer closeFn()
			defer client.Wait()

			failed := 0
			for _, path := range args {
				outcome, err := client.SubmitFile(cmd.Context(), path)
				if err != nil {
					c.log.Error().Err(err).Str("file", path).Msg("read clip")
					failed++
					continue
				}
				if !outcome.OK() {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d clips were not diagnosed", failed, len(args))
			}
			return nil
		},
	}
}
