package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func runningCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "running",
		Short: "List the slots currently in the Running set",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			entries, err := client.Running(context.Background())
			if err != nil {
				return fmt.Errorf("list running set: %w", err)
			}

			out, err := formatRunning(entries, outputFormat)
			if err != nil {
				return fmt.Errorf("format running set: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}
