package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Inspect the process slot table",
	}

	cmd.AddCommand(processListCmd())
	cmd.AddCommand(processShowCmd())

	return cmd
}

// --- process list ---

func processListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every slot in the process table",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			processes, err := client.ListProcesses(context.Background())
			if err != nil {
				return fmt.Errorf("list processes: %w", err)
			}

			out, err := formatProcesses(processes, outputFormat)
			if err != nil {
				return fmt.Errorf("format processes: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}

// --- process show ---

func processShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slot-id>",
		Short: "Show details of a single process slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("slot id must be an integer: %w", err)
			}

			p, err := client.GetProcess(context.Background(), id)
			if err != nil {
				return fmt.Errorf("get process: %w", err)
			}

			out, err := formatProcess(p, outputFormat)
			if err != nil {
				return fmt.Errorf("format process: %w", err)
			}

			fmt.Print(out)

			return nil
		},
	}
}
