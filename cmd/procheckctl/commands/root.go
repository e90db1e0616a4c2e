// Package commands implements the procheckctl CLI commands.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	client       *APIClient
	outputFormat string
	serverAddr   string
)

var rootCmd = &cobra.Command{
	Use:   "procheckctl",
	Short: "CLI client for the procheckd daemon",
	Long:  "procheckctl communicates with the procheckd daemon's admin API to inspect the process slot table.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		client = NewAPIClient("http://"+serverAddr, 10*time.Second)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080", "procheckd admin API address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format: table, json")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(runningCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
