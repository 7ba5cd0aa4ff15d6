// Package cli implements the reqsign command-line interface using Cobra.
// It provides commands for inspecting resolved cloud credentials and for
// signing requests with them.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/reqsign/reqsign/internal/log"
)

var (
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "reqsign",
	Short: "Reqsign - resolve and inspect cloud credentials",
	Long: `Reqsign resolves AWS and Azure credentials from the environment,
shared profile files, STS token exchange and instance metadata services,
and can sign requests with the result.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(log.Options{
			Verbose:    verbose,
			JSONFormat: jsonOut,
		})
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "log in JSON format")
}
