package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync periodically until interrupted",
	Long: `Runs a full sync right away, then pushes pending changes and refetches
every type on the configured interval until SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context())
	},
}
