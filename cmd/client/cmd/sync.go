package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push pending local changes to the server",
	Long: `Pushes every record that is pending or failed a previous push, then
waits until each push finished. Records are reported in push order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		results, err := app.Sync(cmd.Context())

		out := cmd.OutOrStdout()
		succeeded := 0
		for _, res := range results {
			if res.Success {
				succeeded++
				continue
			}
			fmt.Fprintf(out, "failed: %v\n", res.Err)
		}
		fmt.Fprintf(out, "pushed %d of %d record(s)\n", succeeded, len(results))

		return err
	},
}
