package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the record types declared in the schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, name := range app.Types() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
