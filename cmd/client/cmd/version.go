package cmd

import (
	"fmt"

	"github.com/MKhiriev/go-record-sync/models"
	"github.com/spf13/cobra"
)

var buildInfo = models.NewAppBuildInfo("", "", "")

// SetBuildInfo records the values injected by the linker.
func SetBuildInfo(version, date, commit string) {
	buildInfo = models.NewAppBuildInfo(version, date, commit)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	// no configuration is needed to print the build info
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprint(cmd.OutOrStdout(), buildInfo)
	},
}
