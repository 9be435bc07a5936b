// Package cmd holds the cobra commands of the record sync client.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-record-sync/internal/client"
	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/spf13/cobra"
)

var (
	flags *config.Flags
	app   *client.App
)

var rootCmd = &cobra.Command{
	Use:   "record-sync",
	Short: "record-sync keeps a local record store in sync with a REST API",
	Long: `record-sync mirrors the record types declared in a YAML schema between a
local SQLite store and a remote REST API.

Local changes are pushed as create, update and delete requests. Remote
collections are fetched page by page, and local records the server no longer
lists are removed after a complete fetch.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if app != nil {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.GetClientConfig(flags)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.NewLogger("client", os.Stderr)
	if cfg.App.LogFile != "" {
		log = logger.NewFileLogger("client", cfg.App.LogFile)
	}

	app, err = client.NewApp(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("init client app: %w", err)
	}

	return nil
}

func init() {
	flags = config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(fetchCmd, syncCmd, runCmd, typesCmd, versionCmd)
}
