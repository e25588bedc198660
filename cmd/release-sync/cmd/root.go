package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-button/internal/config"
	"github.com/oshokin/release-button/internal/service/syncer"
	"github.com/oshokin/release-button/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for synchronizing the manifest version.
	rootCmd = &cobra.Command{
		Use:   "release-sync [release-ref]",
		Short: "Rewrite the manifest version from a release tag and push the bump",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &syncer.Options{
				ConfigPath: configPath,
				ReleaseRef: args[0],
			}

			_, err := syncer.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the release-sync CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
