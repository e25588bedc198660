package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-button/internal/config"
	"github.com/oshokin/release-button/internal/registry"
	"github.com/oshokin/release-button/internal/service/publisher"
	"github.com/oshokin/release-button/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for building and publishing an artifact.
	rootCmd = &cobra.Command{
		Use:   "release-publish [tag]",
		Short: "Build a distributable package and upload it to the registry",
		Long: "Build a distributable package from the current manifest state and upload it " +
			"to the configured registry. The upload credential is read from the " +
			publisher.CredentialEnvVar + " environment variable and is never logged.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &publisher.Options{
				ConfigPath: configPath,
				TagName:    args[0],
				Credential: registry.NewCredential(os.Getenv(publisher.CredentialEnvVar)),
			}

			_, err := publisher.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the release-publish CLI and exits with non-zero status on error.
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
