package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthadmin-backend/config"
	"healthadmin-backend/logger"
)

var version = "1.0.0"

// cfg is loaded once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "healthadmin",
	Short: "Health administration backend: invoices, payment batches and claims",
	Long: `healthadmin serves the multi-tenant billing API and runs its maintenance jobs.

Configuration is read from the environment and an optional .env file
(DB_*, JWT_SECRET_KEY, AUDIT_SINK, LOG_*).`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(loaded.LoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
