package cmd

import (
	"github.com/spf13/cobra"

	"healthadmin-backend/database"
	"healthadmin-backend/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the public schema and every tenant schema",
	Example: `  # All tenants
  healthadmin migrate

  # A single tenant
  healthadmin migrate --tenant acme_health`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("tenant", "", "Only migrate this tenant schema")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("migrate")
	tenant, _ := cmd.Flags().GetString("tenant")

	if err := database.Connect(cfg); err != nil {
		return err
	}
	if err := database.AutoMigrate(database.DB); err != nil {
		return err
	}

	if tenant != "" {
		if err := database.MigrateTenantSchema(database.DB, tenant); err != nil {
			return err
		}
		log.Info().Str("schema", tenant).Msg("tenant schema migrated")
		return nil
	}
	return database.MigrateAllTenants(database.DB)
}
