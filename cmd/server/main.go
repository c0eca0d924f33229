package main

import (
	"fmt"
	"os"

	"linkmart/internal/config"
	"linkmart/internal/infrastructure/database"
	"linkmart/internal/infrastructure/logging"
	"linkmart/pkg/idgen"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "linkmart",
	Short:         "Marketplace and social boosting backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads config, configures logging and the id generator, and opens
// the database. Every command starts here.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logging.Init(&cfg.Log)

	if err := idgen.Init(1); err != nil {
		return nil, nil, fmt.Errorf("init id generator: %w", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
