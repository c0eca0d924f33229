package main

import (
	"context"
	"errors"
	"os"

	"linkmart/internal/auth"
	"linkmart/internal/config"
	"linkmart/internal/infrastructure/database"
	"linkmart/internal/infrastructure/logging"
	"linkmart/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		logging.Component("migrate").Info("schema up to date")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an administrator account. Registration over HTTP only ever
creates regular users, so the first admin has to come from here.
The password is read from --password or LINKMART_ADMIN_PASSWORD.`,
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("name", "Administrator", "display name")
	createAdminCmd.Flags().String("email", "", "login email")
	createAdminCmd.Flags().String("password", "", "login password")
	_ = createAdminCmd.MarkFlagRequired("email")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("LINKMART_ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("password is required")
	}

	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	authService, err := newAuthService(cfg, db)
	if err != nil {
		return err
	}

	user, err := authService.CreateAdmin(context.Background(), name, email, password)
	if err != nil {
		return err
	}
	logging.Component("create-admin").WithField("user_id", user.ID).Info("admin created")
	return nil
}

func newAuthService(cfg *config.Config, db *gorm.DB) (*service.AuthService, error) {
	tokens, err := auth.NewTokenIssuer(&cfg.JWT)
	if err != nil {
		return nil, err
	}
	return service.NewAuthService(db, tokens, auth.NewPasswordHasher(bcrypt.DefaultCost)), nil
}
