package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studiobook/internal/app"
	"studiobook/internal/config"
	"studiobook/internal/database"
	"studiobook/internal/domain/admin"
	"studiobook/internal/pkg/logger"
	"studiobook/internal/seed"
)

// env is what every subcommand needs; built lazily in PersistentPreRunE.
type env struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func (e *env) close() {
	if e.db != nil {
		_ = database.Close(e.db)
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

func (e *env) app() (*app.App, error) {
	return app.New(e.cfg, e.db, e.log, app.Options{})
}

func newRootCmd() *cobra.Command {
	var configPath string
	e := &env{}

	cmd := &cobra.Command{
		Use:          "studioctl",
		Short:        "Maintenance commands for the studio booking service",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.AppEnv)
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.Database.URL, log, database.Options{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				LogQueries:   cfg.Database.LogQueries,
			})
			if err != nil {
				return err
			}
			e.cfg, e.log, e.db = cfg, log, db
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			e.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (defaults to CONFIG_FILE or ./config.toml)")

	cmd.AddCommand(
		migrateCmd(e),
		seedCmd(e),
		adminCmd(e),
		cleanupCmd(e),
		expireCmd(e),
	)
	return cmd
}

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := database.Migrate(e.db, app.Models()...); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}

func seedCmd(e *env) *cobra.Command {
	var (
		catalogFile string
		adminEmail  string
		adminName   string
		slotDays    int
		skipCatalog bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the service catalog, the first admin and calendar rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.Migrate(e.db, app.Models()...); err != nil {
				return err
			}
			a, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := seed.Options{SlotDays: slotDays}
			if !skipCatalog {
				var data []byte
				if catalogFile != "" {
					if data, err = os.ReadFile(catalogFile); err != nil {
						return fmt.Errorf("read catalog: %w", err)
					}
				}
				if opts.Catalog, err = seed.LoadCatalog(data); err != nil {
					return err
				}
			}
			if adminEmail != "" {
				password := os.Getenv("ADMIN_PASSWORD")
				if password == "" {
					return fmt.Errorf("ADMIN_PASSWORD must be set to seed %s", adminEmail)
				}
				opts.Admin = &admin.CreateRequest{Email: adminEmail, Password: password, Name: adminName}
			}

			res, err := seed.NewSeeder(e.db, a.Admins, e.log).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Printf("services=%d packages=%d admin_created=%t slots=%d\n",
				res.Services, res.Packages, res.AdminCreated, res.Slots)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog (defaults to the built-in one)")
	cmd.Flags().BoolVar(&skipCatalog, "skip-catalog", false, "do not touch services and packages")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "create this admin if missing; password from ADMIN_PASSWORD")
	cmd.Flags().StringVar(&adminName, "admin-name", "Admin Studio", "display name for the seeded admin")
	cmd.Flags().IntVar(&slotDays, "slot-days", 0, "pre-create AVAILABLE calendar rows for this many days")
	return cmd
}

func adminCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}
	c.AddCommand(adminCreateCmd(e))
	return c
}

func adminCreateCmd(e *env) *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account (password read from ADMIN_PASSWORD)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv("ADMIN_PASSWORD")
			if password == "" {
				return fmt.Errorf("ADMIN_PASSWORD must be set")
			}
			a, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			created, err := a.Admins.Create(cmd.Context(), admin.CreateRequest{
				Email:    email,
				Password: password,
				Name:     name,
				Role:     admin.Role(strings.ToUpper(role)),
			})
			if err != nil {
				return err
			}
			fmt.Printf("admin created: id=%s email=%s role=%s\n", created.ID, created.Email, created.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(admin.RoleAdmin), "ADMIN or SUPER_ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func cleanupCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired rate-limit windows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			deleted, err := a.Jobs().CleanupRateLimits(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("rate limit cleanup completed: deleted=%d\n", deleted)
			return nil
		},
	}
}

func expireCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Cancel unpaid bookings whose DP deadline has passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := e.app()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			n, err := a.Jobs().ExpireOverdue(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("overdue bookings expired: %d\n", n)
			return nil
		},
	}
}
