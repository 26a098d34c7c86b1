package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

type migrateOptions struct {
	dir string
}

// NewMigrateCommand groups the goose subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply and inspect schema migrations",
		Long: `Runs goose against the configured database. Migrations ship embedded in
the binary; --dir points at an on-disk directory instead.`,
	}
	cmd.PersistentFlags().StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")

	for _, goose := range []struct{ use, short string }{
		{"up", "Apply every pending migration"},
		{"down", "Roll back the latest migration"},
		{"status", "Print applied and pending migrations"},
	} {
		command := goose.use
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: goose.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSQLDB(cmd, func(ctx context.Context, sqlDB *sql.DB) error {
					return migrate.Run(ctx, sqlDB, opts.dir, command)
				})
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to an exact version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLDB(cmd, func(ctx context.Context, sqlDB *sql.DB) error {
				return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Write an empty SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.Create(opts.dir, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check migration filenames and goose headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateMigrations(opts.dir); err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
			return nil
		},
	})

	return cmd
}

// validateMigrations prefers the on-disk directory so freshly created files
// are checked before they are embedded.
func validateMigrations(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return migrate.ValidateDir(dir)
	}
	if dir != migrate.DefaultDir {
		return migrate.ValidateDir(dir)
	}
	return migrate.ValidateFS(migrate.Migrations(), "migrations")
}

func withSQLDB(cmd *cobra.Command, fn func(ctx context.Context, sqlDB *sql.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := openRuntime(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	sqlDB, err := rt.sqlDB()
	if err != nil {
		return err
	}

	ctx = rt.logg.WithFields(ctx, map[string]any{"env": rt.cfg.App.Env, "cmd": cmd.CommandPath()})
	rt.logg.Info(ctx, "migrate ready")
	return fn(ctx, sqlDB)
}
