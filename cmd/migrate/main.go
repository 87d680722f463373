// Command migrate manages the database schema.
package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fatoora/backend/internal/infrastructure/config"
	"github.com/fatoora/backend/internal/infrastructure/logger"
	"github.com/fatoora/backend/internal/infrastructure/migration"
	"github.com/fatoora/backend/migrations"
)

var (
	migrationsPath string
	logLevel       string
	log            *zap.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Fatoora database migration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			log, err = logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&migrationsPath, "path", "",
		"migrations directory (default: the migrations embedded in the binary)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(func(m *migration.Migrator, _ []string) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE:  withMigrator(func(m *migration.Migrator, _ []string) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "step <n>",
			Short: "Apply n migrations (positive = up, negative = down)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Set the migration version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *migration.Migrator, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(version)
			}),
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create the next numbered migration pair",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := migrationsPath
				if dir == "" {
					dir = "migrations"
				}
				description := ""
				if len(args) > 1 {
					description = args[1]
				}
				mf, err := migration.CreateMigration(dir, args[0], description, time.Now())
				if err != nil {
					return err
				}
				log.Info("Migration created", zap.String("up_file", mf.UpPath), zap.String("down_file", mf.DownPath))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List migrations in the directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := migrationsPath
				if dir == "" {
					dir = "migrations"
				}
				list, err := migration.ListMigrations(dir)
				if err != nil {
					return err
				}
				for _, m := range list {
					fmt.Fprintln(cmd.OutOrStdout(), m)
				}
				return nil
			},
		},
	)
	return root
}

// withMigrator opens the configured database and runs fn with a migrator
func withMigrator(fn func(m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		var src fs.FS = migrations.FS
		if migrationsPath != "" {
			src = os.DirFS(migrationsPath)
		}

		m, err := migration.New(db, src, log)
		if err != nil {
			return err
		}
		defer m.Close()

		return fn(m, args)
	}
}
