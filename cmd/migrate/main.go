package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/wazhop/backend/internal/infrastructure/config"
	"github.com/wazhop/backend/internal/infrastructure/logger"
	"github.com/wazhop/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

var (
	migrationsDir string
	logLevel      string
	log           *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "WaZhop database schema migrations",
	Long: `Applies the versioned PostgreSQL schema.

Migrations are embedded in the binary. Pass --path to read them from a
directory instead, which is also where "create" writes new files.
Connection settings come from config.toml and WAZHOP_DATABASE_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"}, "development")
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
		return m.Up()
	}),
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	Args:  cobra.NoArgs,
	RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
		return m.Down()
	}),
}

var stepsCmd = &cobra.Command{
	Use:   "steps <n>",
	Short: "Apply n migrations, or roll back when n is negative",
	Example: `  migrate steps 1
  migrate steps -- -1`,
	Args: cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}),
}

var gotoCmd = &cobra.Command{
	Use:   "goto <version>",
	Short: "Migrate up or down to a specific version",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(v))
	}),
}

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"version"},
	Short:   "Show the applied version and pending migrations",
	Args:    cobra.NoArgs,
	RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
		st, err := m.Status()
		if err != nil {
			return err
		}
		if statusJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		log.Info("Schema status",
			zap.Uint("current", st.Current),
			zap.Uint("latest", st.Latest),
			zap.Bool("dirty", st.Dirty),
			zap.Uints("pending", st.Pending),
		)
		if st.Dirty {
			log.Warn("Database is dirty; fix the failed migration and run force")
		}
		return nil
	}),
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Record a version as applied without running SQL",
	Long:  "Clears the dirty flag after a failed migration has been repaired by hand.",
	Args:  cobra.ExactArgs(1),
	RunE: withMigrator(func(m *migration.Migrator, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)
	}),
}

var dropConfirmed bool

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every table in the database",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if !dropConfirmed {
			return fmt.Errorf("drop destroys all data; rerun with --yes")
		}
		return nil
	},
	RunE: withMigrator(func(m *migration.Migrator, _ []string) error {
		return m.Drop()
	}),
}

var createCmd = &cobra.Command{
	Use:     "create <name> [description]",
	Short:   "Create the next sequential migration pair",
	Example: `  migrate --path migrations create add_boost_columns "Paid product boosts"`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		mf, err := migration.CreateMigration(targetDir(), args[0], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.Uint("version", mf.Version),
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath),
		)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the migrations on disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := migration.ListMigrations(targetDir())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			log.Info("No migrations found", zap.String("dir", targetDir()))
			return nil
		}
		for _, m := range list {
			marker := ""
			if !m.Complete() {
				marker = "  (missing a direction)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%06d  %s%s\n", m.Version, m.Name, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "path", "", "read migrations from this directory instead of the embedded set")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print status as JSON")
	dropCmd.Flags().BoolVar(&dropConfirmed, "yes", false, "confirm dropping all data")

	rootCmd.AddCommand(upCmd, downCmd, stepsCmd, gotoCmd, statusCmd, forceCmd, dropCmd, createCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// targetDir is where create and list operate; the embedded set is read-only
func targetDir() string {
	if migrationsDir != "" {
		return migrationsDir
	}
	return "migrations"
}

// withMigrator opens the configured database and runs fn on a Migrator
func withMigrator(fn func(*migration.Migrator, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Database.Driver != "" && cfg.Database.Driver != "postgres" {
			return fmt.Errorf("migrations target postgres, configured driver is %q", cfg.Database.Driver)
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reach database: %w", err)
		}

		m, err := migration.New(db, migration.Options{Dir: migrationsDir}, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()

		log.Debug("Migrator ready",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.DBName),
		)
		return fn(m, args)
	}
}
