// Package commands implements the cqlmigrate CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/cqlmigrate/cli/internal/config"
	"github.com/satishbabariya/cqlmigrate/cli/internal/ui"
	"github.com/satishbabariya/cqlmigrate/cli/internal/version"
	"github.com/satishbabariya/cqlmigrate/internal/debug"
	"github.com/satishbabariya/cqlmigrate/migrate"
	"github.com/satishbabariya/cqlmigrate/migrate/cassandra"
	"github.com/satishbabariya/cqlmigrate/migrate/memory"
)

// App is what a migration binary passes to the CLI.
type App struct {
	// Migrations is the catalog applied by "migrate up".
	Migrations []migrate.Migration
	// Session, when set, replaces the session built from the configuration.
	Session migrate.Session
}

// Execute runs the CLI with the given catalog.
func Execute(migrations ...migrate.Migration) error {
	cmd := NewRootCommand(App{Migrations: migrations})
	if err := cmd.Execute(); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

// runner carries the loaded configuration into subcommands.
type runner struct {
	app    App
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand(app App) *cobra.Command {
	r := &runner{app: app}

	cmd := &cobra.Command{
		Use:           "cqlmigrate",
		Short:         "Versioned schema migrations for Cassandra",
		Long:          "cqlmigrate applies versioned, idempotent schema migrations to a Cassandra keyspace",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to config file (default .cqlmigrate.yaml)")
	flags.String("driver", config.DriverCassandra, "Target driver: cassandra or memory")
	flags.StringSlice("hosts", []string{"127.0.0.1"}, "Cassandra contact points")
	flags.Int("port", 9042, "Cassandra native protocol port")
	flags.StringP("keyspace", "k", "", "Target keyspace")
	flags.String("username", "", "Username for password authentication")
	flags.String("password", "", "Password for password authentication")
	flags.String("consistency", "quorum", "Consistency level for schema statements")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")

	cmd.AddCommand(newMigrateCommand(r))
	cmd.AddCommand(newDBCommand(r))
	cmd.AddCommand(newInitCommand(r))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func (r *runner) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := debug.Configure(debug.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return err
	}
	r.cfg = cfg
	r.logger = debug.With("keyspace", cfg.Keyspace)
	return nil
}

// session opens the configured target. The returned func releases it.
func (r *runner) session() (migrate.Session, func(), error) {
	if r.app.Session != nil {
		return r.app.Session, func() {}, nil
	}
	if err := r.cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	switch r.cfg.Driver {
	case config.DriverMemory:
		k := memory.New(r.cfg.Keyspace, memory.WithHistoryTable(r.cfg.HistoryTable))
		return k, func() {}, nil
	default:
		s, err := cassandra.Connect(r.cfg.Cassandra(), r.logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}

// engineOptions returns the engine options derived from the configuration.
// The catalog is not included.
func (r *runner) engineOptions() []migrate.Option {
	return []migrate.Option{
		migrate.WithLogger(r.logger),
		migrate.WithReplication(r.cfg.Replication()),
		migrate.WithDurableWrites(r.cfg.DurableWrites),
	}
}

// engine connects and bootstraps the migration engine.
func (r *runner) engine(ctx context.Context) (*migrate.Engine, func(), error) {
	s, release, err := r.session()
	if err != nil {
		return nil, nil, err
	}

	opts := append(r.engineOptions(), migrate.WithMigrations(r.app.Migrations...))
	engine, err := migrate.New(ctx, s, opts...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return engine, release, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.PrintTable([]string{"", ""}, version.Get().Rows())
		},
	}
}
