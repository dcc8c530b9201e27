// Package migrate applies versioned schema migrations to a Cassandra keyspace
// and records them in a keyspace-local history table.
//
// A migration is applied only when its version is greater than the highest
// version already recorded. Migrations older than that are skipped, even if
// they were never applied.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/satishbabariya/cqlmigrate/internal/debug"
	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/executor"
	"github.com/satishbabariya/cqlmigrate/migrate/history"
	"github.com/satishbabariya/cqlmigrate/migrate/version"
)

// Migration is one developer authored schema change.
type Migration interface {
	Name() string
	Version() version.Version
	Description() string
	// Apply performs the schema change through the executor's guarded operations.
	Apply(ctx context.Context, x *executor.Executor) error
}

// ApplyFunc is the body of a migration.
type ApplyFunc func(ctx context.Context, x *executor.Executor) error

type definition struct {
	name        string
	version     version.Version
	description string
	apply       ApplyFunc
}

func (d definition) Name() string             { return d.name }
func (d definition) Version() version.Version { return d.version }
func (d definition) Description() string      { return d.description }
func (d definition) Apply(ctx context.Context, x *executor.Executor) error {
	return d.apply(ctx, x)
}

// Define builds a Migration from plain values.
func Define(name string, v version.Version, description string, apply ApplyFunc) Migration {
	return definition{name: name, version: v, description: description, apply: apply}
}

// Session is the capability the engine needs: statement execution, schema
// metadata and the history store, all scoped to one keyspace.
type Session interface {
	executor.Session
	History() history.Store
}

// Engine is the main migration engine
type Engine struct {
	session    Session
	exec       *executor.Executor
	history    *history.Manager
	migrations []Migration
	logger     *slog.Logger

	resolver      *cqltype.Resolver
	replication   cqlgen.Replication
	durableWrites bool
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMigrations registers migrations. Order does not matter.
func WithMigrations(migrations ...Migration) Option {
	return func(e *Engine) { e.migrations = append(e.migrations, migrations...) }
}

// WithLogger sets the logger. Nil means the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source for history records.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithReplication sets the replication used when the keyspace is created.
func WithReplication(r cqlgen.Replication) Option {
	return func(e *Engine) { e.replication = r }
}

// WithDurableWrites sets durable_writes for keyspace creation.
func WithDurableWrites(durable bool) Option {
	return func(e *Engine) { e.durableWrites = durable }
}

// WithResolver sets the type resolver handed to migrations through the executor.
func WithResolver(r *cqltype.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// New creates a migration engine over session. It validates the catalog and
// makes sure the keyspace and the history table exist.
func New(ctx context.Context, session Session, opts ...Option) (*Engine, error) {
	e := &Engine{
		session:       session,
		replication:   cqlgen.DefaultReplication(),
		durableWrites: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = debug.Or(e.logger).With("keyspace", session.Keyspace())

	if err := validateCatalog(e.migrations); err != nil {
		return nil, err
	}
	sort.SliceStable(e.migrations, func(i, j int) bool {
		return e.migrations[i].Version().Less(e.migrations[j].Version())
	})

	execOpts := []executor.Option{executor.WithLogger(e.logger)}
	if e.resolver != nil {
		execOpts = append(execOpts, executor.WithResolver(e.resolver))
	}
	e.exec = executor.NewExecutor(session, execOpts...)
	e.history = history.NewManager(session.History(), history.WithLogger(e.logger), history.WithClock(e.now))

	e.logger.Debug("ensuring keyspace exists")
	if err := e.exec.CreateKeyspace(ctx, session.Keyspace(), e.replication, e.durableWrites); err != nil {
		return nil, fmt.Errorf("failed to create keyspace %s: %w", session.Keyspace(), err)
	}
	e.logger.Debug("ensuring migration history table exists")
	if err := e.history.InitTable(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func validateCatalog(migrations []Migration) error {
	names := make(map[string]bool, len(migrations))
	versions := make(map[version.Version]string, len(migrations))
	for _, m := range migrations {
		if m == nil {
			return fmt.Errorf("%w: nil migration", ErrInvalidCatalog)
		}
		if m.Name() == "" {
			return fmt.Errorf("%w: migration %s has no name", ErrInvalidCatalog, m.Version())
		}
		if names[m.Name()] {
			return fmt.Errorf("%w: duplicate migration name %q", ErrInvalidCatalog, m.Name())
		}
		if other, ok := versions[m.Version()]; ok {
			return fmt.Errorf("%w: migrations %q and %q share version %s", ErrInvalidCatalog, other, m.Name(), m.Version())
		}
		names[m.Name()] = true
		versions[m.Version()] = m.Name()
	}
	return nil
}

// Executor returns the executor migrations run with.
func (e *Engine) Executor() *executor.Executor {
	return e.exec
}

// Migrate applies every registered migration whose version is greater than
// the latest recorded version, in ascending order, and returns how many were
// applied. The first failure aborts the run; migrations applied before it
// stay recorded.
func (e *Engine) Migrate(ctx context.Context) (int, error) {
	e.logger.Info("starting migration")

	latest, hasLatest, err := e.history.LatestVersion(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, m := range e.migrations {
		log := e.logger.With("migration", m.Name(), "version", m.Version().String())
		if hasLatest && m.Version().LessOrEqual(latest) {
			log.Debug("skipping migration, at or below latest applied version", "latest", latest.String())
			continue
		}

		log.Info("applying migration")
		if err := m.Apply(ctx, e.exec); err != nil {
			log.Error("migration failed", "error", err)
			return count, fmt.Errorf("failed to apply migration %s (%s): %w", m.Name(), m.Version(), err)
		}

		if _, err := e.history.Record(ctx, m.Name(), m.Version(), m.Description()); err != nil {
			return count, err
		}
		count++
	}

	e.logger.Info("migration finished", "applied", count)
	return count, nil
}

// RegisteredMigrations returns the catalog in ascending version order.
func (e *Engine) RegisteredMigrations() []Migration {
	return append([]Migration(nil), e.migrations...)
}

// AppliedMigrations returns the history records, highest version first.
func (e *Engine) AppliedMigrations(ctx context.Context) ([]history.MigrationRecord, error) {
	return e.history.GetAll(ctx)
}

// LatestMigration returns the record with the highest version, or nil if
// nothing has been applied.
func (e *Engine) LatestMigration(ctx context.Context) (*history.MigrationRecord, error) {
	return e.history.Latest(ctx)
}

// Keyspace returns the keyspace the engine migrates.
func (e *Engine) Keyspace() string {
	return e.session.Keyspace()
}
