// Package executor issues schema DDL guarded by existence checks, so every
// operation is a no-op when the desired state already holds.
package executor

import (
	"context"
	"log/slog"

	"github.com/satishbabariya/cqlmigrate/internal/debug"
	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
)

// Session executes statements against one keyspace and reads its metadata.
type Session interface {
	introspect.MetadataReader
	ExecuteStatement(ctx context.Context, stmt string) error
}

// Executor executes guarded schema operations
type Executor struct {
	session  Session
	inspect  *introspect.Introspector
	resolver *cqltype.Resolver
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithResolver sets the type resolver used for host types.
func WithResolver(r *cqltype.Resolver) Option {
	return func(e *Executor) { e.resolver = r }
}

// WithLogger sets the logger. Nil means the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates a new executor over session
func NewExecutor(session Session, opts ...Option) *Executor {
	e := &Executor{
		session:  session,
		inspect:  introspect.New(session),
		resolver: cqltype.NewResolver(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = debug.Or(e.logger).With("keyspace", e.inspect.Keyspace())
	return e
}

// Introspector returns the introspector used for pre-checks.
func (e *Executor) Introspector() *introspect.Introspector {
	return e.inspect
}

// Resolver returns the type resolver.
func (e *Executor) Resolver() *cqltype.Resolver {
	return e.resolver
}

// Keyspace returns the keyspace the executor works in.
func (e *Executor) Keyspace() string {
	return e.inspect.Keyspace()
}

// Execute runs stmt. A failure matching benign is logged and reported as
// success; any other failure is returned unchanged.
func (e *Executor) Execute(ctx context.Context, stmt string, benign Benign) error {
	e.logger.Debug("executing statement", "cql", stmt)
	err := e.session.ExecuteStatement(ctx, stmt)
	if err == nil {
		return nil
	}
	if benign.Match(err) {
		code, _ := ErrorCode(err)
		e.logger.Debug("ignoring benign schema error", "cql", stmt, "code", code, "error", err.Error())
		return nil
	}
	return err
}

// CreateKeyspace creates the keyspace if it does not exist.
func (e *Executor) CreateKeyspace(ctx context.Context, name string, replication cqlgen.Replication, durableWrites bool) error {
	stmt, err := cqlgen.CreateKeyspace(normalize(name), replication, durableWrites)
	if err != nil {
		return err
	}
	return e.Execute(ctx, stmt, BenignCreateKeyspace)
}

func normalize(s string) string {
	return cqltype.Normalize(s)
}
